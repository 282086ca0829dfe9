// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines all Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Streaming: reply buffer updates and stream completion
//   - Persistence: save confirmations
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamUpdateMsg delivers the full reply buffer after a chunk was merged.
// The buffer replaces the assistant placeholder wholesale; deltas are never
// applied incrementally on the UI side.
type StreamUpdateMsg struct {
	Buffer string
}

// StreamDoneMsg signals that the active stream reached a terminal state.
// Err is nil for completion and non-nil for failure.
type StreamDoneMsg struct {
	Err error
}

// =============================================================================
// PERSISTENCE MESSAGES
// =============================================================================

// SessionSavedMsg confirms an asynchronous save operation.
type SessionSavedMsg struct {
	Err error
}
