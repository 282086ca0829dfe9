// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea commands bridging background work
// (stream reader goroutine, database writes) into the update loop.
package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ripple/internal/model"
	"github.com/morganforge/ripple/internal/storage"
)

// waitForStream relays the next event from the stream reader goroutine.
// The handler re-arms it after every StreamUpdateMsg so exactly one relay
// command is pending per live exchange.
func waitForStream(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// saveSession persists a snapshot of the conversation off the update loop.
// The snapshot is taken here, before the command runs, so later mutations
// cannot race the encoder.
func saveSession(store *storage.ConversationStore, sess *model.Session) tea.Cmd {
	snapshot := *sess
	snapshot.Messages = append([]model.Message(nil), sess.Messages...)
	return func() tea.Msg {
		if store == nil {
			return SessionSavedMsg{}
		}
		return SessionSavedMsg{Err: store.Save(&snapshot)}
	}
}
