// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

// Reserved payload values on the chat stream. Everything else is content.
const (
	// DoneSentinel signals end of stream; distinct from content.
	DoneSentinel = "[DONE]"

	// Heartbeat tokens keep the connection alive and carry no content.
	heartbeatPing      = "ping"
	heartbeatKeepalive = "keepalive"
)

// EventKind classifies an inbound payload.
type EventKind int

const (
	// EventContent is a text chunk of the assistant's reply.
	EventContent EventKind = iota
	// EventDone is the end-of-stream sentinel.
	EventDone
	// EventHeartbeat is a keepalive payload, ignored.
	EventHeartbeat
	// EventEmpty is an empty payload, ignored.
	EventEmpty
)

// Classify maps a raw payload to its event kind.
func Classify(payload string) EventKind {
	switch payload {
	case "":
		return EventEmpty
	case DoneSentinel:
		return EventDone
	case heartbeatPing, heartbeatKeepalive:
		return EventHeartbeat
	default:
		return EventContent
	}
}
