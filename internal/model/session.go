// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"math/rand"
	"time"

	"github.com/morganforge/ripple/internal/util"
)

// previewWidth is the display width of index previews.
const previewWidth = 64

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one logical conversation: a numeric id and an ordered message
// list. Messages are only ever appended; removal happens solely through
// session deletion.
type Session struct {
	ID          int64     `json:"id"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewSession creates an empty session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:          NewSessionID(),
		LastUpdated: time.Now(),
	}
}

// Append adds a message and bumps the update time.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.LastUpdated = time.Now()
}

// Preview returns a one-line summary of the most recent message, suitable
// for the session index.
func (s *Session) Preview() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Content != "" {
			line := util.CollapseNewlines(s.Messages[i].Content)
			return util.TruncateWidth(line, previewWidth)
		}
	}
	return ""
}

// =============================================================================
// SESSION META
// =============================================================================

// SessionMeta is a denormalized index entry: enough to pick a session
// without loading its message bodies.
type SessionMeta struct {
	ID        int64     `json:"id"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// SESSION ID GENERATION
// =============================================================================

// NewSessionID generates a session identifier by combining the current time
// with a random suffix, reduced to a fixed 15-digit decimal value.
//
// Collision probability is treated as negligible, not eliminated: two
// sessions created in the same millisecond with the same random suffix
// would collide. The id stays numeric because it travels on the wire as
// the memoryId request parameter.
func NewSessionID() int64 {
	const width = 1_000_000_000_000_000 // 15 digits

	ms := time.Now().UnixMilli()
	suffix := rand.Int63n(1000)
	return (ms*1000 + suffix) % width
}
