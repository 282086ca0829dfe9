// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream owns one streaming request/response exchange with the
// chat backend.
//
// A Session translates raw push-connection events into merge operations on
// a growing reply buffer plus lifecycle callbacks, through the state
// machine:
//
//	Idle → Connecting → Streaming → {Completed, Failed} → Closed
//
// Completion versus failure on a transport close is decided by a
// best-effort heuristic: the transport conflates graceful server-side
// termination with genuine connection failure, so a close after at least
// one content chunk is treated as benign completion and a close with no
// chunks as failure. Misclassification costs at worst a diagnostic, never
// data corruption.
package stream

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/morganforge/ripple/internal/sse"
	"github.com/morganforge/ripple/internal/textmerge"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAlreadyOpen is returned when Open is called while a prior
	// exchange on this session is still live. The caller must Close the
	// previous exchange first; two concurrent streams would corrupt the
	// ordering of a shared reply buffer.
	ErrAlreadyOpen = errors.New("stream already open")

	// ErrNoData is reported when the connection closed before any
	// content chunk arrived.
	ErrNoData = errors.New("stream closed before any content arrived")
)

// =============================================================================
// STATE
// =============================================================================

// State is the observable lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateFailed
	StateClosed
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// TRANSPORT ABSTRACTION
// =============================================================================

// Conn is one open push connection delivering ordered payloads.
type Conn interface {
	// Read returns the next payload; io.EOF means the server closed
	// the stream.
	Read() (string, error)
	Close() error
}

// Transport opens push connections. *sse.Client satisfies it via the
// Dial adapter below.
type Transport interface {
	Open(ctx context.Context, sessionID int64, message string) (Conn, error)
}

// Dial wraps an sse.Client as a Transport.
func Dial(client *sse.Client) Transport {
	return dialer{client}
}

type dialer struct{ client *sse.Client }

func (d dialer) Open(ctx context.Context, sessionID int64, message string) (Conn, error) {
	return d.client.Open(ctx, sessionID, message)
}

// =============================================================================
// SESSION
// =============================================================================

// Session manages exactly one active push connection at a time and folds
// its content events into a reply buffer via textmerge.Merge.
//
// Callbacks run on the reader goroutine; callers marshal them onto their
// own event loop (the chat view forwards them as Bubble Tea messages).
type Session struct {
	mu     sync.Mutex
	state  State
	conn   Conn
	cancel context.CancelFunc

	buffer string
	chunks int

	transport Transport
	onUpdate  func(buffer string)
	onDone    func(err error)
	doneOnce  sync.Once
}

// New creates an idle session. onUpdate receives the full buffer after
// every applied chunk; onDone fires exactly once with nil for completion
// or an error for failure.
func New(transport Transport, onUpdate func(string), onDone func(error)) *Session {
	if onUpdate == nil {
		onUpdate = func(string) {}
	}
	if onDone == nil {
		onDone = func(error) {}
	}
	return &Session{
		state:     StateIdle,
		transport: transport,
		onUpdate:  onUpdate,
		onDone:    onDone,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Content returns the reply buffer accumulated so far.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// Open starts the exchange: Idle → Connecting, then a reader goroutine
// drives the remaining transitions. A Session carries one exchange; Open on
// anything but an idle session fails fast with ErrAlreadyOpen, and the
// caller must Close the prior session before opening a new one.
func (s *Session) Open(ctx context.Context, text string, sessionID int64) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	ctx, cancel := context.WithCancel(ctx)
	s.state = StateConnecting
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, text, sessionID)
	return nil
}

// run owns the connection from dial to teardown.
func (s *Session) run(ctx context.Context, text string, sessionID int64) {
	conn, err := s.transport.Open(ctx, sessionID, text)
	if err != nil {
		s.finish(StateFailed, err)
		return
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Closed while dialing.
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	for {
		payload, err := conn.Read()
		if err != nil {
			s.finishOnClose(err)
			return
		}

		switch sse.Classify(payload) {
		case sse.EventDone:
			s.finish(StateCompleted, nil)
			return
		case sse.EventHeartbeat, sse.EventEmpty:
			// Keepalives are ignored: no merge, no state transition.
		case sse.EventContent:
			if !s.applyChunk(payload) {
				return
			}
		}
	}
}

// applyChunk merges one content chunk into the buffer and emits an update.
// Returns false when the session is no longer live (late events are no-ops).
func (s *Session) applyChunk(chunk string) bool {
	s.mu.Lock()
	if s.state != StateConnecting && s.state != StateStreaming {
		s.mu.Unlock()
		return false
	}
	s.state = StateStreaming
	s.buffer = textmerge.Merge(s.buffer, chunk)
	s.chunks++
	buf := s.buffer
	s.mu.Unlock()

	s.onUpdate(buf)
	return true
}

// finishOnClose classifies a transport close: with at least one content
// chunk received it is a benign completion, otherwise a failure.
func (s *Session) finishOnClose(readErr error) {
	s.mu.Lock()
	received := s.chunks
	s.mu.Unlock()

	if received > 0 {
		s.finish(StateCompleted, nil)
		return
	}
	if readErr == io.EOF || readErr == nil {
		readErr = ErrNoData
	}
	s.finish(StateFailed, readErr)
}

// finish records the terminal state, tears the connection down, and fires
// the done callback. Late calls (after Close) are no-ops.
func (s *Session) finish(terminal State, err error) {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateCompleted || s.state == StateFailed {
		s.mu.Unlock()
		return
	}
	s.state = terminal
	conn := s.conn
	s.conn = nil
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	s.doneOnce.Do(func() { s.onDone(err) })
}

// Close releases the connection from any state. Idempotent; this is the
// single resource-release path and always fires the done callback (once)
// so the caller can clear its busy indicator.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.conn = nil
	cancel := s.cancel
	s.cancel = nil
	s.state = StateClosed
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if cancel != nil {
		cancel()
	}

	s.doneOnce.Do(func() { s.onDone(nil) })
}
