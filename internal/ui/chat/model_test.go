// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ripple/internal/logging"
	"github.com/morganforge/ripple/internal/model"
	"github.com/morganforge/ripple/internal/render"
	"github.com/morganforge/ripple/internal/storage"
	"github.com/morganforge/ripple/internal/stream"
	"github.com/morganforge/ripple/internal/ui/styles"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// scriptConn replays a fixed payload sequence, then returns errAfter
// (io.EOF by default).
type scriptConn struct {
	mu       sync.Mutex
	payloads []string
	pos      int
	closed   bool
	errAfter error
}

func (c *scriptConn) Read() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos < len(c.payloads) {
		p := c.payloads[c.pos]
		c.pos++
		return p, nil
	}
	if c.errAfter != nil {
		return "", c.errAfter
	}
	return "", io.EOF
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type scriptTransport struct {
	conn *scriptConn
}

func (t scriptTransport) Open(ctx context.Context, sessionID int64, message string) (stream.Conn, error) {
	return t.conn, nil
}

// stallConn blocks reads until closed, simulating a hung backend.
type stallConn struct {
	done chan struct{}
	once sync.Once
}

func newStallConn() *stallConn {
	return &stallConn{done: make(chan struct{})}
}

func (c *stallConn) Read() (string, error) {
	<-c.done
	return "", io.EOF
}

func (c *stallConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

type stallTransport struct {
	conn *stallConn
}

func (t stallTransport) Open(ctx context.Context, sessionID int64, message string) (stream.Conn, error) {
	return t.conn, nil
}

func newTestModel(t *testing.T, transport stream.Transport, store *storage.ConversationStore) Model {
	t.Helper()
	theme := styles.NewTheme()
	return New(theme, render.New(80), store, transport, logging.Discard(), "welcome")
}

func newTestStore() *storage.ConversationStore {
	return storage.NewConversationStore(storage.NewMemKV())
}

// drive executes commands returned by Update, feeding resulting messages
// back in, until the command queue drains. Spinner ticks and cursor blinks
// are dropped so the loop terminates.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	deadline := time.Now().Add(5 * time.Second)
	for len(queue) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("drive did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.QuitMsg:
			continue
		}
		var next tea.Cmd
		var tm tea.Model
		tm, next = m.Update(msg)
		m = tm.(Model)
		queue = append(queue, next)
	}
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return tm.(Model), cmd
}

// =============================================================================
// END-TO-END EXCHANGE
// =============================================================================

func TestSubmitStreamsAndPersists(t *testing.T) {
	conn := &scriptConn{payloads: []string{"Hel", "lo!", "[DONE]"}}
	store := newTestStore()
	m := newTestModel(t, scriptTransport{conn}, store)

	m.input.SetValue("hi")
	m, cmd := pressEnter(m)

	if !m.Busy() {
		t.Fatal("expected busy after submit")
	}
	if got := len(m.session.Messages); got != 2 {
		t.Fatalf("expected user + placeholder, got %d messages", got)
	}
	if m.session.Messages[0].Role != model.RoleUser || m.session.Messages[0].Content != "hi" {
		t.Errorf("user message wrong: %+v", m.session.Messages[0])
	}
	if m.session.Messages[1].Role != model.RoleAssistant || m.session.Messages[1].Content != "" {
		t.Errorf("placeholder wrong: %+v", m.session.Messages[1])
	}

	m = drive(t, m, cmd)

	if m.Busy() {
		t.Error("busy should clear after [DONE]")
	}
	if got := m.session.Messages[1].Content; got != "Hello!" {
		t.Errorf("assistant content = %q, want %q", got, "Hello!")
	}
	if !conn.closed {
		t.Error("connection not closed after sentinel")
	}

	// The exchange must have been persisted.
	saved, err := store.Load(m.session.ID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if len(saved.Messages) != 2 || saved.Messages[1].Content != "Hello!" {
		t.Errorf("persisted session wrong: %+v", saved.Messages)
	}
}

func TestStreamFailureKeepsConversation(t *testing.T) {
	// EOF before any content is a failure, not a completion.
	conn := &scriptConn{payloads: nil}
	m := newTestModel(t, scriptTransport{conn}, newTestStore())

	m.input.SetValue("hi")
	m, cmd := pressEnter(m)
	m = drive(t, m, cmd)

	if m.Busy() {
		t.Error("busy should clear on failure")
	}
	if got := len(m.session.Messages); got != 2 {
		t.Fatalf("conversation should keep both messages, got %d", got)
	}
	if m.session.Messages[1].Content != "" {
		t.Errorf("placeholder should stay empty, got %q", m.session.Messages[1].Content)
	}
	if m.infoText == "" {
		t.Error("failure should surface a notice")
	}
}

func TestCloseAfterContentIsCompletion(t *testing.T) {
	// Connection drop after content: heuristic says completed.
	conn := &scriptConn{payloads: []string{"partial answer"}}
	m := newTestModel(t, scriptTransport{conn}, newTestStore())

	m.input.SetValue("hi")
	m, cmd := pressEnter(m)
	m = drive(t, m, cmd)

	if m.Busy() {
		t.Error("busy should clear")
	}
	if m.infoText != "" {
		t.Errorf("close after content must not be an error, got %q", m.infoText)
	}
	if got := m.session.Messages[1].Content; got != "partial answer" {
		t.Errorf("content = %q", got)
	}
}

// =============================================================================
// SUBMIT GUARDS
// =============================================================================

func TestEmptySubmitIsNoOp(t *testing.T) {
	m := newTestModel(t, scriptTransport{&scriptConn{}}, newTestStore())

	m.input.SetValue("   ")
	m, cmd := pressEnter(m)

	if cmd != nil {
		t.Error("whitespace submit should produce no command")
	}
	if len(m.session.Messages) != 0 {
		t.Error("whitespace submit should append nothing")
	}
}

func TestSubmitWhileBusyPreservesDraft(t *testing.T) {
	conn := newStallConn()
	m := newTestModel(t, stallTransport{conn}, newTestStore())

	m.input.SetValue("first")
	m, _ = pressEnter(m)
	if !m.Busy() {
		t.Fatal("expected busy")
	}

	m.input.SetValue("second")
	m, cmd := pressEnter(m)
	if cmd != nil {
		t.Error("submit while busy should produce no command")
	}
	if got := len(m.session.Messages); got != 2 {
		t.Errorf("busy submit appended messages: %d", got)
	}
	if m.input.Value() != "second" {
		t.Errorf("draft lost: %q", m.input.Value())
	}

	conn.Close()
}

// =============================================================================
// SLASH COMMANDS AND TEARDOWN
// =============================================================================

func TestNewCommandStartsFreshSession(t *testing.T) {
	conn := &scriptConn{payloads: []string{"answer", "[DONE]"}}
	store := newTestStore()
	m := newTestModel(t, scriptTransport{conn}, store)

	m.input.SetValue("hi")
	m, cmd := pressEnter(m)
	m = drive(t, m, cmd)
	oldID := m.session.ID

	m.input.SetValue("/new")
	m, cmd = pressEnter(m)
	m = drive(t, m, cmd)

	if m.session.ID == oldID {
		t.Error("expected a fresh session id")
	}
	if len(m.session.Messages) != 0 {
		t.Error("fresh session should be empty")
	}
	// The outgoing conversation must remain loadable.
	if _, err := store.Load(oldID); err != nil {
		t.Errorf("prior session lost: %v", err)
	}
}

func TestNewCommandFlushesOutgoingMidWrite(t *testing.T) {
	// A write is still in flight when /new swaps the session out. The
	// outgoing conversation's completed reply must be snapshotted before
	// the swap; the coalesced follow-up runs against the new session.
	conn := &scriptConn{payloads: []string{"Hello!", "[DONE]"}}
	store := newTestStore()
	m := newTestModel(t, scriptTransport{conn}, store)

	// Submit, holding the scheduled write instead of running it so the
	// exchange completes while the save is still in flight.
	m.input.SetValue("hi")
	m, held := pressEnter(m)
	if !m.saving {
		t.Fatal("expected a write in flight after submit")
	}

	tm, _ := m.Update(StreamUpdateMsg{Buffer: "Hello!"})
	m = tm.(Model)
	tm, _ = m.Update(StreamDoneMsg{})
	m = tm.(Model)
	oldID := m.session.ID

	m.input.SetValue("/new")
	m, flush := pressEnter(m)
	if flush == nil {
		t.Fatal("session swap should schedule a flush")
	}

	// The held write (a stale snapshot) lands first, then the flush.
	m = drive(t, m, held)
	m = drive(t, m, flush)

	saved, err := store.Load(oldID)
	if err != nil {
		t.Fatalf("outgoing session not persisted: %v", err)
	}
	if len(saved.Messages) != 2 || saved.Messages[1].Content != "Hello!" {
		t.Errorf("completed reply lost: %+v", saved.Messages)
	}
}

func TestQuitClosesStreamAndSaves(t *testing.T) {
	conn := newStallConn()
	store := newTestStore()
	m := newTestModel(t, stallTransport{conn}, store)

	m.input.SetValue("hi")
	m, _ = pressEnter(m)

	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = tm.(Model)
	if cmd == nil {
		t.Fatal("quit should produce a command")
	}
	if msg := cmd(); msg == nil {
		t.Fatal("expected quit message")
	}

	select {
	case <-conn.done:
	default:
		t.Error("teardown did not close the connection")
	}
	if _, err := store.Load(m.session.ID); err != nil {
		t.Errorf("teardown did not persist the session: %v", err)
	}
}

// =============================================================================
// STARTUP RESTORE
// =============================================================================

func TestStartupResumesMostRecent(t *testing.T) {
	store := newTestStore()
	sess := model.NewSession()
	sess.Append(model.NewMessage(model.RoleUser, "earlier question"))
	sess.Append(model.NewMessage(model.RoleAssistant, "earlier answer"))
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	m := newTestModel(t, scriptTransport{&scriptConn{}}, store)

	if m.session.ID != sess.ID {
		t.Fatalf("expected resumed session %d, got %d", sess.ID, m.session.ID)
	}
	if len(m.session.Messages) != 2 {
		t.Errorf("resumed session has %d messages", len(m.session.Messages))
	}
}

func TestStartupWithEmptyStoreShowsWelcome(t *testing.T) {
	m := newTestModel(t, scriptTransport{&scriptConn{}}, newTestStore())

	if len(m.session.Messages) != 0 {
		t.Error("fresh start should have no messages")
	}
	if view := m.transcript(); view == "" {
		t.Error("welcome transcript should not be empty")
	}
}
