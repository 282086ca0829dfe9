// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ripple/internal/model"
	"github.com/morganforge/ripple/internal/stream"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case StreamUpdateMsg:
		return m.handleStreamUpdate(msg)

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case SessionSavedMsg:
		return m.handleSaved(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey dispatches keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, m.teardown()
	case key.Matches(msg, m.keyMap.Submit):
		cmd := m.submit()
		return m, cmd
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize recomputes the component layout for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.Resize(width, height)

	// Header, input box (3 rows with border), and status bar.
	chrome := 1 + 3 + 1
	vpHeight := height - chrome
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 6
	m.ready = true
	m.refreshViewport()
}

// =============================================================================
// SUBMIT
// =============================================================================

// submit sends the current input as a user message and opens a stream for
// the reply. Empty input and input during a live exchange are no-ops that
// leave the draft untouched.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runCommand(text)
	}
	m.input.Reset()
	m.infoText = ""

	// The prior exchange is terminal by now; Close is an idempotent
	// release of whatever it still holds.
	if m.active != nil {
		m.active.Close()
		m.active = nil
	}

	m.session.Append(model.NewMessage(model.RoleUser, text))
	m.session.Append(model.NewMessage(model.RoleAssistant, ""))
	m.placeholderIdx = len(m.session.Messages) - 1
	m.busy = true

	ch := make(chan tea.Msg, 64)
	m.streamCh = ch
	sess := stream.New(m.transport,
		func(buf string) { ch <- StreamUpdateMsg{Buffer: buf} },
		func(err error) { ch <- StreamDoneMsg{Err: err} },
	)
	m.active = sess

	if err := sess.Open(context.Background(), text, m.session.ID); err != nil {
		m.logger.Errorf("stream open: %v", err)
		m.busy = false
		m.active = nil
		m.infoText = m.theme.ErrorText.Render("could not open stream: " + err.Error())
		m.refreshViewport()
		return m.requestSave()
	}

	m.logger.Debugf("stream opened for session %d", m.session.ID)
	m.refreshViewport()
	return tea.Batch(waitForStream(ch), m.spinner.Tick, m.requestSave())
}

// =============================================================================
// STREAM EVENT HANDLERS
// =============================================================================

// handleStreamUpdate overwrites the assistant placeholder with the merged
// buffer and re-arms the relay. Late updates from an abandoned exchange
// are dropped.
func (m Model) handleStreamUpdate(msg StreamUpdateMsg) (tea.Model, tea.Cmd) {
	if !m.busy || m.placeholderIdx >= len(m.session.Messages) {
		return m, nil
	}
	m.session.Messages[m.placeholderIdx].Content = msg.Buffer
	m.refreshViewport()
	return m, tea.Batch(waitForStream(m.streamCh), m.requestSave())
}

// handleStreamDone clears the busy indicator and flushes any coalesced
// save. A failure surfaces as a transient notice; the partial reply (if
// any) stays in the conversation.
func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if !m.busy {
		return m, nil
	}
	m.busy = false
	m.active = nil
	m.streamCh = nil

	if msg.Err != nil {
		m.logger.Errorf("stream failed: %v", msg.Err)
		m.infoText = m.theme.ErrorText.Render("stream failed: " + msg.Err.Error())
	}

	m.refreshViewport()
	return m, m.forceSave()
}

// handleSaved records save completion and runs the coalesced follow-up
// save when mutations arrived mid-write.
func (m Model) handleSaved(msg SessionSavedMsg) (tea.Model, tea.Cmd) {
	m.saving = false
	if msg.Err != nil {
		// Persistence is advisory; the conversation lives on in memory.
		m.logger.Warnf("save failed: %v", msg.Err)
	}
	if m.savePending {
		m.savePending = false
		m.saving = true
		return m, saveSession(m.store, m.session)
	}
	return m, nil
}

// =============================================================================
// PERSISTENCE SCHEDULING
// =============================================================================

// requestSave schedules a save for the latest mutation. At most one save
// command is in flight; excess requests coalesce into a single pending
// flush, and the rate limiter bounds database churn during fast streams.
func (m *Model) requestSave() tea.Cmd {
	if m.saving || !m.saveLimiter.Allow() {
		m.savePending = true
		return nil
	}
	m.saving = true
	return saveSession(m.store, m.session)
}

// forceSave bypasses the rate limiter for settle points: stream
// completion, stream failure, and teardown.
func (m *Model) forceSave() tea.Cmd {
	if m.saving {
		m.savePending = true
		return nil
	}
	m.saving = true
	m.savePending = false
	return saveSession(m.store, m.session)
}

// flushSave persists the current session unconditionally, bypassing the
// in-flight guard. It exists for session swaps: a coalesced pending flush
// would run against whichever session is current when the in-flight write
// lands, so the outgoing conversation must be snapshotted before the swap.
func (m *Model) flushSave() tea.Cmd {
	m.savePending = false
	m.saving = true
	return saveSession(m.store, m.session)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// runCommand executes a slash command typed into the input.
func (m *Model) runCommand(text string) tea.Cmd {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/q":
		return m.teardown()

	case "/new":
		return m.startNewSession()

	case "/sessions", "/list":
		m.infoText = m.formatSessionList()
		m.refreshViewport()
		return nil

	case "/load":
		if len(fields) < 2 {
			m.infoText = m.theme.HelpText.Render("usage: /load <session-id>")
			m.refreshViewport()
			return nil
		}
		return m.loadSession(fields[1])

	case "/help":
		m.infoText = m.theme.HelpText.Render(
			"/new  start a conversation   /sessions  list saved\n" +
				"/load <id>  resume a session   /quit  exit")
		m.refreshViewport()
		return nil

	default:
		m.infoText = m.theme.HelpText.Render("unknown command: " + fields[0])
		m.refreshViewport()
		return nil
	}
}

// startNewSession abandons the active stream (if any) and begins a fresh
// conversation. The outgoing conversation gets a final save first.
func (m *Model) startNewSession() tea.Cmd {
	m.abandonStream()
	var cmd tea.Cmd
	if len(m.session.Messages) > 0 {
		cmd = m.flushSave()
	}
	m.session = model.NewSession()
	m.placeholderIdx = 0
	m.infoText = ""
	m.refreshViewport()
	return cmd
}

// loadSession switches to a saved conversation by id.
func (m *Model) loadSession(arg string) tea.Cmd {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		m.infoText = m.theme.ErrorText.Render("invalid session id: " + arg)
		m.refreshViewport()
		return nil
	}
	if m.store == nil {
		return nil
	}
	sess, err := m.store.Load(id)
	if err != nil {
		m.logger.Warnf("load session %d: %v", id, err)
		m.infoText = m.theme.ErrorText.Render(fmt.Sprintf("session %d not found", id))
		m.refreshViewport()
		return nil
	}

	m.abandonStream()
	cmd := m.flushSave() // outgoing conversation
	m.session = sess
	m.infoText = ""
	m.refreshViewport()
	return cmd
}

// formatSessionList renders the saved-session index for display.
func (m *Model) formatSessionList() string {
	if m.store == nil {
		return m.theme.HelpText.Render("no session store configured")
	}
	metas := m.store.List()
	if len(metas) == 0 {
		return m.theme.HelpText.Render("no saved sessions")
	}
	var b strings.Builder
	b.WriteString(m.theme.HelpText.Render("saved sessions (newest first):"))
	for _, meta := range metas {
		b.WriteString("\n  ")
		b.WriteString(m.theme.SessionID.Render(strconv.FormatInt(meta.ID, 10)))
		b.WriteString("  ")
		b.WriteString(m.theme.SessionPreview.Render(meta.Preview))
		b.WriteString("  ")
		b.WriteString(m.theme.SessionMeta.Render(meta.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// =============================================================================
// TEARDOWN
// =============================================================================

// abandonStream closes the live exchange, if any, and drops its relay
// channel so late events are ignored.
func (m *Model) abandonStream() {
	if m.active != nil {
		m.active.Close()
		m.active = nil
	}
	m.busy = false
	m.streamCh = nil
}

// teardown closes the active stream, persists the conversation one last
// time, and quits. The final save is synchronous: the process must not
// exit with the last mutation unwritten.
func (m *Model) teardown() tea.Cmd {
	m.abandonStream()
	if m.store != nil && len(m.session.Messages) > 0 {
		if err := m.store.Save(m.session); err != nil {
			m.logger.Warnf("final save failed: %v", err)
		}
	}
	return tea.Quit
}
