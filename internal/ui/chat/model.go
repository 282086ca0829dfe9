// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/morganforge/ripple/internal/logging"
	"github.com/morganforge/ripple/internal/model"
	"github.com/morganforge/ripple/internal/render"
	"github.com/morganforge/ripple/internal/storage"
	"github.com/morganforge/ripple/internal/stream"
	"github.com/morganforge/ripple/internal/ui/styles"
)

// savesPerSecond caps how often mid-stream mutations hit the database.
// Mutations above the cap are coalesced into a pending save that flushes
// when the stream settles.
const savesPerSecond = 10

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It owns the active
// conversation, drives one stream exchange at a time, and persists every
// conversation mutation (coalesced under load).
type Model struct {
	// Styling and rendering
	theme    *styles.Theme
	renderer *render.Renderer

	// Dimensions
	width  int
	height int
	ready  bool

	// Conversation
	session *model.Session

	// Active stream exchange. Exactly one placeholder message is live
	// while busy; placeholderIdx points at it.
	transport      stream.Transport
	active         *stream.Session
	streamCh       chan tea.Msg
	busy           bool
	placeholderIdx int

	// Persistence
	store       *storage.ConversationStore
	saveLimiter *rate.Limiter
	saving      bool // a save command is in flight
	savePending bool // a mutation arrived while saving or rate-limited

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Transient info block rendered below the conversation, cleared on
	// the next submit. Used for /sessions output and stream errors.
	infoText string

	welcomeText string
	logger      *logging.Logger
}

// New creates a chat model. The most recent saved conversation is loaded
// when one exists; otherwise a fresh session greets with welcomeText.
func New(theme *styles.Theme, renderer *render.Renderer, store *storage.ConversationStore, transport stream.Transport, logger *logging.Logger, welcomeText string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	if logger == nil {
		logger = logging.Discard()
	}

	m := Model{
		theme:       theme,
		renderer:    renderer,
		store:       store,
		transport:   transport,
		saveLimiter: rate.NewLimiter(rate.Limit(savesPerSecond), 1),
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
		welcomeText: welcomeText,
		logger:      logger,
	}
	m.session = m.restoreOrCreate()
	m.refreshViewport()
	return m
}

// restoreOrCreate resumes the most recently updated conversation, falling
// back to a fresh session when none exists or the record is unreadable.
func (m *Model) restoreOrCreate() *model.Session {
	if m.store != nil {
		meta, err := m.store.MostRecent()
		if err == nil {
			sess, err := m.store.Load(meta.ID)
			if err == nil {
				m.logger.Infof("resumed session %d (%d messages)", sess.ID, len(sess.Messages))
				return sess
			}
			m.logger.Warnf("session %d unreadable, starting fresh: %v", meta.ID, err)
		}
	}
	return model.NewSession()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Session exposes the current conversation, mainly for final teardown
// persistence by the caller.
func (m Model) Session() *model.Session {
	return m.session
}

// Busy reports whether a stream exchange is live.
func (m Model) Busy() bool {
	return m.busy
}
