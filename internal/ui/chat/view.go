// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/ripple/internal/model"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  starting ripple..."
	}
	var b strings.Builder
	b.WriteString(m.theme.Header.Render("ripple"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.theme.InputContainer.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	return b.String()
}

// statusBar renders the bottom status line.
func (m Model) statusBar() string {
	var status string
	if m.busy {
		status = m.theme.StatusBusy.Render(m.spinner.View() + " streaming")
	} else {
		status = m.theme.StatusIdle.Render("ready")
	}
	help := m.theme.HelpText.Render("Enter send · /help commands · Esc quit")
	gap := m.width - lipgloss.Width(status) - lipgloss.Width(help) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Render(status + strings.Repeat(" ", gap) + help)
}

// refreshViewport rebuilds the conversation transcript and pins the view
// to the newest content.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

// transcript renders the message history. Assistant content goes through
// the markdown renderer; user content is shown exactly as typed.
func (m *Model) transcript() string {
	if len(m.session.Messages) == 0 {
		out := m.theme.WelcomeText.Render(m.welcomeText)
		if m.infoText != "" {
			out += "\n" + m.infoText
		}
		return out
	}

	var b strings.Builder
	for i, msg := range m.session.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(i, msg))
		b.WriteString("\n")
	}
	if m.infoText != "" {
		b.WriteString("\n")
		b.WriteString(m.infoText)
	}
	return b.String()
}

// renderMessage renders one message with its role label.
func (m *Model) renderMessage(idx int, msg model.Message) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	default:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	var body string
	switch {
	case m.busy && idx == m.placeholderIdx && msg.Content == "":
		body = m.theme.ThinkingText.Render(m.spinner.View() + " thinking...")
	case msg.Role == model.RoleAssistant:
		body = m.renderer.Assistant(msg.Content)
	default:
		body = m.theme.MessageBody.Render(m.renderer.User(msg.Content))
	}

	return label + " " + stamp + "\n" + body
}
