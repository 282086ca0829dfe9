// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render is the markdown boundary for message display.
//
// Only assistant content is trusted as rich text; user content is always
// shown literally. The asymmetry is deliberate and must not be relaxed:
// rendering user input as markup would let pasted text restyle the
// conversation.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// Renderer turns assistant markdown into terminal markup.
type Renderer struct {
	term *glamour.TermRenderer
}

// New creates a renderer wrapping at the given width. A glamour
// initialization failure degrades to plain-text passthrough rather than
// erroring: display is never worth failing startup over.
func New(wrapWidth int) *Renderer {
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(wrapWidth),
		styleOption(termenv.ColorProfile()),
	)
	if err != nil {
		term = nil
	}
	return &Renderer{term: term}
}

// styleOption picks the glamour style for the detected color profile.
// Ascii terminals get the undecorated no-TTY style.
func styleOption(profile termenv.Profile) glamour.TermRendererOption {
	if profile == termenv.Ascii {
		return glamour.WithStandardStyle(styles.NoTTYStyle)
	}
	return glamour.WithAutoStyle()
}

// Assistant renders assistant markdown. Returns the raw content whenever
// rendering is unavailable or fails.
func (r *Renderer) Assistant(content string) string {
	if r.term == nil || content == "" {
		return content
	}
	rendered, err := r.term.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// User returns user content untouched, always literal.
func (r *Renderer) User(content string) string {
	return content
}
