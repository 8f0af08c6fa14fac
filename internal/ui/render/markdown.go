// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders whole documents with glamour. The underlying renderer is
// rebuilt only when the wrap width changes.
type Markdown struct {
	mu    sync.Mutex
	dark  bool
	width int
	r     *glamour.TermRenderer
}

// NewMarkdown creates a renderer using the dark or light standard style.
func NewMarkdown(dark bool) *Markdown {
	return &Markdown{dark: dark}
}

func (m *Markdown) renderer(width int) *glamour.TermRenderer {
	if width <= 0 {
		width = 80
	}
	if m.r != nil && m.width == width {
		return m.r
	}

	style := "dark"
	if !m.dark {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.r = r
	m.width = width
	return r
}

// Render returns text styled for a terminal, or text unchanged when
// rendering fails.
func (m *Markdown) Render(text string, width int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.renderer(width)
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
