// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/ui/render"
	"github.com/jeranaias/fakegpt/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

// Rows used around the viewport: header, notice, input border, input, status.
const chromeRows = 5

// sidebarVisible reports whether the terminal is wide enough for the sidebar.
func (m *Model) sidebarVisible() bool {
	return m.showSidebar && m.width >= m.sidebarWidth+40
}

func (m *Model) mainWidth() int {
	w := m.width
	if m.sidebarVisible() {
		w -= m.sidebarWidth + 1
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) layout() {
	h := m.height - chromeRows
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.mainWidth()
	m.viewport.Height = h
	m.input.Width = m.mainWidth() - 4
}

// =============================================================================
// CONVERSATION
// =============================================================================

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	if m.ctrl == nil {
		return
	}
	m.viewport.SetContent(m.conversation())
	if m.viewing < 0 {
		m.viewport.GotoBottom()
	}
}

func (m *Model) conversation() string {
	width := m.mainWidth() - 4
	sess := m.shownSession()

	var blocks []string
	for i, turn := range sess.Turns {
		body := turn.Text
		last := i == len(sess.Turns)-1
		if last && m.viewing < 0 && turn.Role == model.RoleModel {
			if prefix, ok := m.slot.shown(sess.ID); ok {
				body = prefix
			}
		}
		blocks = append(blocks, m.renderTurn(turn.Role, body, width))
	}

	if m.viewing < 0 {
		if m.fetching && m.pending != "" && !endsWithPrompt(sess, m.pending) {
			blocks = append(blocks, m.renderTurn(model.RoleUser, m.pending, width))
		}
		if m.fetching {
			blocks = append(blocks, m.theme.Typing.Render(m.spinner.View()+" typing..."))
		}
		if m.listening {
			blocks = append(blocks, m.theme.Typing.Render(m.spinner.View()+" listening..."))
		}
		if m.errText != "" {
			label := m.theme.ModelLabel.Render(model.RoleModel.DisplayName())
			blocks = append(blocks, label+"\n"+m.theme.ErrorTurn.Render(m.errText))
		}
	}

	if len(blocks) == 0 {
		return m.theme.Notice.Render("Start a conversation by typing below.")
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderTurn(role model.Role, body string, width int) string {
	if role == model.RoleUser {
		label := m.theme.UserLabel.Render(role.DisplayName())
		return label + "\n" + m.theme.UserTurn.Width(width).Render(body)
	}
	label := m.theme.ModelLabel.Render(role.DisplayName())
	return label + "\n" + m.theme.ModelTurn.Render(render.Reply(m.theme, body, width-2))
}

// endsWithPrompt reports whether the session's last turn is the pending
// prompt, i.e. the controller has already recorded it.
func endsWithPrompt(sess model.Session, prompt string) bool {
	last, ok := sess.LastTurn()
	return ok && last.Role == model.RoleUser && last.Text == prompt
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.noticeView(),
		m.theme.InputContainer.Width(m.mainWidth()).Render(m.inputView()),
		m.statusView(),
	)

	if !m.sidebarVisible() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), main)
}

func (m *Model) headerView() string {
	title := "fakegpt"
	if m.modelName != "" {
		title += " - " + m.modelName
	}
	if m.viewing >= 0 {
		sess := m.shownSession()
		title += fmt.Sprintf("  [chat %d: %s, read-only]", m.viewing, sess.DisplayTitle())
	}
	return m.theme.Header.Render(util.TruncateWidth(title, m.mainWidth()-2))
}

func (m *Model) noticeView() string {
	return m.theme.Notice.Render(util.TruncateWidth(m.notice, m.mainWidth()))
}

func (m *Model) inputView() string {
	switch m.mode {
	case modeSearch:
		return m.theme.SidebarSearch.Render("search ") + m.input.View()
	case modeRename:
		return m.theme.SidebarSearch.Render(fmt.Sprintf("rename %d ", m.renaming)) + m.input.View()
	}
	return m.input.View()
}

func (m *Model) statusView() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.Shortcut(h.Key, h.Desc))
	}
	line := strings.Join(parts, "  ")
	return m.theme.StatusBar.Render(util.TruncateWidth(line, m.mainWidth()-2))
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m *Model) sidebarView() string {
	inner := m.sidebarWidth - 2
	lines := []string{m.theme.SidebarTitle.Render("Chats")}

	if m.query != "" || m.mode == modeSearch {
		lines = append(lines, m.theme.SidebarSearch.Render(util.TruncateWidth("/"+m.query, inner)))
	}

	titles := m.ctrl.Titles()
	filtered := m.filtered()
	if len(filtered) == 0 {
		msg := "No saved chats"
		if m.query != "" {
			msg = "No matches"
		}
		lines = append(lines, m.theme.SidebarEmpty.Render(msg))
	}

	for pos, idx := range filtered {
		if idx >= len(titles) {
			continue
		}
		label := util.SingleLine(fmt.Sprintf("%d %s", idx, titles[idx]))
		entry := util.PadRight(util.TruncateWidth(label, inner), inner)
		switch {
		case pos == m.selected:
			entry = m.theme.SidebarItemSelected.Render(entry)
		case idx == m.viewing:
			entry = m.theme.SidebarItemActive.Render(entry)
		default:
			entry = m.theme.SidebarItem.Render(entry)
		}
		lines = append(lines, entry)
	}

	active := m.ctrl.Active()
	if !active.IsEmpty() {
		lines = append(lines, "", m.theme.SidebarItemActive.Render(util.TruncateWidth("* "+active.DisplayTitle(), inner)))
	}

	return m.theme.Sidebar.
		Width(m.sidebarWidth).
		Height(m.height).
		Render(strings.Join(lines, "\n"))
}
