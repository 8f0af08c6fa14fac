// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/ui/render"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		return m.handleReply(msg)

	case revealTickMsg:
		return m.handleRevealTick(msg)

	case listenMsg:
		return m.handleListen(msg)

	case speakDoneMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("speech playback failed")
			m.notice = "Speech failed: " + msg.err.Error()
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = "Export failed: " + msg.err.Error()
		} else {
			m.notice = "Exported to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.fetching || m.listening {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeRename:
		return m.handleRenameKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.viewing >= 0 {
			m.viewing = -1
			m.refresh()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit(m.input.Value(), false)

	case key.Matches(msg, m.keys.NewChat):
		m.startNewSession()
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		m.beginRename()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m.exportShown()

	case key.Matches(msg, m.keys.Copy):
		m.copyCode()
		return m, nil

	case key.Matches(msg, m.keys.Listen):
		if m.fetching || m.listening {
			return m, nil
		}
		m.listening = true
		m.errText = ""
		m.refresh()
		return m, listenCmd(m.listener)

	case key.Matches(msg, m.keys.Sidebar):
		m.showSidebar = !m.showSidebar
		m.layout()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Search) && (msg.String() != "/" || m.input.Value() == ""):
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Open):
		m.openSelected()
		return m, nil

	case msg.String() == "pgup" || msg.String() == "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.query = ""
		m.mode = modeChat
		m.selected = 0
		m.input.Reset()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.mode = modeChat
		m.input.Reset()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.query = m.input.Value()
	m.selected = 0
	return m, cmd
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeChat
		m.input.Reset()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		title := m.input.Value()
		m.mode = modeChat
		m.input.Reset()
		if err := m.ctrl.RenameSession(m.renaming, title); errors.Is(err, session.ErrNotSaved) {
			m.notice = fmt.Sprintf("Renamed chat %d, history not saved", m.renaming)
		} else if err != nil {
			m.notice = "Rename failed: " + err.Error()
		} else {
			m.notice = fmt.Sprintf("Renamed chat %d", m.renaming)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends prompt. voice marks prompts that came from voice input; their
// replies are spoken.
func (m Model) submit(raw string, voice bool) (tea.Model, tea.Cmd) {
	prompt := session.NormalizePrompt(raw)
	if prompt == "" {
		return m, nil
	}
	if m.fetching {
		m.notice = "Still waiting for the previous reply"
		return m, nil
	}

	m.viewing = -1
	m.errText = ""
	m.notice = ""
	m.pending = prompt
	m.fetching = true
	m.input.Reset()
	m.refresh()

	log.Debug().Int("len", len(prompt)).Bool("voice", voice).Msg("prompt submitted")
	return m, submitCmd(m.ctrl, prompt, voice)
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.fetching = false
	m.pending = ""

	if msg.exchange.Reply == "" {
		switch {
		case errors.Is(msg.err, session.ErrDiscarded):
			m.notice = "A late reply was dropped"
		case errors.Is(msg.err, session.ErrBusy):
			m.notice = "Still waiting for the previous reply"
		case msg.err != nil:
			m.errText = "[Error]: " + msg.err.Error()
		}
		m.refresh()
		return m, nil
	}

	if msg.err != nil {
		m.notice = "History not saved: " + msg.err.Error()
	}

	id := m.slot.start(msg.exchange.SessionID, msg.exchange.Reply)
	cmds := []tea.Cmd{revealTick(id, m.interval)}
	if msg.voice || m.speakAlways {
		cmds = append(cmds, speakCmd(m.speaker, msg.exchange.Reply))
	}
	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m Model) handleRevealTick(msg revealTickMsg) (tea.Model, tea.Cmd) {
	r := m.slot.current(msg.id)
	if r == nil {
		m.refresh()
		return m, nil
	}

	more := advance(r, stepsPerFrame(m.interval))
	if !more {
		m.slot.finish(msg.id)
	}
	m.refresh()
	if !more {
		return m, nil
	}
	return m, revealTick(msg.id, m.interval)
}

func (m Model) handleListen(msg listenMsg) (tea.Model, tea.Cmd) {
	m.listening = false
	if msg.err != nil {
		m.errText = "[Error]: " + msg.err.Error()
		m.refresh()
		return m, nil
	}
	return m.submit(msg.text, true)
}

func (m *Model) startNewSession() {
	if err := m.ctrl.StartNewSession(); err != nil {
		if errors.Is(err, session.ErrBusy) {
			m.notice = "Wait for the reply before starting a new chat"
			return
		}
		m.notice = "History not saved: " + err.Error()
	}
	m.viewing = -1
	m.errText = ""
	m.selected = len(m.filtered()) - 1
	if m.selected < 0 {
		m.selected = 0
	}
	m.refresh()
}

func (m *Model) beginRename() {
	idx, ok := m.selectedIndex()
	if !ok {
		m.notice = "Select a saved chat to rename"
		return
	}
	sess, err := m.ctrl.Session(idx)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.mode = modeRename
	m.renaming = idx
	m.input.SetValue(sess.DisplayTitle())
	m.input.CursorEnd()
}

func (m *Model) openSelected() {
	idx, ok := m.selectedIndex()
	if !ok {
		return
	}
	m.viewing = idx
	m.errText = ""
	m.refresh()
	m.viewport.GotoTop()
}

func (m Model) exportShown() (tea.Model, tea.Cmd) {
	sess := m.shownSession()
	if sess.IsEmpty() {
		m.notice = "Nothing to export yet"
		return m, nil
	}
	m.notice = "Exporting..."
	return m, exportCmd(sess, m.exportFormat, m.exportOpts)
}

func (m *Model) copyCode() {
	sess := m.shownSession()
	turn, ok := sess.LastModelTurn()
	if !ok {
		m.notice = "No reply to copy from"
		return
	}
	if err := m.copy(render.FirstCodeBlock(turn.Text)); err != nil {
		m.notice = "Copy failed: " + err.Error()
		return
	}
	m.notice = "Copied code to clipboard"
}

// =============================================================================
// SELECTION
// =============================================================================

func (m *Model) filtered() []int {
	if m.ctrl == nil {
		return nil
	}
	return m.ctrl.Search(m.query)
}

func (m *Model) selectedIndex() (int, bool) {
	list := m.filtered()
	if m.selected < 0 || m.selected >= len(list) {
		return 0, false
	}
	return list[m.selected], true
}

func (m *Model) moveSelection(delta int) {
	n := len(m.filtered())
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= n {
		m.selected = n - 1
	}
}

// shownSession returns the session in the conversation view.
func (m *Model) shownSession() model.Session {
	if m.viewing >= 0 {
		if sess, err := m.ctrl.Session(m.viewing); err == nil {
			return sess
		}
	}
	return m.ctrl.Active()
}
