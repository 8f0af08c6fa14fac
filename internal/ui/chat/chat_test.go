// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fakegpt/internal/llm"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/reveal"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/storage"
	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

type fixture struct {
	ctrl    *session.Controller
	copied  []string
	spoken  []string
	replies []string
	failErr error
}

type fakeSpeaker struct{ f *fixture }

func (s fakeSpeaker) Say(_ context.Context, text string) error {
	s.f.spoken = append(s.f.spoken, text)
	return nil
}

type fakeListener struct {
	text string
	err  error
}

func (l fakeListener) Listen(context.Context) (string, error) { return l.text, l.err }

func newTestModel(t *testing.T, listener fakeListener) (Model, *fixture) {
	t.Helper()
	f := &fixture{}
	fetcher := llm.Wrap("test", llm.FetcherFunc(func(_ context.Context, _ []model.Turn, prompt string) (string, error) {
		if f.failErr != nil {
			return "", f.failErr
		}
		if len(f.replies) > 0 {
			r := f.replies[0]
			f.replies = f.replies[1:]
			return r, nil
		}
		return "echo: " + prompt, nil
	}))
	store := storage.NewHistoryStore(filepath.Join(t.TempDir(), "chat_history.json"))
	f.ctrl = session.NewController(store, fetcher)
	require.NoError(t, f.ctrl.Load())

	m := New(Options{
		Controller:     f.ctrl,
		Theme:          styles.NewTheme("dark"),
		ModelName:      "test-model",
		RevealInterval: time.Millisecond,
		ShowSidebar:    true,
		Speaker:        fakeSpeaker{f: f},
		Listener:       listener,
		Clipboard: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, f
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// send types prompt, presses enter and delivers the reply.
func send(t *testing.T, m Model, prompt string) Model {
	t.Helper()
	m.input.SetValue(prompt)
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, m.fetching)
	return update(t, m, cmd())
}

// finishReveal drives the running reveal to the end.
func finishReveal(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; i < 10000; i++ {
		id := m.slot.id
		if m.slot.current(id) == nil {
			return m
		}
		m = update(t, m, revealTickMsg{id: id})
	}
	t.Fatal("reveal did not finish")
	return m
}

func plain(m Model) string {
	return ansi.Strip(m.conversation())
}

func TestSubmit_RevealsReply(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	f.replies = []string{"Hello there, friend"}

	m = send(t, m, "  hi  ")
	assert.False(t, m.fetching)

	// Mid-reveal the view holds a strict prefix of the reply.
	m = update(t, m, revealTickMsg{id: m.slot.id})
	mid := plain(m)
	assert.Contains(t, mid, "hi")

	m = finishReveal(t, m)
	out := plain(m)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "Hello there, friend")

	active := f.ctrl.Active()
	require.Equal(t, 2, active.Len())
	assert.Equal(t, "hi", active.Turns[0].Text)
}

func TestSubmit_EmptyPromptIgnored(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	m.input.SetValue("   ")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.fetching)
	assert.True(t, f.ctrl.Active().IsEmpty())
}

func TestSubmit_ErrorShownNotStored(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	f.failErr = errors.New("quota exceeded")

	m = send(t, m, "hello")
	out := plain(m)
	assert.Contains(t, out, "[Error]:")
	assert.Contains(t, out, "quota exceeded")

	active := f.ctrl.Active()
	require.Equal(t, 1, active.Len())
	assert.Equal(t, model.RoleUser, active.Turns[0].Role)
	assert.Equal(t, "hello", active.Turns[0].Text)
}

func TestNewChat_CancelsReveal(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	f.replies = []string{strings.Repeat("long reply ", 50)}

	m = send(t, m, "first")
	id := m.slot.id
	require.NotNil(t, m.slot.current(id))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Nil(t, m.slot.current(id))
	assert.True(t, f.ctrl.Active().IsEmpty())
	assert.Len(t, f.ctrl.Completed(), 1)

	// A stale tick for the cancelled reveal is ignored.
	m, cmd := updateCmd(t, m, revealTickMsg{id: id})
	assert.Nil(t, cmd)
	assert.NotContains(t, plain(m), "long reply")
}

func TestCopyCode(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	f.replies = []string{"Try:\n```go\nfmt.Println(1)\n```"}

	m = send(t, m, "code please")
	m = finishReveal(t, m)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})

	require.Len(t, f.copied, 1)
	assert.Equal(t, "fmt.Println(1)", f.copied[0])
	assert.Equal(t, "Copied code to clipboard", m.notice)
}

func TestCopyCode_NoReply(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Empty(t, f.copied)
	assert.Equal(t, "No reply to copy from", m.notice)
}

func TestOpenAndRename(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	m = finishReveal(t, send(t, m, "alpha question"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = finishReveal(t, send(t, m, "beta question"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Len(t, f.ctrl.Completed(), 2)

	// Select the first chat and open it read-only.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, 0, m.viewing)
	assert.Contains(t, plain(m), "alpha question")

	// Rename it.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, modeRename, m.mode)
	m.input.SetValue("Alpha")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeChat, m.mode)
	assert.Equal(t, "Alpha", f.ctrl.Titles()[0])

	// Esc returns to the active session.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, -1, m.viewing)
}

func TestSearchFiltersSidebar(t *testing.T) {
	m, _ := newTestModel(t, fakeListener{})
	m = finishReveal(t, send(t, m, "golang generics"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = finishReveal(t, send(t, m, "python decorators"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.Equal(t, modeSearch, m.mode)
	for _, r := range "PYTH" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, []int{1}, m.filtered())

	side := ansi.Strip(m.sidebarView())
	assert.Contains(t, side, "python")
	assert.NotContains(t, side, "golang")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeChat, m.mode)
	assert.Len(t, m.filtered(), 2)
}

func TestSlashTypesWhenInputNotEmpty(t *testing.T) {
	m, _ := newTestModel(t, fakeListener{})
	m.input.SetValue("a")
	m.input.CursorEnd()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	assert.Equal(t, modeChat, m.mode)
	assert.Equal(t, "a/", m.input.Value())
}

func TestVoiceInput_SpeaksReply(t *testing.T) {
	m, f := newTestModel(t, fakeListener{text: "what time is it"})
	f.replies = []string{"Noon."}

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	assert.True(t, m.listening)

	m, cmd = updateCmd(t, m, cmd())
	require.NotNil(t, cmd)
	assert.True(t, m.fetching)

	reply := cmd().(replyMsg)
	assert.True(t, reply.voice)
	_, cmd = updateCmd(t, m, reply)

	var sawSpeak bool
	for _, msg := range runAll(cmd) {
		if _, ok := msg.(speakDoneMsg); ok {
			sawSpeak = true
		}
	}
	assert.True(t, sawSpeak)
	assert.Equal(t, []string{"Noon."}, f.spoken)
	assert.Equal(t, "what time is it", f.ctrl.Active().Turns[0].Text)
}

func TestTypedPrompt_NotSpoken(t *testing.T) {
	m, f := newTestModel(t, fakeListener{})
	m.input.SetValue("typed")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd = updateCmd(t, m, cmd())

	runAll(cmd)
	assert.Empty(t, f.spoken)
}

// runAll executes cmd, expanding batches, and returns the messages.
func runAll(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runAll(c)...)
	}
	return out
}

func TestVoiceInput_Error(t *testing.T) {
	m, f := newTestModel(t, fakeListener{err: errors.New("could not understand audio")})

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	m = update(t, m, cmd())

	assert.False(t, m.listening)
	assert.Contains(t, plain(m), "[Error]: could not understand audio")
	assert.True(t, f.ctrl.Active().IsEmpty())
}

func TestExport_NothingToExport(t *testing.T) {
	m, _ := newTestModel(t, fakeListener{})
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to export yet", m.notice)
}

func TestExport_WritesFile(t *testing.T) {
	m, _ := newTestModel(t, fakeListener{})
	m.exportOpts.OutputDir = t.TempDir()
	m.exportFormat = "md"

	m = finishReveal(t, send(t, m, "export me"))
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.NotNil(t, cmd)

	done := cmd().(exportDoneMsg)
	require.NoError(t, done.err)
	assert.FileExists(t, done.path)

	m = update(t, m, done)
	assert.True(t, strings.HasPrefix(m.notice, "Exported to "))
}

func TestStepsPerFrame(t *testing.T) {
	assert.Equal(t, 8, stepsPerFrame(4*time.Millisecond))
	assert.Equal(t, 1, stepsPerFrame(50*time.Millisecond))
	assert.Equal(t, 1, stepsPerFrame(0))
}

func TestAdvance_FramesCoverWholeReply(t *testing.T) {
	text := strings.Repeat("abcdefghij", 3)
	r := reveal.New(text)

	frames := 0
	shown := ""
	for {
		more := advance(r, stepsPerFrame(4*time.Millisecond))
		frames++
		require.True(t, strings.HasPrefix(r.Shown(), shown))
		shown = r.Shown()
		if !more {
			break
		}
	}
	assert.Equal(t, 4, frames, "8 prefixes per frame")
	assert.Equal(t, text, shown)
}

func TestView_Renders(t *testing.T) {
	m, _ := newTestModel(t, fakeListener{})
	out := ansi.Strip(m.View())
	assert.Contains(t, out, "fakegpt - test-model")
	assert.Contains(t, out, "Chats")
	assert.Contains(t, out, "No saved chats")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.NotContains(t, ansi.Strip(m.View()), "No saved chats")
}
