// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fakegpt/internal/export"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/reveal"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/speech"
	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Controller *session.Controller
	Theme      *styles.Theme

	// ModelName is shown in the header.
	ModelName string

	RevealInterval time.Duration
	SidebarWidth   int
	ShowSidebar    bool

	Speaker     speech.Speaker
	Listener    speech.Listener
	SpeakAlways bool

	ExportOptions *export.Options
	ExportFormat  export.Format

	// Notice is shown once at startup, e.g. after a corrupt history file
	// was set aside.
	Notice string

	// Clipboard replaces the system clipboard; nil uses atotto/clipboard.
	Clipboard func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

type inputMode int

const (
	modeChat inputMode = iota
	modeSearch
	modeRename
)

// frameInterval paces screen updates during a reveal.
const frameInterval = 33 * time.Millisecond

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctrl  *session.Controller
	theme *styles.Theme
	keys  KeyMap

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width, height int
	ready         bool

	modelName    string
	showSidebar  bool
	sidebarWidth int

	mode     inputMode
	query    string
	selected int // position within the filtered sidebar list
	renaming int // completed index being renamed
	viewing  int // completed index shown read-only, -1 for the active session

	fetching bool
	pending  string // prompt shown while its reply is fetched
	errText  string // display-only failure line, never stored
	notice   string

	slot     *revealSlot
	interval time.Duration

	speaker     speech.Speaker
	listener    speech.Listener
	speakAlways bool
	listening   bool

	exportOpts   *export.Options
	exportFormat export.Format
	copy         func(string) error
}

// New creates the chat screen. The controller's reset hook is registered so
// that starting a new session or shutting down cancels a running reveal.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}

	ti := textinput.New()
	ti.Placeholder = "Ask anything..."
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	interval := opts.RevealInterval
	if interval <= 0 {
		interval = reveal.DefaultInterval
	}
	width := opts.SidebarWidth
	if width <= 0 {
		width = 28
	}

	var spk speech.Speaker = speech.Nop{}
	if opts.Speaker != nil {
		spk = opts.Speaker
	}
	var lst speech.Listener = speech.Nop{}
	if opts.Listener != nil {
		lst = opts.Listener
	}

	exportOpts := opts.ExportOptions
	if exportOpts == nil {
		exportOpts = export.DefaultOptions()
	}
	format := opts.ExportFormat
	if format == "" {
		format = export.FormatPDF
	}

	cp := opts.Clipboard
	if cp == nil {
		cp = clipboard.WriteAll
	}

	slot := &revealSlot{}
	if opts.Controller != nil {
		opts.Controller.OnReset(slot.cancel)
	}

	return Model{
		ctrl:         opts.Controller,
		theme:        theme,
		keys:         DefaultKeyMap(),
		input:        ti,
		viewport:     viewport.New(80, 20),
		spinner:      sp,
		modelName:    opts.ModelName,
		showSidebar:  opts.ShowSidebar,
		sidebarWidth: width,
		viewing:      -1,
		notice:       opts.Notice,
		slot:         slot,
		interval:     interval,
		speaker:      spk,
		listener:     lst,
		speakAlways:  opts.SpeakAlways,
		exportOpts:   exportOpts,
		exportFormat: format,
		copy:         cp,
	}
}

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// =============================================================================
// COMMANDS
// =============================================================================

func submitCmd(ctrl *session.Controller, prompt string, voice bool) tea.Cmd {
	return func() tea.Msg {
		ex, err := ctrl.Submit(context.Background(), prompt)
		return replyMsg{exchange: ex, err: err, voice: voice}
	}
}

func listenCmd(l speech.Listener) tea.Cmd {
	return func() tea.Msg {
		text, err := l.Listen(context.Background())
		return listenMsg{text: text, err: err}
	}
}

func speakCmd(s speech.Speaker, text string) tea.Cmd {
	return func() tea.Msg {
		return speakDoneMsg{err: s.Say(context.Background(), text)}
	}
}

func exportCmd(sess model.Session, format export.Format, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		path, err := export.ExportSession(&sess, format, "", opts)
		return exportDoneMsg{path: path, err: err}
	}
}
