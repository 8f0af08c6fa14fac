// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/fakegpt/internal/export"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/reveal"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/speech"
	"github.com/jeranaias/fakegpt/internal/ui/render"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a REPL.
type Options struct {
	Controller *session.Controller

	// Input defaults to a liner line editor, Out to stdout.
	Input LineReader
	Out   io.Writer

	ModelName      string
	RevealInterval time.Duration

	Speaker     speech.Speaker
	Listener    speech.Listener
	SpeakAlways bool

	ExportOptions *export.Options
	ExportFormat  export.Format

	// Notice is printed after the welcome banner.
	Notice string

	// Clipboard replaces the system clipboard; nil uses atotto/clipboard.
	Clipboard func(string) error

	// Markdown renders /open output; nil prints sessions as plain text.
	Markdown *render.Markdown
	Width    int
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the plain chat loop. It is driven from a single goroutine; only
// the reveal in progress is shared with the controller's reset hook.
type REPL struct {
	ctrl *session.Controller
	in   LineReader
	out  io.Writer

	modelName string
	interval  time.Duration

	speaker     speech.Speaker
	listener    speech.Listener
	speakAlways bool

	exportOpts   *export.Options
	exportFormat export.Format
	copy         func(string) error

	markdown *render.Markdown
	width    int
	notice   string

	// viewing is the completed session last printed by /open, -1 after a
	// prompt is sent.
	viewing int

	mu      sync.Mutex
	playing *reveal.Reveal

	closeOnce sync.Once
	closeErr  error
}

// NewREPL creates a REPL and registers its reveal with the controller so a
// new chat or shutdown stops it.
func NewREPL(opts Options) *REPL {
	r := &REPL{
		ctrl:         opts.Controller,
		in:           opts.Input,
		out:          opts.Out,
		modelName:    opts.ModelName,
		interval:     opts.RevealInterval,
		speaker:      opts.Speaker,
		listener:     opts.Listener,
		speakAlways:  opts.SpeakAlways,
		exportOpts:   opts.ExportOptions,
		exportFormat: opts.ExportFormat,
		copy:         opts.Clipboard,
		markdown:     opts.Markdown,
		width:        opts.Width,
		notice:       opts.Notice,
		viewing:      -1,
	}
	if r.in == nil {
		r.in = NewLineEditor()
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.modelName == "" {
		r.modelName = "Model"
	}
	if r.interval <= 0 {
		r.interval = reveal.DefaultInterval
	}
	if r.speaker == nil {
		r.speaker = speech.Nop{}
	}
	if r.listener == nil {
		r.listener = speech.Nop{}
	}
	if r.exportOpts == nil {
		r.exportOpts = export.DefaultOptions()
	}
	if r.exportFormat == "" {
		r.exportFormat = export.FormatPDF
	}
	if r.copy == nil {
		r.copy = clipboard.WriteAll
	}
	if r.width <= 0 {
		r.width = GetTerminalWidth()
	}

	r.ctrl.OnReset(r.stopReveal)
	return r
}

// Run reads prompts until /quit, end of input or Ctrl+C at the prompt.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.in.Prompt(promptStyle.Render("you> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C), io.EOF (Ctrl+D) or a closed input
			fmt.Fprintln(r.out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			cont, err := r.handleSlashCommand(ctx, input)
			if err != nil {
				r.printError(err)
			}
			if !cont {
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		r.submit(ctx, input, false)
	}
}

// Close seals the active session and releases the line editor. It is safe
// to call more than once.
func (r *REPL) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.ctrl.OnShutdown()
		if err := r.in.Close(); err != nil {
			log.Debug().Err(err).Msg("line editor close failed")
		}
	})
	return r.closeErr
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// submit sends one prompt and reveals the reply. Ctrl+C while the reply is
// fetched or revealed cancels only that exchange.
func (r *REPL) submit(ctx context.Context, prompt string, voice bool) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r.viewing = -1
	fmt.Fprintln(r.out, infoStyle.Render(r.modelName+" is typing..."))

	ex, err := r.ctrl.Submit(ctx, prompt)
	if ex.Reply == "" {
		var verr *session.ValidationError
		switch {
		case errors.As(err, &verr):
			r.printError(err)
		case err != nil:
			fmt.Fprintln(r.out, modelLabelStyle.Render(model.RoleModel.DisplayName()+":"))
			fmt.Fprintln(r.out, modelErrorStyle.Render("[Error]: "+err.Error()))
			fmt.Fprintln(r.out)
		}
		return
	}

	fmt.Fprintln(r.out, modelLabelStyle.Render(model.RoleModel.DisplayName()+":"))
	r.play(ctx, ex.Reply)
	if err != nil {
		r.printWarning("History not saved: " + err.Error())
	}

	if voice || r.speakAlways {
		if err := r.speaker.Say(ctx, ex.Reply); err != nil {
			r.printError(err)
		}
	}
}

// play writes text one rune at a time at the reveal interval.
func (r *REPL) play(ctx context.Context, text string) {
	rv := reveal.New(text)
	r.mu.Lock()
	r.playing = rv
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if r.playing == rv {
			r.playing = nil
		}
		r.mu.Unlock()
	}()

	prev := ""
	err := reveal.Run(ctx, rv, r.interval, func(prefix string) {
		io.WriteString(r.out, reveal.Delta(prev, prefix))
		prev = prefix
	})
	fmt.Fprintln(r.out)
	if err != nil || rv.Cancelled() {
		fmt.Fprintln(r.out, warningStyle.Render("[Cancelled]"))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) stopReveal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing != nil {
		r.playing.Cancel()
	}
}

// listen captures one prompt by voice and submits it. The reply is spoken.
func (r *REPL) listen(ctx context.Context) {
	fmt.Fprintln(r.out, infoStyle.Render("listening..."))
	text, err := r.listener.Listen(ctx)
	if err != nil {
		fmt.Fprintln(r.out, modelErrorStyle.Render("[Error]: "+err.Error()))
		fmt.Fprintln(r.out)
		return
	}
	text = session.NormalizePrompt(text)
	if text == "" {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", userLabelStyle.Render(model.RoleUser.DisplayName()+":"), text)
	r.submit(ctx, text, true)
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, welcomeStyle.Render("fakegpt"))
	fmt.Fprintln(r.out, infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Fprintf(r.out, "%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(r.modelName))
	fmt.Fprintf(r.out, "%s %d\n", infoStyle.Render("Sessions:"), len(r.ctrl.Completed()))
	if r.notice != "" {
		r.printWarning(r.notice)
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(r.out)
}

func (r *REPL) printError(err error) {
	fmt.Fprintf(r.out, "%s %v\n", errorStyle.Render("[Error]"), err)
}

func (r *REPL) printWarning(msg string) {
	fmt.Fprintln(r.out, warningStyle.Render("[Warning] "+msg))
}

func (r *REPL) printOK(msg string) {
	fmt.Fprintln(r.out, commandStyle.Render("[OK] "+msg))
}

// printSession writes every turn of sess under a role heading.
func (r *REPL) printSession(index int, sess model.Session) {
	fmt.Fprintln(r.out, headerStyle.Render(fmt.Sprintf("[%d] %s", index, sess.DisplayTitle())))
	fmt.Fprintln(r.out)

	if r.markdown != nil {
		fmt.Fprintln(r.out, r.markdown.Render(SessionMarkdown(sess), r.width))
		fmt.Fprintln(r.out)
		return
	}
	for _, turn := range sess.Turns {
		label := userLabelStyle
		if turn.Role == model.RoleModel {
			label = modelLabelStyle
		}
		fmt.Fprintln(r.out, label.Render(turn.Role.DisplayName()+":"))
		fmt.Fprintln(r.out, turn.Text)
		fmt.Fprintln(r.out)
	}
}

// SessionMarkdown lays a session out as a Markdown document with one
// heading per turn.
func SessionMarkdown(sess model.Session) string {
	var sb strings.Builder
	for i, turn := range sess.Turns {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString("### ")
		sb.WriteString(turn.Role.DisplayName())
		sb.WriteString("\n\n")
		sb.WriteString(turn.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
