// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/fakegpt/internal/export"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/storage"
	"github.com/jeranaias/fakegpt/internal/ui/render"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (r *REPL) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/new", "/n":
		if err := r.ctrl.StartNewSession(); err != nil {
			return true, err
		}
		r.viewing = -1
		r.printOK("New chat started")
		return true, nil

	case "/list", "/l":
		fmt.Fprint(r.out, storage.FormatSessionList(r.ctrl.Completed()))
		fmt.Fprintln(r.out)
		return true, nil

	case "/search":
		r.search(strings.Join(args, " "))
		return true, nil

	case "/open", "/o":
		return true, r.open(args)

	case "/rename":
		return true, r.rename(args)

	case "/export", "/e":
		return true, r.export(args)

	case "/copy", "/c":
		return true, r.copyCode()

	case "/listen":
		r.listen(ctx)
		return true, nil

	case "/speak":
		return true, r.setSpeak(args)

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid session number %q", s)
	}
	return n, nil
}

func (r *REPL) search(query string) {
	matches := r.ctrl.Search(query)
	if len(matches) == 0 {
		fmt.Fprintln(r.out, infoStyle.Render("No sessions match."))
		return
	}
	titles := r.ctrl.Titles()
	for _, i := range matches {
		fmt.Fprintf(r.out, "  %s  %s\n", commandStyle.Render(fmt.Sprintf("%3d", i)), titles[i])
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) open(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /open N")
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	sess, err := r.ctrl.Session(index)
	if err != nil {
		return err
	}
	r.viewing = index
	r.printSession(index, sess)
	return nil
}

func (r *REPL) rename(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: /rename N TITLE")
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	title := strings.Join(args[1:], " ")
	if err := r.ctrl.RenameSession(index, title); err != nil {
		if !storage.IsStorageError(err) && !errors.Is(err, session.ErrNotSaved) {
			return err
		}
		r.printWarning("History not saved: " + err.Error())
	}
	r.printOK(fmt.Sprintf("Session %d renamed to %q", index, title))
	return nil
}

// export handles "/export N FORMAT [PATH]". With no arguments the session
// last opened, or else the current chat, is written in the default format.
func (r *REPL) export(args []string) error {
	if len(args) == 1 {
		return errors.New("usage: /export N FORMAT [PATH]")
	}
	sess := r.shownSession()
	format := r.exportFormat
	path := ""

	if len(args) > 0 {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		if sess, err = r.ctrl.Session(index); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		f, err := export.ParseFormat(args[1])
		if err != nil {
			return err
		}
		format = f
	}
	if len(args) > 2 {
		path = strings.Join(args[2:], " ")
	}

	out, err := export.ExportSession(&sess, format, path, r.exportOpts)
	if err != nil {
		return err
	}
	r.printOK("Exported to " + out)
	return nil
}

func (r *REPL) copyCode() error {
	sess := r.shownSession()
	turn, ok := sess.LastModelTurn()
	if !ok {
		return errors.New("no reply to copy from")
	}
	if err := r.copy(render.FirstCodeBlock(turn.Text)); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	r.printOK("Copied code to clipboard")
	return nil
}

func (r *REPL) setSpeak(args []string) error {
	if len(args) != 1 {
		state := "off"
		if r.speakAlways {
			state = "on"
		}
		fmt.Fprintf(r.out, "%s %s\n", infoStyle.Render("[Speak]"), state)
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "on":
		r.speakAlways = true
	case "off":
		r.speakAlways = false
	default:
		return errors.New("usage: /speak on|off")
	}
	r.printOK("Speak " + strings.ToLower(args[0]))
	return nil
}

// shownSession is the session last opened, or the current chat.
func (r *REPL) shownSession() model.Session {
	if r.viewing >= 0 {
		if sess, err := r.ctrl.Session(r.viewing); err == nil {
			return sess
		}
	}
	return r.ctrl.Active()
}

// printHelp prints available commands.
func (r *REPL) printHelp() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, headerStyle.Render("Available Commands"))
	fmt.Fprintln(r.out, infoStyle.Render(strings.Repeat("─", 20)))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/new, /n", "Start a new chat"},
		{"/list, /l", "List stored sessions"},
		{"/open N", "Show session N"},
		{"/rename N TITLE", "Rename session N"},
		{"/search Q", "Find sessions by title"},
		{"/export N FMT [PATH]", "Export session N (pdf, md, html, json)"},
		{"/copy, /c", "Copy the first code block of the latest reply"},
		{"/listen", "Speak a prompt"},
		{"/speak on|off", "Read every reply aloud"},
		{"/help, /h", "Show this help"},
		{"/quit, /q", "Exit"},
	}

	for _, c := range commands {
		fmt.Fprintf(r.out, "  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-22s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, infoStyle.Render("Tip: Ctrl+C cancels the current reply, Ctrl+D exits"))
	fmt.Fprintln(r.out)
}
