// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/fakegpt/internal/config"
)

// historyFileName holds typed prompts between runs, one per line.
const historyFileName = "repl_history"

// LineReader reads one line of input per prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineEditor is a liner state whose history is kept in a file.
type lineEditor struct {
	*liner.State
	historyFile string
}

// NewLineEditor creates a liner-backed reader. Ctrl+C at the prompt aborts
// it with liner.ErrPromptAborted. Earlier prompts are loaded from the
// config directory when available.
func NewLineEditor() LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	e := &lineEditor{State: line}
	if dir, err := config.ConfigDir(); err == nil {
		e.historyFile = filepath.Join(dir, historyFileName)
		e.loadHistory()
	}
	return e
}

func (e *lineEditor) loadHistory() {
	f, err := os.Open(e.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := e.ReadHistory(f); err != nil {
		log.Debug().Err(err).Str("path", e.historyFile).Msg("prompt history unreadable")
	}
}

func (e *lineEditor) saveHistory() {
	if e.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := e.WriteHistory(f); err != nil {
		log.Debug().Err(err).Str("path", e.historyFile).Msg("prompt history not saved")
	}
}

// Close saves history and restores the terminal.
func (e *lineEditor) Close() error {
	e.saveHistory()
	return e.State.Close()
}
