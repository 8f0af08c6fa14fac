// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history for fakegpt.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/util"
)

// DefaultFileName is the history file name inside the config directory.
const DefaultFileName = "chat_history.json"

// filePerm keeps chat history private to the user.
const filePerm os.FileMode = 0600

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore reads and writes the ordered list of sessions. It assumes a
// single writing process; writes from one process are serialized.
type HistoryStore struct {
	path string
	mu   sync.Mutex
}

// NewHistoryStore creates a store backed by path. The file does not need to
// exist.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// DefaultHistoryPath returns ~/.fakegpt/chat_history.json.
func DefaultHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".fakegpt", DefaultFileName), nil
}

// Path returns the backing file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load returns the persisted sessions in stored order. A missing file yields
// an empty list and no error. Unreadable or malformed content yields *Error.
func (s *HistoryStore) Load() ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", s.path).Msg("no history file, starting empty")
		return []model.Session{}, nil
	}
	if err != nil {
		return nil, &Error{Op: "load", Path: s.path, Err: err}
	}

	sessions, err := Decode(data)
	if err != nil {
		return nil, &Error{Op: "load", Path: s.path, Err: err}
	}

	log.Debug().Str("path", s.path).Int("sessions", len(sessions)).Msg("history loaded")
	return sessions, nil
}

// Save replaces the file with sessions. The previous file stays intact if the
// write fails.
func (s *HistoryStore) Save(sessions []model.Session) error {
	data, err := Encode(sessions)
	if err != nil {
		return &Error{Op: "save", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.AtomicWriteFile(s.path, data, filePerm); err != nil {
		return &Error{Op: "save", Path: s.path, Err: err}
	}

	log.Debug().Str("path", s.path).Int("sessions", len(sessions)).Msg("history saved")
	return nil
}

// Quarantine moves the current file aside to <path>.corrupt-<timestamp> and
// returns the new name. Used after a malformed load so the next save does not
// overwrite history the user may want to recover by hand.
func (s *HistoryStore) Quarantine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.path, target); err != nil {
		return "", &Error{Op: "quarantine", Path: s.path, Err: err}
	}

	log.Warn().Str("path", s.path).Str("backup", target).Msg("malformed history moved aside")
	return target, nil
}
