// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history for fakegpt.
package storage

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every load failure caused by file content rather
// than by I/O.
var ErrMalformed = errors.New("malformed history file")

// Error reports a failed load, save or quarantine of the history file.
type Error struct {
	Op   string // "load", "save", "quarantine"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is, or wraps, a storage Error.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
