// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state of a running fakegpt.
package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a reply is being fetched.
	ErrBusy = errors.New("a reply is already being fetched")

	// ErrDiscarded is returned by Submit when the session it was answering
	// was closed before the reply arrived. The reply is dropped.
	ErrDiscarded = errors.New("session closed before the reply arrived")

	// ErrNotSaved is returned by mutations made after a failed Load. The
	// change is kept in memory; the file on disk is left untouched.
	ErrNotSaved = errors.New("history not saved because it could not be loaded")
)

// ValidationError rejects malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IndexError rejects a session index outside the completed list.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("no session %d: there are no saved sessions", e.Index)
	}
	return fmt.Sprintf("no session %d: valid range is 0-%d", e.Index, e.Len-1)
}
