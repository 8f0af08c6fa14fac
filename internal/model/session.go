// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and turns.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// TitleLength is the number of runes of the first turn shown as a session's
// derived title.
const TitleLength = 30

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is an ordered sequence of turns.
type Session struct {
	// ID identifies the session for the lifetime of the process. It is not
	// persisted.
	ID string

	// Turns in chronological order.
	Turns []Turn

	// Title is an explicit display title. Empty means derive from the first turn.
	Title string
}

// NewSession creates an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// NewSessionFromTurns creates a session holding turns.
func NewSessionFromTurns(turns []Turn, title string) *Session {
	s := NewSession()
	s.Turns = append([]Turn(nil), turns...)
	s.Title = title
	return s
}

// Append adds a turn at the end of the session.
func (s *Session) Append(t Turn) {
	s.Turns = append(s.Turns, t)
}

// Len returns the number of turns.
func (s Session) Len() int {
	return len(s.Turns)
}

// IsEmpty reports whether the session has no turns.
func (s Session) IsEmpty() bool {
	return len(s.Turns) == 0
}

// LastTurn returns the most recent turn.
func (s Session) LastTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// LastModelTurn returns the most recent model turn.
func (s Session) LastModelTurn() (Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleModel {
			return s.Turns[i], true
		}
	}
	return Turn{}, false
}

// DisplayTitle returns the title override, or the first turn's text
// truncated to TitleLength runes followed by "...".
func (s Session) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	if len(s.Turns) == 0 {
		return "New chat"
	}
	return Summarize(s.Turns[0].Text)
}

// Summarize derives a one-line title from text.
func Summarize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > TitleLength {
		runes = runes[:TitleLength]
	}
	return string(runes) + "..."
}

// Equal reports whether two sessions hold the same turns and title. IDs are
// ignored since they are not persisted.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Title != other.Title || len(s.Turns) != len(other.Turns) {
		return false
	}
	for i := range s.Turns {
		if s.Turns[i] != other.Turns[i] {
			return false
		}
	}
	return true
}
