// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fakegpt/internal/reveal"
)

// =============================================================================
// REVEAL SLOT
// =============================================================================

// revealSlot holds the reveal in progress. It is shared by pointer between
// copies of the Model and the controller's reset hook, which may cancel it.
type revealSlot struct {
	mu      sync.Mutex
	id      int
	r       *reveal.Reveal
	session string // session the revealed reply belongs to
}

// start replaces any running reveal and returns the new reveal's id.
func (s *revealSlot) start(sessionID, text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r != nil {
		s.r.Cancel()
	}
	s.id++
	s.r = reveal.New(text)
	s.session = sessionID
	return s.id
}

// cancel stops the running reveal, if any.
func (s *revealSlot) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r != nil {
		s.r.Cancel()
		s.r = nil
	}
}

// current returns the reveal for id, or nil when it was replaced or
// cancelled.
func (s *revealSlot) current(id int) *reveal.Reveal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != id || s.r == nil || s.r.Cancelled() {
		return nil
	}
	return s.r
}

// shown returns the visible prefix of the running reveal for sessionID.
func (s *revealSlot) shown(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r == nil || s.session != sessionID || s.r.Done() {
		return "", false
	}
	return s.r.Shown(), true
}

// finish drops the reveal for id once it has produced every prefix.
func (s *revealSlot) finish(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == id {
		s.r = nil
	}
}

// =============================================================================
// TICKS
// =============================================================================

// revealTick schedules the next frame of reveal id.
func revealTick(id int, interval time.Duration) tea.Cmd {
	every := frameInterval
	if interval > every {
		every = interval
	}
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return revealTickMsg{id: id, time: t}
	})
}

// stepsPerFrame is how many prefixes one frame consumes so that the
// configured per-character interval is honoured at the screen frame rate.
func stepsPerFrame(interval time.Duration) int {
	if interval <= 0 || interval >= frameInterval {
		return 1
	}
	return int(frameInterval / interval)
}

// advance consumes one frame of prefixes. It reports false once the reveal
// is exhausted or cancelled.
func advance(r *reveal.Reveal, steps int) bool {
	for i := 0; i < steps; i++ {
		if _, ok := r.Next(); !ok {
			return false
		}
	}
	return !r.Done()
}
