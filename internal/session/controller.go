// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state of a running fakegpt.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huandu/go-clone"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/fakegpt/internal/llm"
	"github.com/jeranaias/fakegpt/internal/model"
)

// Store persists the ordered session list.
type Store interface {
	Load() ([]model.Session, error)
	Save(sessions []model.Session) error
}

// Exchange is the outcome of a successful Submit.
type Exchange struct {
	SessionID string
	Prompt    string
	Reply     string
	Elapsed   time.Duration
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller tracks completed sessions and the active session. It is safe
// for concurrent use; at most one Submit is in flight at a time.
type Controller struct {
	mu sync.Mutex

	// saveMu is held from snapshot to Save so snapshots reach the store in
	// the order they were taken. Lock order: saveMu, then mu.
	saveMu sync.Mutex

	store   Store
	fetcher llm.Fetcher

	completed []model.Session
	active    *model.Session
	busy      bool

	// loadErr is the last failed Load. While set, nothing is written: the
	// file may still hold sessions the controller never saw.
	loadErr error

	// Called, outside the lock, whenever the active session is reset.
	onReset []func()
}

// NewController creates a controller with an empty active session. Call
// Load to populate completed sessions from the store.
func NewController(store Store, fetcher llm.Fetcher) *Controller {
	return &Controller{
		store:   store,
		fetcher: fetcher,
		active:  model.NewSession(),
	}
}

// Load replaces the completed list with the store's content. On error the
// controller keeps its current state and stops persisting until a later
// Load succeeds; mutations then return ErrNotSaved.
func (c *Controller) Load() error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	sessions, err := c.store.Load()
	if err != nil {
		c.mu.Lock()
		c.loadErr = err
		c.mu.Unlock()
		log.Error().Err(err).Msg("history load failed, continuing in memory")
		return err
	}

	c.mu.Lock()
	c.completed = sessions
	c.loadErr = nil
	c.mu.Unlock()

	log.Info().Int("sessions", len(sessions)).Msg("history loaded")
	return nil
}

// OnReset registers fn to run each time the active session is sealed or
// discarded (new chat, shutdown). Adapters use it to cancel a running reveal.
func (c *Controller) OnReset(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReset = append(c.onReset, fn)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// StartNewSession seals a non-empty active session into the completed list,
// persists, and starts an empty active session. With an empty active session
// it does nothing and writes nothing.
func (c *Controller) StartNewSession() error {
	return c.seal("new session", true)
}

// OnShutdown behaves like StartNewSession but never refuses: an in-flight
// Submit will find its session gone and drop the reply.
func (c *Controller) OnShutdown() error {
	return c.seal("shutdown", false)
}

func (c *Controller) seal(reason string, refuseBusy bool) error {
	c.saveMu.Lock()
	c.mu.Lock()
	if refuseBusy && c.busy {
		c.mu.Unlock()
		c.saveMu.Unlock()
		return ErrBusy
	}
	hooks := append([]func(){}, c.onReset...)

	if c.active.IsEmpty() {
		c.mu.Unlock()
		c.saveMu.Unlock()
		runHooks(hooks)
		return nil
	}

	sealed := c.active
	c.completed = append(c.completed, *sealed)
	c.active = model.NewSession()
	snapshot, blocked := c.snapshotLocked(), c.loadErr
	c.mu.Unlock()

	log.Info().
		Str("session", sealed.ID).
		Int("turns", sealed.Len()).
		Str("reason", reason).
		Msg("session sealed")
	err := c.saveLocked(snapshot, blocked)
	c.saveMu.Unlock()

	runHooks(hooks)
	return err
}

// saveLocked writes snapshot unless a failed load blocks persistence. The
// caller holds c.saveMu.
func (c *Controller) saveLocked(snapshot []model.Session, blocked error) error {
	if blocked != nil {
		log.Warn().Err(blocked).Int("sessions", len(snapshot)).Msg("history not saved: load failed earlier")
		return fmt.Errorf("%w: %w", ErrNotSaved, blocked)
	}
	return c.store.Save(snapshot)
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AppendTurn adds a turn to the active session without persisting.
func (c *Controller) AppendTurn(role model.Role, text string) error {
	if !role.Valid() {
		return &ValidationError{Field: "role", Message: "must be user or model"}
	}
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Message: "must not be empty"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active.Append(model.NewTurn(role, text))
	return nil
}

// RenameSession sets the display title of completed session index and
// persists. Turn text is never modified.
func (c *Controller) RenameSession(index int, title string) error {
	title = strings.TrimSpace(norm.NFC.String(title))
	if title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if index < 0 || index >= len(c.completed) {
		n := len(c.completed)
		c.mu.Unlock()
		return &IndexError{Index: index, Len: n}
	}
	c.completed[index].Title = title
	snapshot, blocked := c.snapshotLocked(), c.loadErr
	c.mu.Unlock()

	log.Info().Int("index", index).Str("title", title).Msg("session renamed")
	return c.saveLocked(snapshot, blocked)
}

// NormalizePrompt trims surrounding whitespace and composes Unicode (NFC) so
// visually identical prompts are stored identically.
func NormalizePrompt(prompt string) string {
	return strings.TrimSpace(norm.NFC.String(prompt))
}

// Submit runs one round trip: the prompt is appended as a user turn, the
// fetcher receives the earlier turns plus the prompt, and on success the
// reply is appended as a model turn and everything is persisted.
//
// On a fetch failure the returned error wraps *llm.RemoteError, the user
// turn stays in the active session, nothing else is appended and nothing is
// written. A blank reply counts as a failure and returns llm.ErrEmptyReply.
// A save failure after a successful fetch returns the Exchange together
// with the storage error.
func (c *Controller) Submit(ctx context.Context, prompt string) (Exchange, error) {
	prompt = NormalizePrompt(prompt)
	if prompt == "" {
		return Exchange{}, &ValidationError{Field: "prompt", Message: "must not be empty"}
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Exchange{}, ErrBusy
	}
	history := append([]model.Turn(nil), c.active.Turns...)
	c.active.Append(model.NewTurn(model.RoleUser, prompt))
	sessionID := c.active.ID
	c.busy = true
	c.mu.Unlock()

	start := time.Now()
	reply, err := c.fetcher.Send(ctx, history, prompt)
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrEmptyReply
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		log.Warn().Err(err).Str("session", sessionID).Msg("submit failed")
		return Exchange{}, err
	}
	if c.active.ID != sessionID {
		c.mu.Unlock()
		log.Warn().Str("session", sessionID).Msg("reply arrived after session closed")
		return Exchange{}, ErrDiscarded
	}
	c.active.Append(model.NewTurn(model.RoleModel, reply))
	snapshot, blocked := c.snapshotLocked(), c.loadErr
	c.mu.Unlock()

	ex := Exchange{SessionID: sessionID, Prompt: prompt, Reply: reply, Elapsed: elapsed}
	log.Info().
		Str("session", sessionID).
		Int("history", len(history)).
		Int("reply_len", len(reply)).
		Dur("elapsed", elapsed).
		Msg("reply received")
	return ex, c.saveLocked(snapshot, blocked)
}

// =============================================================================
// READ ACCESS
// =============================================================================

// snapshotLocked returns completed sessions plus a non-empty active session.
func (c *Controller) snapshotLocked() []model.Session {
	out := make([]model.Session, 0, len(c.completed)+1)
	out = append(out, c.completed...)
	if !c.active.IsEmpty() {
		out = append(out, *c.active)
	}
	return clone.Clone(out).([]model.Session)
}

// Sessions returns what would be persisted right now.
func (c *Controller) Sessions() []model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Completed returns a copy of the sealed sessions in creation order.
func (c *Controller) Completed() []model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone.Clone(c.completed).([]model.Session)
}

// Active returns a copy of the active session.
func (c *Controller) Active() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *clone.Clone(c.active).(*model.Session)
}

// Session returns a copy of completed session index.
func (c *Controller) Session(index int) (model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.completed) {
		return model.Session{}, &IndexError{Index: index, Len: len(c.completed)}
	}
	return *clone.Clone(&c.completed[index]).(*model.Session), nil
}

// Busy reports whether a Submit is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Titles returns the display titles of the completed sessions.
func (c *Controller) Titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	titles := make([]string, len(c.completed))
	for i := range c.completed {
		titles[i] = c.completed[i].DisplayTitle()
	}
	return titles
}

// Search returns the indices of completed sessions whose display title
// contains query, ignoring case. An empty query matches every session.
func (c *Controller) Search(query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))

	c.mu.Lock()
	defer c.mu.Unlock()
	matches := make([]int, 0, len(c.completed))
	for i := range c.completed {
		if query == "" || strings.Contains(strings.ToLower(c.completed[i].DisplayTitle()), query) {
			matches = append(matches, i)
		}
	}
	return matches
}
