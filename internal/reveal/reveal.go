// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// DefaultInterval is the pause between two prefixes.
const DefaultInterval = 4 * time.Millisecond

// =============================================================================
// REVEAL
// =============================================================================

// Reveal is a lazy, finite prefix generator. Safe for concurrent use: the
// producer calls Next while another goroutine may call Cancel.
type Reveal struct {
	mu        sync.Mutex
	text      string
	ends      []int // byte offset just past each rune
	pos       int
	cancelled bool
}

// New creates a reveal of text. Prefixes are cut from text itself, so bytes
// that are not valid UTF-8 are revealed one at a time and never rewritten.
func New(text string) *Reveal {
	ends := make([]int, 0, utf8.RuneCountInString(text))
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
		ends = append(ends, i)
	}
	return &Reveal{text: text, ends: ends}
}

// Next returns the next prefix. ok is false once the full text has been
// returned or the reveal was cancelled.
func (r *Reveal) Next() (prefix string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelled || r.pos >= len(r.ends) {
		return "", false
	}
	r.pos++
	return r.text[:r.ends[r.pos-1]], true
}

// Cancel stops the reveal. Later calls to Next report false.
func (r *Reveal) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
}

// Cancelled reports whether Cancel was called.
func (r *Reveal) Cancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// Done reports whether no further prefix will be produced.
func (r *Reveal) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled || r.pos >= len(r.ends)
}

// Len returns the number of prefixes, one per rune of the full text.
func (r *Reveal) Len() int {
	return len(r.ends)
}

// Text returns the full text regardless of progress.
func (r *Reveal) Text() string {
	return r.text
}

// Shown returns the most recently produced prefix.
func (r *Reveal) Shown() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos == 0 {
		return ""
	}
	return r.text[:r.ends[r.pos-1]]
}

// =============================================================================
// PACED DRIVER
// =============================================================================

// Run feeds every prefix of r to fn, one per interval, until the text is
// exhausted, r is cancelled or ctx ends. Cancelling ctx also cancels r.
func Run(ctx context.Context, r *Reveal, interval time.Duration, fn func(prefix string)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			r.Cancel()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		prefix, ok := r.Next()
		if !ok {
			return nil
		}
		fn(prefix)
	}
}

// Delta returns the part of next that extends prev. Writers that print to a
// terminal only need the newly revealed runes.
func Delta(prev, next string) string {
	if len(next) < len(prev) || next[:len(prev)] != prev {
		return next
	}
	return next[len(prev):]
}
