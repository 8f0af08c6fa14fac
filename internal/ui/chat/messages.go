// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/fakegpt/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// replyMsg carries the outcome of a Submit.
type replyMsg struct {
	exchange session.Exchange
	err      error
	voice    bool
}

// revealTickMsg advances the reveal identified by id.
type revealTickMsg struct {
	id   int
	time time.Time
}

// listenMsg carries a voice capture result.
type listenMsg struct {
	text string
	err  error
}

// speakDoneMsg reports the end of spoken playback.
type speakDoneMsg struct {
	err error
}

// exportDoneMsg reports the end of an export.
type exportDoneMsg struct {
	path string
	err  error
}
