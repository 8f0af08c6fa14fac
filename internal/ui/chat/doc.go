// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat interface.
//
// The screen is a bubbletea Model with three areas:
//
//   - a sidebar listing saved sessions by title, with a search filter
//   - the conversation view, where replies appear through a typewriter reveal
//   - an input line with a status bar of shortcuts
//
// All conversation state lives in a session.Controller; the Model only keeps
// presentation state (selection, reveal progress, notices). Fetches, voice
// capture, speech and exports run as tea.Cmds so the interface never blocks.
//
// # Reveal Frames
//
// The reveal produces one prefix per character, but the screen repaints at
// most once per frame. When the configured interval is shorter than a frame
// (4ms against roughly 33ms by default) each frame consumes several prefixes
// and paints only the last, so the text grows by a few characters at a time.
// No character is skipped: every prefix is produced and the final frame
// shows the whole reply.
package chat
