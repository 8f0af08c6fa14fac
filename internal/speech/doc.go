// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides voice input and spoken replies by delegating to
// external programs.
//
// A Speaker reads text aloud; a Listener captures one utterance and returns
// its transcript. Both are backed by commands from the configuration, so any
// engine that reads text on stdin (espeak, spd-say, say) or prints a
// transcript on stdout can be plugged in. When speech is disabled the Nop
// implementations are used.
package speech
