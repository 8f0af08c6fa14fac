// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements fakegpt's plain line-oriented chat mode.
//
// It is used when stdout is not a terminal or when --plain is given. Input
// is read with a liner line editor (history, arrow keys) and replies are
// revealed character by character on stdout at the configured pace.
//
// # Commands
//
//   - /new: Seal the current chat and start a fresh one
//   - /list: List stored sessions
//   - /open N: Print session N
//   - /rename N TITLE: Rename session N
//   - /search Q: List sessions whose title contains Q
//   - /export N FORMAT [PATH]: Export session N (pdf, md, html, json)
//   - /copy: Copy the first code block of the latest reply
//   - /listen: Capture a prompt by voice
//   - /speak on|off: Speak every reply aloud
//   - /quit: Exit
//
// # Usage
//
//	repl := cli.NewREPL(cli.Options{Controller: ctrl})
//	defer repl.Close()
//	return repl.Run(ctx)
package cli
