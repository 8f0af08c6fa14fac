// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal produces the typewriter effect used to display replies.
//
// A Reveal yields every prefix of a text, one rune longer each time, and can
// be cancelled at any point. It cannot be restarted; a new reply gets a new
// Reveal.
//
// # Usage
//
// Drive a reveal at a fixed pace (plain terminal):
//
//	r := reveal.New(reply)
//	prev := ""
//	err := reveal.Run(ctx, r, 4*time.Millisecond, func(p string) {
//	    fmt.Print(reveal.Delta(prev, p))
//	    prev = p
//	})
//
// Or pull prefixes from a UI tick:
//
//	if prefix, ok := r.Next(); ok {
//	    m.shown = prefix
//	}
package reveal
