// fakegpt - A terminal chat client for remote language models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"runtime/debug"
)

// Version information, set at build time with
// -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
var (
	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

func init() {
	if commit == "none" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
					break
				}
			}
		}
	}
}

func main() {
	Execute(version, commit, date)
}
