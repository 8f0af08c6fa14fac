// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across fakegpt packages.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe replace of a file (temp file, fsync, rename)
//   - TruncateWidth: Cell-width aware truncation for terminal columns
//   - PadRight: Pad a string to a display width
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	title := util.TruncateWidth(s.DisplayTitle(), 24)
package util
