// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat sessions to files.
//
// # Supported Formats
//
//   - PDF: one page flow per session, code in a monospace font
//   - Markdown: YAML frontmatter followed by one heading per turn
//   - HTML: turns rendered from Markdown, dark and light themes
//   - JSON: the same single-session shape used by the history file
//
// # Usage
//
//	path, err := export.ExportSession(sess, export.FormatPDF, "", export.DefaultOptions())
package export
