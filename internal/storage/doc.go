// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history for fakegpt.
//
// All sessions live in a single JSON document. Every save rewrites the whole
// document atomically; every load validates it against a JSON schema before
// decoding, so a file that is present but malformed is reported instead of
// being partially reconstructed.
//
// # Key Types
//
//   - HistoryStore: Loads and saves the ordered session list
//   - Error: Failure of a storage operation (Op, Path, cause)
//
// # Usage
//
//	store := storage.NewHistoryStore(path)
//	sessions, err := store.Load()
//	if errors.Is(err, storage.ErrMalformed) {
//	    backup, _ := store.Quarantine()
//	}
//	err = store.Save(sessions)
//
// # File Format
//
//	{"sessions": [[{"role": "user", "parts": ["Hi"]}, ...], ...],
//	 "titles": ["Greeting"]}
//
// The titles array is optional and parallel to sessions; an empty string
// means the session has no explicit title.
package storage
