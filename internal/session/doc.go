// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state of a running fakegpt.
//
// The Controller keeps the completed sessions, in creation order, plus at
// most one active session. Every mutation that changes what is on disk
// (sealing the active session, renaming, receiving a reply) persists the
// whole list through the Store. Appending a turn on its own does not. Saves
// reach the Store one at a time, in the order their snapshots were taken.
//
// # Key Types
//
//   - Controller: Session lifecycle, turn appends, renames, reply round trips
//   - Store: Persistence boundary (storage.HistoryStore in production)
//   - ValidationError, IndexError: Rejected requests, no state change
//
// # Usage
//
//	ctrl := session.NewController(store, fetcher)
//	if err := ctrl.Load(); err != nil {
//	    // storage error: shown to the user, the app continues in memory
//	    // and later mutations return ErrNotSaved instead of writing
//	}
//	ex, err := ctrl.Submit(ctx, "Hi")
//	defer ctrl.OnShutdown()
package session
