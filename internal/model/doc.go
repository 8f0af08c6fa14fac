// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and turns.
//
// This package defines the core domain types shared by the store, the
// session controller, the reply fetchers and the user interfaces.
//
// # Key Types
//
//   - Turn: One immutable exchange entry (role + text)
//   - Session: Ordered turns with an optional title override
//   - Role: Turn author enumeration (user, model)
//   - ModelInfo: Known remote models per provider
//
// # Usage
//
// Build a session turn by turn:
//
//	s := model.NewSession()
//	s.Append(model.NewTurn(model.RoleUser, "Hi"))
//	s.Append(model.NewTurn(model.RoleModel, "Hello"))
//	fmt.Println(s.DisplayTitle()) // "Hi..."
//
// Look up the default model for a provider:
//
//	info, _ := model.DefaultModel("gemini")
package model
