// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the reply fetcher boundary and builds the configured
// backend.
//
// A Fetcher receives the prior turns of the active session plus the new
// prompt and returns the complete reply. Every failure crossing this
// boundary is a *RemoteError; callers never see provider-specific types
// unless they unwrap.
//
// # Key Types
//
//   - Fetcher: Send(ctx, history, prompt) (reply, error)
//   - RemoteError: Network, auth or quota failure from a provider
//   - FetcherFunc: Adapter for plain functions (tests, fakes)
//
// # Usage
//
//	fetcher, err := llm.New(cfg)
//	reply, err := fetcher.Send(ctx, session.Turns, "Hello")
//	var re *llm.RemoteError
//	if errors.As(err, &re) {
//	    fmt.Println("[Error]:", re.Err)
//	}
package llm
