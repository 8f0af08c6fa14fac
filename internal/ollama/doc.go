// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// Only non-streaming chat is used: the whole reply is fetched before the user
// interface starts revealing it.
//
// # Key Types
//
//   - Client: HTTP client for the Ollama API
//   - Message: Chat message with role and content
//   - ClientError: Categorized client failure (not running, timeout, ...)
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434",
//	    Model:   "qwen2.5:7b",
//	})
//	reply, err := client.Send(ctx, history, "Hello")
package ollama
