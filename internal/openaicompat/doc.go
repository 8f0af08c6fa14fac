// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openaicompat talks to any OpenAI-compatible chat completions API.
//
// Google's Generative Language API exposes such an endpoint, so the same
// client serves both the "gemini" and "openai" providers; only the base URL,
// the key and the model differ.
//
// # Usage
//
//	client := openaicompat.New(openaicompat.Config{
//	    APIKey:  os.Getenv("GOOGLE_API_KEY"),
//	    BaseURL: openaicompat.GeminiBaseURL,
//	    Model:   "gemini-1.5-pro",
//	})
//	reply, err := client.Send(ctx, history, "Hello")
package openaicompat
