// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for fakegpt.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// a .env file, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - LLMConfig: Provider, model, credentials for the reply fetcher
//   - UIConfig: Theme, reveal pacing, sidebar
//   - SpeechConfig: External text-to-speech and recognizer commands
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by cmd)
//   - Environment variables (FAKEGPT_*, GOOGLE_API_KEY, ...), including ./.env
//   - ~/.fakegpt/config.toml
//   - ~/.fakegpt/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	interval := cfg.RevealInterval()
package config
