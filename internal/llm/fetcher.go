// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the reply fetcher boundary and builds the configured
// backend.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/fakegpt/internal/claude"
	"github.com/jeranaias/fakegpt/internal/config"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/ollama"
	"github.com/jeranaias/fakegpt/internal/openaicompat"
)

// =============================================================================
// FETCHER INTERFACE
// =============================================================================

// Fetcher sends a conversation to a remote model and returns its full reply.
// history holds the turns before prompt; prompt is not part of history.
type Fetcher interface {
	Send(ctx context.Context, history []model.Turn, prompt string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, history []model.Turn, prompt string) (string, error)

// Send calls f.
func (f FetcherFunc) Send(ctx context.Context, history []model.Turn, prompt string) (string, error) {
	return f(ctx, history, prompt)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrEmptyReply reports a reply that is empty or only whitespace.
var ErrEmptyReply = errors.New("empty reply")

// RemoteError is returned by every Fetcher built by New when the provider
// call fails.
type RemoteError struct {
	Provider string
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is, or wraps, a RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// =============================================================================
// FACTORY
// =============================================================================

// remote decorates a backend so every failure becomes a *RemoteError.
type remote struct {
	provider string
	model    string
	backend  Fetcher
}

func (r *remote) Send(ctx context.Context, history []model.Turn, prompt string) (string, error) {
	reply, err := r.backend.Send(ctx, history, prompt)
	if err != nil {
		log.Warn().Err(err).Str("provider", r.provider).Str("model", r.model).Msg("reply fetch failed")
		return "", &RemoteError{Provider: r.provider, Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		log.Warn().Str("provider", r.provider).Str("model", r.model).Msg("blank reply")
		return "", &RemoteError{Provider: r.provider, Err: ErrEmptyReply}
	}
	return reply, nil
}

// Wrap decorates any Fetcher so its failures are reported as *RemoteError.
func Wrap(provider string, f Fetcher) Fetcher {
	return &remote{provider: provider, backend: f}
}

// New builds the Fetcher for cfg.LLM.Provider.
func New(cfg *config.Config) (Fetcher, error) {
	c := cfg.LLM
	modelID := model.ResolveModelID(c.Model)
	timeout := cfg.RequestTimeout()

	var backend Fetcher
	switch strings.ToLower(c.Provider) {
	case model.ProviderGemini:
		baseURL := c.BaseURL
		if baseURL == "" {
			baseURL = openaicompat.GeminiBaseURL
		}
		backend = openaicompat.New(openaicompat.Config{
			APIKey:       c.APIKey,
			BaseURL:      baseURL,
			Model:        modelID,
			SystemPrompt: c.SystemPrompt,
			Timeout:      timeout,
		})
	case model.ProviderOpenAI:
		backend = openaicompat.New(openaicompat.Config{
			APIKey:       c.APIKey,
			BaseURL:      c.BaseURL,
			Model:        modelID,
			SystemPrompt: c.SystemPrompt,
			Timeout:      timeout,
		})
	case model.ProviderOllama:
		backend = ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      c.BaseURL,
			Model:        modelID,
			SystemPrompt: c.SystemPrompt,
			Timeout:      timeout,
		})
	case model.ProviderAnthropic:
		backend = claude.New(claude.Config{
			APIKey:       c.APIKey,
			BaseURL:      c.BaseURL,
			Model:        modelID,
			SystemPrompt: c.SystemPrompt,
			Timeout:      timeout,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}

	log.Info().Str("provider", c.Provider).Str("model", modelID).Msg("reply fetcher ready")
	return &remote{provider: c.Provider, model: modelID, backend: backend}, nil
}
