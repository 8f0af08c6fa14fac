// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openaicompat talks to any OpenAI-compatible chat completions API.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/fakegpt/internal/model"
)

// Well-known base URLs.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// ErrEmptyReply is returned when the API answers without any text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// ErrNoAPIKey is returned by Send when the client has no key configured.
var ErrNoAPIKey = errors.New("no API key configured")

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Client sends whole conversations to a chat completions endpoint.
type Client struct {
	cfg    Config
	client *openai.Client
}

// New creates a client. An empty BaseURL selects the OpenAI API.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{cfg: cfg, client: openai.NewClientWithConfig(oc)}
}

// Model returns the configured model ID.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Messages converts turns into chat completion messages. The persisted
// "model" role becomes "assistant".
func Messages(system string, history []model.Turn, prompt string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == model.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}

// Send requests one completion for history plus prompt and returns its text.
func (c *Client) Send(ctx context.Context, history []model.Turn, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: Messages(c.cfg.SystemPrompt, history, prompt),
	})
	if err != nil {
		return "", describe(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}

	log.Debug().
		Str("model", c.cfg.Model).
		Int("turns", len(history)).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("chat completion received")
	return resp.Choices[0].Message.Content, nil
}

// describe turns API errors into short messages that still unwrap to the
// original error.
func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("authentication failed: %w", err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("quota or rate limit exceeded: %w", err)
		}
	}
	return err
}
