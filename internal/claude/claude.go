// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package claude sends conversations to the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/fakegpt/internal/model"
)

// DefaultMaxTokens bounds the reply length.
const DefaultMaxTokens = 4096

var (
	// ErrEmptyReply is returned when the reply has no text blocks.
	ErrEmptyReply = errors.New("model returned an empty reply")

	// ErrNoAPIKey is returned by Send when the client has no key configured.
	ErrNoAPIKey = errors.New("no API key configured")
)

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int64
	Timeout      time.Duration
}

// Client implements a single-shot reply fetch against Claude models.
type Client struct {
	cfg    Config
	client anthropic.Client
}

// New creates a client. SDK retries are disabled; a failed fetch is reported
// to the user immediately.
func New(cfg Config) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(cfg.APIKey),
		anthropicoption.WithMaxRetries(0),
		anthropicoption.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(cfg.BaseURL))
	}

	return &Client{cfg: cfg, client: anthropic.NewClient(opts...)}
}

// Messages converts turns into Messages API params. Consecutive turns with
// the same role are merged, since the API expects alternating roles.
func Messages(history []model.Turn, prompt string) []anthropic.MessageParam {
	all := append(append([]model.Turn(nil), history...), model.NewTurn(model.RoleUser, prompt))

	var params []anthropic.MessageParam
	var blocks []anthropic.ContentBlockParamUnion
	var current model.Role

	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if current == model.RoleModel {
			params = append(params, anthropic.NewAssistantMessage(blocks...))
		} else {
			params = append(params, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}

	for _, t := range all {
		if t.Role != current {
			flush()
			current = t.Role
		}
		blocks = append(blocks, anthropic.NewTextBlock(t.Text))
	}
	flush()
	return params
}

// Send asks the model to continue history with prompt.
func (c *Client) Send(ctx context.Context, history []model.Turn, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		Messages:  Messages(history, prompt),
		MaxTokens: c.cfg.MaxTokens,
	}
	if c.cfg.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.cfg.SystemPrompt}}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyReply
	}

	log.Debug().
		Str("model", c.cfg.Model).
		Int64("output_tokens", msg.Usage.OutputTokens).
		Dur("elapsed", time.Since(start)).
		Msg("claude message received")
	return sb.String(), nil
}
