// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openaicompat talks to any OpenAI-compatible chat completions API.
package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fakegpt/internal/model"
)

func completionServer(t *testing.T, status int, body any, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMessages_MapsRoles(t *testing.T) {
	msgs := Messages("sys", []model.Turn{
		{Role: model.RoleUser, Text: "Hi"},
		{Role: model.RoleModel, Text: "Hello"},
	}, "Next")

	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "Next", msgs[3].Content)
}

func TestClient_Send(t *testing.T) {
	var seen openai.ChatCompletionRequest
	server := completionServer(t, http.StatusOK, map[string]any{
		"id":      "x",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "Hello"}}},
	}, &seen)

	c := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1/", Model: "gemini-1.5-pro"})
	reply, err := c.Send(context.Background(), []model.Turn{{Role: model.RoleUser, Text: "earlier"}, {Role: model.RoleModel, Text: "ok"}}, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)

	assert.Equal(t, "gemini-1.5-pro", seen.Model)
	require.Len(t, seen.Messages, 3)
	assert.Equal(t, "Hi", seen.Messages[2].Content)
}

func TestClient_SendEmptyChoices(t *testing.T) {
	server := completionServer(t, http.StatusOK, map[string]any{"choices": []any{}}, nil)

	c := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "m"})
	_, err := c.Send(context.Background(), nil, "Hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestClient_SendUnauthorized(t *testing.T) {
	server := completionServer(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]any{"message": "API key not valid", "type": "invalid_request_error"},
	}, nil)

	c := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "m"})
	_, err := c.Send(context.Background(), nil, "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestClient_SendRateLimited(t *testing.T) {
	server := completionServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "quota exceeded"},
	}, nil)

	c := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "m"})
	_, err := c.Send(context.Background(), nil, "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestClient_SendWithoutKey(t *testing.T) {
	c := New(Config{Model: "m"})
	_, err := c.Send(context.Background(), nil, "Hi")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
