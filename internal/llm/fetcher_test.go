// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the reply fetcher boundary and builds the configured
// backend.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fakegpt/internal/config"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/ollama"
)

func testConfig(provider string) *config.Config {
	cfg := config.Default()
	cfg.LLM.Provider = provider
	if info, ok := model.DefaultModel(provider); ok {
		cfg.LLM.Model = info.ID
	}
	return cfg
}

func TestWrap_ConvertsErrors(t *testing.T) {
	cause := errors.New("connection reset")
	f := Wrap("fake", FetcherFunc(func(ctx context.Context, history []model.Turn, prompt string) (string, error) {
		return "", cause
	}))

	_, err := f.Send(context.Background(), nil, "Hi")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "fake", re.Provider)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRemoteError(err))
}

func TestWrap_PassesReply(t *testing.T) {
	f := Wrap("fake", FetcherFunc(func(ctx context.Context, history []model.Turn, prompt string) (string, error) {
		return "echo: " + prompt, nil
	}))

	reply, err := f.Send(context.Background(), nil, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: Hi", reply)
}

func TestWrap_RejectsBlankReply(t *testing.T) {
	f := Wrap("fake", FetcherFunc(func(ctx context.Context, history []model.Turn, prompt string) (string, error) {
		return " \n\t", nil
	}))

	_, err := f.Send(context.Background(), nil, "Hi")
	assert.True(t, IsRemoteError(err))
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNew_AllProviders(t *testing.T) {
	for _, p := range model.Providers {
		t.Run(p, func(t *testing.T) {
			f, err := New(testConfig(p))
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(testConfig("bard"))
	assert.Error(t, err)
}

func TestNew_MissingKeyIsRemoteError(t *testing.T) {
	cfg := testConfig(model.ProviderGemini)
	cfg.LLM.APIKey = ""

	f, err := New(cfg)
	require.NoError(t, err)

	_, err = f.Send(context.Background(), nil, "Hi")
	assert.True(t, IsRemoteError(err), "got %v", err)
}

func TestNew_OllamaEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollama.ChatResponse{Message: ollama.Message{Role: "assistant", Content: "Hello"}, Done: true})
	}))
	defer server.Close()

	cfg := testConfig(model.ProviderOllama)
	cfg.LLM.BaseURL = server.URL

	f, err := New(cfg)
	require.NoError(t, err)
	reply, err := f.Send(context.Background(), nil, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
}
