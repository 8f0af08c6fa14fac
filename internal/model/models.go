// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and turns.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Provider names understood by the reply fetcher factory.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Providers lists every supported provider.
var Providers = []string{ProviderGemini, ProviderOpenAI, ProviderOllama, ProviderAnthropic}

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a remote model.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider is one of the Provider* constants
	Provider string `json:"provider"`

	// MaxTokens is the context window size
	MaxTokens int `json:"max_tokens"`

	// Default marks the model used when none is configured
	Default bool `json:"default,omitempty"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of known models keyed by short name.
var Models = map[string]ModelInfo{
	"gemini-pro": {
		ID:        "gemini-1.5-pro",
		Name:      "Gemini 1.5 Pro",
		Provider:  ProviderGemini,
		MaxTokens: 2000000,
		Default:   true,
	},
	"gemini-flash": {
		ID:        "gemini-1.5-flash",
		Name:      "Gemini 1.5 Flash",
		Provider:  ProviderGemini,
		MaxTokens: 1000000,
	},
	"gpt-4o": {
		ID:        "gpt-4o",
		Name:      "GPT-4o",
		Provider:  ProviderOpenAI,
		MaxTokens: 128000,
		Default:   true,
	},
	"gpt-4o-mini": {
		ID:        "gpt-4o-mini",
		Name:      "GPT-4o mini",
		Provider:  ProviderOpenAI,
		MaxTokens: 128000,
	},
	"sonnet": {
		ID:        "claude-3-5-sonnet-20241022",
		Name:      "Claude 3.5 Sonnet",
		Provider:  ProviderAnthropic,
		MaxTokens: 200000,
		Default:   true,
	},
	"haiku": {
		ID:        "claude-3-haiku-20240307",
		Name:      "Claude 3 Haiku",
		Provider:  ProviderAnthropic,
		MaxTokens: 200000,
	},
	"qwen": {
		ID:        "qwen2.5:7b",
		Name:      "Qwen 2.5 7B",
		Provider:  ProviderOllama,
		MaxTokens: 32768,
		Default:   true,
	},
	"llama": {
		ID:        "llama3.2",
		Name:      "Llama 3.2",
		Provider:  ProviderOllama,
		MaxTokens: 128000,
	},
}

// ContextString returns a formatted context window string.
func (m ModelInfo) ContextString() string {
	if m.MaxTokens >= 1000000 {
		return fmt.Sprintf("%.1fM tokens", float64(m.MaxTokens)/1000000)
	}
	if m.MaxTokens >= 1000 {
		return fmt.Sprintf("%dK tokens", m.MaxTokens/1000)
	}
	return fmt.Sprintf("%d tokens", m.MaxTokens)
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by short name or ID.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	if info, ok := Models[nameOrID]; ok {
		return info, true
	}
	for _, info := range Models {
		if info.ID == nameOrID {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ResolveModelID maps a short name to its API identifier. Unknown names are
// returned unchanged so any model the provider accepts can be used.
func ResolveModelID(nameOrID string) string {
	if info, ok := Models[nameOrID]; ok {
		return info.ID
	}
	return nameOrID
}

// DefaultModel returns the default model of a provider.
func DefaultModel(provider string) (ModelInfo, bool) {
	provider = strings.ToLower(provider)
	for _, info := range Models {
		if info.Provider == provider && info.Default {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByProvider returns all models of a provider sorted by ID.
func GetModelsByProvider(provider string) []ModelInfo {
	result := []ModelInfo{}
	provider = strings.ToLower(provider)
	for _, info := range Models {
		if info.Provider == provider {
			result = append(result, info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// IsProvider reports whether name is a supported provider.
func IsProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}
