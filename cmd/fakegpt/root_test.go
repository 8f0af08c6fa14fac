// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/ollama"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/storage"
)

// setupHome points the config directory at a temp dir, clears overriding
// environment and seeds a history file with two sessions.
func setupHome(t *testing.T) (home, history string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("FAKEGPT_HOME", home)
	for _, k := range []string{
		"FAKEGPT_PROVIDER", "FAKEGPT_MODEL", "FAKEGPT_BASE_URL", "FAKEGPT_API_KEY",
		"FAKEGPT_HISTORY", "FAKEGPT_LOG_LEVEL", "OLLAMA_HOST",
	} {
		t.Setenv(k, "")
	}

	history = filepath.Join(home, "chat_history.json")
	sessions := []model.Session{
		*model.NewSessionFromTurns([]model.Turn{
			model.NewTurn(model.RoleUser, "Hi"),
			model.NewTurn(model.RoleModel, "Hello"),
		}, "Greeting"),
		*model.NewSessionFromTurns([]model.Turn{
			model.NewTurn(model.RoleUser, "Second chat"),
			model.NewTurn(model.RoleModel, "Sure"),
		}, ""),
	}
	require.NoError(t, storage.NewHistoryStore(history).Save(sessions))
	return home, history
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("1.2.3", "abc1234", "2025-01-01")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fakegpt 1.2.3")
	assert.Contains(t, out, "commit: abc1234")
}

func TestSessionsList(t *testing.T) {
	_, history := setupHome(t)

	out, err := execute(t, "sessions", "list", "--history", history)
	require.NoError(t, err)
	assert.Contains(t, out, "Greeting")
	assert.Contains(t, out, "Second chat...")

	out, err = execute(t, "sessions", "list", "--history", history, "--search", "GREET")
	require.NoError(t, err)
	assert.Contains(t, out, "0     Greeting")
	assert.NotContains(t, out, "Second")
}

func TestSessionsShow(t *testing.T) {
	_, history := setupHome(t)

	out, err := execute(t, "sessions", "show", "0", "--raw", "--history", history)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Greeting\n\n### You\n\nHi\n"))
	assert.Contains(t, out, "### Model\n\nHello")

	_, err = execute(t, "sessions", "show", "5", "--history", history)
	var ierr *session.IndexError
	assert.ErrorAs(t, err, &ierr)
}

func TestSessionsRename(t *testing.T) {
	_, history := setupHome(t)

	out, err := execute(t, "sessions", "rename", "1", "Small", "talk", "--history", history)
	require.NoError(t, err)
	assert.Contains(t, out, `Session 1 renamed to "Small talk"`)

	stored, err := storage.NewHistoryStore(history).Load()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Greeting", stored[0].Title)
	assert.Equal(t, "Small talk", stored[1].Title)
	assert.Equal(t, "Second chat", stored[1].Turns[0].Text)
}

func TestExportCmd(t *testing.T) {
	home, history := setupHome(t)
	target := filepath.Join(home, "out", "greeting.md")

	out, err := execute(t, "export", "0", "--format", "md", "-o", target, "--history", history)
	require.NoError(t, err)
	assert.Equal(t, target+"\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Greeting")
	assert.Contains(t, string(data), "Hello")

	_, err = execute(t, "export", "0", "--format", "docx", "--history", history)
	assert.Error(t, err)
}

func TestConfigCmd(t *testing.T) {
	home, _ := setupHome(t)

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", out)

	_, err = execute(t, "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, "config.toml"))
	require.NoError(t, err)

	_, err = execute(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")
	_, err = execute(t, "config", "init", "--force")
	assert.NoError(t, err)

	out, err = execute(t, "config", "show", "--provider", "ollama")
	require.NoError(t, err)
	assert.Contains(t, out, "[llm]")
	assert.Contains(t, out, `provider = "ollama"`)
}

func TestConfigModels(t *testing.T) {
	setupHome(t)

	out, err := execute(t, "config", "models", "--provider", "gemini")
	require.NoError(t, err)
	assert.Contains(t, out, "* gemini-1.5-pro")
	assert.Contains(t, out, "2.0M tokens (default)")
	assert.Contains(t, out, "claude-3-haiku-20240307")
	assert.NotContains(t, out, "installed on")
}

func TestConfigModels_ListsOllamaInstalls(t *testing.T) {
	setupHome(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			json.NewEncoder(w).Encode(ollama.ListModelsResponse{Models: []ollama.ModelInfo{{Name: "llama3.2:latest", Size: 2 << 30}}})
		}
	}))
	defer server.Close()
	t.Setenv("FAKEGPT_BASE_URL", server.URL)

	out, err := execute(t, "config", "models", "--provider", "ollama")
	require.NoError(t, err)
	assert.Contains(t, out, "* qwen2.5:7b")
	assert.Contains(t, out, "installed on "+server.URL)
	assert.Contains(t, out, "llama3.2:latest")
	assert.Contains(t, out, "2.0 GB")
}

func TestConfigModels_OllamaDown(t *testing.T) {
	setupHome(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()
	t.Setenv("FAKEGPT_BASE_URL", url)

	out, err := execute(t, "config", "models", "--provider", "ollama")
	require.NoError(t, err, "a down server is only reported when not asked for explicitly")
	assert.Contains(t, out, "Ollama is not running at "+url)

	_, err = execute(t, "config", "models", "--provider", "ollama", "--installed")
	assert.ErrorContains(t, err, "not running")
}

func TestConfigCmd_RejectsBadFlags(t *testing.T) {
	setupHome(t)
	_, err := execute(t, "config", "show", "--provider", "nope")
	assert.ErrorContains(t, err, "invalid flags")
}

func TestLoadHistory_QuarantinesMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat_history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sessions": "nope"}`), 0600))

	store := storage.NewHistoryStore(path)
	ctrl := session.NewController(store, nil)

	notice := loadHistory(ctrl, store)
	assert.Contains(t, notice, "has been moved to")
	assert.Empty(t, ctrl.Completed())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, ctrl.AppendTurn(model.RoleUser, "fresh start"))
	require.NoError(t, ctrl.StartNewSession(), "saving resumes once the bad file is gone")
	stored, err := store.Load()
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestLoadHistory_UnreadableFileIsNeverOverwritten(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	_, history := setupHome(t)
	require.NoError(t, os.Chmod(history, 0o000))
	t.Cleanup(func() { _ = os.Chmod(history, 0o600) })

	store := storage.NewHistoryStore(history)
	ctrl := session.NewController(store, nil)

	notice := loadHistory(ctrl, store)
	assert.Contains(t, notice, "will not be saved")

	require.NoError(t, ctrl.AppendTurn(model.RoleUser, "new"))
	assert.ErrorIs(t, ctrl.StartNewSession(), session.ErrNotSaved)

	require.NoError(t, os.Chmod(history, 0o600))
	stored, err := store.Load()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Greeting", stored[0].Title)
}

func TestLoadHistory_MissingFileIsQuiet(t *testing.T) {
	store := storage.NewHistoryStore(filepath.Join(t.TempDir(), "none.json"))
	ctrl := session.NewController(store, nil)
	assert.Empty(t, loadHistory(ctrl, store))
}

func TestSessionsList_MalformedFileIsAnError(t *testing.T) {
	_, history := setupHome(t)
	require.NoError(t, os.WriteFile(history, []byte("not json"), 0600))

	_, err := execute(t, "sessions", "list", "--history", history)
	assert.ErrorIs(t, err, storage.ErrMalformed)
}
