// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history for fakegpt.
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fakegpt/internal/model"
)

func turns(pairs ...string) []model.Turn {
	out := make([]model.Turn, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.NewTurn(model.Role(pairs[i]), pairs[i+1]))
	}
	return out
}

func newStore(t *testing.T) *HistoryStore {
	t.Helper()
	return NewHistoryStore(filepath.Join(t.TempDir(), DefaultFileName))
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestHistoryStore_LoadMissingFile(t *testing.T) {
	store := newStore(t)

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestHistoryStore_LoadOriginalShape(t *testing.T) {
	store := newStore(t)
	doc := `{
  "sessions": [
    [
      {"role": "user", "parts": ["Hi"]},
      {"role": "model", "parts": ["Hello"]}
    ]
  ]
}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(doc), 0600))

	sessions, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, turns("user", "Hi", "model", "Hello"), sessions[0].Turns)
	assert.Equal(t, "", sessions[0].Title)
	assert.NotEmpty(t, sessions[0].ID)
}

func TestHistoryStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"sessions": [`},
		{"empty file", ``},
		{"whitespace only", "  \n"},
		{"top level array", `[]`},
		{"missing sessions", `{}`},
		{"sessions not array", `{"sessions": {}}`},
		{"unknown top level key", `{"sessions": [], "extra": 1}`},
		{"empty session", `{"sessions": [[]]}`},
		{"unknown role", `{"sessions": [[{"role": "assistant", "parts": ["x"]}]]}`},
		{"missing parts", `{"sessions": [[{"role": "user"}]]}`},
		{"two parts", `{"sessions": [[{"role": "user", "parts": ["a", "b"]}]]}`},
		{"zero parts", `{"sessions": [[{"role": "user", "parts": []}]]}`},
		{"non string part", `{"sessions": [[{"role": "user", "parts": [1]}]]}`},
		{"extra turn key", `{"sessions": [[{"role": "user", "parts": ["a"], "ts": 1}]]}`},
		{"titles length mismatch", `{"sessions": [[{"role": "user", "parts": ["a"]}]], "titles": []}`},
		{"trailing data", `{"sessions": []} {}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tc.doc), 0600))

			sessions, err := store.Load()
			require.Error(t, err)
			assert.Nil(t, sessions)
			assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
			assert.True(t, IsStorageError(err))
		})
	}
}

func TestHistoryStore_LoadUnreadable(t *testing.T) {
	dir := t.TempDir()
	// A directory at the history path cannot be read as a file.
	store := NewHistoryStore(dir)

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.False(t, errors.Is(err, ErrMalformed))
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestHistoryStore_RoundTrip(t *testing.T) {
	store := newStore(t)
	in := []model.Session{
		*model.NewSessionFromTurns(turns("user", "Hi", "model", "Hello"), ""),
		*model.NewSessionFromTurns(turns("user", "Write code", "model", "```go\nfmt.Println(\"é\")\n```"), "Code"),
		*model.NewSessionFromTurns(turns("user", "only a prompt"), ""),
	}

	require.NoError(t, store.Save(in))
	out, err := store.Load()
	require.NoError(t, err)

	require.Len(t, out, len(in))
	for i := range in {
		assert.True(t, in[i].Equal(&out[i]), "session %d differs: %+v vs %+v", i, in[i], out[i])
	}
}

func TestHistoryStore_SaveEmpty(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(nil))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"sessions": []}`, string(data))

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestHistoryStore_SaveOmitsTitlesWhenUnset(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save([]model.Session{
		*model.NewSessionFromTurns(turns("user", "Hi", "model", "Hello"), ""),
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "titles")
	assert.JSONEq(t, `{"sessions": [[{"role": "user", "parts": ["Hi"]}, {"role": "model", "parts": ["Hello"]}]]}`, string(data))
	assert.True(t, strings.Contains(string(data), "\n  \"sessions\""), "document should be indented")
}

func TestHistoryStore_SaveWritesTitles(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save([]model.Session{
		*model.NewSessionFromTurns(turns("user", "Hi"), "Greeting"),
		*model.NewSessionFromTurns(turns("user", "Other"), ""),
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"titles": [`)
	assert.Contains(t, string(data), `"Greeting"`)
}

func TestHistoryStore_SaveRejectsEmptySession(t *testing.T) {
	store := newStore(t)
	err := store.Save([]model.Session{{}})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	_, statErr := os.Stat(store.Path())
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed save must not create the file")
}

func TestHistoryStore_SaveFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	store := NewHistoryStore(path)
	require.NoError(t, store.Save([]model.Session{*model.NewSessionFromTurns(turns("user", "keep"), "")}))

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { os.Chmod(dir, 0700) })

	err := store.Save([]model.Session{*model.NewSessionFromTurns(turns("user", "lost"), "")})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	sessions, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "keep", sessions[0].Turns[0].Text)
}

// =============================================================================
// QUARANTINE TESTS
// =============================================================================

func TestHistoryStore_Quarantine(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("garbage"), 0600))

	_, err := store.Load()
	require.ErrorIs(t, err, ErrMalformed)

	backup, err := store.Quarantine()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(backup, store.Path()+".corrupt-"))

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestHistoryStore_QuarantineMissing(t *testing.T) {
	_, err := newStore(t).Quarantine()
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}

// =============================================================================
// LIST FORMATTING TESTS
// =============================================================================

func TestFormatSessionList(t *testing.T) {
	assert.Equal(t, "No sessions found.", FormatSessionList(nil))

	out := FormatSessionList([]model.Session{
		*model.NewSessionFromTurns(turns("user", "Hi", "model", "Hello"), ""),
		*model.NewSessionFromTurns(turns("user", "x"), "Greeting"),
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Hi...")
	assert.True(t, strings.HasPrefix(lines[3], "1"))
	assert.Contains(t, lines[3], "Greeting")
}
