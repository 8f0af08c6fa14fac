// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireProgram(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.Say(context.Background(), "hello"))

	_, err := n.Listen(context.Background())
	assert.ErrorIs(t, err, ErrNoCommand)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "listen", se.Op)
}

func TestCommandSpeaker_Say(t *testing.T) {
	requireProgram(t, "cat")

	s, err := NewCommandSpeaker("cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", s.Command())
	assert.NoError(t, s.Say(context.Background(), "hello there"))
	assert.NoError(t, s.Say(context.Background(), "   "))
}

func TestCommandSpeaker_Failure(t *testing.T) {
	requireProgram(t, "false")

	s, err := NewCommandSpeaker("false")
	require.NoError(t, err)

	err = s.Say(context.Background(), "hello")
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "speak", se.Op)
	assert.Equal(t, "false", se.Command)
}

func TestCommandListener_Transcript(t *testing.T) {
	requireProgram(t, "echo")

	l, err := NewCommandListener("echo  what is go  ", time.Second)
	require.NoError(t, err)

	text, err := l.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "what is go", text)
}

func TestCommandListener_NothingHeard(t *testing.T) {
	requireProgram(t, "true")

	l, err := NewCommandListener("true", time.Second)
	require.NoError(t, err)

	_, err = l.Listen(context.Background())
	assert.ErrorIs(t, err, ErrNothingHeard)
}

func TestCommandListener_Timeout(t *testing.T) {
	requireProgram(t, "sleep")

	l, err := NewCommandListener("sleep 5", 50*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Listen(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNewCommandListener_Empty(t *testing.T) {
	_, err := NewCommandListener("  ", 0)
	assert.ErrorIs(t, err, ErrNoCommand)

	l, err := NewCommandListener("rec", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultListenTimeout, l.timeout)
}

func TestNew_Disabled(t *testing.T) {
	sp, li := New(Settings{Enabled: false, SpeakCommand: "cat", ListenCommand: "echo"})
	assert.IsType(t, Nop{}, sp)
	assert.IsType(t, Nop{}, li)
}

func TestNew_Enabled(t *testing.T) {
	requireProgram(t, "cat")

	sp, li := New(Settings{Enabled: true, SpeakCommand: "cat", ListenCommand: "echo hi"})
	assert.IsType(t, &CommandSpeaker{}, sp)
	assert.IsType(t, &CommandListener{}, li)

	_, li = New(Settings{Enabled: true, SpeakCommand: "cat"})
	assert.IsType(t, Nop{}, li)
}
