// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultListenTimeout bounds a single voice capture.
const DefaultListenTimeout = 5 * time.Second

// speakCandidates are tried in order when no speak command is configured.
var speakCandidates = []string{"espeak", "spd-say", "say"}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoCommand is returned when no engine is configured or found.
	ErrNoCommand = errors.New("no speech command available")

	// ErrTimeout is returned when capture exceeds the listen timeout.
	ErrTimeout = errors.New("listening timed out")

	// ErrNothingHeard is returned when the recognizer produced no text.
	ErrNothingHeard = errors.New("could not understand audio")
)

// Error describes a failed speech operation.
type Error struct {
	Op      string // "speak" or "listen"
	Command string
	Err     error
}

func (e *Error) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// =============================================================================
// INTERFACES
// =============================================================================

// Speaker reads text aloud.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Listener captures one utterance and returns it as text.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Nop is a Speaker and Listener that does nothing.
type Nop struct{}

// Say discards text.
func (Nop) Say(context.Context, string) error { return nil }

// Listen always fails with ErrNoCommand.
func (Nop) Listen(context.Context) (string, error) {
	return "", &Error{Op: "listen", Err: ErrNoCommand}
}

// =============================================================================
// COMMAND SPEAKER
// =============================================================================

// CommandSpeaker pipes text to an external text-to-speech program.
type CommandSpeaker struct {
	argv []string
}

// NewCommandSpeaker parses command (program plus arguments). An empty command
// selects the first known engine on PATH.
func NewCommandSpeaker(command string) (*CommandSpeaker, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		detected := DetectSpeakCommand()
		if detected == "" {
			return nil, &Error{Op: "speak", Err: ErrNoCommand}
		}
		argv = []string{detected}
	}
	return &CommandSpeaker{argv: argv}, nil
}

// DetectSpeakCommand returns the first available text-to-speech program, or
// an empty string.
func DetectSpeakCommand() string {
	for _, name := range speakCandidates {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return ""
}

// Command returns the program and arguments in use.
func (s *CommandSpeaker) Command() string {
	return strings.Join(s.argv, " ")
}

// Say runs the engine with text on stdin and waits for it to finish.
func (s *CommandSpeaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return &Error{Op: "speak", Command: s.Command(), Err: ctx.Err()}
		}
		return &Error{Op: "speak", Command: s.Command(), Err: withStderr(err, stderr.String())}
	}
	log.Debug().Str("command", s.Command()).Int("chars", len(text)).Msg("spoke reply")
	return nil
}

// =============================================================================
// COMMAND LISTENER
// =============================================================================

// CommandListener runs a speech recognizer that prints its transcript to
// stdout.
type CommandListener struct {
	argv    []string
	timeout time.Duration
}

// NewCommandListener parses command. A non-positive timeout selects
// DefaultListenTimeout.
func NewCommandListener(command string, timeout time.Duration) (*CommandListener, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, &Error{Op: "listen", Err: ErrNoCommand}
	}
	if timeout <= 0 {
		timeout = DefaultListenTimeout
	}
	return &CommandListener{argv: argv, timeout: timeout}, nil
}

// Command returns the program and arguments in use.
func (l *CommandListener) Command() string {
	return strings.Join(l.argv, " ")
}

// Listen captures one utterance. It fails with ErrTimeout when the recognizer
// runs past the timeout and ErrNothingHeard when it prints nothing.
func (l *CommandListener) Listen(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.argv[0], l.argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Error{Op: "listen", Command: l.Command(), Err: ErrTimeout}
		}
		if ctx.Err() != nil {
			return "", &Error{Op: "listen", Command: l.Command(), Err: ctx.Err()}
		}
		return "", &Error{Op: "listen", Command: l.Command(), Err: withStderr(err, stderr.String())}
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", &Error{Op: "listen", Command: l.Command(), Err: ErrNothingHeard}
	}
	log.Debug().Str("command", l.Command()).Int("chars", len(text)).Msg("heard utterance")
	return text, nil
}

func withStderr(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, stderr)
}

// =============================================================================
// CONSTRUCTION FROM SETTINGS
// =============================================================================

// Settings selects the engines. It mirrors the [speech] config section.
type Settings struct {
	Enabled       bool
	SpeakCommand  string
	ListenCommand string
	ListenTimeout time.Duration
}

// New returns the speaker and listener for settings. Missing engines degrade
// to Nop so the rest of the program keeps working.
func New(s Settings) (Speaker, Listener) {
	if !s.Enabled {
		return Nop{}, Nop{}
	}

	var speaker Speaker = Nop{}
	if sp, err := NewCommandSpeaker(s.SpeakCommand); err == nil {
		speaker = sp
	} else {
		log.Info().Err(err).Msg("spoken replies unavailable")
	}

	var listener Listener = Nop{}
	if li, err := NewCommandListener(s.ListenCommand, s.ListenTimeout); err == nil {
		listener = li
	} else {
		log.Info().Err(err).Msg("voice input unavailable")
	}

	return speaker, listener
}
