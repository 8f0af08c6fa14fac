// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/fakegpt/internal/cli"
	"github.com/jeranaias/fakegpt/internal/config"
	"github.com/jeranaias/fakegpt/internal/logging"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/storage"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configFile string
	provider   string
	model      string
	history    string
	logLevel   string
	plain      bool
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	root := newRootCmd(version, commit, date)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		os.Exit(1)
	}
}

func newRootCmd(version, commit, date string) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "fakegpt",
		Short: "Chat with a language model from the terminal",
		Long: "fakegpt keeps a history of chat sessions and reveals each reply as it is typed.\n" +
			"With no subcommand it opens the full-screen interface when run in a terminal\n" +
			"and the plain line mode otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.plain || !cli.Interactive() {
				return runPlain(cmd, flags)
			}
			return runTUI(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file path (default ~/.fakegpt/config.toml)")
	pf.StringVarP(&flags.provider, "provider", "p", "", "override provider (gemini, openai, ollama, anthropic)")
	pf.StringVarP(&flags.model, "model", "m", "", "override model")
	pf.StringVar(&flags.history, "history", "", "chat history file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&flags.plain, "plain", false, "use the plain line mode even in a terminal")

	rootCmd.AddCommand(newChatCmd(flags))
	rootCmd.AddCommand(newSessionsCmd(flags))
	rootCmd.AddCommand(newExportCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig reads .env, the config file and the flag overrides, in that
// order of increasing precedence.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	var (
		cfg *config.Config
		err error
	)
	if f.configFile != "" {
		cfg, err = config.LoadFromPath(f.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyOverrides(config.Overrides{
		Provider: f.provider,
		Model:    f.model,
		History:  f.history,
		LogLevel: f.logLevel,
	}); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// setupLogging sends logs to the configured file only; the terminal belongs
// to the chat.
func setupLogging(cfg *config.Config) io.Closer {
	closer, err := logging.Setup(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("logging disabled: "+err.Error()))
		return nopCloser{}
	}
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// loadHistory fills ctrl from its store. A malformed file is moved aside and
// the chat starts from an empty history. Any other failure leaves the file
// alone and the controller refuses to save over it for the rest of the run.
func loadHistory(ctrl *session.Controller, store *storage.HistoryStore) string {
	err := ctrl.Load()
	if err == nil {
		return ""
	}
	if !errors.Is(err, storage.ErrMalformed) {
		return "History not loaded, this chat will not be saved: " + err.Error()
	}

	moved, qerr := store.Quarantine()
	if qerr != nil {
		log.Error().Err(qerr).Str("path", store.Path()).Msg("quarantine failed")
		return "History file is unreadable, this chat will not be saved: " + err.Error()
	}
	log.Warn().Str("path", store.Path()).Str("moved_to", moved).Msg("malformed history set aside")
	if err := ctrl.Load(); err != nil {
		return "History not loaded, this chat will not be saved: " + err.Error()
	}
	return fmt.Sprintf("History file was unreadable and has been moved to %s", moved)
}

// openStore loads sessions for the non-interactive commands. Unlike the chat
// they refuse to work on a malformed file.
func openStore(f *rootFlags) (*config.Config, *session.Controller, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewHistoryStore(cfg.History.Path)
	ctrl := session.NewController(store, nil)
	if err := ctrl.Load(); err != nil {
		return nil, nil, err
	}
	return cfg, ctrl, nil
}
