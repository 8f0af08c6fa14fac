// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/fakegpt/internal/cli"
	"github.com/jeranaias/fakegpt/internal/config"
	"github.com/jeranaias/fakegpt/internal/export"
	"github.com/jeranaias/fakegpt/internal/llm"
	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/session"
	"github.com/jeranaias/fakegpt/internal/speech"
	"github.com/jeranaias/fakegpt/internal/storage"
	"github.com/jeranaias/fakegpt/internal/ui/chat"
	"github.com/jeranaias/fakegpt/internal/ui/render"
	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the plain line-mode chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlain(cmd, flags)
		},
	}
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// chatApp holds the collaborators shared by both chat front ends.
type chatApp struct {
	cfg      *config.Config
	ctrl     *session.Controller
	speaker  speech.Speaker
	listener speech.Listener
	export   *export.Options
	format   export.Format
	notice   string
	closer   func()
}

func newChatApp(flags *rootFlags) (*chatApp, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}
	logCloser := setupLogging(cfg)

	fetcher, err := llm.New(cfg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	store := storage.NewHistoryStore(cfg.History.Path)
	ctrl := session.NewController(store, fetcher)
	notice := loadHistory(ctrl, store)

	speaker, listener := speech.New(speech.Settings{
		Enabled:       cfg.Speech.Enabled,
		SpeakCommand:  cfg.Speech.SpeakCommand,
		ListenCommand: cfg.Speech.ListenCommand,
		ListenTimeout: cfg.ListenTimeout(),
	})

	format, err := export.ParseFormat(cfg.Export.DefaultFormat)
	if err != nil {
		format = export.FormatPDF
	}
	opts := export.DefaultOptions()
	opts.OutputDir = cfg.Export.OutputDir
	opts.Model = cfg.LLM.Model
	opts.Theme = "light"
	if styles.ResolveDark(cfg.UI.Theme) {
		opts.Theme = "dark"
	}

	log.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("history", store.Path()).
		Msg("chat starting")

	return &chatApp{
		cfg:      cfg,
		ctrl:     ctrl,
		speaker:  speaker,
		listener: listener,
		export:   opts,
		format:   format,
		notice:   notice,
		closer:   func() { logCloser.Close() },
	}, nil
}

func (a *chatApp) modelName() string {
	if info, ok := model.GetModelInfo(a.cfg.LLM.Model); ok {
		return info.Name
	}
	return a.cfg.LLM.Model
}

// =============================================================================
// FRONT ENDS
// =============================================================================

// runTUI runs the full-screen interface. Bubble Tea turns SIGINT and SIGTERM
// into a quit, after which the active session is sealed.
func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	app, err := newChatApp(flags)
	if err != nil {
		return err
	}
	defer app.closer()

	m := chat.New(chat.Options{
		Controller:     app.ctrl,
		Theme:          styles.NewTheme(app.cfg.UI.Theme),
		ModelName:      app.modelName(),
		RevealInterval: app.cfg.RevealInterval(),
		SidebarWidth:   app.cfg.UI.SidebarWidth,
		ShowSidebar:    app.cfg.UI.ShowSidebar,
		Speaker:        app.speaker,
		Listener:       app.listener,
		ExportOptions:  app.export,
		ExportFormat:   app.format,
		Notice:         app.notice,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, runErr := p.Run()

	if err := app.ctrl.OnShutdown(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("history not saved: "+err.Error()))
	}
	if runErr != nil {
		return fmt.Errorf("error running fakegpt: %w", runErr)
	}
	return nil
}

// runPlain runs the line-mode chat. SIGTERM seals the active session before
// the process exits; SIGINT is handled per prompt by the REPL.
func runPlain(cmd *cobra.Command, flags *rootFlags) error {
	app, err := newChatApp(flags)
	if err != nil {
		return err
	}
	defer app.closer()

	repl := cli.NewREPL(cli.Options{
		Controller:     app.ctrl,
		Out:            cmd.OutOrStdout(),
		ModelName:      app.modelName(),
		RevealInterval: app.cfg.RevealInterval(),
		Speaker:        app.speaker,
		Listener:       app.listener,
		ExportOptions:  app.export,
		ExportFormat:   app.format,
		Notice:         app.notice,
		Markdown:       render.NewMarkdown(styles.ResolveDark(app.cfg.UI.Theme)),
	})

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGTERM)
	defer signal.Stop(term)
	go func() {
		select {
		case <-term:
			if err := repl.Close(); err != nil {
				fmt.Fprintln(os.Stderr, cli.RenderWarning("history not saved: "+err.Error()))
			}
			app.closer()
			os.Exit(143)
		case <-ctx.Done():
		}
	}()

	runErr := repl.Run(ctx)
	if err := repl.Close(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("history not saved: "+err.Error()))
	}
	return runErr
}
