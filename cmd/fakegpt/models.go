// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/ollama"
)

// ollamaCheckTimeout bounds the health check and the tag listing.
const ollamaCheckTimeout = 5 * time.Second

func newModelsCmd(flags *rootFlags) *cobra.Command {
	var installed bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the known models of every provider",
		Long: "Lists the built-in model catalogue, marking the configured model.\n" +
			"With --installed, or when the provider is ollama, the models pulled on\n" +
			"the local Ollama server are listed too.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			current := model.ResolveModelID(cfg.LLM.Model)

			for _, provider := range model.Providers {
				fmt.Fprintf(out, "%s\n", provider)
				for _, info := range model.GetModelsByProvider(provider) {
					mark := " "
					if provider == cfg.LLM.Provider && info.ID == current {
						mark = "*"
					}
					note := ""
					if info.Default {
						note = " (default)"
					}
					fmt.Fprintf(out, "  %s %-28s %-20s %s%s\n", mark, info.ID, info.Name, info.ContextString(), note)
				}
			}

			if !installed && cfg.LLM.Provider != model.ProviderOllama {
				return nil
			}
			baseURL := ""
			if cfg.LLM.Provider == model.ProviderOllama {
				baseURL = cfg.LLM.BaseURL
			}
			err = listInstalled(cmd.Context(), out, baseURL)
			if err != nil && !installed {
				fmt.Fprintf(out, "\n%s\n", err)
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&installed, "installed", false, "also list models installed on the Ollama server")
	return cmd
}

// listInstalled prints the models pulled on the Ollama server at baseURL.
func listInstalled(ctx context.Context, out io.Writer, baseURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, ollamaCheckTimeout)
	defer cancel()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: baseURL, Timeout: ollamaCheckTimeout})
	url := client.Config().BaseURL

	if err := client.CheckRunning(ctx); err != nil {
		switch {
		case ollama.IsNotRunning(err):
			return fmt.Errorf("Ollama is not running at %s (start it with 'ollama serve')", url)
		case ollama.IsTimeout(err):
			return fmt.Errorf("Ollama at %s did not answer within %s", url, ollamaCheckTimeout)
		}
		return err
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\ninstalled on %s\n", url)
	if len(models) == 0 {
		fmt.Fprintln(out, "  (none, pull one with 'ollama pull "+defaultOllamaModel()+"')")
		return nil
	}
	for _, m := range models {
		fmt.Fprintf(out, "    %-30s %s\n", m.Name, m.FormatSize())
	}
	return nil
}

func defaultOllamaModel() string {
	info, _ := model.DefaultModel(model.ProviderOllama)
	return info.ID
}
