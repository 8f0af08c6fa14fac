// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/fakegpt/internal/export"
	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		format string
		output string
		open   bool
	)

	cmd := &cobra.Command{
		Use:   "export N",
		Short: "Export a stored session as PDF, Markdown, HTML or JSON",
		Example: "  fakegpt export 0\n" +
			"  fakegpt export 2 --format md -o notes.md",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			cfg, ctrl, err := openStore(flags)
			if err != nil {
				return err
			}
			sess, err := ctrl.Session(index)
			if err != nil {
				return err
			}

			if format == "" {
				format = cfg.Export.DefaultFormat
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.OutputDir = cfg.Export.OutputDir
			opts.OpenAfterExport = open
			opts.Model = cfg.LLM.Model
			opts.Theme = "light"
			if styles.ResolveDark(cfg.UI.Theme) {
				opts.Theme = "dark"
			}

			path, err := export.ExportSession(&sess, f, output, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "pdf, md, html or json (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: generated name in export.output_dir)")
	cmd.Flags().BoolVar(&open, "open", false, "open the file after exporting")
	return cmd
}
