// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/fakegpt/internal/cli"
	"github.com/jeranaias/fakegpt/internal/storage"
	"github.com/jeranaias/fakegpt/internal/ui/render"
	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

func newSessionsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "s"},
		Short:   "List, show and rename stored chat sessions",
	}
	cmd.AddCommand(newSessionsListCmd(flags))
	cmd.AddCommand(newSessionsShowCmd(flags))
	cmd.AddCommand(newSessionsRenameCmd(flags))
	return cmd
}

func newSessionsListCmd(flags *rootFlags) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ctrl, err := openStore(flags)
			if err != nil {
				return err
			}

			if query == "" {
				fmt.Fprint(cmd.OutOrStdout(), storage.FormatSessionList(ctrl.Completed()))
				return nil
			}

			matches := ctrl.Search(query)
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions match.")
				return nil
			}
			titles := ctrl.Titles()
			for _, i := range matches {
				fmt.Fprintf(cmd.OutOrStdout(), "%-4d  %s\n", i, titles[i])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "only list sessions whose title contains this text")
	return cmd
}

func newSessionsShowCmd(flags *rootFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show N",
		Short: "Print a stored session",
		Args:  cobra.ExactArgs(1),
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

			doc := "# " + sess.DisplayTitle() + "\n\n" + cli.SessionMarkdown(sess)
			if raw || !cli.ColorsEnabled() {
				fmt.Fprint(cmd.OutOrStdout(), doc)
				return nil
			}
			md := render.NewMarkdown(styles.ResolveDark(cfg.UI.Theme))
			fmt.Fprintln(cmd.OutOrStdout(), md.Render(doc, cli.GetTerminalWidth()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown source instead of rendering it")
	return cmd
}

func newSessionsRenameCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename N TITLE",
		Short: "Set the display title of a stored session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			_, ctrl, err := openStore(flags)
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if err := ctrl.RenameSession(index, title); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %d renamed to %q\n", index, title)
			return nil
		},
	}
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid session number %q", s)
	}
	return n, nil
}
