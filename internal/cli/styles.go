// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

// init configures the lipgloss colour profile from terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	modelLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Failures that take the place of a reply use the model's colour.
	modelErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Purple)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)
)

// RenderError formats err for stderr.
func RenderError(err error) string {
	return errorStyle.Render("[Error]") + " " + err.Error()
}

// RenderWarning formats a non-fatal problem.
func RenderWarning(msg string) string {
	return warningStyle.Render("[Warning] " + msg)
}
