// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colour palette and lipgloss styles of the chat
screen.

Colours are lipgloss AdaptiveColor values so one palette serves dark and
light terminals. NewTheme pins the background choice from the [ui] theme
setting; "auto" asks the terminal through termenv.

	theme := styles.NewTheme(cfg.UI.Theme)
	line := theme.UserLabel.Render("You") + ": " + text
*/
package styles
