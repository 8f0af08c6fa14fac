// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat history for fakegpt.
package storage

import (
	"fmt"
	"strings"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/util"
)

// listTitleWidth is the title column width of FormatSessionList.
const listTitleWidth = 40

// FormatSessionList renders sessions as an indexed table for the terminal.
func FormatSessionList(sessions []model.Session) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s  %s  %s\n", "#", util.PadRight("Title", listTitleWidth), "Turns"))
	sb.WriteString(strings.Repeat("-", 4+2+listTitleWidth+2+5))
	sb.WriteString("\n")

	for i := range sessions {
		title := util.TruncateWidth(util.SingleLine(sessions[i].DisplayTitle()), listTitleWidth)
		sb.WriteString(fmt.Sprintf("%-4d  %s  %5d\n", i, util.PadRight(title, listTitleWidth), sessions[i].Len()))
	}

	return sb.String()
}
