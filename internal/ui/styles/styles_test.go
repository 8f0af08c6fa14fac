// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDark(t *testing.T) {
	assert.True(t, ResolveDark("dark"))
	assert.True(t, ResolveDark("DARK"))
	assert.False(t, ResolveDark("light"))
}

func TestNewTheme(t *testing.T) {
	dark := NewTheme("dark")
	assert.True(t, dark.IsDark)

	light := NewTheme("light")
	assert.False(t, light.IsDark)

	// Restore the default for other tests.
	NewTheme("dark")
}

func TestShortcut(t *testing.T) {
	th := NewTheme("dark")
	out := th.Shortcut("ctrl+n", "new chat")
	assert.True(t, strings.Contains(out, "ctrl+n"))
	assert.True(t, strings.Contains(out, "new chat"))
}

func TestRenderNotices(t *testing.T) {
	assert.Contains(t, RenderError("boom"), IndicatorError+" boom")
	assert.Contains(t, RenderSuccess("saved"), IndicatorOK+" saved")
}
