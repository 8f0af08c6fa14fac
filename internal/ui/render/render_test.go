// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

func TestFirstCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "language tag dropped",
			in:   "Here:\n\n```python\nprint('hi')\nx = 1\n```\n\nDone.",
			want: "print('hi')\nx = 1",
		},
		{
			name: "first of several",
			in:   "```\nfirst\n```\ntext\n```go\nsecond\n```",
			want: "first",
		},
		{
			name: "no fence returns whole reply",
			in:   "just prose, no code",
			want: "just prose, no code",
		},
		{
			name: "inline code is not a block",
			in:   "use `go vet` here",
			want: "use `go vet` here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstCodeBlock(tt.in))
		})
	}
}

func TestHighlight_KeepsCode(t *testing.T) {
	out := ansi.Strip(Highlight("func main() {}", "go", true))
	assert.Contains(t, out, "func main() {}")

	out = ansi.Strip(Highlight("plain words", "no-such-language", false))
	assert.Contains(t, out, "plain words")
}

func TestReply_ProseAndCode(t *testing.T) {
	theme := styles.NewTheme("dark")
	out := ansi.Strip(Reply(theme, "Intro line\n```go\nx := 1\n```\nOutro", 60))

	assert.Contains(t, out, "Intro line")
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "x := 1")
	assert.Contains(t, out, "Outro")
	assert.NotContains(t, out, "```")
}

func TestReply_UnterminatedFence(t *testing.T) {
	theme := styles.NewTheme("dark")
	out := ansi.Strip(Reply(theme, "Start\n```py\nprint(", 60))

	assert.Contains(t, out, "Start")
	assert.Contains(t, out, "print(")
	assert.NotContains(t, out, "```")
}

func TestMarkdown_Render(t *testing.T) {
	md := NewMarkdown(true)
	out := ansi.Strip(md.Render("# Title\n\nSome **bold** text.", 60))
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")

	// Width change rebuilds the renderer.
	out = ansi.Strip(md.Render("plain", 30))
	assert.Contains(t, out, "plain")
	assert.Equal(t, 30, md.width)
}
