// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/fakegpt/internal/model"
	"github.com/jeranaias/fakegpt/internal/storage"
)

func sampleSession() *model.Session {
	return model.NewSessionFromTurns([]model.Turn{
		model.NewTurn(model.RoleUser, "How do I print in Go?"),
		model.NewTurn(model.RoleModel, "Use fmt:\n\n```go\nfmt.Println(\"hi\")\n```\n\nThat's it."),
	}, "")
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"pdf":      FormatPDF,
		"PDF":      FormatPDF,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		".html":    FormatHTML,
		"htm":      FormatHTML,
		"json":     FormatJSON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.Error(t, err)
}

func TestExporters_RejectEmpty(t *testing.T) {
	for _, f := range Formats {
		exp, err := New(f, nil)
		require.NoError(t, err)

		_, err = exp.Export(model.NewSession())
		assert.ErrorIs(t, err, ErrEmptySession, f)

		_, err = exp.Export(nil)
		assert.Error(t, err, f)
	}
}

func TestMarkdownExport(t *testing.T) {
	opts := DefaultOptions()
	opts.Model = "gemini-1.5-pro"
	out, err := NewMarkdownExporter(opts).Export(sampleSession())
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "---\n"))
	assert.Contains(t, text, "# How do I print in Go?...\n")
	assert.Contains(t, text, "### You\n\nHow do I print in Go?")
	assert.Contains(t, text, "### Model\n\nUse fmt:")
	assert.Contains(t, text, "```go\nfmt.Println(\"hi\")\n```")

	parts := strings.SplitN(text, "---\n", 3)
	require.Len(t, parts, 3)
	var fm frontmatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "How do I print in Go?...", fm.Title)
	assert.Equal(t, "gemini-1.5-pro", fm.Model)
	assert.Equal(t, 2, fm.Turns)
}

// A title with a newline must not inject extra frontmatter keys.
func TestMarkdownExport_FrontmatterInjection(t *testing.T) {
	sess := sampleSession()
	sess.Title = "Test\nInjection: malicious"

	out, err := NewMarkdownExporter(nil).Export(sess)
	require.NoError(t, err)

	parts := strings.SplitN(string(out), "---\n", 3)
	require.Len(t, parts, 3)
	var fm map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.NotContains(t, fm, "Injection")
	assert.Equal(t, "Test\nInjection: malicious", fm["title"])
}

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleSession())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "<title>How do I print in Go?...</title>")
	assert.Contains(t, text, `class="dark-theme"`)
	assert.Contains(t, text, `class="message user-message"`)
	assert.Contains(t, text, `class="message model-message"`)
	assert.Contains(t, text, `<code class="language-go">`)
}

func TestHTMLExport_EscapesMarkup(t *testing.T) {
	sess := model.NewSessionFromTurns([]model.Turn{
		model.NewTurn(model.RoleUser, "<script>alert('xss')</script>"),
		model.NewTurn(model.RoleModel, "```<script>\ncode here\n```"),
	}, "<b>title</b>")

	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(sess)
	require.NoError(t, err)

	text := string(out)
	assert.NotContains(t, text, "<script>")
	assert.Contains(t, text, "&lt;b&gt;title&lt;/b&gt;")
	assert.Contains(t, text, `class="light-theme"`)
}

func TestJSONExport_RoundTrips(t *testing.T) {
	sess := sampleSession()
	out, err := NewJSONExporter(nil).Export(sess)
	require.NoError(t, err)

	decoded, err := storage.Decode(out)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].Equal(sess))
}

func TestPDFExport(t *testing.T) {
	out, err := NewPDFExporter(nil).Export(sampleSession())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"))
}

func TestPDFExport_NonLatinText(t *testing.T) {
	sess := model.NewSessionFromTurns([]model.Turn{
		model.NewTurn(model.RoleUser, "日本語 café"),
		model.NewTurn(model.RoleModel, "```\nunterminated fence"),
	}, "")
	out, err := NewPDFExporter(nil).Export(sess)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSplitFences(t *testing.T) {
	segs := splitFences("intro\n```python\nprint(1)\n  x = 2\n```\noutro")
	require.Len(t, segs, 3)
	assert.Equal(t, segment{text: "intro"}, segs[0])
	assert.Equal(t, segment{code: true, text: "print(1)\n  x = 2"}, segs[1])
	assert.Equal(t, segment{text: "outro"}, segs[2])

	assert.Empty(t, splitFences("   "))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", sanitizeFilename("a/b:c"))
	assert.Equal(t, "hello_world", sanitizeFilename("hello world..."))
	assert.Equal(t, "session", sanitizeFilename("///"))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")

	path, err := ExportToFile(sampleSession(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)

	assert.Equal(t, opts.OutputDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "chat_How_do_I_print_in_Go_"))
	assert.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Model")
}

func TestExportSession_ExplicitPath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "notes")

	path, err := ExportSession(sampleSession(), FormatJSON, target, nil)
	require.NoError(t, err)
	assert.Equal(t, target+".json", path)
	assert.FileExists(t, path)

	_, err = ExportSession(sampleSession(), Format("docx"), target, nil)
	assert.Error(t, err)
}
