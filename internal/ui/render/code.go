// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns turn text into terminal output: code fences are
// highlighted with chroma, whole documents can go through glamour, and the
// first code block of a reply can be extracted for the clipboard.
package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/jeranaias/fakegpt/internal/ui/styles"
)

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// Highlight applies chroma highlighting for a terminal. An unknown language
// is guessed from the code; on any failure the code is returned unchanged.
func Highlight(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if !dark {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// CodeBlock renders one fenced block inside a bordered box.
func CodeBlock(theme *styles.Theme, language, code string, width int) string {
	body := Highlight(strings.TrimRight(code, "\n"), language, theme.IsDark)

	var header string
	if language != "" {
		header = theme.CodeLangBadge.Render(language) + "\n"
	}

	if width < 20 {
		width = 20
	}
	return theme.CodeBlock.MaxWidth(width).Render(header + body)
}

// =============================================================================
// REPLY RENDERING
// =============================================================================

// Reply renders turn text for the chat view. Prose is wrapped to width and
// fenced code is highlighted. An unterminated fence is treated as code
// running to the end, which keeps a partially revealed reply stable.
func Reply(theme *styles.Theme, body string, width int) string {
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)

	var (
		out      []string
		prose    []string
		code     []string
		language string
		inCode   bool
	)
	flushProse := func() {
		if len(prose) > 0 {
			out = append(out, wrap.Render(strings.Join(prose, "\n")))
			prose = nil
		}
	}
	flushCode := func() {
		out = append(out, CodeBlock(theme, language, strings.Join(code, "\n"), width))
		code = nil
		language = ""
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flushCode()
			} else {
				flushProse()
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			inCode = !inCode
			continue
		}
		if inCode {
			code = append(code, line)
		} else {
			prose = append(prose, line)
		}
	}
	if inCode {
		flushCode()
	}
	flushProse()

	return strings.Join(out, "\n")
}

// =============================================================================
// CODE EXTRACTION
// =============================================================================

// FirstCodeBlock returns the body of the first fenced code block in text,
// without the fence lines or language tag. When there is no fenced block the
// whole text is returned.
func FirstCodeBlock(body string) string {
	source := []byte(body)
	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	var found string
	var ok bool
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, isFence := n.(*ast.FencedCodeBlock)
		if !isFence {
			return ast.WalkContinue, nil
		}
		lines := block.Lines()
		var sb strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(source))
		}
		found = strings.TrimRight(sb.String(), "\n")
		ok = true
		return ast.WalkStop, nil
	})

	if !ok {
		return body
	}
	return found
}
