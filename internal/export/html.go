// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/fakegpt/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sessions to a standalone HTML page. Turn text is
// treated as Markdown; raw HTML inside a turn is dropped.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options:  opts,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Export converts a session to HTML.
func (e *HTMLExporter) Export(sess *model.Session) ([]byte, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	title := html.EscapeString(sess.DisplayTitle())
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", title))
	sb.WriteString("    <meta name=\"generator\" content=\"fakegpt\">\n")
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.theme()))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", title))
	if e.options.IncludeMetadata {
		sb.WriteString("            <div class=\"metadata\">\n")
		if e.options.Model != "" {
			sb.WriteString(fmt.Sprintf("                <span><strong>Model:</strong> %s</span>\n", html.EscapeString(e.options.Model)))
		}
		sb.WriteString(fmt.Sprintf("                <span><strong>Turns:</strong> %d</span>\n", sess.Len()))
		sb.WriteString(fmt.Sprintf("                <span><strong>Exported:</strong> %s</span>\n", formatTimestamp(time.Now())))
		sb.WriteString("            </div>\n")
	}
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, turn := range sess.Turns {
		body, err := e.renderTurn(turn.Text)
		if err != nil {
			return nil, err
		}
		sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", turn.Role))
		sb.WriteString(fmt.Sprintf("                <div class=\"role-label\">%s</div>\n", roleLabel(turn.Role)))
		sb.WriteString("                <div class=\"message-content\">\n")
		sb.WriteString(body)
		sb.WriteString("                </div>\n")
		sb.WriteString("            </div>\n")
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("    </div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// renderTurn converts one turn's Markdown to HTML.
func (e *HTMLExporter) renderTurn(text string) (string, error) {
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "light" {
		return "light"
	}
	return "dark"
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            --font-mono: "SF Mono", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg: #1a1b26;
            --panel: #24283b;
            --text: #c0caf5;
            --muted: #565f89;
            --border: #414868;
            --user: #7aa2f7;
            --model: #9ece6a;
            --code-bg: #16161e;
        }

        .light-theme {
            --bg: #ffffff;
            --panel: #f6f8fa;
            --text: #24292e;
            --muted: #6a737d;
            --border: #e1e4e8;
            --user: #0366d6;
            --model: #22863a;
            --code-bg: #f0f2f4;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text);
            background: var(--bg);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; }

        .header {
            padding: 24px 0;
            border-bottom: 2px solid var(--border);
            margin-bottom: 24px;
        }

        .header h1 { font-size: 26px; margin-bottom: 8px; }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--muted);
        }

        .message {
            margin-bottom: 20px;
            padding: 16px 20px;
            border-radius: 8px;
            background: var(--panel);
            border-left: 4px solid transparent;
        }

        .user-message { border-left-color: var(--user); }
        .model-message { border-left-color: var(--model); }

        .role-label { font-weight: 600; font-size: 14px; margin-bottom: 8px; }

        .message-content p { margin-bottom: 10px; }
        .message-content p:last-child { margin-bottom: 0; }

        .message-content pre {
            margin: 12px 0;
            padding: 12px 16px;
            overflow-x: auto;
            background: var(--code-bg);
            border: 1px solid var(--border);
            border-radius: 6px;
        }

        .message-content code { font-family: var(--font-mono); font-size: 14px; }

        @media print {
            body { padding: 0; }
            .message { page-break-inside: avoid; }
        }
    </style>
`
