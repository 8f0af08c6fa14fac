// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jeranaias/fakegpt/internal/model"
)

// =============================================================================
// PDF EXPORTER
// =============================================================================

// PDFExporter renders a session to an A4 PDF. Prose uses Helvetica and fenced
// code uses Courier on a shaded background. The core fonts only cover
// Windows-1252; other characters are replaced.
type PDFExporter struct {
	options *Options
}

// NewPDFExporter creates a new PDF exporter.
func NewPDFExporter(opts *Options) *PDFExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &PDFExporter{options: opts}
}

const (
	pdfLineHeight = 5.5
	pdfCodeHeight = 4.5
)

// Export converts a session to PDF.
func (e *PDFExporter) Export(sess *model.Session) ([]byte, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	title := sess.DisplayTitle()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("fakegpt", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)

	if e.options.IncludeMetadata {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(110, 110, 110)
		meta := fmt.Sprintf("%d turns - exported %s", sess.Len(), formatTimestamp(time.Now()))
		if e.options.Model != "" {
			meta = e.options.Model + " - " + meta
		}
		pdf.MultiCell(0, 5, tr(meta), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	for _, turn := range sess.Turns {
		pdf.SetFont("Helvetica", "B", 11)
		if turn.IsUser() {
			pdf.SetTextColor(3, 102, 214)
		} else {
			pdf.SetTextColor(34, 134, 58)
		}
		pdf.MultiCell(0, 6, tr(roleLabel(turn.Role)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)

		for _, seg := range splitFences(turn.Text) {
			if seg.code {
				pdf.SetFont("Courier", "", 9)
				pdf.SetFillColor(240, 242, 244)
				pdf.MultiCell(0, pdfCodeHeight, tr(seg.text), "", "L", true)
				pdf.Ln(1)
				continue
			}
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, pdfLineHeight, tr(seg.text), "", "L", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return ".pdf"
}

// MimeType returns the MIME type for PDF.
func (e *PDFExporter) MimeType() string {
	return "application/pdf"
}

// =============================================================================
// FENCE SPLITTING
// =============================================================================

type segment struct {
	code bool
	text string
}

// splitFences separates prose from ``` fenced code. The fence lines and the
// language tag are dropped. An unterminated fence runs to the end of the text.
func splitFences(text string) []segment {
	var (
		segs []segment
		cur  []string
		code bool
	)
	flush := func() {
		body := strings.Join(cur, "\n")
		if !code {
			body = strings.TrimSpace(body)
		}
		if strings.TrimSpace(body) != "" {
			segs = append(segs, segment{code: code, text: body})
		}
		cur = cur[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			flush()
			code = !code
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return segs
}
