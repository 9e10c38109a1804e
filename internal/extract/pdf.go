// Package extract pulls plain text out of uploaded syllabus documents.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoExtractableText is returned when a document has no text layer.
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	// ErrNotPDF is returned for content without a PDF header.
	ErrNotPDF = errors.New("content is not a PDF document")
)

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (string, error)
}

// PDFExtractor extracts text page by page, keeping one output line per text row.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractFile reads a PDF from disk and extracts its text.
func (e *PDFExtractor) ExtractFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}
	return e.Extract(ctx, content)
}

// Extract returns the text of every readable page, pages separated by a blank line.
func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (text string, err error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}
	if !bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), []byte("%PDF-")) {
		return "", ErrNotPDF
	}

	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText := pageLines(page)
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}

	text = SanitizeText(b.String())
	if strings.TrimSpace(text) == "" {
		return "", ErrNoExtractableText
	}
	return text, nil
}

func pageLines(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil || len(rows) == 0 {
		plain, err := page.GetPlainText(nil)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(plain)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row.Content))
		for _, t := range row.Content {
			if s := strings.TrimSpace(t.S); s != "" {
				parts = append(parts, s)
			}
		}
		if line := strings.Join(parts, " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// SanitizeText removes NUL bytes and control characters other than newlines
// and tabs.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, s)
}
