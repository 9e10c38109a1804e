// Package render exports a weekly lesson report as TXT, PDF, DOCX or HTML.
package render

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
)

// Format is an export file format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTXT, FormatPDF, FormatDOCX, FormatHTML}
}

// ParseFormat accepts a format name, case-insensitively and with an optional dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename returns the download name for a week's report.
func Filename(weekNo int, f Format) string {
	return fmt.Sprintf("week_%d_report.%s", weekNo, f)
}

// Options configures a Renderer.
type Options struct {
	// FontPath is a TTF font with Hangul coverage used for PDF output.
	// Empty means search the usual system locations.
	FontPath string
}

// Renderer turns report fields into export documents.
type Renderer struct {
	fontPath string
}

// New creates a renderer.
func New(opts Options) *Renderer {
	return &Renderer{fontPath: opts.FontPath}
}

// Render produces the report in the requested format.
func (r *Renderer) Render(format Format, fields lessonplan.Fields) ([]byte, error) {
	rep := prepare(fields)
	switch format {
	case FormatTXT:
		return []byte(lessonplan.ComposeText(rep.fields, rep.draft)), nil
	case FormatPDF:
		return renderPDF(rep, r.fontPath)
	case FormatDOCX:
		return renderDOCX(rep)
	case FormatHTML:
		return renderHTML(rep)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type report struct {
	fields lessonplan.Fields
	rows   []lessonplan.LessonRow
	draft  string
}

// prepare applies defaults and recovers table rows from the edited draft
// when the caller sent only text.
func prepare(f lessonplan.Fields) report {
	f = f.WithDefaults()
	if len(lessonplan.NormalizeRows(f.LessonRows)) == 0 && strings.TrimSpace(f.EditedDraft) != "" {
		f.LessonRows = lessonplan.ParseRows(f.EditedDraft)
	}
	rows := f.Rows()

	draft := strings.TrimSpace(f.EditedDraft)
	if draft == "" {
		draft = lessonplan.FormatRows(rows)
	}
	return report{fields: f, rows: rows, draft: draft}
}

// safeText replaces NUL bytes, trims and caps s at max runes.
func safeText(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\x00", " "))
	if max > 0 && utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max]) + "…"
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
