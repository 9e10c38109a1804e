package render

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/signintech/gopdf"

	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
)

// ErrNoFont is returned when PDF output is requested and no usable TTF font exists.
var ErrNoFont = errors.New("no TTF font with Hangul glyphs found")

// fontCandidates are tried in order when no font path is configured.
// gopdf reads plain TrueType only, so .ttc collections and CFF .otf files are left out.
var fontCandidates = []string{
	"fonts/NanumGothic.ttf",
	"fonts/malgun.ttf",
	"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
	"/usr/share/fonts/truetype/noto/NotoSansKR-Regular.ttf",
	"/usr/share/fonts/noto/NotoSansKR-Regular.ttf",
	"/Library/Fonts/NanumGothic.ttf",
	"/System/Library/Fonts/Supplemental/AppleGothic.ttf",
	"C:/Windows/Fonts/malgun.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// FindFont returns explicit when it names an existing file, otherwise the
// first candidate present on this machine.
func FindFont(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrNoFont, explicit, err)
		}
		return explicit, nil
	}
	for _, p := range fontCandidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrNoFont
}

const (
	mm         = 72.0 / 25.4
	pageMargin = 12 * mm
	lineHeight = 13.0
	cellPad    = 3.0
	fontFamily = "body"
	maxPDFRows = 8
)

var planColumns = [4]float64{25 * mm, 22 * mm, 110 * mm, 33 * mm}

type pdfWriter struct {
	pdf   *gopdf.GoPdf
	y     float64
	width float64
	pageH float64
}

func renderPDF(rep report, fontPath string) ([]byte, error) {
	path, err := FindFont(fontPath)
	if err != nil {
		return nil, err
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFont(fontFamily, path); err != nil {
		return nil, fmt.Errorf("loading font %s: %w", path, err)
	}

	w := &pdfWriter{
		pdf:   pdf,
		width: gopdf.PageSizeA4.W - 2*pageMargin,
		pageH: gopdf.PageSizeA4.H,
	}
	w.newPage()
	pdf.SetLineWidth(0.6)

	if err := w.layout(rep); err != nil {
		return nil, err
	}

	out, err := pdf.GetBytesPdfReturnErr()
	if err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return out, nil
}

func (w *pdfWriter) layout(rep report) error {
	f := rep.fields

	if err := w.title(safeText(f.DocTitle, 200)); err != nil {
		return err
	}

	quarter := w.width / 4
	var header []pdfCell
	for _, kv := range [][2]string{
		{"교사", f.TeacherName},
		{"과목", f.Subject},
		{"주차", f.WeekLabel},
		{"반", f.ClassName},
	} {
		header = append(header,
			pdfCell{width: quarter * 0.35, text: kv[0], center: true},
			pdfCell{width: quarter * 0.65, text: safeText(kv[1], 80)},
		)
	}
	if err := w.row(10, header...); err != nil {
		return err
	}

	for _, kv := range [][2]string{
		{"일정", firstNonEmpty(f.LessonDatetime, f.WeekLabel)},
		{"대상", firstNonEmpty(f.TargetGroup, f.ClassName)},
		{"준비물", f.Materials},
		{"주제", f.LessonTopic},
		{"목표", f.ThemeObjective},
	} {
		if err := w.field(kv[0], safeText(kv[1], 400)); err != nil {
			return err
		}
	}

	if err := w.banner("수업 계획"); err != nil {
		return err
	}
	if err := w.planHeader(); err != nil {
		return err
	}
	rows := rep.rows
	if len(rows) > maxPDFRows {
		rows = rows[:maxPDFRows]
	}
	for _, r := range rows {
		if err := w.planRow(r); err != nil {
			return err
		}
	}

	if err := w.banner("수업 보고"); err != nil {
		return err
	}
	for _, kv := range [][2]string{
		{"평가", f.Evaluation},
		{"학생 특이사항", f.StudentNotes},
		{"교사 메모", f.TeacherNotes},
	} {
		if err := w.field(kv[0], safeText(kv[1], 400)); err != nil {
			return err
		}
	}

	w.y += 6
	return w.rowSized(9, 11, pdfCell{width: w.width, text: "첨부 초안\n" + safeText(rep.draft, 3000)})
}

type pdfCell struct {
	width  float64
	text   string
	center bool
}

func (w *pdfWriter) newPage() {
	w.pdf.AddPage()
	w.y = pageMargin
}

func (w *pdfWriter) ensure(h float64) {
	if w.y+h > w.pageH-pageMargin {
		w.newPage()
	}
}

func (w *pdfWriter) title(text string) error {
	if err := w.pdf.SetFont(fontFamily, "", 16); err != nil {
		return fmt.Errorf("setting font: %w", err)
	}
	tw, err := w.pdf.MeasureTextWidth(text)
	if err != nil {
		return fmt.Errorf("measuring title: %w", err)
	}
	w.pdf.SetXY(pageMargin+(w.width-tw)/2, w.y)
	if err := w.pdf.Cell(nil, text); err != nil {
		return fmt.Errorf("writing title: %w", err)
	}
	w.y += 28
	return nil
}

func (w *pdfWriter) banner(text string) error {
	w.y += 6
	return w.rowSized(11, lineHeight, pdfCell{width: w.width, text: text})
}

func (w *pdfWriter) field(label, value string) error {
	left := 35 * mm
	return w.row(10, pdfCell{width: left, text: label}, pdfCell{width: w.width - left, text: value})
}

func (w *pdfWriter) planHeader() error {
	var cells []pdfCell
	for i, h := range strings.Split(lessonplan.RowsHeader, "|") {
		cells = append(cells, pdfCell{width: planColumns[i], text: h, center: true})
	}
	return w.row(10, cells...)
}

func (w *pdfWriter) planRow(r lessonplan.LessonRow) error {
	return w.row(10,
		pdfCell{width: planColumns[0], text: safeText(r.Phase, 40), center: true},
		pdfCell{width: planColumns[1], text: safeText(r.Time, 20), center: true},
		pdfCell{width: planColumns[2], text: safeText(r.Content, 260)},
		pdfCell{width: planColumns[3], text: safeText(r.Remarks, 100)},
	)
}

func (w *pdfWriter) row(size float64, cells ...pdfCell) error {
	return w.rowSized(size, lineHeight, cells...)
}

// rowSized draws bordered cells side by side. Every cell in the row takes the
// height of the tallest wrapped text.
func (w *pdfWriter) rowSized(size, lh float64, cells ...pdfCell) error {
	if err := w.pdf.SetFont(fontFamily, "", size); err != nil {
		return fmt.Errorf("setting font: %w", err)
	}

	wrapped := make([][]string, len(cells))
	maxLines := 1
	for i, c := range cells {
		lines, err := w.wrap(c.text, c.width-2*cellPad)
		if err != nil {
			return err
		}
		wrapped[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}

	h := float64(maxLines)*lh + 2*cellPad
	usable := w.pageH - 2*pageMargin
	if h > usable {
		// Split an oversized row across pages line by line.
		return w.splitRow(size, lh, cells, wrapped)
	}
	w.ensure(h)

	x := pageMargin
	for i, c := range cells {
		w.pdf.RectFromUpperLeftWithStyle(x, w.y, c.width, h, "D")
		for j, line := range wrapped[i] {
			tx := x + cellPad
			if c.center {
				if lw, err := w.pdf.MeasureTextWidth(line); err == nil {
					tx = x + (c.width-lw)/2
				}
			}
			w.pdf.SetXY(tx, w.y+cellPad+float64(j)*lh)
			if err := w.pdf.Cell(&gopdf.Rect{W: c.width - 2*cellPad, H: lh}, line); err != nil {
				return fmt.Errorf("writing cell: %w", err)
			}
		}
		x += c.width
	}
	w.y += h
	return nil
}

func (w *pdfWriter) splitRow(size, lh float64, cells []pdfCell, wrapped [][]string) error {
	perPage := int((w.pageH-2*pageMargin-2*cellPad)/lh) - 1
	for start := 0; ; start += perPage {
		done := true
		chunk := make([]pdfCell, len(cells))
		for i, c := range cells {
			chunk[i] = c
			chunk[i].text = ""
			if start < len(wrapped[i]) {
				end := min(start+perPage, len(wrapped[i]))
				chunk[i].text = strings.Join(wrapped[i][start:end], "\n")
				if end < len(wrapped[i]) {
					done = false
				}
			}
		}
		w.newPage()
		if err := w.rowSized(size, lh, chunk...); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// wrap breaks text into lines that fit width, keeping explicit newlines.
func (w *pdfWriter) wrap(text string, width float64) ([]string, error) {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimRight(para, " \t\r")
		if para == "" {
			out = append(out, "")
			continue
		}
		lines, err := w.pdf.SplitText(para, width)
		if err != nil {
			return nil, fmt.Errorf("wrapping text: %w", err)
		}
		out = append(out, lines...)
	}
	return out, nil
}
