package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`

	// A4 portrait with 2cm margins, in twentieths of a point.
	sectionXML = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr>`

	docxTextWidth = 9638
)

type docxRun struct {
	text   string
	bold   bool
	size   int // half-points; 0 keeps the default
	center bool
}

type docxBuilder struct {
	b strings.Builder
}

func renderDOCX(rep report) ([]byte, error) {
	f := rep.fields
	d := &docxBuilder{}

	d.paragraph(docxRun{text: safeText(f.DocTitle, 200), bold: true, size: 40, center: true})

	d.table([]int{docxTextWidth / 2, docxTextWidth / 2}, [][]docxRun{{
		{text: "교사: " + f.TeacherName + "\n수업: " + firstNonEmpty(f.ClassName, f.Subject)},
		{text: "수업날짜: " + firstNonEmpty(f.LessonDatetime, f.WeekLabel) + "\n대상: " + firstNonEmpty(f.TargetGroup, f.ClassName)},
	}})
	d.table([]int{docxTextWidth / 3, docxTextWidth - docxTextWidth/3}, [][]docxRun{{
		{text: "수업 필요 물품 / 준비물:", bold: true},
		{text: f.Materials},
	}})
	d.paragraph(docxRun{})

	d.paragraph(docxRun{text: "수업 주제 및 수업 목적", bold: true, center: true})
	d.table([]int{docxTextWidth}, [][]docxRun{{
		{text: "수업 주제: " + f.LessonTopic + "\n수업 목적: " + f.ThemeObjective},
	}})
	d.paragraph(docxRun{})

	d.paragraph(docxRun{text: "수업계획서", bold: true, center: true})
	plan := [][]docxRun{nil}
	for _, h := range strings.Split(lessonplan.RowsHeader, "|") {
		plan[0] = append(plan[0], docxRun{text: h, bold: true, size: 22, center: true})
	}
	for _, r := range rep.rows {
		plan = append(plan, []docxRun{
			{text: r.Phase, bold: true, center: true},
			{text: r.Time, center: true},
			{text: r.Content},
			{text: r.Remarks},
		})
	}
	d.table([]int{1300, 1100, 5400, docxTextWidth - 7800}, plan)
	d.paragraph(docxRun{})

	d.paragraph(docxRun{text: "수업보고서", bold: true, center: true})
	teacherNote := f.TeacherNotes
	if draft := strings.TrimSpace(f.EditedDraft); draft != "" {
		teacherNote = strings.TrimSpace(teacherNote + "\n\n[초안]\n" + draft)
	}
	d.table([]int{docxTextWidth / 4, docxTextWidth - docxTextWidth/4}, [][]docxRun{
		{{text: "수업 평가:", bold: true}, {text: f.Evaluation}},
		{{text: "학생 특이 사항", bold: true}, {text: f.StudentNotes}},
		{{text: "교사 메모", bold: true}, {text: teacherNote}},
	})

	return d.pack()
}

func (d *docxBuilder) paragraph(r docxRun) {
	d.b.WriteString("<w:p>")
	if r.center {
		d.b.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	if r.text != "" {
		d.run(r)
	}
	d.b.WriteString("</w:p>")
}

// run writes text as one run, turning newlines into line breaks.
func (d *docxBuilder) run(r docxRun) {
	d.b.WriteString("<w:r>")
	if r.bold || r.size > 0 {
		d.b.WriteString("<w:rPr>")
		if r.bold {
			d.b.WriteString("<w:b/>")
		}
		if r.size > 0 {
			d.b.WriteString(`<w:sz w:val="` + strconv.Itoa(r.size) + `"/>`)
		}
		d.b.WriteString("</w:rPr>")
	}
	for i, line := range strings.Split(safeText(r.text, 0), "\n") {
		if i > 0 {
			d.b.WriteString("<w:br/>")
		}
		d.b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(&d.b, []byte(xmlSafe(line)))
		d.b.WriteString("</w:t>")
	}
	d.b.WriteString("</w:r>")
}

func (d *docxBuilder) table(widths []int, rows [][]docxRun) {
	d.b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		d.b.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="000000"/>`)
	}
	d.b.WriteString(`</w:tblBorders></w:tblPr><w:tblGrid>`)
	for _, w := range widths {
		d.b.WriteString(`<w:gridCol w:w="` + strconv.Itoa(w) + `"/>`)
	}
	d.b.WriteString(`</w:tblGrid>`)
	for _, row := range rows {
		d.b.WriteString("<w:tr>")
		for i, cell := range row {
			d.b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="` + strconv.Itoa(widths[i]) + `" w:type="dxa"/></w:tcPr>`)
			if cell.size == 0 {
				cell.size = 20
			}
			d.paragraph(cell)
			d.b.WriteString("</w:tc>")
		}
		d.b.WriteString("</w:tr>")
	}
	d.b.WriteString("</w:tbl>")
}

func (d *docxBuilder) pack() ([]byte, error) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		d.b.String() + sectionXML + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", document},
	} {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing docx: %w", err)
	}
	return buf.Bytes(), nil
}

// xmlSafe drops characters XML 1.0 cannot carry.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}
