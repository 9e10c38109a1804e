package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Nanum Gothic", "Malgun Gothic", sans-serif; max-width: 860px; margin: 2em auto; }
h1, h2 { text-align: center; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1em; }
th, td { border: 1px solid #444; padding: 4px 8px; vertical-align: top; }
pre { white-space: pre-wrap; border: 1px solid #444; padding: 8px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

func renderHTML(rep report) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(reportMarkdown(rep)), &body); err != nil {
		return nil, fmt.Errorf("converting report markdown: %w", err)
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: rep.fields.DocTitle,
		Body:  template.HTML(body.String()), // goldmark output; raw HTML in the source is omitted
	})
	if err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return out.Bytes(), nil
}

// ReportMarkdown returns the markdown source used for the HTML export.
func ReportMarkdown(fields lessonplan.Fields) string {
	return reportMarkdown(prepare(fields))
}

func reportMarkdown(rep report) string {
	f := rep.fields
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", mdEscape(f.DocTitle))

	b.WriteString("| 항목 | 내용 |\n| --- | --- |\n")
	for _, kv := range [][2]string{
		{"교사", f.TeacherName},
		{"과목", f.Subject},
		{"주차", f.WeekLabel},
		{"수업", f.ClassName},
		{"수업날짜", f.LessonDatetime},
		{"대상", f.TargetGroup},
		{"준비물", f.Materials},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", kv[0], mdCell(kv[1]))
	}

	b.WriteString("\n## 수업 주제 및 수업 목적\n\n")
	fmt.Fprintf(&b, "**수업 주제:** %s\n\n", mdEscape(f.LessonTopic))
	fmt.Fprintf(&b, "**수업 목적:** %s\n\n", mdEscape(f.ThemeObjective))

	b.WriteString("## 수업계획서\n\n")
	b.WriteString("| 단계 | 시간 | 내용 | 비고 |\n| :---: | :---: | --- | --- |\n")
	for _, r := range rep.rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", mdCell(r.Phase), mdCell(r.Time), mdCell(r.Content), mdCell(r.Remarks))
	}

	b.WriteString("\n## 수업보고서\n\n")
	b.WriteString("| 항목 | 내용 |\n| --- | --- |\n")
	fmt.Fprintf(&b, "| 수업 평가 | %s |\n", mdCell(f.Evaluation))
	fmt.Fprintf(&b, "| 학생 특이사항 | %s |\n", mdCell(f.StudentNotes))
	fmt.Fprintf(&b, "| 교사 메모 | %s |\n", mdCell(f.TeacherNotes))

	if draft := strings.TrimSpace(f.EditedDraft); draft != "" {
		b.WriteString("\n## 첨부 초안\n\n")
		for _, line := range strings.Split(draft, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				fmt.Fprintf(&b, "%s  \n", mdEscape(line))
			}
		}
	}
	return b.String()
}

// mdEscape backslash-escapes ASCII punctuation so user text renders literally.
func mdEscape(s string) string {
	s = safeText(s, 0)
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune("\\`*_{}[]()<>#+-.!|~&\"'", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func mdCell(s string) string {
	return mdEscape(strings.Join(strings.Fields(s), " "))
}
