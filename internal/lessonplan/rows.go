package lessonplan

import (
	"fmt"
	"strings"

	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

// LessonRow is one phase of the lesson plan table.
type LessonRow struct {
	Phase   string `json:"phase"`
	Time    string `json:"time"`
	Content string `json:"content"`
	Remarks string `json:"remarks"`
}

// RowsHeader is the header line shown above the editable row text.
const RowsHeader = "단계|시간|내용|비고"

const developLen = 100

// DefaultRows is used by renderers when a plan has no rows at all.
func DefaultRows() []LessonRow {
	return []LessonRow{
		{Phase: "도입", Time: "10분", Content: "복습 및 동기 유발"},
		{Phase: "전개", Time: "30분", Content: "핵심 개념 및 활동"},
		{Phase: "정리", Time: "10분", Content: "형성평가 및 과제"},
	}
}

// GenerateRows produces the three-row pipe-delimited draft for a week.
func GenerateRows(week syllabus.WeekInfo, note string, includePrayer bool) string {
	intro := "출석 확인, 지난 시간 복습"
	if includePrayer {
		intro = "기도 및 출석 확인, 지난 시간 복습"
	}

	seed := syllabus.Truncate(strings.TrimSpace(week.Details), developLen)
	if seed == "" {
		seed = "핵심 단원 학습"
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = "개념 확인 활동"
	}
	develop := fmt.Sprintf("%s 설명 및 활동 (메모: %s)", cellText(seed), cellText(note))

	return strings.Join([]string{
		"도입|10분|" + intro + "|집중 유도",
		"전개|25분|" + develop + "|질의응답",
		"정리|5분|형성평가, 과제 안내, 다음 시간 예고|마무리",
	}, "\n")
}

// cellText keeps embedded text on one line and free of column separators.
func cellText(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return syllabus.CollapseSpace(s)
}

// ParseRows reads pipe-delimited row text. A line with at least three pipes
// starts a row (extra pipes stay in the remarks); any other line continues the
// previous row's content.
func ParseRows(text string) []LessonRow {
	var rows []LessonRow
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.Count(line, "|") < 3 {
			if len(rows) > 0 {
				last := &rows[len(rows)-1]
				last.Content = strings.TrimSpace(last.Content + "\n" + line)
			} else {
				rows = append(rows, LessonRow{Content: line})
			}
			continue
		}

		parts := strings.SplitN(line, "|", 4)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rows = append(rows, LessonRow{Phase: parts[0], Time: parts[1], Content: parts[2], Remarks: parts[3]})
	}
	return rows
}

// NormalizeRows drops blank rows and folds rows without content into the
// previous row, so every returned row has content.
func NormalizeRows(rows []LessonRow) []LessonRow {
	out := make([]LessonRow, 0, len(rows))
	for _, r := range rows {
		r = LessonRow{
			Phase:   strings.TrimSpace(r.Phase),
			Time:    strings.TrimSpace(r.Time),
			Content: strings.TrimSpace(r.Content),
			Remarks: strings.TrimSpace(r.Remarks),
		}
		if r.Phase == "" && r.Time == "" && r.Content == "" && r.Remarks == "" {
			continue
		}
		if r.Content != "" {
			out = append(out, r)
			continue
		}

		var frags []string
		for _, v := range []string{r.Phase, r.Time, r.Remarks} {
			if v != "" {
				frags = append(frags, v)
			}
		}
		merged := strings.Join(frags, " | ")
		if len(out) == 0 {
			out = append(out, LessonRow{Content: merged})
			continue
		}
		last := &out[len(out)-1]
		last.Content = last.Content + "\n" + merged
	}
	return out
}

// FormatRows renders rows back into pipe-delimited text.
func FormatRows(rows []LessonRow) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{r.Phase, r.Time, r.Content, r.Remarks}, "|"))
	}
	return strings.Join(lines, "\n")
}
