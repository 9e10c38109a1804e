// Package lessonplan builds the editable parts of a weekly lesson plan from a
// parsed syllabus week: topic and objective suggestions, the phase table and
// the report fields.
package lessonplan

import (
	"fmt"
	"strings"

	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

// Suggestion is a proposed lesson topic and objective.
type Suggestion struct {
	LessonTopic    string `json:"lesson_topic"`
	ThemeObjective string `json:"theme_objective"`
	Source         string `json:"source"`
}

// Suggestion sources, in priority order.
const (
	SourceCurriculum = "curriculum"
	SourceOutline    = "outline"
	SourceFallback   = "fallback"
)

const briefLen = 60

// Suggest proposes a topic and objective for one week and class.
//
// A matching curriculum row wins, then titles of the outline subsections the
// week mentions, then a template built from the week details.
func Suggest(week syllabus.WeekInfo, className, subject string, rows []curriculum.Row, outline syllabus.OutlineMap) Suggestion {
	className = strings.TrimSpace(className)
	subject = strings.TrimSpace(subject)

	for _, row := range rows {
		if row.Week() != week.WeekNo || !row.MatchesClass(className) {
			continue
		}
		topic := firstNonEmpty(row.Topic, row.Details, fmt.Sprintf("%s %s 수업", className, subject))
		objective := firstNonEmpty(row.Objective, fmt.Sprintf("%s 내용을 이해하고 적용한다.", topic))
		return Suggestion{LessonTopic: topic, ThemeObjective: objective, Source: SourceCurriculum}
	}

	if len(outline) > 0 {
		if codes := syllabus.ExtractWeekSubsectionCodes(week); len(codes) > 0 {
			titles := make([]string, 0, len(codes))
			for _, code := range codes {
				if title, ok := outline.Title(code); ok {
					titles = append(titles, title)
				} else {
					titles = append(titles, code)
				}
			}
			topic := strings.Join(titles, ", ")
			return Suggestion{
				LessonTopic:    topic,
				ThemeObjective: fmt.Sprintf("%s의 핵심 개념을 이해하고 학습 활동에 적용한다.", topic),
				Source:         SourceOutline,
			}
		}
	}

	brief := syllabus.Truncate(strings.TrimSpace(week.Details), briefLen)
	if brief == "" {
		brief = fmt.Sprintf("%s 핵심 단원", className)
	}
	return Suggestion{
		LessonTopic:    fmt.Sprintf("%s - %s", subject, brief),
		ThemeObjective: fmt.Sprintf("%s를 바탕으로 핵심 개념을 이해하고 활동으로 적용한다.", brief),
		Source:         SourceFallback,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
