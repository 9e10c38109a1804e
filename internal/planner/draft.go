package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

// ErrWeekNotFound is returned when a syllabus has no week with the requested number.
var ErrWeekNotFound = errors.New("week not found")

// DraftOptions are the teacher's choices for one draft.
type DraftOptions struct {
	WeekNo      int    `json:"week_no"`
	ClassName   string `json:"class_name"`
	Note        string `json:"note"`
	NoPrayer    bool   `json:"no_prayer"`
	TeacherName string `json:"teacher_name"`
	UserID      string `json:"-"`
}

// Draft is a prefilled lesson plan ready for editing.
type Draft struct {
	Week       syllabus.WeekInfo     `json:"week"`
	Classes    []string              `json:"classes"`
	Suggestion lessonplan.Suggestion `json:"suggestion"`
	DraftText  string                `json:"draft_text"`
	Fields     lessonplan.Fields     `json:"fields"`
}

// BuildDraft prefills report fields and the phase rows for one week of a
// parsed syllabus. filename feeds subject inference.
func BuildDraft(filename string, doc syllabus.Document, rows []curriculum.Row, opts DraftOptions) (Draft, error) {
	week, ok := doc.Week(opts.WeekNo)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %d", ErrWeekNotFound, opts.WeekNo)
	}

	classes := lessonplan.ClassCandidates(week)
	className := strings.TrimSpace(opts.ClassName)
	if className == "" {
		className = classes[0]
	}

	subject := lessonplan.InferSubject(filename, week)
	suggestion := lessonplan.Suggest(week, className, subject, rows, doc.OutlineMap)
	draftText := lessonplan.GenerateRows(week, opts.Note, !opts.NoPrayer)

	fields := lessonplan.Fields{
		TeacherName:    opts.TeacherName,
		Subject:        subject,
		WeekLabel:      week.Label(),
		ClassName:      className,
		LessonDatetime: syllabus.InferClassDates(week),
		TargetGroup:    lessonplan.InferTargetGroup(week),
		LessonTopic:    suggestion.LessonTopic,
		ThemeObjective: suggestion.ThemeObjective,
		LessonRows:     lessonplan.ParseRows(draftText),
	}.WithDefaults()

	return Draft{
		Week:       week,
		Classes:    classes,
		Suggestion: suggestion,
		DraftText:  draftText,
		Fields:     fields,
	}, nil
}

// Draft builds a draft for a stored syllabus.
func (l *Library) Draft(ctx context.Context, syllabusID string, rows []curriculum.Row, opts DraftOptions) (Draft, error) {
	rec, err := l.Get(ctx, syllabusID)
	if err != nil {
		return Draft{}, err
	}

	d, err := BuildDraft(rec.Name, syllabus.Document{Weeks: rec.Weeks, OutlineMap: rec.OutlineMap}, rows, opts)
	if err != nil {
		return Draft{}, err
	}

	logEvent(l.events, Event{
		SyllabusID: rec.ID,
		UserID:     opts.UserID,
		EventType:  EventDraftGenerated,
		Data: map[string]any{
			"week_no":    opts.WeekNo,
			"class_name": d.Fields.ClassName,
			"source":     d.Suggestion.Source,
		},
	})
	return d, nil
}
