package lessonplan

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Report defaults.
const (
	DefaultDocTitle  = "주간 수업 계획서 및 보고서"
	DefaultMaterials = "교재, 활동지, 필기구"
	NoRemarks        = "특이사항 없음"
)

// Fields holds everything that goes into an exported weekly report.
type Fields struct {
	DocTitle       string      `json:"doc_title" validate:"max=200"`
	TeacherName    string      `json:"teacher_name" validate:"max=100"`
	Subject        string      `json:"subject" validate:"max=100"`
	WeekLabel      string      `json:"week_label" validate:"max=100"`
	ClassName      string      `json:"class_name" validate:"max=100"`
	LessonDatetime string      `json:"lesson_datetime" validate:"max=500"`
	TargetGroup    string      `json:"target_group" validate:"max=100"`
	Materials      string      `json:"materials" validate:"max=1000"`
	LessonTopic    string      `json:"lesson_topic" validate:"required,max=1000"`
	ThemeObjective string      `json:"theme_objective" validate:"max=2000"`
	Evaluation     string      `json:"evaluation" validate:"max=4000"`
	StudentNotes   string      `json:"student_notes" validate:"max=4000"`
	TeacherNotes   string      `json:"teacher_notes" validate:"max=4000"`
	LessonRows     []LessonRow `json:"lesson_rows" validate:"max=50"`
	EditedDraft    string      `json:"edited_draft" validate:"max=20000"`
}

// WithDefaults fills blank report fields with their defaults.
func (f Fields) WithDefaults() Fields {
	f.DocTitle = firstNonEmpty(f.DocTitle, DefaultDocTitle)
	f.Materials = firstNonEmpty(f.Materials, DefaultMaterials)
	f.Evaluation = firstNonEmpty(f.Evaluation, NoRemarks)
	f.StudentNotes = firstNonEmpty(f.StudentNotes, NoRemarks)
	f.TeacherNotes = firstNonEmpty(f.TeacherNotes, NoRemarks)
	return f
}

// Rows returns the normalised lesson rows, or the default rows when none remain.
func (f Fields) Rows() []LessonRow {
	if rows := NormalizeRows(f.LessonRows); len(rows) > 0 {
		return rows
	}
	return DefaultRows()
}

// ValidationError lists the report fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid report fields: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field lengths and required values.
func (f Fields) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating report fields: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out.Fields[fe.Field()] = "is required"
		case "max":
			out.Fields[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			out.Fields[fe.Field()] = "is invalid"
		}
	}
	return out
}

// ComposeText renders the plain-text report. draftText is the edited row
// text shown under the plan header.
func ComposeText(f Fields, draftText string) string {
	f = f.WithDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", f.DocTitle)
	fmt.Fprintf(&b, "교사: %s\n", f.TeacherName)
	fmt.Fprintf(&b, "수업: %s\n", f.ClassName)
	fmt.Fprintf(&b, "수업날짜: %s\n", f.LessonDatetime)
	fmt.Fprintf(&b, "대상: %s\n", f.TargetGroup)
	fmt.Fprintf(&b, "수업 필요물품/준비물: %s\n\n", f.Materials)
	b.WriteString("[수업 주제 및 수업 목적]\n")
	fmt.Fprintf(&b, "수업 주제: %s\n", f.LessonTopic)
	fmt.Fprintf(&b, "수업 목적: %s\n\n", f.ThemeObjective)
	fmt.Fprintf(&b, "[수업계획서]\n%s\n%s\n\n", RowsHeader, draftText)
	b.WriteString("[수업보고서]\n")
	fmt.Fprintf(&b, "수업평가: %s\n", f.Evaluation)
	fmt.Fprintf(&b, "학생특이사항: %s\n", f.StudentNotes)
	fmt.Fprintf(&b, "교사메모: %s\n", f.TeacherNotes)
	return b.String()
}
