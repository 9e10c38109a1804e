package lessonplan

import (
	"errors"
	"strings"
	"testing"
)

func TestComposeText(t *testing.T) {
	f := Fields{
		TeacherName:    "김교사",
		ClassName:      "11A",
		LessonDatetime: "2.24(화), 2.26(목)",
		TargetGroup:    "G11",
		LessonTopic:    "세포의 구조",
		ThemeObjective: "세포 소기관을 설명한다.",
	}
	got := ComposeText(f, "도입|10분|복습|")

	want := "주간 수업 계획서 및 보고서\n\n" +
		"교사: 김교사\n" +
		"수업: 11A\n" +
		"수업날짜: 2.24(화), 2.26(목)\n" +
		"대상: G11\n" +
		"수업 필요물품/준비물: 교재, 활동지, 필기구\n\n" +
		"[수업 주제 및 수업 목적]\n" +
		"수업 주제: 세포의 구조\n" +
		"수업 목적: 세포 소기관을 설명한다.\n\n" +
		"[수업계획서]\n단계|시간|내용|비고\n도입|10분|복습|\n\n" +
		"[수업보고서]\n" +
		"수업평가: 특이사항 없음\n" +
		"학생특이사항: 특이사항 없음\n" +
		"교사메모: 특이사항 없음\n"
	if got != want {
		t.Errorf("ComposeText() =\n%s\nwant\n%s", got, want)
	}
}

func TestFields_Rows(t *testing.T) {
	f := Fields{LessonRows: []LessonRow{{}, {Phase: "도입", Content: "복습"}}}
	if rows := f.Rows(); len(rows) != 1 || rows[0].Content != "복습" {
		t.Errorf("Rows() = %+v", rows)
	}
	if rows := (Fields{}).Rows(); len(rows) != 3 || rows[0].Phase != "도입" {
		t.Errorf("Rows() on empty = %+v, want defaults", rows)
	}
}

func TestFields_Validate(t *testing.T) {
	tests := []struct {
		name      string
		fields    Fields
		wantField string
	}{
		{"valid", Fields{LessonTopic: "주제"}, ""},
		{"missing topic", Fields{}, "lesson_topic"},
		{"title too long", Fields{LessonTopic: "주제", DocTitle: strings.Repeat("가", 201)}, "doc_title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("ValidationError.Fields = %v, want key %q", verr.Fields, tt.wantField)
			}
		})
	}
}
