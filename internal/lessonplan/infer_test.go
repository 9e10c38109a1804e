package lessonplan

import (
	"reflect"
	"testing"

	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

func TestInferSubject(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		details  string
		want     string
	}{
		{"hint in file name", "2026_Life-Science_syllabus.pdf", "", "Life Science"},
		{"korean hint", "과학_주간계획.pdf", "", "과학"},
		{"cleaned stem", "history_week.pdf", "", "history"},
		{"hint in details", "", "Math review", "Math"},
		{"noise only", "2026 weekly plan.pdf", "", DefaultSubject},
		{"empty", "", "", DefaultSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferSubject(tt.filename, syllabus.WeekInfo{Details: tt.details})
			if got != tt.want {
				t.Errorf("InferSubject(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestInferTargetGroup(t *testing.T) {
	tests := []struct {
		name string
		week syllabus.WeekInfo
		want string
	}{
		{"spaced marker", syllabus.WeekInfo{RawText: "G 7 수업"}, "G7"},
		{"lowercase marker", syllabus.WeekInfo{Details: "g10 class"}, "G10"},
		{"from events", syllabus.WeekInfo{Events: []string{"11A"}}, "G11"},
		{"marker inside word ignored", syllabus.WeekInfo{RawText: "AG6"}, DefaultTargetGroup},
		{"nothing", syllabus.WeekInfo{}, DefaultTargetGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferTargetGroup(tt.week); got != tt.want {
				t.Errorf("InferTargetGroup() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassCandidates(t *testing.T) {
	if got := ClassCandidates(syllabus.WeekInfo{Events: []string{"11A", "G6"}}); !reflect.DeepEqual(got, []string{"11A", "G6"}) {
		t.Errorf("ClassCandidates() = %v", got)
	}
	if got := ClassCandidates(syllabus.WeekInfo{}); !reflect.DeepEqual(got, []string{DefaultTargetGroup}) {
		t.Errorf("ClassCandidates() = %v, want [%s]", got, DefaultTargetGroup)
	}
}
