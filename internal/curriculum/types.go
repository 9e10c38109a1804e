package curriculum

import "strings"

// Row is one normalised line of a teacher-authored curriculum sheet.
type Row struct {
	WeekNo    *int   `json:"week_no" yaml:"week_no"`
	ClassName string `json:"class_name" yaml:"class_name"`
	Topic     string `json:"topic" yaml:"topic"`
	Objective string `json:"objective" yaml:"objective"`
	Details   string `json:"details" yaml:"details"`
}

// Week returns the row's week number, or 0 when the sheet had none.
func (r Row) Week() int {
	if r.WeekNo == nil {
		return 0
	}
	return *r.WeekNo
}

// IsEmpty reports whether every field of the row is blank.
func (r Row) IsEmpty() bool {
	return r.WeekNo == nil &&
		r.ClassName == "" &&
		r.Topic == "" &&
		r.Objective == "" &&
		r.Details == ""
}

// MatchesClass reports whether the row applies to className. Rows without a
// class and requests without a class match anything.
func (r Row) MatchesClass(className string) bool {
	rowClass := strings.ToLower(strings.TrimSpace(r.ClassName))
	want := strings.ToLower(strings.TrimSpace(className))
	return rowClass == "" || want == "" || rowClass == want
}

// Header aliases, checked in order. Keys are compared lowercased.
var (
	weekAliases      = []string{"week", "week_no", "주차"}
	classAliases     = []string{"class", "반", "분반", "target", "target group", "class_name"}
	topicAliases     = []string{"topic", "수업 주제", "주제"}
	objectiveAliases = []string{"objective", "수업 목적", "목적"}
	detailsAliases   = []string{"details", "내용", "비고", "description"}
)
