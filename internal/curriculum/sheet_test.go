package curriculum

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func intPtr(n int) *int { return &n }

func TestParse_CSV(t *testing.T) {
	csvText := "\ufeffWeek,반,수업 주제,목적,비고\n" +
		"1주차,11A,세포의 구조,세포 소기관의 기능을 설명한다.,\n" +
		"2,,광합성,,실험 포함\n" +
		",,,,\n" +
		"x,,,,메모만\n"

	rows, err := Parse(strings.NewReader(csvText), ".csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Parse() returned %d rows, want 3", len(rows))
	}

	if rows[0].Week() != 1 || rows[0].ClassName != "11A" || rows[0].Topic != "세포의 구조" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[0].Objective != "세포 소기관의 기능을 설명한다." {
		t.Errorf("rows[0].Objective = %q", rows[0].Objective)
	}
	if rows[1].Week() != 2 || rows[1].Details != "실험 포함" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
	if rows[2].WeekNo != nil || rows[2].Details != "메모만" {
		t.Errorf("rows[2] = %+v, want nil week with details", rows[2])
	}
}

func TestNormalize_AliasPriority(t *testing.T) {
	rows := Normalize([]map[string]string{
		{"CLASS": "", "반": "G7", "Target": "G8", "Topic": " 화학 반응 ", "Description": "d", "내용": "c"},
	})
	if len(rows) != 1 {
		t.Fatalf("Normalize() returned %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.ClassName != "G7" {
		t.Errorf("ClassName = %q, want first non-empty alias G7", r.ClassName)
	}
	if r.Topic != "화학 반응" {
		t.Errorf("Topic = %q, want trimmed value", r.Topic)
	}
	if r.Details != "c" {
		t.Errorf("Details = %q, want 내용 before description", r.Details)
	}
}

func TestNormalize_DropsEmptyRows(t *testing.T) {
	rows := Normalize([]map[string]string{
		{"week": "", "topic": "  "},
		{"unrelated": "value"},
	})
	if len(rows) != 0 {
		t.Errorf("Normalize() = %+v, want no rows", rows)
	}
}

func TestParse_YAML(t *testing.T) {
	doc := `
- week: 3
  class: 11B
  topic: 유전
  objective: 멘델의 법칙을 설명한다.
- 주차: 4주
  주제: 진화
- {}
`
	rows, err := Parse(strings.NewReader(doc), ".yml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Parse() returned %d rows, want 2", len(rows))
	}
	if rows[0].Week() != 3 || rows[0].ClassName != "11B" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Week() != 4 || rows[1].Topic != "진화" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

func TestParse_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"Week No", "Class_Name", "수업 주제", "수업 목적"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{5, "G6", "생태계", ""}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A3", &[]any{"", "", "", ""}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rows, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ParseFile() returned %d rows, want 1", len(rows))
	}
	// "week no" is not an alias; only "week", "week_no" and "주차" are.
	if rows[0].WeekNo != nil {
		t.Errorf("WeekNo = %d, want nil", *rows[0].WeekNo)
	}
	if rows[0].ClassName != "G6" || rows[0].Topic != "생태계" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse(strings.NewReader(""), ".xls")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Parse(.xls) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRow_MatchesClass(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		req  string
		want bool
	}{
		{"same class", Row{ClassName: "11A"}, "11a", true},
		{"row without class", Row{WeekNo: intPtr(1)}, "11A", true},
		{"request without class", Row{ClassName: "11A"}, "", true},
		{"different class", Row{ClassName: "11A"}, "11B", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.MatchesClass(tt.req); got != tt.want {
				t.Errorf("MatchesClass(%q) = %v, want %v", tt.req, got, tt.want)
			}
		})
	}
}
