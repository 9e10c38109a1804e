package syllabus

import (
	"strings"
	"testing"
)

func TestInferClassDates(t *testing.T) {
	tests := []struct {
		name string
		week WeekInfo
		want string
	}{
		{
			name: "explicit pairs win",
			week: WeekInfo{Year: 2026, DateRange: "3.2-3.6", RawText: "2주 3.3(화) 실험, 3.5 목요일 발표 3.3(화) 재확인"},
			want: "2026.03.03(화), 2026.03.05(목)",
		},
		{
			name: "weekday run expands range",
			week: WeekInfo{Year: 2026, DateRange: "2.23-2.27", RawText: "1주 2.23-2.27 화/목 수업"},
			want: "2.24(화), 2.26(목)",
		},
		{
			name: "no run lists every day",
			week: WeekInfo{Year: 2026, DateRange: "3.2-3.4", RawText: "2주 3.2-3.4 수업"},
			want: "3.2(월), 3.3(화), 3.4(수)",
		},
		{
			name: "range wraps into next year",
			week: WeekInfo{Year: 2025, DateRange: "12.29-1.2", RawText: "17주 12.29-1.2 월/금"},
			want: "12.29(월), 1.2(금)",
		},
		{
			name: "run matches no day falls back to bounds",
			week: WeekInfo{Year: 2026, DateRange: "3.2-3.3", RawText: "토/일 보충"},
			want: "3.2(월), 3.3(화)",
		},
		{
			name: "unparsable range keeps run",
			week: WeekInfo{Year: 2026, DateRange: NoDateRange, RawText: "매주 화/목 수업"},
			want: "(화/목)",
		},
		{
			name: "bare weekday inside a word is ignored",
			week: WeekInfo{Year: 2026, DateRange: "3.9-3.9", RawText: "3주 3.9 화학 실험"},
			want: "3.9(월)",
		},
		{
			name: "nothing inferable",
			week: WeekInfo{Year: 2026, DateRange: NoDateRange, RawText: "내용 없음"},
			want: UnknownSchedule,
		},
		{
			name: "holiday suffix",
			week: WeekInfo{Year: 2026, DateRange: "3.9-3.13", RawText: "3주 3.9-3.13 공휴일"},
			want: "3.9(월), 3.10(화), 3.11(수), 3.12(목), 3.13(금)" + HolidaySuffix,
		},
		{
			name: "holiday suffix on explicit dates",
			week: WeekInfo{Year: 2026, DateRange: "4.20-4.24", RawText: "8주 4.21(화) 중간시험"},
			want: "2026.04.21(화)" + HolidaySuffix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferClassDates(tt.week); got != tt.want {
				t.Errorf("InferClassDates() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferClassDates_HolidaySuffixIff(t *testing.T) {
	markers := []string{"휴강", "공휴일", "대체휴일", "행사", "시험"}
	for _, m := range markers {
		got := InferClassDates(WeekInfo{Year: 2026, DateRange: "3.2-3.2", RawText: "2주 " + m})
		if !strings.HasSuffix(got, HolidaySuffix) {
			t.Errorf("marker %q: InferClassDates() = %q, want suffix", m, got)
		}
	}
	got := InferClassDates(WeekInfo{Year: 2026, DateRange: "3.2-3.2", RawText: "2주 실험"})
	if strings.Contains(got, HolidaySuffix) {
		t.Errorf("InferClassDates() = %q, want no suffix", got)
	}
}

func TestInferClassDates_Details(t *testing.T) {
	w := WeekInfo{Year: 2026, DateRange: NoDateRange, Details: "5.4(월) 행사"}
	want := "2026.05.04(월)" + HolidaySuffix
	if got := InferClassDates(w); got != want {
		t.Errorf("InferClassDates() = %q, want %q", got, want)
	}
}
