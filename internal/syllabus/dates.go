package syllabus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Labels produced by InferClassDates.
const (
	UnknownSchedule = "일정 미확인"
	HolidaySuffix   = " [휴강/행사 확인]"
)

// maxRangeDays bounds the expansion of a date range into single days.
const maxRangeDays = 62

var (
	dateDayRe   = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})\s*(?:\(([월화수목금토일])\)|([월화수목금토일]))`)
	dayRunRe    = regexp.MustCompile(`[월화수목금토일](?:/[월화수목금토일])+`)
	holidayRe   = regexp.MustCompile(`휴강|공휴일|대체휴일|행사|시험`)
	rangePartRe = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})`)
)

var weekdayNames = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// InferClassDates derives a human readable lesson date label for a week.
//
// Explicit "M.D(요일)" pairs take precedence. Otherwise the week's date range is
// expanded into the days named by a weekday run such as "화/목" (or every day
// when no run exists). When the range cannot be parsed, the raw range is
// returned with the run attached.
func InferClassDates(w WeekInfo) string {
	year := w.Year
	if year == 0 {
		year = now().Year()
	}
	search := w.RawText + " " + w.Details
	run := dayRunRe.FindString(search)

	result := explicitDates(search, year)
	if result == "" {
		result = rangeDates(w.DateRange, run, year)
	}
	if result == "" {
		result = strings.TrimSpace(w.DateRange)
		if result == NoDateRange {
			result = ""
		}
		if run != "" {
			result = strings.TrimSpace(result + " (" + run + ")")
		}
	}
	if result == "" {
		result = UnknownSchedule
	}
	if holidayRe.MatchString(search) {
		result += HolidaySuffix
	}
	return result
}

func explicitDates(search string, year int) string {
	var parts []string
	seen := make(map[string]struct{})
	for _, m := range dateDayRe.FindAllStringSubmatchIndex(search, -1) {
		month, _ := strconv.Atoi(search[m[2]:m[3]])
		day, _ := strconv.Atoi(search[m[4]:m[5]])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		var weekday string
		if m[6] >= 0 {
			weekday = search[m[6]:m[7]]
		} else {
			if !bareWeekdayStands(search[m[9]:]) {
				continue
			}
			weekday = search[m[8]:m[9]]
		}
		label := fmt.Sprintf("%d.%02d.%02d(%s)", year, month, day, weekday)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

// bareWeekdayStands reports whether an unparenthesised weekday character is a
// weekday on its own rather than the head of a "화/목" run or a word like "화학".
func bareWeekdayStands(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	switch {
	case r == utf8.RuneError:
		return true
	case r == '/':
		return false
	case strings.HasPrefix(rest, "요일"):
		return true
	case unicode.IsLetter(r):
		return false
	}
	return true
}

func rangeDates(dateRange, run string, year int) string {
	parts := rangePartRe.FindAllStringSubmatch(dateRange, -1)
	if len(parts) < 2 {
		return ""
	}
	start, ok := makeDate(year, parts[0][1], parts[0][2])
	if !ok {
		return ""
	}
	end, ok := makeDate(year, parts[1][1], parts[1][2])
	if !ok {
		return ""
	}
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return ""
	}

	wanted := make(map[string]bool)
	for _, d := range strings.Split(run, "/") {
		if d != "" {
			wanted[d] = true
		}
	}

	var labels []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(wanted) > 0 && !wanted[weekdayNames[d.Weekday()]] {
			continue
		}
		labels = append(labels, shortDate(d))
	}
	if len(labels) == 0 {
		labels = append(labels, shortDate(start))
		if !end.Equal(start) {
			labels = append(labels, shortDate(end))
		}
	}
	return strings.Join(labels, ", ")
}

func makeDate(year int, month, day string) (time.Time, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func shortDate(t time.Time) string {
	return fmt.Sprintf("%d.%d(%s)", int(t.Month()), t.Day(), weekdayNames[t.Weekday()])
}
