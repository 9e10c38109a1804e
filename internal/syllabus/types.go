// Package syllabus turns text extracted from a weekly course syllabus into
// structured per-week records.
//
// Every function in this package is pure: compiled patterns are package-level
// and read-only, so callers may parse documents concurrently.
package syllabus

import "strings"

// Field bounds applied when building a WeekInfo.
const (
	MaxDetailsLen  = 400
	MaxRawTextLen  = 2500
	MaxFallbackLen = 500
)

// NoDateRange marks a week whose header carried no recognisable date range.
const NoDateRange = "N/A"

// NoWeekInfo is used as fallback text when the document yields nothing at all.
const NoWeekInfo = "주차 정보 없음"

// WeekInfo is one week segmented out of a syllabus.
type WeekInfo struct {
	WeekNo    int      `json:"week_no"`
	DateRange string   `json:"date_range"`
	Events    []string `json:"events"`
	Details   string   `json:"details"`
	RawText   string   `json:"raw_text"`
	Year      int      `json:"year"`
}

// Label renders the week the way it is shown in selection lists.
func (w WeekInfo) Label() string {
	return strings.TrimSpace(itoa(w.WeekNo) + "주 " + w.DateRange)
}

// OutlineMap maps an uppercase subsection code (e.g. "3A") to its lesson title.
type OutlineMap map[string]string

// Title looks up a code case-insensitively.
func (m OutlineMap) Title(code string) (string, bool) {
	t, ok := m[strings.ToUpper(strings.TrimSpace(code))]
	return t, ok
}

// Document is the full result of parsing one syllabus.
type Document struct {
	Weeks      []WeekInfo `json:"weeks"`
	OutlineMap OutlineMap `json:"outline_map"`
}

// Week returns the week with the given number.
func (d Document) Week(weekNo int) (WeekInfo, bool) {
	for _, w := range d.Weeks {
		if w.WeekNo == weekNo {
			return w, true
		}
	}
	return WeekInfo{}, false
}

// Parse normalises raw extracted text and runs segmentation and outline mapping.
func Parse(text string) Document {
	text = NormalizeText(text)
	return Document{
		Weeks:      Segment(text),
		OutlineMap: BuildOutlineMap(text),
	}
}
