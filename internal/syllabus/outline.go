package syllabus

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	subsectionCodeRe = regexp.MustCompile(`^\d{1,2}[A-Za-z]$`)
	pageNumberRe     = regexp.MustCompile(`(?:\s|\.{2,}|…)+\d{1,3}$`)
	dotLeaderRe      = regexp.MustCompile(`(?:\s*(?:\.{2,}|…|·{2,}))+$`)
	titleLetterRe    = regexp.MustCompile(`[A-Za-z가-힣]`)
	titleDateRe      = regexp.MustCompile(`(?:^|[^\d])\d{1,2}[./]\d{1,2}(?:[^\d]|$)`)
	titleWeekRe      = regexp.MustCompile(`\d{1,2}\s*주`)
)

const titleTrimSet = " \t-–—|:.)·"

type codeSpan struct {
	code       string
	start, end int
}

// BuildOutlineMap scans the whole syllabus for subsection codes and pairs each
// with the title that follows it. The first acceptable title for a code wins.
func BuildOutlineMap(text string) OutlineMap {
	out := make(OutlineMap)
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	for i, line := range lines {
		codes := findCodes(line)
		for j, c := range codes {
			if _, ok := out[c.code]; ok {
				continue
			}
			end := len(line)
			if j+1 < len(codes) {
				end = codes[j+1].start
			}
			title := cleanTitle(line[c.end:end])
			if title == "" && i+1 < len(lines) && len(findCodes(lines[i+1])) == 0 {
				title = cleanTitle(lines[i+1])
			}
			if acceptTitle(title) {
				out[c.code] = title
			}
		}
	}
	return out
}

// ExtractWeekSubsectionCodes returns the uppercase subsection codes mentioned
// in a week's raw text, details and events, in first-seen order.
func ExtractWeekSubsectionCodes(w WeekInfo) []string {
	search := strings.Join([]string{w.RawText, w.Details, strings.Join(w.Events, " ")}, " ")
	seen := make(map[string]struct{})
	var codes []string
	for _, c := range findCodes(search) {
		if _, ok := seen[c.code]; ok {
			continue
		}
		seen[c.code] = struct{}{}
		codes = append(codes, c.code)
	}
	return codes
}

func findCodes(s string) []codeSpan {
	var codes []codeSpan
	for _, sp := range wordSpans(s) {
		tok := s[sp[0]:sp[1]]
		if subsectionCodeRe.MatchString(tok) {
			codes = append(codes, codeSpan{code: strings.ToUpper(tok), start: sp[0], end: sp[1]})
		}
	}
	return codes
}

func cleanTitle(s string) string {
	s = CollapseSpace(s)
	s = strings.Trim(s, titleTrimSet)
	s = pageNumberRe.ReplaceAllString(s, "")
	s = dotLeaderRe.ReplaceAllString(s, "")
	return strings.Trim(s, titleTrimSet)
}

func acceptTitle(s string) bool {
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	if !titleLetterRe.MatchString(s) {
		return false
	}
	if titleDateRe.MatchString(s) || titleWeekRe.MatchString(s) {
		return false
	}
	return true
}
