package lessonplan

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

// Defaults used when nothing can be inferred from the syllabus.
const (
	DefaultSubject     = "Life Science"
	DefaultTargetGroup = "G6"
)

var (
	nameSeparatorRe = regexp.MustCompile(`[_\-]+`)
	nameNoiseRe     = regexp.MustCompile(`(?i)(?:^|\s)(?:20\d{2}|\d{1,2}주|syllabus|plan|weekly|week)(?:\s|$)`)
	subjectHintRe   = regexp.MustCompile(`(?i)(Life\s*Science|Science|Math|English|Social\s*Studies|국어|수학|과학|영어)`)
	gradeRe         = regexp.MustCompile(`(?i)(?:^|[^\pL\pN_])(G\s*\d{1,2})(?:[^\pL\pN_]|$)`)
	digitsRe        = regexp.MustCompile(`\d+`)
)

// InferSubject guesses the subject name from the uploaded file name and the
// week's details.
func InferSubject(filename string, week syllabus.WeekInfo) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if filename == "" {
		stem = ""
	}
	cleaned := nameSeparatorRe.ReplaceAllString(stem, " ")
	// Noise words share separators, so strip repeatedly until stable.
	for {
		next := nameNoiseRe.ReplaceAllString(cleaned, " ")
		if next == cleaned {
			break
		}
		cleaned = next
	}
	cleaned = syllabus.CollapseSpace(cleaned)

	if m := subjectHintRe.FindStringSubmatch(cleaned + " " + week.Details); m != nil {
		return strings.TrimSpace(m[1])
	}
	if cleaned != "" {
		return cleaned
	}
	return DefaultSubject
}

// InferTargetGroup finds a "G<n>" grade marker for the week, falling back to
// the digits of the first class token.
func InferTargetGroup(week syllabus.WeekInfo) string {
	search := strings.Join([]string{week.RawText, week.Details, strings.Join(week.Events, " ")}, " ")
	if m := gradeRe.FindStringSubmatch(search); m != nil {
		return strings.ToUpper(strings.Join(strings.Fields(m[1]), ""))
	}
	if len(week.Events) > 0 {
		if d := digitsRe.FindString(week.Events[0]); d != "" {
			return "G" + d
		}
	}
	return DefaultTargetGroup
}

// ClassCandidates lists the classes a teacher can pick for a week.
func ClassCandidates(week syllabus.WeekInfo) []string {
	if len(week.Events) > 0 {
		return append([]string(nil), week.Events...)
	}
	return []string{DefaultTargetGroup}
}
