package syllabus

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	weekHeaderRe = regexp.MustCompile(`(?m)^[ \t]*(\d{1,2})[ \t]*주[ \t]*(\d{1,2}[./]\d{1,2}[ \t]*[-~][ \t]*\d{1,2}[./]\d{1,2})(.*)$`)
	yearRe       = regexp.MustCompile(`(?:^|\D)(20\d{2})(?:\D|$)`)
	classTokenRe = regexp.MustCompile(`^(?:\d{1,2}[A-Za-z]|[A-Za-z]{1,3}\d{1,2})$`)
)

// now is swapped in tests.
var now = time.Now

// Segment splits syllabus text into weeks at "<n>주 <M.D>-<M.D>" header lines.
// A text without any week header yields a single fallback week.
func Segment(text string) []WeekInfo {
	cleaned := nonBlankLines(text)
	year := DetectYear(text)

	locs := weekHeaders(cleaned)
	if len(locs) == 0 {
		fallback := Truncate(CollapseSpace(cleaned), MaxFallbackLen)
		if fallback == "" {
			fallback = NoWeekInfo
		}
		return []WeekInfo{{
			WeekNo:    1,
			DateRange: NoDateRange,
			Events:    []string{},
			Details:   fallback,
			RawText:   fallback,
			Year:      year,
		}}
	}

	weeks := make([]WeekInfo, 0, len(locs))
	for i, loc := range locs {
		end := len(cleaned)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := strings.TrimSpace(cleaned[loc[0]:end])
		weekNo, _ := strconv.Atoi(cleaned[loc[2]:loc[3]])

		weeks = append(weeks, WeekInfo{
			WeekNo:    weekNo,
			DateRange: stripSpace(cleaned[loc[4]:loc[5]]),
			Events:    ExtractEvents(block),
			Details:   Truncate(CollapseSpace(block), MaxDetailsLen),
			RawText:   Truncate(block, MaxRawTextLen),
			Year:      year,
		})
	}
	return weeks
}

// weekHeaders returns header matches with a positive week number. A "0주"
// line stays inside the previous block.
func weekHeaders(text string) [][]int {
	all := weekHeaderRe.FindAllStringSubmatchIndex(text, -1)
	locs := all[:0]
	for _, loc := range all {
		if n, err := strconv.Atoi(text[loc[2]:loc[3]]); err == nil && n >= 1 {
			locs = append(locs, loc)
		}
	}
	return locs
}

// DetectYear returns the first 20xx number in text, or the current year.
func DetectYear(text string) int {
	if m := yearRe.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	return now().Year()
}

// ExtractEvents returns the class/group tokens ("11A", "G6", "AP2") found as
// whole words in block, sorted and deduplicated.
func ExtractEvents(block string) []string {
	seen := make(map[string]struct{})
	for _, sp := range wordSpans(block) {
		tok := block[sp[0]:sp[1]]
		if classTokenRe.MatchString(tok) {
			seen[tok] = struct{}{}
		}
	}
	events := make([]string, 0, len(seen))
	for tok := range seen {
		events = append(events, tok)
	}
	sort.Strings(events)
	return events
}

func nonBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r\f\v"))
	}
	return strings.Join(kept, "\n")
}
