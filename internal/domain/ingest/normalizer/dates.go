// Package normalizer converts raw statement cells into canonical dates and
// signed amounts. Parsing never fails: every function returns a best-effort
// value plus warnings, and the caller decides whether the row survives.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateResult is a canonical calendar date plus any warnings raised while
// parsing. Fallback is always the current date, never a zero time.
type DateResult struct {
	Date     time.Time
	Warnings []string
}

// ISO returns the date in YYYY-MM-DD form.
func (r DateResult) ISO() string {
	return r.Date.Format("2006-01-02")
}

// Format hints produced by bank format detection.
const (
	HintDayFirst   = "DD/MM/YYYY"
	HintMonthFirst = "MM/DD/YYYY"
	HintISO        = "YYYY-MM-DD"
)

// ParseDate resolves raw into a real calendar date. Candidates are tried in
// order: day-first, month-first (swapped in when the day field exceeds 12),
// ISO, two-digit year, compact digits, then generic layouts. Each candidate
// must survive a round trip through the calendar, so 31/02 is rejected
// rather than normalized to a nearby date. When nothing parses the current
// date is returned with a warning.
func ParseDate(raw, hint string) DateResult {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return DateResult{
			Date:     today(),
			Warnings: []string{"date is empty, defaulted to today"},
		}
	}

	if t, ok := parseSeparated(cleaned, hint); ok {
		return DateResult{Date: t}
	}
	if t, ok := parseCompact(cleaned); ok {
		return DateResult{Date: t}
	}
	if t, ok := parseGeneric(cleaned); ok {
		return DateResult{Date: t}
	}

	return DateResult{
		Date:     today(),
		Warnings: []string{fmt.Sprintf("unrecognised date %q, defaulted to today", raw)},
	}
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseSeparated handles dates split by /, - or . in day-first, month-first
// and year-first arrangements.
func parseSeparated(s, hint string) (time.Time, bool) {
	parts := splitDate(s)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	c, errC := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errC != nil {
		return time.Time{}, false
	}

	// Year-first (ISO or YYYY/MM/DD)
	if len(parts[0]) == 4 {
		return calendarDate(c, b, a)
	}

	if len(parts[2]) == 4 {
		if hint == HintMonthFirst {
			if t, ok := calendarDate(b, a, c); ok {
				return t, true
			}
		}
		// Day-first, then swap when the day slot cannot be a day
		if t, ok := calendarDate(a, b, c); ok {
			return t, true
		}
		return calendarDate(b, a, c)
	}

	// Two-digit year: pivot >50 into the 1900s
	if len(parts[2]) == 2 {
		year := 2000 + c
		if c > 50 {
			year = 1900 + c
		}
		if t, ok := calendarDate(a, b, year); ok {
			return t, true
		}
		return calendarDate(b, a, year)
	}

	return time.Time{}, false
}

func splitDate(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
}

// calendarDate builds a date and accepts it only when the components survive
// the round trip unchanged.
func calendarDate(day, month, year int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// parseCompact handles 8-digit dates, trying DDMMYYYY before YYYYMMDD.
func parseCompact(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}

	day, _ := strconv.Atoi(s[:2])
	month, _ := strconv.Atoi(s[2:4])
	year, _ := strconv.Atoi(s[4:])
	if t, ok := calendarDate(day, month, year); ok {
		return t, true
	}

	year, _ = strconv.Atoi(s[:4])
	month, _ = strconv.Atoi(s[4:6])
	day, _ = strconv.Atoi(s[6:])
	return calendarDate(day, month, year)
}

var genericLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func parseGeneric(s string) (time.Time, bool) {
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
