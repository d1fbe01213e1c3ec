package aitime

import (
	"regexp"
	"strconv"
	"strings"
)

// monthAlternation lists full names before abbreviations so the longest name wins.
const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

// Patterns for fuzzy date extraction. All of them run against lowercased input.
var (
	isoPattern = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)

	// embeddedSlashPattern finds a slash date inside surrounding text.
	embeddedSlashPattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{1,2}))?\b`)

	// "march 3rd", "dec 25", "march 3, 2027"
	monthDayPattern = regexp.MustCompile(`\b(` + monthAlternation + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)

	// "3rd of march", "25 december 2026"
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlternation + `)\b\.?(?:,?\s+(\d{4})\b)?`)

	// "the 15th", "on 1st"
	ordinalDayPattern = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)

	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

var monthNumbers = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sept": 9, "sep": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// fuzzyDate is the raw result of fuzzy extraction before year defaulting.
type fuzzyDate struct {
	year    int
	month   int
	day     int
	hasYear bool
}

// extractFuzzy pulls the first recognizable date out of free text, month before day.
// A bare month name without a day is not treated as a date.
func extractFuzzy(lower string, refYear int) (fuzzyDate, bool) {
	if m := isoPattern.FindStringSubmatch(lower); m != nil {
		return fuzzyDate{year: atoi(m[1]), month: atoi(m[2]), day: atoi(m[3]), hasYear: true}, true
	}

	if m := embeddedSlashPattern.FindStringSubmatch(lower); m != nil {
		fd := fuzzyDate{month: atoi(m[1]), day: atoi(m[2])}
		if m[3] != "" {
			fd.year, fd.hasYear = expandYear(m[3], refYear), true
		}
		return fd, true
	}

	if m := monthDayPattern.FindStringSubmatch(lower); m != nil {
		return withYear(fuzzyDate{month: monthNumbers[m[1]], day: atoi(m[2])}, m[3], lower), true
	}

	if m := dayMonthPattern.FindStringSubmatch(lower); m != nil {
		return withYear(fuzzyDate{month: monthNumbers[m[2]], day: atoi(m[1])}, m[3], lower), true
	}

	if m := ordinalDayPattern.FindStringSubmatch(lower); m != nil {
		return withYear(fuzzyDate{day: atoi(m[1])}, "", lower), true
	}

	return fuzzyDate{}, false
}

// withYear attaches an adjacent year, or any standalone year elsewhere in the text.
func withYear(fd fuzzyDate, adjacent, lower string) fuzzyDate {
	if adjacent != "" {
		fd.year, fd.hasYear = atoi(adjacent), true
		return fd
	}
	if m := yearPattern.FindStringSubmatch(lower); m != nil {
		fd.year, fd.hasYear = atoi(m[1]), true
	}
	return fd
}

// expandYear places a one or two digit year in the century that keeps it
// within 50 years of refYear. Longer years are literal.
func expandYear(s string, refYear int) int {
	y := atoi(s)
	if y < 0 || len(strings.TrimSpace(s)) > 2 {
		return y
	}
	y += refYear / 100 * 100
	switch {
	case y >= refYear+50:
		y -= 100
	case y < refYear-50:
		y += 100
	}
	return y
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}
