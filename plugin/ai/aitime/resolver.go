package aitime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// slashOnlyPattern matches an expression that is nothing but a numeric slash date.
var slashOnlyPattern = regexp.MustCompile(`^\s*(\d+)\s*/\s*(\d+)\s*(?:/\s*(\d+)\s*)?$`)

// relativeKeywords are checked in order; the first one contained in the input wins.
var relativeKeywords = []struct {
	keyword string
	resolve func(today Date) Date
}{
	{"today", func(today Date) Date { return today }},
	{"tomorrow", func(today Date) Date { return today.AddDays(1) }},
	{"next week", func(today Date) Date { return today.AddDays(7) }},
	{"next month", addMonth},
}

// weekdayNames are scanned Monday first.
var weekdayNames = []struct {
	name    string
	weekday time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// RuleResolver implements DateResolver with the ordered keyword, weekday,
// fuzzy and slash rules of Resolve.
type RuleResolver struct{}

// Resolve implements DateResolver.
func (RuleResolver) Resolve(expression string, now time.Time) (Date, bool) {
	return Resolve(expression, now)
}

// Resolve normalizes a free-text date expression relative to now.
// Rules run in priority order and the first match wins:
//  1. today / tomorrow / next week / next month
//  2. weekday names, bare or with "next": the next occurrence strictly after today
//  3. fuzzy extraction of a written date; a past date whose month is earlier than
//     now's month moves to next year
//  4. a bare MM/DD/YYYY or MM/DD; MM/DD moves to next year when already past
//
// Years of one or two digits land within 50 years of now's year.
func Resolve(expression string, now time.Time) (Date, bool) {
	lower := strings.ToLower(strings.TrimSpace(expression))
	if lower == "" {
		return Date{}, false
	}
	today := DateOf(now)

	for _, rk := range relativeKeywords {
		if strings.Contains(lower, rk.keyword) {
			return rk.resolve(today), true
		}
	}

	if d, ok := resolveWeekday(lower, today); ok {
		return d, true
	}

	// A bare MM/DD has its own rollover rule below.
	if m := slashOnlyPattern.FindStringSubmatch(lower); m == nil || m[3] != "" {
		if d, ok := resolveFuzzy(lower, today); ok {
			return d, true
		}
	}

	return resolveSlash(lower, today)
}

// addMonth moves one calendar month ahead, clamping the day to the target month.
func addMonth(today Date) Date {
	year, month := today.Year, today.Month+1
	if month > time.December {
		year, month = year+1, time.January
	}
	day := min(today.Day, daysIn(year, month))
	return Date{Year: year, Month: month, Day: day}
}

func resolveWeekday(lower string, today Date) (Date, bool) {
	for _, wd := range weekdayNames {
		if !strings.Contains(lower, wd.name) {
			continue
		}
		// "next friday" and "friday" both mean the upcoming one, never today.
		diff := (int(wd.weekday) - int(today.Weekday()) + 7) % 7
		if diff == 0 {
			diff = 7
		}
		return today.AddDays(diff), true
	}
	return Date{}, false
}

func resolveFuzzy(lower string, today Date) (Date, bool) {
	fd, ok := extractFuzzy(lower, today.Year)
	if !ok {
		return Date{}, false
	}
	if fd.month == 0 {
		fd.month = int(today.Month)
	}
	if !fd.hasYear {
		fd.year = today.Year
	}
	if !validDate(fd.year, fd.month, fd.day) {
		return Date{}, false
	}
	d := Date{Year: fd.year, Month: time.Month(fd.month), Day: fd.day}

	// Only dates in an earlier month roll over; "the 1st" said on the 5th stays in the past.
	if !fd.hasYear && d.Before(today) && d.Month < today.Month {
		d.Year++
		if !validDate(d.Year, int(d.Month), d.Day) {
			return Date{}, false
		}
	}
	return d, true
}

func resolveSlash(lower string, today Date) (Date, bool) {
	m := slashOnlyPattern.FindStringSubmatch(lower)
	if m == nil {
		return Date{}, false
	}
	month, errM := strconv.Atoi(m[1])
	day, errD := strconv.Atoi(m[2])
	if errM != nil || errD != nil {
		return Date{}, false
	}

	if m[3] != "" {
		year := expandYear(m[3], today.Year)
		if year < 0 || !validDate(year, month, day) {
			return Date{}, false
		}
		return Date{Year: year, Month: time.Month(month), Day: day}, true
	}

	if !validDate(today.Year, month, day) {
		return Date{}, false
	}
	d := Date{Year: today.Year, Month: time.Month(month), Day: day}
	if d.Before(today) {
		d.Year++
		if !validDate(d.Year, month, day) {
			return Date{}, false
		}
	}
	return d, true
}
