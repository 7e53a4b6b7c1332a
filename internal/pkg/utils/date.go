package utils

import (
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the calendar date format accepted on query strings and payloads.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDate reports whether text is a zero-padded YYYY-MM-DD string naming a real
// calendar day.
func IsValidDate(text string) bool {
	_, ok := ParseDate(text)
	return ok
}

// ParseDate parses a YYYY-MM-DD string to midnight UTC of that day.
func ParseDate(text string) (time.Time, bool) {
	if !datePattern.MatchString(text) {
		return time.Time{}, false
	}

	parsed, err := time.Parse(DateLayout, text)
	if err != nil {
		return time.Time{}, false
	}

	// Components must survive the round trip, e.g. month 13 must not roll over.
	year, _ := strconv.Atoi(text[0:4])
	month, _ := strconv.Atoi(text[5:7])
	day, _ := strconv.Atoi(text[8:10])
	if parsed.Year() != year || int(parsed.Month()) != month || parsed.Day() != day {
		return time.Time{}, false
	}

	return parsed.UTC(), true
}

// StartOfDayUTC truncates t to midnight of its UTC calendar day.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
