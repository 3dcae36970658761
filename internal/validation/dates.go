package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Matches "3d ago", "2w ago", "1mo ago".
var dateAgoRegex = regexp.MustCompile(`^(\d+)\s*(mo|w|d)\s*ago$`)

// Matches "30d", "2w", "1mo", "in 2w".
var dateAheadRegex = regexp.MustCompile(`^(?:in\s+)?(\d+)\s*(mo|w|d)$`)

// ParseDate parses a calendar date and returns it as YYYY-MM-DD. Besides
// YYYY-MM-DD it accepts today, tomorrow, yesterday, weekday names ("fri",
// "next mon") and day offsets such as "30d", "2w", "1mo" or "3d ago".
// Empty input returns "".
func ParseDate(s, fieldName string) (string, error) {
	return ParseDateAt(s, fieldName, time.Now())
}

// ParseDateAt is ParseDate with relative expressions resolved against now.
func ParseDateAt(s, fieldName string, now time.Time) (string, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", nil
	}
	t, ok := parseDateExpr(strings.ToLower(raw), now)
	if !ok {
		return "", fmt.Errorf("invalid %s %q: use YYYY-MM-DD, today, fri, 30d or 2w ago", fieldName, s)
	}
	return t.Format(DateLayout), nil
}

func parseDateExpr(input string, now time.Time) (time.Time, bool) {
	today := startOfDay(now)
	switch input {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	if t, ok := parseWeekday(input, today); ok {
		return t, true
	}
	if m := dateAgoRegex.FindStringSubmatch(input); m != nil {
		return shiftDate(today, m[1], m[2], -1)
	}
	if m := dateAheadRegex.FindStringSubmatch(input); m != nil {
		return shiftDate(today, m[1], m[2], 1)
	}

	t, err := time.ParseInLocation(DateLayout, input, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseWeekday resolves "fri", "this fri" and "next fri". A bare or "this"
// weekday matching today is today; "next" always moves at least a week.
func parseWeekday(input string, today time.Time) (time.Time, bool) {
	next := false
	if rest, ok := strings.CutPrefix(input, "next "); ok {
		next, input = true, strings.TrimSpace(rest)
	} else if rest, ok := strings.CutPrefix(input, "this "); ok {
		input = strings.TrimSpace(rest)
	}

	weekday, ok := weekdays[input]
	if !ok {
		return time.Time{}, false
	}
	delta := (int(weekday) - int(today.Weekday()) + 7) % 7
	if next && delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta), true
}

var weekdays = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// shiftDate moves by calendar units so month offsets keep the day of month
// and day offsets are unaffected by daylight saving changes.
func shiftDate(today time.Time, count, unit string, direction int) (time.Time, bool) {
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return time.Time{}, false
	}
	n *= direction
	switch unit {
	case "mo":
		return today.AddDate(0, n, 0), true
	case "w":
		return today.AddDate(0, 0, 7*n), true
	default:
		return today.AddDate(0, 0, n), true
	}
}
