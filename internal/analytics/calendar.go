package analytics

import (
	"fmt"
	"time"
)

const monthKeyLayout = "2006-01"

// MonthKey returns the canonical YYYY-MM key of the month containing t.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// ParseMonthKey parses a YYYY-MM key into the first instant of that month in loc.
func ParseMonthKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(monthKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}

// ValidMonthKey reports whether key is a well-formed YYYY-MM key.
func ValidMonthKey(key string) bool {
	_, err := time.Parse(monthKeyLayout, key)
	return err == nil
}

// MonthStart returns the first day of t's month at 00:00:00.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns the last day of t's month at 23:59:59.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, 0, t.Location())
}

// ShiftMonth moves t by n calendar months. The result is always the first of
// the month so that month lengths never cause drift.
func ShiftMonth(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of calendar days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// DayStart returns t's calendar day at 00:00:00.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd returns t's calendar day at 23:59:59.
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Midday pins a calendar date to 12:00 in loc.
func Midday(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)
}

// inRange reports whether t lies in [from, to], both ends inclusive.
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
