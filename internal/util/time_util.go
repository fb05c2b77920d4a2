package util

import (
	"time"
)

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock time, keeping t's calendar date in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// DateBetween reports whether t's date falls in [start, end], ignoring
// clock time.
func DateBetween(t, start, end time.Time) bool {
	day := DateOf(t)
	return !day.Before(DateOf(start)) && !day.After(DateOf(end))
}
