package core

import (
	"strings"
	"time"
)

// Layouts of the text stored with transactions and budgets.
const (
	DateLayout     = "Jan 2, 2006"
	ClockLayout    = "15:04"
	DateTimeLayout = DateLayout + " " + ClockLayout
	MonthLayout    = "Jan 2006"
	WeekdayLayout  = "Mon"
)

// FormatDateTime truncates to the minute, the precision transactions keep.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// ParseDateTime reads a stored transaction time in the local zone.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthLabel is the "Jan 2006" label of the month containing t.
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseMonthLabel reads a "Jan 2006" label back into year and month.
func ParseMonthLabel(s string) (int, time.Month, bool) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// SameMonth reports whether t falls in the given calendar month.
func SameMonth(t time.Time, year int, month time.Month) bool {
	return t.Year() == year && t.Month() == month
}

// WeekdayLabel is the short weekday name ("Mon") of t.
func WeekdayLabel(t time.Time) string {
	return t.Format(WeekdayLayout)
}
