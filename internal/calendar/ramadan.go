package calendar

import (
	"fmt"
	"time"
)

const ramadanDays = 30

// ParseDay reads "2025-03-01" (or an RFC 3339 timestamp) as a calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return DateOnly(t.In(loc)), nil
}

// DateOnly truncates t to midnight of its own calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring DST-length days.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// RamadanDay returns the day of Ramadan for date given the first Gregorian
// day of Ramadan, clamped to [1, 30].
func RamadanDay(date, start time.Time) int {
	day := daysBetween(start, date) + 1
	if day < 1 {
		return 1
	}
	if day > ramadanDays {
		return ramadanDays
	}
	return day
}

// InRange reports whether the calendar day of date lies in [start, end].
func InRange(date, start, end time.Time) bool {
	return daysBetween(start, date) >= 0 && daysBetween(date, end) >= 0
}

// FormatRange renders a Gregorian span such as "1 Mar 2025 – 30 Mar 2025".
func FormatRange(start, end time.Time) string {
	const layout = "2 Jan 2006"
	return fmt.Sprintf("%s – %s", start.Format(layout), end.Format(layout))
}

var shortDays = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tues",
	time.Wednesday: "Wed",
	time.Thursday:  "Thurs",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// FormatDisplayDate renders "Fri 7 March 2025".
func FormatDisplayDate(date time.Time) string {
	return fmt.Sprintf("%s %s", shortDays[date.Weekday()], date.Format("2 January 2006"))
}
