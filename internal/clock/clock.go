// Package clock does arithmetic on wall-clock "HH:MM" strings as they appear in
// mosque timetables. All arithmetic wraps at midnight in both directions.
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Sentinel display values that never parse as a clock time.
const (
	NoTime       = "-"
	BlankTime    = "--:--"
	AfterMaghrib = "After Maghrib"
)

var ErrInvalidTime = errors.New("invalid clock time")

// Parse reads "HH:MM" (or "H:MM") into hours and minutes. A trailing
// annotation such as " (BST)" is ignored.
func Parse(s string) (int, int, error) {
	v := strings.TrimSpace(s)
	if idx := strings.Index(v, " "); idx != -1 {
		v = v[:idx]
	}

	hh, mm, ok := strings.Cut(v, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, 0, fmt.Errorf("%w: minute in %q", ErrInvalidTime, s)
	}
	return h, m, nil
}

// Minutes returns the minute-of-day for s.
func Minutes(s string) (int, error) {
	h, m, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// Format renders a minute-of-day as zero-padded "HH:MM", normalising into [0, 1440).
func Format(minuteOfDay int) string {
	total := ((minuteOfDay % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// AddMinutes adds n minutes (n may be negative) to s modulo 24h.
func AddMinutes(s string, n int) (string, error) {
	total, err := Minutes(s)
	if err != nil {
		return "", err
	}
	return Format(total + n), nil
}

// AddHours adds n hours to s modulo 24h.
func AddHours(s string, n int) (string, error) {
	return AddMinutes(s, n*60)
}

// SubtractOneHour returns s moved back an hour, or s unchanged when it is not a clock time.
func SubtractOneHour(s string) string {
	out, err := AddHours(s, -1)
	if err != nil {
		return s
	}
	return out
}

// AddOneHour returns s moved forward an hour, or s unchanged when it is not a clock time.
func AddOneHour(s string) string {
	out, err := AddHours(s, 1)
	if err != nil {
		return s
	}
	return out
}

// IsSentinel reports whether s is one of the placeholder values used where
// a prayer has no distinct iqamah.
func IsSentinel(s string) bool {
	switch s {
	case "", NoTime, BlankTime, AfterMaghrib:
		return true
	}
	return false
}

// IsValidForMarkup reports whether s can be rendered inside a <time> element.
func IsValidForMarkup(s string) bool {
	switch s {
	case "", NoTime, BlankTime, AfterMaghrib, "Various", "Straight after Maghrib", "Entry Time":
		return false
	}
	_, _, err := Parse(s)
	return err == nil
}

// To12Hour formats "17:05" as "5:05pm". Placeholders pass through untouched.
func To12Hour(s string) string {
	if !IsValidForMarkup(s) {
		return s
	}
	h, m, _ := Parse(s)
	suffix := "am"
	if h >= 12 {
		suffix = "pm"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d%s", display, m, suffix)
}

// On places the clock time s on the calendar day of date in loc.
func On(date time.Time, s string, loc *time.Location) (time.Time, error) {
	h, m, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}
