package iqamah

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

var ErrNoRange = errors.New("no iqamah range covers day")

// Day is the set of iqamah rules in force on one day.
type Day struct {
	Fajr    Rule
	Dhuhr   Rule
	Asr     Rule
	Maghrib Rule
	Isha    Rule
	Jummah  string
}

// Stored returns the day's values as they were written in the calendar.
func (d Day) Stored() model.DailyIqamahTimes {
	return model.DailyIqamahTimes{
		Fajr:    d.Fajr.Value(),
		Dhuhr:   d.Dhuhr.Value(),
		Asr:     d.Asr.Value(),
		Maghrib: d.Maghrib.Value(),
		Isha:    d.Isha.Value(),
		Jummah:  d.Jummah,
	}
}

// Range is one parsed IqamahTimeRange covering days First..Last inclusive.
type Range struct {
	First int
	Last  int
	Day
}

// Table is an ordered list of iqamah ranges for a month or a Ramadan.
type Table struct {
	Ranges []Range
}

// ParseTable parses every range of a calendar. A range without a maghrib value
// means iqamah at sunset.
func ParseTable(ranges []model.IqamahTimeRange, jummah string) (Table, error) {
	out := Table{Ranges: make([]Range, 0, len(ranges))}
	for i, raw := range ranges {
		first, last, err := ParseDateRange(raw.DateRange)
		if err != nil {
			return Table{}, fmt.Errorf("iqamah range %d: %w", i, err)
		}

		maghrib := raw.Maghrib
		if strings.TrimSpace(maghrib) == "" {
			maghrib = "sunset"
		}

		r := Range{First: first, Last: last, Day: Day{Jummah: jummah}}
		fields := []struct {
			name string
			raw  string
			dst  *Rule
		}{
			{"fajr", raw.Fajr, &r.Fajr},
			{"dhuhr", raw.Dhuhr, &r.Dhuhr},
			{"asr", raw.Asr, &r.Asr},
			{"maghrib", maghrib, &r.Maghrib},
			{"isha", raw.Isha, &r.Isha},
		}
		for _, f := range fields {
			rule, err := ParseRule(f.raw)
			if err != nil {
				return Table{}, fmt.Errorf("iqamah range %q %s: %w", raw.DateRange, f.name, err)
			}
			*f.dst = rule
		}
		out.Ranges = append(out.Ranges, r)
	}
	return out, nil
}

// ParseDateRange reads "1-21" or "30".
func ParseDateRange(s string) (int, int, error) {
	lo, hi, isSpan := strings.Cut(s, "-")
	first, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: date_range %q", ErrMalformedRule, s)
	}
	if !isSpan {
		return first, first, nil
	}
	last, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || last < first {
		return 0, 0, fmt.Errorf("%w: date_range %q", ErrMalformedRule, s)
	}
	return first, last, nil
}

// ForDay returns the rules of the first range covering day.
func (t Table) ForDay(day int) (Day, error) {
	for _, r := range t.Ranges {
		if day >= r.First && day <= r.Last {
			return r.Day, nil
		}
	}
	return Day{}, fmt.Errorf("%w %d", ErrNoRange, day)
}
