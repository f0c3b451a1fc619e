package timetable

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

// MonthlyCalendar is a monthly document with its iqamah table parsed. It
// encodes as the plain document so it can sit in the shared cache tier.
type MonthlyCalendar struct {
	Document model.MonthlyPrayerTimes
	table    iqamah.Table
}

func NewMonthlyCalendar(doc model.MonthlyPrayerTimes) (*MonthlyCalendar, error) {
	table, err := iqamah.ParseTable(doc.IqamahTimes, doc.JummahIqamah)
	if err != nil {
		return nil, fmt.Errorf("monthly calendar %q: %w", doc.Month, err)
	}
	return &MonthlyCalendar{Document: doc, table: table}, nil
}

func (m *MonthlyCalendar) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Document)
}

func (m *MonthlyCalendar) UnmarshalJSON(b []byte) error {
	var doc model.MonthlyPrayerTimes
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	parsed, err := NewMonthlyCalendar(doc)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// RamadanCalendar is a Ramadan document with its range and iqamah table parsed.
type RamadanCalendar struct {
	Document model.RamadanTimetable
	Start    time.Time
	End      time.Time
	table    iqamah.Table
}

func NewRamadanCalendar(doc model.RamadanTimetable, loc *time.Location) (*RamadanCalendar, error) {
	start, err := calendar.ParseDay(doc.GregorianStart, loc)
	if err != nil {
		return nil, fmt.Errorf("ramadan gregorian_start: %w", err)
	}
	end, err := calendar.ParseDay(doc.GregorianEnd, loc)
	if err != nil {
		return nil, fmt.Errorf("ramadan gregorian_end: %w", err)
	}
	table, err := iqamah.ParseTable(doc.IqamahTimes, doc.JummahIqamah)
	if err != nil {
		return nil, fmt.Errorf("ramadan calendar: %w", err)
	}
	return &RamadanCalendar{Document: doc, Start: start, End: end, table: table}, nil
}

func (r *RamadanCalendar) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document)
}

// UnmarshalJSON parses the range as UTC calendar days; only their Y/M/D is used.
func (r *RamadanCalendar) UnmarshalJSON(b []byte) error {
	var doc model.RamadanTimetable
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	parsed, err := NewRamadanCalendar(doc, time.UTC)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// Covers reports whether the calendar day of date is within the Ramadan range.
func (r *RamadanCalendar) Covers(date time.Time) bool {
	return calendar.InRange(date, r.Start, r.End)
}

// Range renders the Gregorian span, e.g. "1 Mar 2025 – 30 Mar 2025".
func (r *RamadanCalendar) Range() string {
	return calendar.FormatRange(r.Start, r.End)
}

// RamadanCalendars is every usable Ramadan calendar of one mosque.
type RamadanCalendars []*RamadanCalendar

// For returns the calendar covering date, else the one with the latest start,
// else nil.
func (rc RamadanCalendars) For(date time.Time) *RamadanCalendar {
	var latest *RamadanCalendar
	for _, c := range rc {
		if c.Covers(date) {
			return c
		}
		if latest == nil || c.Start.After(latest.Start) {
			latest = c
		}
	}
	return latest
}
