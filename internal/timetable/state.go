package timetable

import (
	"errors"
	"strings"
)

// State is the outcome of choosing between a mosque's Ramadan and monthly calendars.
type State int

const (
	RamadanActive State = iota
	MonthlyActive
	RamadanOnlyNoMonthly
	NoDataAnywhere
)

func (s State) String() string {
	switch s {
	case RamadanActive:
		return "ramadan_active"
	case MonthlyActive:
		return "monthly_active"
	case RamadanOnlyNoMonthly:
		return "ramadan_only_no_monthly"
	case NoDataAnywhere:
		return "no_data_anywhere"
	}
	return "unknown"
}

// Presence describes the Ramadan calendar relative to the requested date.
type Presence int

const (
	NoRamadan Presence = iota
	RamadanCovers
	RamadanElsewhere
)

// Decide picks the calendar state. A covering Ramadan calendar always wins;
// otherwise the monthly calendar is used when it loaded.
func Decide(p Presence, monthlyLoaded bool) State {
	switch {
	case p == RamadanCovers:
		return RamadanActive
	case monthlyLoaded:
		return MonthlyActive
	case p == RamadanElsewhere:
		return RamadanOnlyNoMonthly
	}
	return NoDataAnywhere
}

// RamadanOnlyPrefix starts the message of a RamadanOnlyError.
const RamadanOnlyPrefix = "RAMADAN_ONLY:"

// RamadanOnlyError means the mosque publishes times only during Ramadan and
// the requested date is outside it.
type RamadanOnlyError struct {
	Range string
	Err   error
}

func (e *RamadanOnlyError) Error() string {
	return RamadanOnlyPrefix + e.Range
}

// Unwrap exposes the monthly load failure.
func (e *RamadanOnlyError) Unwrap() error { return e.Err }

// IsRamadanOnly reports whether err is, wraps, or reads as a RamadanOnlyError
// and returns its range.
func IsRamadanOnly(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var ro *RamadanOnlyError
	if errors.As(err, &ro) {
		return ro.Range, true
	}
	if rest, ok := strings.CutPrefix(err.Error(), RamadanOnlyPrefix); ok {
		return rest, true
	}
	return "", false
}
