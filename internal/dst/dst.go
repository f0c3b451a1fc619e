// Package dst knows the UK daylight-saving transition dates and the week after
// each transition during which mosque iqamah boards still show the old schedule.
package dst

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/clock"
)

//go:embed dst-start-end.json
var defaultTable []byte

// Window is one year's row of the reference table.
type Window struct {
	Year      int    `json:"year"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Table is the on-disk shape of the reference data.
type Table struct {
	UKDSTDates []Window `json:"uk_dst_dates"`
}

type transition struct {
	start time.Time
	end   time.Time
}

// Transition classifies a day relative to the clock changes.
type Transition int

const (
	NoTransition Transition = iota
	StartTransition
	EndTransition
)

// Mapping is the day in the following month whose iqamah row stands in for a
// day inside an adjustment window.
type Mapping struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

const (
	maxEndOffset   = 5
	maxStartOffset = 1
)

// Resolver answers DST questions from a loaded table. It is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	years map[int]transition
}

// Default returns a resolver over the embedded table.
func Default() *Resolver {
	r, err := Load(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("dst: embedded table: %v", err))
	}
	return r
}

// LoadFile reads a table from path.
func LoadFile(path string) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dst table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a {"uk_dst_dates": [...]} table.
func Load(r io.Reader) (*Resolver, error) {
	var table Table
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode dst table: %w", err)
	}
	years, err := parse(table)
	if err != nil {
		return nil, err
	}
	return &Resolver{years: years}, nil
}

func parse(table Table) (map[int]transition, error) {
	years := make(map[int]transition, len(table.UKDSTDates))
	for _, w := range table.UKDSTDates {
		start, err := calendar.ParseDay(w.StartDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("dst year %d start: %w", w.Year, err)
		}
		end, err := calendar.ParseDay(w.EndDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("dst year %d end: %w", w.Year, err)
		}
		years[w.Year] = transition{start: start, end: end}
	}
	return years, nil
}

// Replace swaps in the table held by other.
func (r *Resolver) Replace(other *Resolver) {
	other.mu.RLock()
	years := other.years
	other.mu.RUnlock()

	r.mu.Lock()
	r.years = years
	r.mu.Unlock()
}

func (r *Resolver) lookup(year int) (transition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.years[year]
	if !ok {
		log.Debug().Int("year", year).Msg("no dst data for year")
	}
	return t, ok
}

// InAdjustmentWindow reports whether date is on or after the transition day in
// March or October of its year. Years missing from the table are never in a window.
func (r *Resolver) InAdjustmentWindow(date time.Time) bool {
	t, ok := r.lookup(date.Year())
	if !ok {
		return false
	}
	switch date.Month() {
	case time.October:
		return date.Day() >= t.end.Day()
	case time.March:
		return date.Day() >= t.start.Day()
	}
	return false
}

// AdjustedIqamahDate maps a day inside an adjustment window to the day of the
// following month whose iqamah row applies: October days map onto November 1..6
// and March days onto April 1..2.
func (r *Resolver) AdjustedIqamahDate(date time.Time) (Mapping, bool) {
	if !r.InAdjustmentWindow(date) {
		return Mapping{}, false
	}
	t, _ := r.lookup(date.Year())

	switch date.Month() {
	case time.October:
		offset := clamp(date.Day()-t.end.Day(), 0, maxEndOffset)
		return Mapping{Month: time.November, Day: offset + 1}, true
	case time.March:
		offset := clamp(date.Day()-t.start.Day(), 0, maxStartOffset)
		return Mapping{Month: time.April, Day: offset + 1}, true
	}
	return Mapping{}, false
}

// InDST reports whether date falls between the start day (inclusive) and the end day (exclusive).
func (r *Resolver) InDST(date time.Time) bool {
	t, ok := r.lookup(date.Year())
	if !ok {
		return false
	}
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(t.start) && d.Before(t.end)
}

// TransitionType reports whether date is the day the clocks go forward or back.
func (r *Resolver) TransitionType(date time.Time) Transition {
	t, ok := r.lookup(date.Year())
	if !ok {
		return NoTransition
	}
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case d.Equal(t.start):
		return StartTransition
	case d.Equal(t.end):
		return EndTransition
	}
	return NoTransition
}

// AdjustForTransition moves hhmm an hour forward on the start day and an hour back on the end day.
func (r *Resolver) AdjustForTransition(hhmm string, date time.Time) string {
	switch r.TransitionType(date) {
	case StartTransition:
		return clock.AddOneHour(hhmm)
	case EndTransition:
		return clock.SubtractOneHour(hhmm)
	}
	return hhmm
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
