// Package countdown works out which prayer is current and how long remains
// until the next adhan or iqamah.
package countdown

import (
	"time"

	"github.com/Nixie-Tech-LLC/iqamah/internal/clock"
)

// windowLead is how long after the previous iqamah the next prayer's window opens.
const windowLead = 10 * time.Minute

// Anchor is one major prayer's adhan and resolved iqamah for the day.
type Anchor struct {
	Name   string `json:"name"`
	Adhan  string `json:"adhan"`
	Iqamah string `json:"iqamah"`
}

// Day is the input to Project. Date carries the location used to place clock times.
type Day struct {
	Date    time.Time `json:"date"`
	Fajr    Anchor    `json:"fajr"`
	Sunrise string    `json:"sunrise"`
	Dhuhr   Anchor    `json:"dhuhr"`
	Asr     Anchor    `json:"asr"`
	Maghrib Anchor    `json:"maghrib"`
	Isha    Anchor    `json:"isha"`
	Jummah  string    `json:"jummah"`
}

func (d Day) friday() bool { return d.Date.Weekday() == time.Friday }

func (d Day) anchors() [5]Anchor {
	return [5]Anchor{d.Fajr, d.Dhuhr, d.Asr, d.Maghrib, d.Isha}
}

type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Event is the next adhan or iqamah.
type Event struct {
	Name string    `json:"name"`
	Time string    `json:"time"`
	At   time.Time `json:"at"`
}

type Projection struct {
	Current           string    `json:"current_prayer,omitempty"`
	CurrentByAdhan    string    `json:"current_by_adhan,omitempty"`
	Next              Event     `json:"next_prayer"`
	Countdown         Countdown `json:"countdown"`
	IsIqamahCountdown bool      `json:"is_iqamah_countdown"`
	IsJummahCountdown bool      `json:"is_jummah_countdown"`
	At                time.Time `json:"at"`
}

// Project computes the highlight and the next event for now.
func Project(day Day, now time.Time) Projection {
	now = now.In(day.Date.Location())
	next, isIqamah, isJummah := nextEvent(day, now)
	return Projection{
		Current:           Highlight(day, now),
		CurrentByAdhan:    CurrentByAdhan(day, now),
		Next:              next,
		Countdown:         until(now, next.At),
		IsIqamahCountdown: isIqamah,
		IsJummahCountdown: isJummah,
		At:                now,
	}
}

func (d Day) at(s string) (time.Time, bool) {
	if clock.IsSentinel(s) {
		return time.Time{}, false
	}
	t, err := clock.On(d.Date, s, d.Date.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Highlight returns the lowercase name of the prayer whose window contains
// now. A window opens ten minutes after the previous iqamah (yesterday's Isha
// for Fajr) and closes at this prayer's iqamah. On Fridays the Jummah time
// stands in for Dhuhr. Prayers without a clock-time iqamah have no window.
func Highlight(day Day, now time.Time) string {
	anchors := day.anchors()
	var iqamahs [5]*time.Time
	for i, a := range anchors {
		if t, ok := day.at(a.Iqamah); ok {
			iqamahs[i] = &t
		}
	}
	if day.friday() {
		if t, ok := day.at(day.Jummah); ok {
			iqamahs[1] = &t
		}
	}

	for i := range anchors {
		prev := (i + len(anchors) - 1) % len(anchors)
		end, startFrom := iqamahs[i], iqamahs[prev]
		if end == nil || startFrom == nil {
			continue
		}
		start := *startFrom
		if i == 0 {
			start = start.AddDate(0, 0, -1)
		}
		start = start.Add(windowLead)

		if !now.Before(start) && now.Before(*end) {
			if i == 1 && day.friday() {
				return "jummah"
			}
			return lower(anchors[i].Name)
		}
	}

	// After Isha the next window is tomorrow's Fajr.
	if isha := iqamahs[4]; isha != nil && !now.Before(isha.Add(windowLead)) {
		return "fajr"
	}
	return ""
}

// nextEvent walks the prayers in order and returns the first adhan or iqamah
// still ahead of now, falling back to tomorrow's Fajr adhan.
func nextEvent(day Day, now time.Time) (Event, bool, bool) {
	friday := day.friday()
	for i, a := range day.anchors() {
		jummah := friday && i == 1
		if jummah {
			a.Name = "Jummah"
			a.Iqamah = day.Jummah
			if a.Iqamah == "" {
				a.Iqamah = clock.NoTime
			}
		}

		if !jummah {
			if t, ok := day.at(a.Adhan); ok && t.After(now) {
				return Event{Name: a.Name, Time: a.Adhan, At: t}, false, false
			}
		}
		t, ok := day.at(a.Iqamah)
		if !ok {
			continue
		}
		// An iqamah at the adhan's minute is not a separate event.
		if at, ok := day.at(a.Adhan); ok && at.Equal(t) {
			continue
		}
		if t.After(now) {
			return Event{Name: a.Name, Time: a.Iqamah, At: t}, true, jummah
		}
	}

	ev := Event{Name: day.Fajr.Name, Time: day.Fajr.Adhan}
	if t, ok := day.at(day.Fajr.Adhan); ok {
		ev.At = t.AddDate(0, 0, 1)
	}
	return ev, false, false
}

// CurrentByAdhan returns the latest of the six daily times that has started,
// or "" before Fajr.
func CurrentByAdhan(day Day, now time.Time) string {
	times := []struct {
		name string
		hhmm string
	}{
		{"fajr", day.Fajr.Adhan},
		{"sunrise", day.Sunrise},
		{"dhuhr", day.Dhuhr.Adhan},
		{"asr", day.Asr.Adhan},
		{"maghrib", day.Maghrib.Adhan},
		{"isha", day.Isha.Adhan},
	}
	current := ""
	var latest time.Time
	for _, p := range times {
		t, ok := day.at(p.hhmm)
		if !ok || t.After(now) {
			continue
		}
		if current == "" || t.After(latest) {
			current, latest = p.name, t
		}
	}
	return current
}

func until(now, at time.Time) Countdown {
	if at.IsZero() || !at.After(now) {
		return Countdown{}
	}
	d := at.Sub(now)
	return Countdown{
		Hours:   int(d / time.Hour),
		Minutes: int(d%time.Hour) / int(time.Minute),
		Seconds: int(d%time.Minute) / int(time.Second),
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
