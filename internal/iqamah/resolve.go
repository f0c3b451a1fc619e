package iqamah

import (
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/iqamah/internal/clock"
)

const (
	Fajr    = "fajr"
	Dhuhr   = "dhuhr"
	Asr     = "asr"
	Maghrib = "maghrib"
	Isha    = "isha"
	Jummah  = "jummah"
)

// Resolve returns the iqamah clock time for prayer given that prayer's adhan
// time. maghribAdhan is only consulted for an Isha held straight after
// Maghrib and may be empty. Unknown prayers resolve to "-".
func Resolve(prayer, adhan string, day Day, maghribAdhan string) string {
	switch strings.ToLower(prayer) {
	case Fajr:
		if day.Fajr.Kind == KindVarious {
			return adhan
		}
		return resolveCommon(day.Fajr, adhan)
	case Dhuhr:
		return resolveCommon(day.Dhuhr, adhan)
	case Asr:
		if day.Asr.Kind == KindEntryTime {
			return adhan
		}
		return resolveCommon(day.Asr, adhan)
	case Maghrib:
		if day.Maghrib.Kind == KindSunset {
			return adhan
		}
		return resolveCommon(day.Maghrib, adhan)
	case Isha:
		switch day.Isha.Kind {
		case KindStraightAfterMaghrib:
			if maghribAdhan != "" {
				return maghribAdhan
			}
			return adhan
		case KindEntryTime:
			return adhan
		}
		return resolveCommon(day.Isha, adhan)
	case Jummah:
		return day.Jummah
	}
	return clock.NoTime
}

func resolveCommon(r Rule, adhan string) string {
	if r.Kind == KindRelative {
		return r.relative(adhan)
	}
	return r.Value()
}

// InSummer reports whether date falls in the May 15 to Aug 15 window, both
// days inclusive, during which Isha is shown as "After Maghrib".
func InSummer(date time.Time) bool {
	md := int(date.Month())*100 + date.Day()
	return md >= 515 && md <= 815
}

// DisplayIsha applies the summer override on top of the resolved Isha iqamah.
func DisplayIsha(date time.Time, adhan string, day Day, maghribAdhan string) string {
	if InSummer(date) {
		return clock.AfterMaghrib
	}
	return Resolve(Isha, adhan, day, maghribAdhan)
}
