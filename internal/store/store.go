// Package store answers calendar queries for a mosque from Postgres, static
// JSON documents, or both with the static documents as fallback.
package store

import (
	"context"
	"errors"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

// ErrNotFound means the source holds no calendar for the query.
var ErrNotFound = errors.New("calendar not found")

// Source is one backing store for calendar documents.
type Source interface {
	Name() string
	// Monthly returns ErrNotFound when no document exists.
	Monthly(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error)
	// RamadanCalendars returns every Ramadan calendar held for slug, possibly none.
	RamadanCalendars(ctx context.Context, slug string) ([]model.RamadanTimetable, error)
	// Mosques lists every known mosque including hidden ones.
	Mosques(ctx context.Context) ([]model.Mosque, error)
}

