// exposes a Store interface over the calendar tables
package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

type Store interface {
	// mosque registry
	ListMosques(ctx context.Context) ([]model.Mosque, error)
	GetMosque(ctx context.Context, slug string) (*model.Mosque, error)
	UpsertMosque(ctx context.Context, m model.Mosque) error

	// calendars; a missing document is (nil, nil)
	GetMonthly(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error)
	ListRamadan(ctx context.Context, slug string) ([]model.RamadanTimetable, error)
	UpsertMonthly(ctx context.Context, slug, month string, year int, doc model.MonthlyPrayerTimes) error
	UpsertRamadan(ctx context.Context, slug string, start, end time.Time, doc model.RamadanTimetable) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}
