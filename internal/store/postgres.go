package store

import (
	"context"
	"fmt"

	"github.com/Nixie-Tech-LLC/iqamah/internal/db"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

// Postgres serves calendars from the database tables.
type Postgres struct {
	store db.Store
}

func NewPostgres(store db.Store) *Postgres {
	return &Postgres{store: store}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Monthly(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error) {
	doc, err := p.store.GetMonthly(ctx, slug, month, year)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s %s %d", ErrNotFound, slug, month, year)
	}
	return doc, nil
}

func (p *Postgres) RamadanCalendars(ctx context.Context, slug string) ([]model.RamadanTimetable, error) {
	return p.store.ListRamadan(ctx, slug)
}

func (p *Postgres) Mosques(ctx context.Context) ([]model.Mosque, error) {
	return p.store.ListMosques(ctx)
}
