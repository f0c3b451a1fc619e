package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/storage"
)

// ErrReadOnly means no configured source accepts writes.
var ErrReadOnly = errors.New("calendar source is read-only")

// Writer publishes calendar documents. Callers validate documents first.
type Writer interface {
	PutMonthly(ctx context.Context, slug, month string, year int, doc model.MonthlyPrayerTimes) error
	PutRamadan(ctx context.Context, slug string, doc model.RamadanTimetable) error
}

func ramadanRange(doc model.RamadanTimetable) (time.Time, time.Time, error) {
	start, err := calendar.ParseDay(doc.GregorianStart, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: gregorian_start", calendar.ErrValidation)
	}
	end, err := calendar.ParseDay(doc.GregorianEnd, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: gregorian_end", calendar.ErrValidation)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: gregorian_end before gregorian_start", calendar.ErrValidation)
	}
	return start, end, nil
}

func (p *Postgres) PutMonthly(ctx context.Context, slug, month string, year int, doc model.MonthlyPrayerTimes) error {
	return p.store.UpsertMonthly(ctx, slug, month, year, doc)
}

func (p *Postgres) PutRamadan(ctx context.Context, slug string, doc model.RamadanTimetable) error {
	start, end, err := ramadanRange(doc)
	if err != nil {
		return err
	}
	return p.store.UpsertRamadan(ctx, slug, start, end, doc)
}

// PutMonthly writes mosques/<slug>/<month>.json. The static layout has no
// year, so the document replaces any earlier year's.
func (s *Static) PutMonthly(ctx context.Context, slug, month string, _ int, doc model.MonthlyPrayerTimes) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := s.storage.Write(ctx, storage.MonthlyDocument(slug, month), data); err != nil {
		return translateWrite(err)
	}
	return nil
}

func (s *Static) PutRamadan(ctx context.Context, slug string, doc model.RamadanTimetable) error {
	if _, _, err := ramadanRange(doc); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := s.storage.Write(ctx, storage.RamadanDocument(slug), data); err != nil {
		return translateWrite(err)
	}
	return nil
}

func translateWrite(err error) error {
	if errors.Is(err, storage.ErrReadOnly) {
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	}
	return err
}

func (c *Chain) writer() (Writer, error) {
	if w, ok := c.primary.(Writer); ok {
		return w, nil
	}
	if w, ok := c.fallback.(Writer); ok {
		return w, nil
	}
	return nil, ErrReadOnly
}

// PutMonthly validates the query and writes to the primary source when it
// accepts writes, else to the static source.
func (c *Chain) PutMonthly(ctx context.Context, slug, month string, year int, doc model.MonthlyPrayerTimes) error {
	safe, err := calendar.ValidateMonthly(slug, month, year)
	if err != nil {
		return err
	}
	w, err := c.writer()
	if err != nil {
		return err
	}
	return w.PutMonthly(ctx, safe, month, year, doc)
}

func (c *Chain) PutRamadan(ctx context.Context, slug string, doc model.RamadanTimetable) error {
	safe, err := calendar.NormalizeSlug(slug)
	if err != nil {
		return err
	}
	w, err := c.writer()
	if err != nil {
		return err
	}
	return w.PutRamadan(ctx, safe, doc)
}

var (
	_ Writer = (*Postgres)(nil)
	_ Writer = (*Static)(nil)
	_ Writer = (*Chain)(nil)
)
