package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

type ramadanRow struct {
	GregorianStart time.Time      `db:"gregorian_start"`
	GregorianEnd   time.Time      `db:"gregorian_end"`
	Document       types.JSONText `db:"document"`
}

func (s *pgStore) GetMonthly(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error) {
	var doc types.JSONText
	err := s.db.GetContext(ctx, &doc, `
		SELECT document
		FROM monthly_calendars
		WHERE mosque_slug = $1 AND month = $2 AND year = $3
		`, slug, month, year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Str("month", month).Int("year", year).Msg("failed to get monthly calendar")
		return nil, fmt.Errorf("get monthly calendar %s/%s/%d: %w", slug, month, year, err)
	}

	var monthly model.MonthlyPrayerTimes
	if err := doc.Unmarshal(&monthly); err != nil {
		return nil, fmt.Errorf("decode monthly calendar %s/%s/%d: %w", slug, month, year, err)
	}
	return &monthly, nil
}

// ListRamadan returns every Ramadan calendar for slug, newest first.
func (s *pgStore) ListRamadan(ctx context.Context, slug string) ([]model.RamadanTimetable, error) {
	var rows []ramadanRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT gregorian_start, gregorian_end, document
		FROM ramadan_calendars
		WHERE mosque_slug = $1
		ORDER BY gregorian_start DESC
		`, slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to list ramadan calendars")
		return nil, fmt.Errorf("list ramadan calendars %s: %w", slug, err)
	}

	out := make([]model.RamadanTimetable, 0, len(rows))
	for _, r := range rows {
		var t model.RamadanTimetable
		if err := r.Document.Unmarshal(&t); err != nil {
			return nil, fmt.Errorf("decode ramadan calendar %s %s: %w", slug, r.GregorianStart.Format(time.DateOnly), err)
		}
		// The columns are authoritative for the covered range.
		t.GregorianStart = r.GregorianStart.Format(time.DateOnly)
		t.GregorianEnd = r.GregorianEnd.Format(time.DateOnly)
		out = append(out, t)
	}
	return out, nil
}

func (s *pgStore) UpsertMonthly(ctx context.Context, slug, month string, year int, doc model.MonthlyPrayerTimes) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode monthly calendar: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO monthly_calendars (mosque_slug, month, year, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mosque_slug, month, year) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = NOW()
		`, slug, month, year, types.JSONText(raw))
	if err != nil {
		return fmt.Errorf("upsert monthly calendar %s/%s/%d: %w", slug, month, year, err)
	}
	return nil
}

func (s *pgStore) UpsertRamadan(ctx context.Context, slug string, start, end time.Time, doc model.RamadanTimetable) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode ramadan calendar: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ramadan_calendars (mosque_slug, gregorian_start, gregorian_end, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mosque_slug, gregorian_start) DO UPDATE SET
			gregorian_end = EXCLUDED.gregorian_end,
			document = EXCLUDED.document,
			updated_at = NOW()
		`, slug, start, end, types.JSONText(raw))
	if err != nil {
		return fmt.Errorf("upsert ramadan calendar %s: %w", slug, err)
	}
	return nil
}
