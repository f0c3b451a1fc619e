package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

// ListMosques includes hidden mosques; callers filter.
func (s *pgStore) ListMosques(ctx context.Context) ([]model.Mosque, error) {
	var mosques []model.Mosque
	err := s.db.SelectContext(ctx, &mosques, `
		SELECT slug, name, address, lat, lng, website, is_hidden, created_at, updated_at
		FROM mosques
		ORDER BY name
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list mosques")
		return nil, fmt.Errorf("list mosques: %w", err)
	}
	return mosques, nil
}

func (s *pgStore) GetMosque(ctx context.Context, slug string) (*model.Mosque, error) {
	var m model.Mosque
	err := s.db.GetContext(ctx, &m, `
		SELECT slug, name, address, lat, lng, website, is_hidden, created_at, updated_at
		FROM mosques
		WHERE slug = $1
		`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to get mosque")
		return nil, fmt.Errorf("get mosque %s: %w", slug, err)
	}
	return &m, nil
}

func (s *pgStore) UpsertMosque(ctx context.Context, m model.Mosque) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO mosques (slug, name, address, lat, lng, website, is_hidden)
		VALUES (:slug, :name, :address, :lat, :lng, :website, :is_hidden)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			website = EXCLUDED.website,
			is_hidden = EXCLUDED.is_hidden,
			updated_at = NOW()
		`, m)
	if err != nil {
		return fmt.Errorf("upsert mosque %s: %w", m.Slug, err)
	}
	return nil
}
