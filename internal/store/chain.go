package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/cache"
	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

const (
	registryTTL = time.Minute
	registryKey = "mosques"
)

// Chain validates queries and asks the primary source first, falling back to
// the static source. Monthly queries fall back when the primary fails or has
// no document; Ramadan queries only when the primary fails.
type Chain struct {
	primary  Source
	fallback Source
	registry *cache.Cache[[]model.Mosque]
}

// NewChain builds a chain. primary may be nil.
func NewChain(primary, fallback Source) *Chain {
	return &Chain{
		primary:  primary,
		fallback: fallback,
		registry: cache.New[[]model.Mosque](cache.Options{Name: "mosques", TTL: registryTTL, MaxEntries: 1}),
	}
}

// Registry exposes the mosque list cache for administration.
func (c *Chain) Registry() cache.Managed { return c.registry }

func (c *Chain) Monthly(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error) {
	safe, err := calendar.ValidateMonthly(slug, month, year)
	if err != nil {
		return nil, err
	}

	if c.primary != nil {
		doc, err := c.primary.Monthly(ctx, safe, month, year)
		switch {
		case err == nil:
			return doc, nil
		case errors.Is(err, ErrNotFound):
			log.Debug().Str("slug", safe).Str("month", month).Int("year", year).
				Msgf("no %s monthly calendar, trying %s", c.primary.Name(), c.fallback.Name())
		default:
			log.Warn().Err(err).Str("slug", safe).Str("month", month).
				Msgf("%s monthly query failed, falling back to %s", c.primary.Name(), c.fallback.Name())
		}
	}
	return c.fallback.Monthly(ctx, safe, month, year)
}

// RamadanCalendars lists the mosque's Ramadan calendars. An empty answer from
// the primary is authoritative; only a failed query falls back.
func (c *Chain) RamadanCalendars(ctx context.Context, slug string) ([]model.RamadanTimetable, error) {
	safe, err := calendar.NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}

	if c.primary != nil {
		docs, err := c.primary.RamadanCalendars(ctx, safe)
		if err == nil {
			return docs, nil
		}
		log.Warn().Err(err).Str("slug", safe).
			Msgf("%s ramadan query failed, falling back to %s", c.primary.Name(), c.fallback.Name())
	}
	return c.fallback.RamadanCalendars(ctx, safe)
}

// Mosques lists visible mosques sorted by name. Entries from the primary
// source replace static entries with the same slug.
func (c *Chain) Mosques(ctx context.Context) ([]model.Mosque, error) {
	all, err := c.allMosques(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]model.Mosque, 0, len(all))
	for _, m := range all {
		if !m.IsHidden {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

// Mosque returns the mosque for slug, or (nil, nil) when it is unknown or hidden
// and includeHidden is false.
func (c *Chain) Mosque(ctx context.Context, slug string, includeHidden bool) (*model.Mosque, error) {
	safe, err := calendar.NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	all, err := c.allMosques(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Slug != safe {
			continue
		}
		if all[i].IsHidden && !includeHidden {
			return nil, nil
		}
		m := all[i]
		return &m, nil
	}
	return nil, nil
}

func (c *Chain) allMosques(ctx context.Context) ([]model.Mosque, error) {
	return c.registry.GetOrLoad(ctx, registryKey, func(ctx context.Context) ([]model.Mosque, error) {
		static, err := c.fallback.Mosques(ctx)
		if err != nil {
			log.Error().Err(err).Msgf("failed to load mosques from %s", c.fallback.Name())
			static = nil
		}

		var primary []model.Mosque
		if c.primary != nil {
			primary, err = c.primary.Mosques(ctx)
			if err != nil {
				log.Error().Err(err).Msgf("failed to load mosques from %s", c.primary.Name())
				primary = nil
			}
		}
		return dedupe(append(static, primary...)), nil
	})
}

func dedupe(mosques []model.Mosque) []model.Mosque {
	bySlug := make(map[string]model.Mosque, len(mosques))
	for _, m := range mosques {
		bySlug[m.Slug] = m
	}
	out := make([]model.Mosque, 0, len(bySlug))
	for _, m := range bySlug {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}
