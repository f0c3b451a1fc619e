package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/storage"
)

// MosquesDocument lists the mosques published alongside the static calendars.
const MosquesDocument = "mosques.json"

// Static serves the JSON documents laid out as mosques/<slug>/<month>.json and
// mosques/<slug>/ramadan.json. Monthly documents are not keyed by year.
type Static struct {
	storage storage.Storage
}

func NewStatic(s storage.Storage) *Static {
	return &Static{storage: s}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Monthly(ctx context.Context, slug, month string, _ int) (*model.MonthlyPrayerTimes, error) {
	data, err := s.storage.Read(ctx, storage.MonthlyDocument(slug, month))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNotFound, slug, month, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prayer times for %s: %w", month, err)
	}

	var doc model.MonthlyPrayerTimes
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", slug, month, err)
	}
	return &doc, nil
}

// RamadanCalendars returns the single ramadan.json document. A missing,
// unreadable or rangeless document counts as no calendar.
func (s *Static) RamadanCalendars(ctx context.Context, slug string) ([]model.RamadanTimetable, error) {
	data, err := s.storage.Read(ctx, storage.RamadanDocument(slug))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Str("slug", slug).Msg("error loading ramadan data")
		}
		return nil, nil
	}

	var doc model.RamadanTimetable
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("undecodable ramadan document")
		return nil, nil
	}
	if doc.GregorianStart == "" || doc.GregorianEnd == "" {
		return nil, nil
	}
	return []model.RamadanTimetable{doc}, nil
}

type staticMosque struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	Lat      json.RawMessage `json:"lat"`
	Lng      json.RawMessage `json:"lng"`
	Slug     string          `json:"slug"`
	Website  string          `json:"website"`
	IsHidden bool            `json:"isHidden"`
}

// Mosques reads mosques.json ({"mosques": [...]}). Records missing a name,
// address, slug or coordinates are dropped. Without the document, the slugs
// found under mosques/ are returned with the slug as name.
func (s *Static) Mosques(ctx context.Context) ([]model.Mosque, error) {
	data, err := s.storage.Read(ctx, MosquesDocument)
	if errors.Is(err, storage.ErrNotFound) {
		return s.mosquesFromLayout(ctx)
	}
	if err != nil {
		return nil, err
	}

	var doc struct {
		Mosques []staticMosque `json:"mosques"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MosquesDocument, err)
	}

	out := make([]model.Mosque, 0, len(doc.Mosques))
	for _, r := range doc.Mosques {
		m, ok := r.normalize()
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r staticMosque) normalize() (model.Mosque, bool) {
	name := strings.TrimSpace(r.Name)
	address := strings.TrimSpace(r.Address)
	slug := strings.TrimSpace(r.Slug)
	lat, latOK := number(r.Lat)
	lng, lngOK := number(r.Lng)
	if name == "" || address == "" || slug == "" || !latOK || !lngOK {
		return model.Mosque{}, false
	}

	m := model.Mosque{Slug: slug, Name: name, Address: address, Lat: lat, Lng: lng, IsHidden: r.IsHidden}
	if w := strings.TrimSpace(r.Website); w != "" {
		m.Website = &w
	}
	return m, true
}

// number accepts 53.38 or "53.38".
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s json.Number
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := s.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (s *Static) mosquesFromLayout(ctx context.Context) ([]model.Mosque, error) {
	slugs, err := s.storage.List(ctx, "mosques")
	if err != nil {
		return nil, err
	}
	out := make([]model.Mosque, 0, len(slugs))
	for _, slug := range slugs {
		if strings.Contains(slug, ".") {
			continue
		}
		out = append(out, model.Mosque{Slug: slug, Name: slug})
	}
	return out, nil
}
