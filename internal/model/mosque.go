package model

import "time"

// Mosque is a registered mosque. Slug is the identity key for every calendar lookup.
type Mosque struct {
	Slug      string    `db:"slug"       json:"slug"`
	Name      string    `db:"name"       json:"name"`
	Address   string    `db:"address"    json:"address"`
	Lat       float64   `db:"lat"        json:"lat"`
	Lng       float64   `db:"lng"        json:"lng"`
	Website   *string   `db:"website"    json:"website,omitempty"`
	IsHidden  bool      `db:"is_hidden"  json:"is_hidden"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
