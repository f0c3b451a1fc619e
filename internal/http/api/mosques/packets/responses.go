package packets

import "github.com/Nixie-Tech-LLC/iqamah/internal/model"

type MosqueResponse struct {
	Slug    string  `json:"slug"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Website *string `json:"website,omitempty"`
}

// TimesResponse is one resolved day. Iqamah holds the stored values and
// Resolved the clock times they resolve to.
type TimesResponse struct {
	Slug         string                 `json:"slug"`
	Date         string                 `json:"date"`
	DisplayDate  string                 `json:"display_date"`
	Source       string                 `json:"source"`
	Prayers      model.DailyPrayerTimes `json:"prayers"`
	Iqamah       model.DailyIqamahTimes `json:"iqamah"`
	Resolved     map[string]string      `json:"resolved"`
	Summer       bool                   `json:"summer"`
	DSTAdjusting bool                   `json:"dst_adjusting"`
	IqamahDate   string                 `json:"iqamah_date,omitempty"`
	RamadanDay   int                    `json:"ramadan_day,omitempty"`
}

type IqamahResponse struct {
	Slug   string `json:"slug"`
	Date   string `json:"date"`
	Prayer string `json:"prayer"`
	Iqamah string `json:"iqamah"`
}

type RamadanResponse struct {
	Calendar *model.RamadanTimetable `json:"calendar"`
	InRange  bool                    `json:"in_range"`
}
