package model

// DailyPrayerTimes are the adhan times resolved for one date.
type DailyPrayerTimes struct {
	Date    string `json:"date"` // "2025-03-05"
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// DailyIqamahTimes are the stored (unresolved) iqamah values that apply to one date.
type DailyIqamahTimes struct {
	Fajr    string `json:"fajr"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
	Jummah  string `json:"jummah"`
}

// Prayer is one row of a rendered board.
type Prayer struct {
	Name   string `json:"name"`   // "FAJR", "DHUHR", ...
	Adhan  string `json:"adhan"`  // "05:12"
	Iqamah string `json:"iqamah"` // "05:30", "--:--", "After Maghrib"
}

type AthanPageData struct {
	Mosque       string   `json:"mosque"`
	Date         string   `json:"date"` // "Fri 7 March 2025"
	Source       string   `json:"source"`
	Jummah       string   `json:"jummah"`
	Summer       bool     `json:"summer"`
	DSTAdjusting bool     `json:"dst_adjusting"`
	Prayers      []Prayer `json:"prayers"`
}
