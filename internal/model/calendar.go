package model

// PrayerTime is one sampled day of a monthly calendar. Date is the day of month.
type PrayerTime struct {
	Date    int    `json:"date"`
	Fajr    string `json:"fajr"`
	Shurooq string `json:"shurooq"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// Key returns the day of month the row was sampled on.
func (p PrayerTime) Key() int { return p.Date }

// RamadanPrayerTime is one sampled day of a Ramadan calendar, keyed by the day of Ramadan.
type RamadanPrayerTime struct {
	RamadanDay int    `json:"ramadan_day"`
	Gregorian  string `json:"gregorian"`
	Fajr       string `json:"fajr"`
	Shurooq    string `json:"shurooq"`
	Dhuhr      string `json:"dhuhr"`
	Asr        string `json:"asr"`
	Maghrib    string `json:"maghrib"`
	Isha       string `json:"isha"`
}

func (p RamadanPrayerTime) Key() int { return p.RamadanDay }

// IqamahTimeRange holds the stored iqamah values for a span of days such as "1-21" or "30".
// Values are clock times or symbolic tokens ("Various", "Entry Time", "adhan + 10 mins", ...).
type IqamahTimeRange struct {
	DateRange string `json:"date_range"`
	Fajr      string `json:"fajr"`
	Dhuhr     string `json:"dhuhr"`
	Asr       string `json:"asr"`
	Maghrib   string `json:"maghrib,omitempty"`
	Isha      string `json:"isha"`
}

// MonthlyPrayerTimes is the monthly calendar document, shaped like the static JSON files.
type MonthlyPrayerTimes struct {
	Month        string            `json:"month"`
	PrayerTimes  []PrayerTime      `json:"prayer_times"`
	IqamahTimes  []IqamahTimeRange `json:"iqamah_times"`
	JummahIqamah string            `json:"jummah_iqamah"`
}

// RamadanTimetable is a mosque's separate calendar for the fasting month.
// GregorianStart and GregorianEnd are inclusive "YYYY-MM-DD" dates.
type RamadanTimetable struct {
	Month          string              `json:"month"`
	GregorianStart string              `json:"gregorian_start"`
	GregorianEnd   string              `json:"gregorian_end"`
	PrayerTimes    []RamadanPrayerTime `json:"prayer_times"`
	IqamahTimes    []IqamahTimeRange   `json:"iqamah_times"`
	JummahIqamah   string              `json:"jummah_iqamah"`
}
