package timetable

import (
	"context"
	"time"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/clock"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

// Board lays out a resolved day as the six rows shown on a mosque screen.
// Sunrise has no iqamah and Isha shows "After Maghrib" in summer.
func Board(res *Resolution, mosque string) model.AthanPageData {
	p := res.Prayers
	rules := res.Iqamah
	row := func(name, prayer, adhan string) model.Prayer {
		return model.Prayer{Name: name, Adhan: adhan, Iqamah: iqamah.Resolve(prayer, adhan, rules, p.Maghrib)}
	}

	return model.AthanPageData{
		Mosque:       mosque,
		Date:         calendar.FormatDisplayDate(res.Date),
		Source:       res.Source,
		Jummah:       rules.Jummah,
		Summer:       iqamah.InSummer(res.Date),
		DSTAdjusting: res.DSTAdjusting,
		Prayers: []model.Prayer{
			row("FAJR", iqamah.Fajr, p.Fajr),
			{Name: "SUNRISE", Adhan: p.Sunrise, Iqamah: clock.BlankTime},
			row("DHUHR", iqamah.Dhuhr, p.Dhuhr),
			row("ASR", iqamah.Asr, p.Asr),
			row("MAGHRIB", iqamah.Maghrib, p.Maghrib),
			{Name: "ISHA", Adhan: p.Isha, Iqamah: iqamah.DisplayIsha(res.Date, p.Isha, rules, p.Maghrib)},
		},
	}
}

// Board resolves date and lays it out for mosque display.
func (s *Service) Board(ctx context.Context, slug, mosque string, date time.Time) (model.AthanPageData, error) {
	res, err := s.ResolveDay(ctx, slug, date)
	if err != nil {
		return model.AthanPageData{}, err
	}
	return Board(res, mosque), nil
}
