package timetable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/cache"
	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/clock"
	"github.com/Nixie-Tech-LLC/iqamah/internal/countdown"
	"github.com/Nixie-Tech-LLC/iqamah/internal/dst"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/store"
)

const (
	DefaultTTL            = 10 * time.Minute
	DefaultMonthlyEntries = 180
	DefaultRamadanEntries = 45

	SourceRamadan = "ramadan"
	SourceMonthly = "monthly"
)

// ErrNoPrayerRow means a calendar was found but has no daily rows to sample from.
var ErrNoPrayerRow = errors.New("calendar has no prayer rows")

// Calendars is the calendar store query surface. *store.Chain satisfies it.
type Calendars interface {
	Monthly(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error)
	RamadanCalendars(ctx context.Context, slug string) ([]model.RamadanTimetable, error)
}

type Options struct {
	// Location is the mosques' local time zone. Defaults to Europe/London.
	Location       *time.Location
	TTL            time.Duration
	MonthlyEntries int
	RamadanEntries int
	Remote         cache.Remote
	Keys           *cache.KeyGenerator
	Now            func() time.Time
}

// Service resolves a mosque's adhan and iqamah times for a date. It owns the
// calendar caches; construct one per process.
type Service struct {
	calendars Calendars
	dst       *dst.Resolver
	loc       *time.Location
	keys      *cache.KeyGenerator
	now       func() time.Time

	monthly *cache.Cache[*MonthlyCalendar]
	ramadan *cache.Cache[RamadanCalendars]
}

func NewService(calendars Calendars, resolver *dst.Resolver, opts Options) (*Service, error) {
	loc := opts.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation("Europe/London")
		if err != nil {
			return nil, fmt.Errorf("load default location: %w", err)
		}
	}
	if resolver == nil {
		resolver = dst.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MonthlyEntries <= 0 {
		opts.MonthlyEntries = DefaultMonthlyEntries
	}
	if opts.RamadanEntries <= 0 {
		opts.RamadanEntries = DefaultRamadanEntries
	}
	keys := opts.Keys
	if keys == nil {
		keys = cache.NewKeyGenerator("")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		calendars: calendars,
		dst:       resolver,
		loc:       loc,
		keys:      keys,
		now:       now,
		monthly: cache.New[*MonthlyCalendar](cache.Options{
			Name:       "monthly",
			TTL:        opts.TTL,
			MaxEntries: opts.MonthlyEntries,
			Remote:     opts.Remote,
			Pattern:    keys.MonthlyPattern(),
			Now:        now,
		}),
		ramadan: cache.New[RamadanCalendars](cache.Options{
			Name:       "ramadan",
			TTL:        opts.TTL,
			MaxEntries: opts.RamadanEntries,
			Remote:     opts.Remote,
			Pattern:    keys.RamadanPattern(),
			Now:        now,
		}),
	}, nil
}

// Caches exposes the calendar caches for sweeping, clearing and metrics.
func (s *Service) Caches() []cache.Managed {
	return []cache.Managed{s.monthly, s.ramadan}
}

func (s *Service) Location() *time.Location { return s.loc }

// DST returns the resolver used for adjustment windows.
func (s *Service) DST() *dst.Resolver { return s.dst }

// Now is the current instant in the service's location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// Today is the current calendar day in the service's location.
func (s *Service) Today() time.Time { return s.day(s.now()) }

func (s *Service) day(t time.Time) time.Time {
	return calendar.DateOnly(t.In(s.loc))
}

// Resolution is one mosque's day: the adhan row and the iqamah rules in force.
type Resolution struct {
	Slug    string
	Date    time.Time
	Source  string
	State   State
	Prayers model.DailyPrayerTimes
	// Iqamah holds the rules in force, after any DST substitution.
	Iqamah       iqamah.Day
	DSTAdjusting bool
	// IqamahFrom is set when the iqamah rules were taken from another date.
	IqamahFrom *dst.Mapping
	RamadanDay int
}

// Adhan returns the adhan time for prayer, "" for unknown names.
func (r *Resolution) Adhan(prayer string) string {
	switch strings.ToLower(prayer) {
	case iqamah.Fajr:
		return r.Prayers.Fajr
	case iqamah.Dhuhr, iqamah.Jummah:
		return r.Prayers.Dhuhr
	case iqamah.Asr:
		return r.Prayers.Asr
	case iqamah.Maghrib:
		return r.Prayers.Maghrib
	case iqamah.Isha:
		return r.Prayers.Isha
	}
	return ""
}

// IqamahFor resolves prayer's iqamah against the day's adhan times.
func (r *Resolution) IqamahFor(prayer string) string {
	return iqamah.Resolve(prayer, r.Adhan(prayer), r.Iqamah, r.Prayers.Maghrib)
}

// Stored returns the iqamah values as written in the calendar.
func (r *Resolution) Stored() model.DailyIqamahTimes {
	return r.Iqamah.Stored()
}

// ResolveDay picks the calendar for date, samples its adhan row and iqamah
// rules and, inside a DST adjustment window, swaps in the iqamah rules of the
// mapped date. A failed swap keeps the day's own rules.
func (s *Service) ResolveDay(ctx context.Context, slug string, date time.Time) (*Resolution, error) {
	safe, err := calendar.NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	day := s.day(date)

	res, err := s.resolve(ctx, safe, day)
	if err != nil {
		return nil, err
	}

	res.DSTAdjusting = s.dst.InAdjustmentWindow(day)
	if m, ok := s.dst.AdjustedIqamahDate(day); ok {
		alt := time.Date(day.Year(), m.Month, m.Day, 0, 0, 0, 0, s.loc)
		altRes, err := s.resolve(ctx, safe, alt)
		if err != nil {
			log.Warn().Err(err).Str("slug", safe).Str("date", day.Format(time.DateOnly)).
				Str("iqamah_date", alt.Format(time.DateOnly)).
				Msg("dst iqamah substitution failed, keeping calendar iqamah")
		} else {
			res.Iqamah = altRes.Iqamah
			res.IqamahFrom = &m
		}
	}
	return res, nil
}

func (s *Service) resolve(ctx context.Context, slug string, day time.Time) (*Resolution, error) {
	ram, err := s.loadRamadan(ctx, slug, day)
	if err != nil {
		return nil, err
	}

	presence := NoRamadan
	if ram != nil {
		presence = RamadanElsewhere
		if ram.Covers(day) {
			presence = RamadanCovers
		}
	}

	var (
		res        *Resolution
		monthlyErr error
	)
	if presence != RamadanCovers {
		res, monthlyErr = s.monthlyDay(ctx, slug, day)
	}

	state := Decide(presence, presence != RamadanCovers && monthlyErr == nil)
	switch state {
	case RamadanActive:
		res, err = ramadanDay(slug, day, ram)
		if err != nil {
			return nil, err
		}
	case MonthlyActive:
	case RamadanOnlyNoMonthly:
		return nil, &RamadanOnlyError{Range: ram.Range(), Err: monthlyErr}
	default:
		return nil, monthlyErr
	}
	res.State = state
	return res, nil
}

// loadRamadan returns the mosque's Ramadan calendar for day, or nil when it
// has none. All of a mosque's calendars are cached under one key and the
// covering one is picked per date. Store failures and documents without a
// usable range count as none.
func (s *Service) loadRamadan(ctx context.Context, slug string, day time.Time) (*RamadanCalendar, error) {
	cals, err := s.ramadan.GetOrLoad(ctx, s.keys.RamadanKey(slug), func(ctx context.Context) (RamadanCalendars, error) {
		docs, err := s.calendars.RamadanCalendars(ctx, slug)
		if err != nil {
			return nil, err
		}
		out := make(RamadanCalendars, 0, len(docs))
		for i := range docs {
			if !hasRange(&docs[i], s.loc) {
				log.Warn().Str("slug", slug).Str("start", docs[i].GregorianStart).Str("end", docs[i].GregorianEnd).
					Msg("ramadan calendar has no usable date range, ignoring")
				continue
			}
			cal, err := NewRamadanCalendar(docs[i], s.loc)
			if err != nil {
				return nil, err
			}
			out = append(out, cal)
		}
		return out, nil
	})
	switch {
	case err == nil:
		return cals.For(day), nil
	case errors.Is(err, calendar.ErrValidation), errors.Is(err, iqamah.ErrMalformedRule):
		return nil, err
	}
	log.Warn().Err(err).Str("slug", slug).Msg("ramadan calendar unavailable, using monthly calendar")
	return nil, nil
}

func hasRange(doc *model.RamadanTimetable, loc *time.Location) bool {
	if _, err := calendar.ParseDay(doc.GregorianStart, loc); err != nil {
		return false
	}
	_, err := calendar.ParseDay(doc.GregorianEnd, loc)
	return err == nil
}

func (s *Service) loadMonthly(ctx context.Context, slug, month string, year int) (*MonthlyCalendar, error) {
	return s.monthly.GetOrLoad(ctx, s.keys.MonthlyKey(slug, month, year), func(ctx context.Context) (*MonthlyCalendar, error) {
		doc, err := s.calendars.Monthly(ctx, slug, month, year)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: %s %s %d", store.ErrNotFound, slug, month, year)
		}
		return NewMonthlyCalendar(*doc)
	})
}

func (s *Service) monthlyDay(ctx context.Context, slug string, day time.Time) (*Resolution, error) {
	month, err := calendar.MonthName(day.Month())
	if err != nil {
		return nil, err
	}
	cal, err := s.loadMonthly(ctx, slug, month, day.Year())
	if err != nil {
		return nil, err
	}

	row, ok := calendar.FindRow(cal.Document.PrayerTimes, day.Day())
	if !ok {
		return nil, fmt.Errorf("%w: %s %s %d", ErrNoPrayerRow, slug, month, day.Year())
	}
	rules, err := cal.table.ForDay(day.Day())
	if err != nil {
		return nil, fmt.Errorf("%s %s %d: %w", slug, month, day.Year(), err)
	}

	return &Resolution{
		Slug:   slug,
		Date:   day,
		Source: SourceMonthly,
		Prayers: model.DailyPrayerTimes{
			Date:    day.Format(time.DateOnly),
			Fajr:    row.Fajr,
			Sunrise: row.Shurooq,
			Dhuhr:   row.Dhuhr,
			Asr:     row.Asr,
			Maghrib: row.Maghrib,
			Isha:    row.Isha,
		},
		Iqamah: rules,
	}, nil
}

func ramadanDay(slug string, day time.Time, cal *RamadanCalendar) (*Resolution, error) {
	n := calendar.RamadanDay(day, cal.Start)
	row, ok := calendar.FindRow(cal.Document.PrayerTimes, n)
	if !ok {
		return nil, fmt.Errorf("%w: %s ramadan %s", ErrNoPrayerRow, slug, cal.Range())
	}
	rules, err := cal.table.ForDay(n)
	if err != nil {
		return nil, fmt.Errorf("%s ramadan day %d: %w", slug, n, err)
	}

	return &Resolution{
		Slug:   slug,
		Date:   day,
		Source: SourceRamadan,
		Prayers: model.DailyPrayerTimes{
			Date:    day.Format(time.DateOnly),
			Fajr:    row.Fajr,
			Sunrise: row.Shurooq,
			Dhuhr:   row.Dhuhr,
			Asr:     row.Asr,
			Maghrib: row.Maghrib,
			Isha:    row.Isha,
		},
		Iqamah:     rules,
		RamadanDay: n,
	}, nil
}

// PrayerTimes returns the adhan times for date.
func (s *Service) PrayerTimes(ctx context.Context, slug string, date time.Time) (model.DailyPrayerTimes, error) {
	res, err := s.ResolveDay(ctx, slug, date)
	if err != nil {
		return model.DailyPrayerTimes{}, err
	}
	return res.Prayers, nil
}

// IqamahTimes returns the stored iqamah values in force on date.
func (s *Service) IqamahTimes(ctx context.Context, slug string, date time.Time) (model.DailyIqamahTimes, error) {
	res, err := s.ResolveDay(ctx, slug, date)
	if err != nil {
		return model.DailyIqamahTimes{}, err
	}
	return res.Stored(), nil
}

// IqamahFor resolves one prayer's iqamah clock time on date. Unknown prayers
// resolve to "-".
func (s *Service) IqamahFor(ctx context.Context, slug, prayer string, date time.Time) (string, error) {
	res, err := s.ResolveDay(ctx, slug, date)
	if err != nil {
		return "", err
	}
	return res.IqamahFor(prayer), nil
}

// MonthlyDocument returns a mosque's monthly calendar as stored.
func (s *Service) MonthlyDocument(ctx context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error) {
	safe, err := calendar.ValidateMonthly(slug, month, year)
	if err != nil {
		return nil, err
	}
	cal, err := s.loadMonthly(ctx, safe, month, year)
	if err != nil {
		return nil, err
	}
	doc := cal.Document
	return &doc, nil
}

// RamadanDocument returns the Ramadan calendar relevant to date and whether
// date falls inside it. store.ErrNotFound is returned when the mosque has none.
func (s *Service) RamadanDocument(ctx context.Context, slug string, date time.Time) (*model.RamadanTimetable, bool, error) {
	safe, err := calendar.NormalizeSlug(slug)
	if err != nil {
		return nil, false, err
	}
	day := s.day(date)
	cal, err := s.loadRamadan(ctx, safe, day)
	if err != nil {
		return nil, false, err
	}
	if cal == nil {
		return nil, false, fmt.Errorf("%w: no ramadan calendar for %s", store.ErrNotFound, safe)
	}
	doc := cal.Document
	return &doc, cal.Covers(day), nil
}

// IsRamadan reports whether date falls inside the mosque's Ramadan calendar.
func (s *Service) IsRamadan(ctx context.Context, slug string, date time.Time) (bool, error) {
	_, in, err := s.RamadanDocument(ctx, slug, date)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return in, err
}

// CountdownDay builds the projector input for the day containing now. Inside
// a DST adjustment window the Dhuhr and Maghrib adhans are shown an hour
// earlier and iqamahs are resolved against the shifted times.
func (s *Service) CountdownDay(ctx context.Context, slug string, now time.Time) (countdown.Day, error) {
	res, err := s.ResolveDay(ctx, slug, now)
	if err != nil {
		return countdown.Day{}, err
	}
	return CountdownInput(res), nil
}

// CountdownInput converts a resolution into projector anchors.
func CountdownInput(res *Resolution) countdown.Day {
	p := res.Prayers
	if res.DSTAdjusting {
		p.Dhuhr = clock.SubtractOneHour(p.Dhuhr)
		p.Maghrib = clock.SubtractOneHour(p.Maghrib)
	}
	rules := res.Iqamah

	isha := iqamah.DisplayIsha(res.Date, p.Isha, rules, p.Maghrib)
	return countdown.Day{
		Date:    res.Date,
		Fajr:    countdown.Anchor{Name: "Fajr", Adhan: p.Fajr, Iqamah: iqamah.Resolve(iqamah.Fajr, p.Fajr, rules, p.Maghrib)},
		Sunrise: p.Sunrise,
		Dhuhr:   countdown.Anchor{Name: "Dhuhr", Adhan: p.Dhuhr, Iqamah: iqamah.Resolve(iqamah.Dhuhr, p.Dhuhr, rules, p.Maghrib)},
		Asr:     countdown.Anchor{Name: "Asr", Adhan: p.Asr, Iqamah: iqamah.Resolve(iqamah.Asr, p.Asr, rules, p.Maghrib)},
		Maghrib: countdown.Anchor{Name: "Maghrib", Adhan: p.Maghrib, Iqamah: iqamah.Resolve(iqamah.Maghrib, p.Maghrib, rules, p.Maghrib)},
		Isha:    countdown.Anchor{Name: "Isha", Adhan: p.Isha, Iqamah: isha},
		Jummah:  rules.Jummah,
	}
}
