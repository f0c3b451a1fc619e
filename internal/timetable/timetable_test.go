package timetable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/dst"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/store"
)

type fakeCalendars struct {
	mu         sync.Mutex
	monthly    map[string]*model.MonthlyPrayerTimes
	ramadan    *model.RamadanTimetable
	older      []model.RamadanTimetable
	ramadanErr error

	monthlyCalls int
	ramadanCalls int
}

func (f *fakeCalendars) Monthly(_ context.Context, slug, month string, year int) (*model.MonthlyPrayerTimes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthlyCalls++
	doc, ok := f.monthly[fmt.Sprintf("%s:%d", month, year)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s %d", store.ErrNotFound, slug, month, year)
	}
	return doc, nil
}

func (f *fakeCalendars) RamadanCalendars(context.Context, string) ([]model.RamadanTimetable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ramadanCalls++
	if f.ramadanErr != nil {
		return nil, f.ramadanErr
	}
	docs := append([]model.RamadanTimetable(nil), f.older...)
	if f.ramadan != nil {
		docs = append(docs, *f.ramadan)
	}
	return docs, nil
}

func march2025() *model.MonthlyPrayerTimes {
	return &model.MonthlyPrayerTimes{
		Month: "March 2025",
		PrayerTimes: []model.PrayerTime{
			{Date: 1, Fajr: "05:10", Shurooq: "06:50", Dhuhr: "12:25", Asr: "15:05", Maghrib: "17:50", Isha: "19:15"},
			{Date: 15, Fajr: "04:40", Shurooq: "06:15", Dhuhr: "12:20", Asr: "15:25", Maghrib: "18:15", Isha: "19:40"},
		},
		IqamahTimes: []model.IqamahTimeRange{
			{DateRange: "1-31", Fajr: "Adhan + 15 mins", Dhuhr: "13:15", Asr: "Entry Time", Isha: "Straight after Maghrib"},
		},
		JummahIqamah: "13:30",
	}
}

func ramadan2025() *model.RamadanTimetable {
	return &model.RamadanTimetable{
		Month:          "Ramadan 1446",
		GregorianStart: "2025-03-01",
		GregorianEnd:   "2025-03-30",
		PrayerTimes: []model.RamadanPrayerTime{
			{RamadanDay: 1, Gregorian: "2025-03-01", Fajr: "05:05", Shurooq: "06:49", Dhuhr: "12:26", Asr: "15:04", Maghrib: "17:51", Isha: "19:16"},
		},
		IqamahTimes: []model.IqamahTimeRange{
			{DateRange: "1-30", Fajr: "05:30", Dhuhr: "13:00", Asr: "15:45", Maghrib: "adhan + 5 mins", Isha: "20:00"},
		},
		JummahIqamah: "13:10",
	}
}

func newService(t *testing.T, cals *fakeCalendars) *Service {
	t.Helper()
	svc, err := NewService(cals, dst.Default(), Options{Location: time.UTC})
	require.NoError(t, err)
	return svc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		presence Presence
		loaded   bool
		want     State
	}{
		{RamadanCovers, false, RamadanActive},
		{RamadanCovers, true, RamadanActive},
		{RamadanElsewhere, true, MonthlyActive},
		{NoRamadan, true, MonthlyActive},
		{RamadanElsewhere, false, RamadanOnlyNoMonthly},
		{NoRamadan, false, NoDataAnywhere},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.presence, tt.loaded), "presence=%d loaded=%v", tt.presence, tt.loaded)
	}
}

func TestIsRamadanOnly(t *testing.T) {
	err := fmt.Errorf("load day: %w", &RamadanOnlyError{Range: "1 Mar 2025 – 30 Mar 2025"})
	r, ok := IsRamadanOnly(err)
	assert.True(t, ok)
	assert.Equal(t, "1 Mar 2025 – 30 Mar 2025", r)

	r, ok = IsRamadanOnly(errors.New("RAMADAN_ONLY:10 Mar 2026 – 8 Apr 2026"))
	assert.True(t, ok)
	assert.Equal(t, "10 Mar 2026 – 8 Apr 2026", r)

	_, ok = IsRamadanOnly(store.ErrNotFound)
	assert.False(t, ok)
	_, ok = IsRamadanOnly(nil)
	assert.False(t, ok)
}

func TestResolveDay_Monthly(t *testing.T) {
	cals := &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": march2025()}}
	svc := newService(t, cals)
	ctx := context.Background()

	res, err := svc.ResolveDay(ctx, "example-mosque", date(2025, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, SourceMonthly, res.Source)
	assert.Equal(t, MonthlyActive, res.State)
	assert.Equal(t, "2025-03-05", res.Prayers.Date)
	// Day 5 carries the day 1 sample forward.
	assert.Equal(t, "05:10", res.Prayers.Fajr)

	assert.Equal(t, "13:15", res.IqamahFor(iqamah.Dhuhr))
	assert.Equal(t, "05:25", res.IqamahFor(iqamah.Fajr))
	assert.Equal(t, "15:05", res.IqamahFor(iqamah.Asr))
	assert.Equal(t, "17:50", res.IqamahFor(iqamah.Maghrib))
	assert.Equal(t, "17:50", res.IqamahFor(iqamah.Isha))
	assert.Equal(t, "13:30", res.IqamahFor(iqamah.Jummah))
	assert.Equal(t, "-", res.IqamahFor("tahajjud"))

	stored := res.Stored()
	assert.Equal(t, "Adhan + 15 mins", stored.Fajr)
	assert.Equal(t, "13:30", stored.Jummah)
}

func TestIqamahFor_EndToEnd(t *testing.T) {
	cals := &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": march2025()}}
	ctx := context.Background()

	got, err := newService(t, cals).IqamahFor(ctx, "example-mosque", "dhuhr", date(2025, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, "13:15", got)

	// The same mosque with a Ramadan calendar covering the date resolves via Ramadan.
	cals.ramadan = ramadan2025()
	got, err = newService(t, cals).IqamahFor(ctx, "example-mosque", "dhuhr", date(2025, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, "13:00", got)
}

func TestResolveDay_RamadanPrecedence(t *testing.T) {
	cals := &fakeCalendars{
		monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": march2025()},
		ramadan: ramadan2025(),
	}
	svc := newService(t, cals)

	res, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, SourceRamadan, res.Source)
	assert.Equal(t, RamadanActive, res.State)
	assert.Equal(t, 10, res.RamadanDay)
	assert.Equal(t, "12:26", res.Prayers.Dhuhr)
	assert.Equal(t, "13:00", res.IqamahFor(iqamah.Dhuhr))
	assert.Equal(t, "17:56", res.IqamahFor(iqamah.Maghrib))
	assert.Equal(t, "13:10", res.Iqamah.Jummah)
	// The monthly calendar is never consulted while Ramadan covers the date.
	assert.Zero(t, cals.monthlyCalls)
}

func TestResolveDay_RamadanOnly(t *testing.T) {
	cals := &fakeCalendars{ramadan: ramadan2025()}
	svc := newService(t, cals)

	_, err := svc.ResolveDay(context.Background(), "ramadan-only-mosque", date(2025, time.June, 1))
	require.Error(t, err)
	r, ok := IsRamadanOnly(err)
	require.True(t, ok)
	assert.Equal(t, "1 Mar 2025 – 30 Mar 2025", r)
	assert.Equal(t, "RAMADAN_ONLY:1 Mar 2025 – 30 Mar 2025", err.Error())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveDay_NoDataAnywhere(t *testing.T) {
	svc := newService(t, &fakeCalendars{})

	_, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.June, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, ok := IsRamadanOnly(err)
	assert.False(t, ok)
}

func TestResolveDay_ValidationFailsFast(t *testing.T) {
	cals := &fakeCalendars{}
	svc := newService(t, cals)

	_, err := svc.ResolveDay(context.Background(), "Example Mosque!", date(2025, time.March, 5))
	assert.ErrorIs(t, err, calendar.ErrInvalidSlug)
	assert.Zero(t, cals.monthlyCalls)
	assert.Zero(t, cals.ramadanCalls)
}

func TestResolveDay_MalformedIqamahIsLoadError(t *testing.T) {
	doc := march2025()
	doc.IqamahTimes[0].Dhuhr = "quarter past one"
	svc := newService(t, &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": doc}})

	_, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.March, 5))
	assert.ErrorIs(t, err, iqamah.ErrMalformedRule)
}

func TestResolveDay_IqamahGapIsError(t *testing.T) {
	doc := march2025()
	doc.IqamahTimes[0].DateRange = "1-20"
	svc := newService(t, &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": doc}})

	_, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.March, 25))
	assert.ErrorIs(t, err, iqamah.ErrNoRange)
}

func TestResolveDay_EmptyRowsIsError(t *testing.T) {
	doc := march2025()
	doc.PrayerTimes = nil
	svc := newService(t, &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": doc}})

	_, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.March, 5))
	assert.ErrorIs(t, err, ErrNoPrayerRow)
}

func TestResolveDay_RamadanStoreErrorUsesMonthly(t *testing.T) {
	cals := &fakeCalendars{
		monthly:    map[string]*model.MonthlyPrayerTimes{"march:2025": march2025()},
		ramadanErr: errors.New("connection reset"),
	}
	res, err := newService(t, cals).ResolveDay(context.Background(), "example-mosque", date(2025, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, SourceMonthly, res.Source)
}

func TestResolveDay_CachesCalendars(t *testing.T) {
	cals := &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": march2025()}}
	svc := newService(t, cals)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ResolveDay(ctx, "example-mosque", date(2025, time.March, 5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := svc.ResolveDay(ctx, "example-mosque", date(2025, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, cals.monthlyCalls)
	assert.Equal(t, 1, cals.ramadanCalls)

	for _, c := range svc.Caches() {
		require.NoError(t, c.Clear(ctx))
	}
	_, err = svc.ResolveDay(ctx, "example-mosque", date(2025, time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, cals.monthlyCalls)
}

func TestResolveDay_RamadanCachedPerMosque(t *testing.T) {
	cals := &fakeCalendars{
		monthly: map[string]*model.MonthlyPrayerTimes{"april:2025": march2025()},
		ramadan: ramadan2025(),
	}
	svc := newService(t, cals)
	ctx := context.Background()

	for _, slug := range []string{"example-mosque", "other-mosque"} {
		for d := 1; d <= 30; d++ {
			res, err := svc.ResolveDay(ctx, slug, date(2025, time.March, d))
			require.NoError(t, err)
			assert.Equal(t, SourceRamadan, res.Source)
			assert.Equal(t, d, res.RamadanDay)
		}
		res, err := svc.ResolveDay(ctx, slug, date(2025, time.April, 2))
		require.NoError(t, err)
		assert.Equal(t, SourceMonthly, res.Source)
	}

	assert.Equal(t, 2, cals.ramadanCalls)
	assert.Equal(t, 2, svc.ramadan.Len())
}

func TestRamadanCalendars_For(t *testing.T) {
	parse := func(start, end string) *RamadanCalendar {
		doc := ramadan2025()
		doc.Month, doc.GregorianStart, doc.GregorianEnd = start, start, end
		cal, err := NewRamadanCalendar(*doc, time.UTC)
		require.NoError(t, err)
		return cal
	}
	cals := RamadanCalendars{parse("2024-03-11", "2024-04-09"), parse("2025-03-01", "2025-03-30")}

	assert.Equal(t, "2024-03-11", cals.For(date(2024, time.March, 20)).Document.Month)
	assert.Equal(t, "2025-03-01", cals.For(date(2025, time.March, 30)).Document.Month)
	// Not covered: latest by start.
	assert.Equal(t, "2025-03-01", cals.For(date(2024, time.December, 1)).Document.Month)
	assert.Nil(t, RamadanCalendars(nil).For(date(2025, time.March, 1)))
}

func TestResolveDay_PicksCoveringRamadanCalendar(t *testing.T) {
	last := ramadan2025()
	last.Month, last.GregorianStart, last.GregorianEnd = "Ramadan 1445", "2024-03-11", "2024-04-09"
	cals := &fakeCalendars{ramadan: ramadan2025(), older: []model.RamadanTimetable{*last}}
	svc := newService(t, cals)
	ctx := context.Background()

	doc, in, err := svc.RamadanDocument(ctx, "example-mosque", date(2024, time.March, 20))
	require.NoError(t, err)
	assert.True(t, in)
	assert.Equal(t, "Ramadan 1445", doc.Month)

	doc, in, err = svc.RamadanDocument(ctx, "example-mosque", date(2025, time.June, 1))
	require.NoError(t, err)
	assert.False(t, in)
	assert.Equal(t, "Ramadan 1446", doc.Month)
	assert.Equal(t, 1, cals.ramadanCalls)
}

func autumn2025() map[string]*model.MonthlyPrayerTimes {
	return map[string]*model.MonthlyPrayerTimes{
		"october:2025": {
			Month:       "October 2025",
			PrayerTimes: []model.PrayerTime{{Date: 1, Fajr: "05:45", Shurooq: "07:10", Dhuhr: "12:50", Asr: "15:40", Maghrib: "18:35", Isha: "19:55"}},
			IqamahTimes: []model.IqamahTimeRange{
				{DateRange: "1-31", Fajr: "06:15", Dhuhr: "13:30", Asr: "16:15", Isha: "20:15"},
			},
			JummahIqamah: "13:45",
		},
		"november:2025": {
			Month:       "November 2025",
			PrayerTimes: []model.PrayerTime{{Date: 1, Fajr: "05:35", Shurooq: "07:05", Dhuhr: "11:55", Asr: "14:10", Maghrib: "16:30", Isha: "18:05"}},
			IqamahTimes: []model.IqamahTimeRange{
				{DateRange: "1-2", Fajr: "06:00", Dhuhr: "12:30", Asr: "14:45", Isha: "19:00"},
				{DateRange: "3-30", Fajr: "06:05", Dhuhr: "12:30", Asr: "14:40", Isha: "18:45"},
			},
			JummahIqamah: "12:45",
		},
	}
}

func TestResolveDay_DSTSubstitutesIqamah(t *testing.T) {
	svc := newService(t, &fakeCalendars{monthly: autumn2025()})

	// 2025 clocks go back on 26 October; the 28th takes November 3rd's iqamah.
	res, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.October, 28))
	require.NoError(t, err)
	assert.True(t, res.DSTAdjusting)
	require.NotNil(t, res.IqamahFrom)
	assert.Equal(t, dst.Mapping{Month: time.November, Day: 3}, *res.IqamahFrom)

	// Adhans stay October's.
	assert.Equal(t, "12:50", res.Prayers.Dhuhr)
	assert.Equal(t, "12:30", res.IqamahFor(iqamah.Dhuhr))
	assert.Equal(t, "18:45", res.IqamahFor(iqamah.Isha))
	assert.Equal(t, "12:45", res.Iqamah.Jummah)

	res, err = svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.October, 20))
	require.NoError(t, err)
	assert.False(t, res.DSTAdjusting)
	assert.Nil(t, res.IqamahFrom)
	assert.Equal(t, "13:30", res.IqamahFor(iqamah.Dhuhr))
}

func TestResolveDay_DSTSubstitutionFailureKeepsIqamah(t *testing.T) {
	months := autumn2025()
	delete(months, "november:2025")
	svc := newService(t, &fakeCalendars{monthly: months})

	res, err := svc.ResolveDay(context.Background(), "example-mosque", date(2025, time.October, 31))
	require.NoError(t, err)
	assert.True(t, res.DSTAdjusting)
	assert.Nil(t, res.IqamahFrom)
	assert.Equal(t, "13:30", res.IqamahFor(iqamah.Dhuhr))
}

func TestCountdownInput_ShiftsAdhansInWindow(t *testing.T) {
	svc := newService(t, &fakeCalendars{monthly: autumn2025()})

	day, err := svc.CountdownDay(context.Background(), "example-mosque", date(2025, time.October, 28))
	require.NoError(t, err)
	assert.Equal(t, "11:50", day.Dhuhr.Adhan)
	assert.Equal(t, "17:35", day.Maghrib.Adhan)
	assert.Equal(t, "05:45", day.Fajr.Adhan)
	assert.Equal(t, "12:30", day.Dhuhr.Iqamah)
	// Maghrib at sunset follows the shifted adhan.
	assert.Equal(t, "17:35", day.Maghrib.Iqamah)
	assert.Equal(t, "12:45", day.Jummah)
}

func TestBoard(t *testing.T) {
	june := &model.MonthlyPrayerTimes{
		Month:        "June 2025",
		PrayerTimes:  []model.PrayerTime{{Date: 1, Fajr: "02:50", Shurooq: "04:40", Dhuhr: "13:10", Asr: "17:25", Maghrib: "21:35", Isha: "23:00"}},
		IqamahTimes:  []model.IqamahTimeRange{{DateRange: "1-30", Fajr: "Various", Dhuhr: "13:30", Asr: "17:45", Isha: "23:15"}},
		JummahIqamah: "13:45",
	}
	svc := newService(t, &fakeCalendars{monthly: map[string]*model.MonthlyPrayerTimes{"june:2025": june}})

	board, err := svc.Board(context.Background(), "example-mosque", "Example Mosque", date(2025, time.June, 6))
	require.NoError(t, err)
	assert.Equal(t, "Example Mosque", board.Mosque)
	assert.Equal(t, "Fri 6 June 2025", board.Date)
	assert.Equal(t, SourceMonthly, board.Source)
	assert.Equal(t, "13:45", board.Jummah)
	assert.True(t, board.Summer)
	assert.False(t, board.DSTAdjusting)

	want := []model.Prayer{
		{Name: "FAJR", Adhan: "02:50", Iqamah: "02:50"},
		{Name: "SUNRISE", Adhan: "04:40", Iqamah: "--:--"},
		{Name: "DHUHR", Adhan: "13:10", Iqamah: "13:30"},
		{Name: "ASR", Adhan: "17:25", Iqamah: "17:45"},
		{Name: "MAGHRIB", Adhan: "21:35", Iqamah: "21:35"},
		{Name: "ISHA", Adhan: "23:00", Iqamah: "After Maghrib"},
	}
	assert.Equal(t, want, board.Prayers)
}

func TestRamadanDocument(t *testing.T) {
	cals := &fakeCalendars{ramadan: ramadan2025()}
	svc := newService(t, cals)
	ctx := context.Background()

	doc, in, err := svc.RamadanDocument(ctx, "example-mosque", date(2025, time.March, 30))
	require.NoError(t, err)
	assert.True(t, in)
	assert.Equal(t, "Ramadan 1446", doc.Month)

	_, in, err = svc.RamadanDocument(ctx, "example-mosque", date(2025, time.March, 31))
	require.NoError(t, err)
	assert.False(t, in)

	ok, err := svc.IsRamadan(ctx, "example-mosque", date(2025, time.March, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = newService(t, &fakeCalendars{}).RamadanDocument(ctx, "example-mosque", date(2025, time.March, 1))
	assert.ErrorIs(t, err, store.ErrNotFound)
	ok, err = newService(t, &fakeCalendars{}).IsRamadan(ctx, "example-mosque", date(2025, time.March, 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRamadanWithoutRangeIsIgnored(t *testing.T) {
	r := ramadan2025()
	r.GregorianEnd = ""
	cals := &fakeCalendars{
		monthly: map[string]*model.MonthlyPrayerTimes{"march:2025": march2025()},
		ramadan: r,
	}
	res, err := newService(t, cals).ResolveDay(context.Background(), "example-mosque", date(2025, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, SourceMonthly, res.Source)
}

func TestMonthlyCalendarJSON(t *testing.T) {
	cal, err := NewMonthlyCalendar(*march2025())
	require.NoError(t, err)
	raw, err := cal.MarshalJSON()
	require.NoError(t, err)

	var back MonthlyCalendar
	require.NoError(t, back.UnmarshalJSON(raw))
	day, err := back.table.ForDay(12)
	require.NoError(t, err)
	assert.Equal(t, iqamah.KindRelative, day.Fajr.Kind)
}
