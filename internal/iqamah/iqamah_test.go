package iqamah

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

func mustDay(t *testing.T, r model.IqamahTimeRange) Day {
	t.Helper()
	if r.DateRange == "" {
		r.DateRange = "1-31"
	}
	for _, f := range []*string{&r.Fajr, &r.Dhuhr, &r.Asr, &r.Isha} {
		if *f == "" {
			*f = "-"
		}
	}
	table, err := ParseTable([]model.IqamahTimeRange{r}, "13:30")
	require.NoError(t, err)
	day, err := table.ForDay(1)
	require.NoError(t, err)
	return day
}

// ---------------------------------------------------------------------------
// ParseRule
// ---------------------------------------------------------------------------

func TestParseRule(t *testing.T) {
	tests := []struct {
		raw     string
		kind    Kind
		minutes int
		time    string
	}{
		{"05:30", KindLiteral, 0, "05:30"},
		{"5:30", KindLiteral, 0, "05:30"},
		{"Various", KindVarious, 0, ""},
		{"Entry Time", KindEntryTime, 0, ""},
		{" entry time ", KindEntryTime, 0, ""},
		{"Straight after Maghrib", KindStraightAfterMaghrib, 0, ""},
		{"sunset", KindSunset, 0, ""},
		{"After Maghrib", KindAfterMaghrib, 0, ""},
		{"Adhan + 15 mins", KindRelative, 15, ""},
		{"adhan+5", KindRelative, 5, ""},
		{"ADHAN + 10 minutes", KindRelative, 10, ""},
		{"10 mins after adhan", KindRelative, 10, ""},
		{"20 minutes after Adhan", KindRelative, 20, ""},
		{"-", KindNone, 0, ""},
		{"--:--", KindNone, 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			r, err := ParseRule(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, r.Kind)
			assert.Equal(t, tc.minutes, r.Minutes)
			assert.Equal(t, tc.time, r.Time)
		})
	}
}

func TestParseRule_Malformed(t *testing.T) {
	for _, raw := range []string{"", "tbc", "13:15/13:45", "adhan - 5", "25:00"} {
		_, err := ParseRule(raw)
		assert.ErrorIs(t, err, ErrMalformedRule, raw)
	}
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "05:25", ResolveRelative("Adhan + 15 mins", "05:10"))
	assert.Equal(t, "00:10", ResolveRelative("adhan + 20", "23:50"))
	assert.Equal(t, "13:15", ResolveRelative("13:15", "12:50"))
	assert.Equal(t, "Entry Time", ResolveRelative("Entry Time", "16:00"))
	assert.Equal(t, "adhan + 5", ResolveRelative("adhan + 5", "-"))
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

func TestParseDateRange(t *testing.T) {
	first, last, err := ParseDateRange("1-21")
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 21, last)

	first, last, err = ParseDateRange("30")
	require.NoError(t, err)
	assert.Equal(t, 30, first)
	assert.Equal(t, 30, last)

	_, _, err = ParseDateRange("21-1")
	assert.Error(t, err)
	_, _, err = ParseDateRange("x")
	assert.Error(t, err)
}

func TestTable_ForDay(t *testing.T) {
	table, err := ParseTable([]model.IqamahTimeRange{
		{DateRange: "1-21", Fajr: "06:00", Dhuhr: "13:15", Asr: "16:00", Isha: "20:00"},
		{DateRange: "22-29", Fajr: "06:15", Dhuhr: "13:15", Asr: "16:15", Maghrib: "adhan + 5", Isha: "20:15"},
		{DateRange: "30", Fajr: "06:30", Dhuhr: "13:15", Asr: "16:30", Isha: "20:30"},
	}, "13:30")
	require.NoError(t, err)

	day, err := table.ForDay(21)
	require.NoError(t, err)
	assert.Equal(t, "06:00", day.Fajr.Time)
	assert.Equal(t, KindSunset, day.Maghrib.Kind)
	assert.Equal(t, "13:30", day.Jummah)

	day, err = table.ForDay(22)
	require.NoError(t, err)
	assert.Equal(t, KindRelative, day.Maghrib.Kind)

	day, err = table.ForDay(30)
	require.NoError(t, err)
	assert.Equal(t, "06:30", day.Fajr.Time)

	_, err = table.ForDay(31)
	assert.ErrorIs(t, err, ErrNoRange)
}

func TestParseTable_RejectsMalformedValue(t *testing.T) {
	_, err := ParseTable([]model.IqamahTimeRange{
		{DateRange: "1-31", Fajr: "soon", Dhuhr: "13:15", Asr: "16:00", Isha: "20:00"},
	}, "13:30")
	assert.ErrorIs(t, err, ErrMalformedRule)
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolve_LiteralUnchanged(t *testing.T) {
	day := mustDay(t, model.IqamahTimeRange{Fajr: "06:00", Dhuhr: "13:15", Asr: "16:30", Maghrib: "18:05", Isha: "20:00"})
	assert.Equal(t, "06:00", Resolve("fajr", "05:10", day, ""))
	assert.Equal(t, "13:15", Resolve("Dhuhr", "12:10", day, ""))
	assert.Equal(t, "16:30", Resolve("asr", "16:00", day, ""))
	assert.Equal(t, "18:05", Resolve("maghrib", "18:00", day, ""))
	assert.Equal(t, "20:00", Resolve("isha", "19:40", day, ""))

	// A literal is not rewritten into zero-padded form.
	day = mustDay(t, model.IqamahTimeRange{Fajr: "6:05", Dhuhr: " 13:15 ", Asr: "16:30", Maghrib: "18:05", Isha: "20:00"})
	assert.Equal(t, "6:05", Resolve("fajr", "05:10", day, ""))
	assert.Equal(t, "13:15", Resolve("dhuhr", "12:10", day, ""))
	assert.Equal(t, "6:05", day.Stored().Fajr)
	assert.Equal(t, "06:05", day.Fajr.Time)
}

func TestResolve_RelativeOffsets(t *testing.T) {
	day := mustDay(t, model.IqamahTimeRange{Fajr: "Adhan + 15 mins", Dhuhr: "10 mins after adhan", Asr: "adhan+5", Isha: "Adhan + 20"})
	assert.Equal(t, "05:25", Resolve("fajr", "05:10", day, ""))
	assert.Equal(t, "12:20", Resolve("dhuhr", "12:10", day, ""))
	assert.Equal(t, "16:05", Resolve("asr", "16:00", day, ""))
	assert.Equal(t, "00:10", Resolve("isha", "23:50", day, ""))
}

func TestResolve_SymbolicTokens(t *testing.T) {
	day := mustDay(t, model.IqamahTimeRange{Fajr: "Various", Dhuhr: "13:15", Asr: "Entry Time", Isha: "Straight after Maghrib"})

	assert.Equal(t, "05:10", Resolve("fajr", "05:10", day, ""))
	assert.Equal(t, "16:00", Resolve("asr", "16:00", day, ""))
	assert.Equal(t, "18:01", Resolve("maghrib", "18:01", day, ""), "missing maghrib means sunset")
	assert.Equal(t, "19:45", Resolve("isha", "20:30", day, "19:45"))
	assert.Equal(t, "20:30", Resolve("isha", "20:30", day, ""), "no maghrib adhan falls back to isha adhan")

	entry := mustDay(t, model.IqamahTimeRange{Isha: "Entry Time"})
	assert.Equal(t, "20:30", Resolve("isha", "20:30", entry, "19:45"))
}

func TestResolve_JummahAndUnknown(t *testing.T) {
	day := mustDay(t, model.IqamahTimeRange{Dhuhr: "13:15"})
	assert.Equal(t, "13:30", Resolve("jummah", "12:10", day, ""))
	assert.Equal(t, "-", Resolve("tahajjud", "02:00", day, ""))
}

func TestResolve_UnhandledTokenPassesThrough(t *testing.T) {
	day := mustDay(t, model.IqamahTimeRange{Fajr: "Entry Time", Dhuhr: "Various"})
	assert.Equal(t, "Entry Time", Resolve("fajr", "05:10", day, ""))
	assert.Equal(t, "Various", Resolve("dhuhr", "12:10", day, ""))
}

func TestInSummer(t *testing.T) {
	assert.False(t, InSummer(time.Date(2025, time.May, 14, 23, 0, 0, 0, time.UTC)))
	assert.True(t, InSummer(time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, InSummer(time.Date(2025, time.August, 15, 22, 0, 0, 0, time.UTC)))
	assert.False(t, InSummer(time.Date(2025, time.August, 16, 0, 0, 0, 0, time.UTC)))
}

func TestDisplayIsha_SummerOverride(t *testing.T) {
	day := mustDay(t, model.IqamahTimeRange{Isha: "22:45"})
	assert.Equal(t, "After Maghrib", DisplayIsha(time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC), "23:00", day, "21:40"))
	assert.Equal(t, "22:45", DisplayIsha(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), "21:00", day, "19:40"))
}
