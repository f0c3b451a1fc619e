package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

func TestRunMigrationsWithMissingPath(t *testing.T) {
	err := RunMigrations(nil, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, store, err := InitTestDB("../../migrations")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	slug := "db-test-mosque"
	_, _ = conn.Exec(`DELETE FROM mosques WHERE slug = $1`, slug)

	require.NoError(t, store.UpsertMosque(ctx, model.Mosque{Slug: slug, Name: "DB Test Mosque"}))
	m, err := store.GetMosque(ctx, slug)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "DB Test Mosque", m.Name)

	missing, err := store.GetMonthly(ctx, slug, "march", 2025)
	require.NoError(t, err)
	assert.Nil(t, missing)

	doc := model.MonthlyPrayerTimes{
		Month:        "March 2025",
		PrayerTimes:  []model.PrayerTime{{Date: 1, Fajr: "05:10", Dhuhr: "12:15"}},
		IqamahTimes:  []model.IqamahTimeRange{{DateRange: "1-31", Dhuhr: "13:15"}},
		JummahIqamah: "13:30",
	}
	require.NoError(t, store.UpsertMonthly(ctx, slug, "march", 2025, doc))
	got, err := store.GetMonthly(ctx, slug, "march", 2025)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc, *got)

	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertRamadan(ctx, slug, start, end, model.RamadanTimetable{Month: "ramadan"}))
	require.NoError(t, store.UpsertRamadan(ctx, slug, start.AddDate(-1, 0, 10), end.AddDate(-1, 0, 10), model.RamadanTimetable{Month: "ramadan"}))

	ramadan, err := store.ListRamadan(ctx, slug)
	require.NoError(t, err)
	require.Len(t, ramadan, 2)
	assert.Equal(t, "2025-03-01", ramadan[0].GregorianStart)
	assert.Equal(t, "2025-03-30", ramadan[0].GregorianEnd)
}
