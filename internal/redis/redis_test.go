package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/iqamah/internal/cache"
)

func TestTierRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	ctx := context.Background()
	rdb, err := InitRedis(ctx, addr, "", "")
	require.NoError(t, err)
	defer rdb.Close()

	tier := NewTier(rdb)
	keys := cache.NewKeyGenerator("iqamah-test")
	key := keys.MonthlyKey("example-mosque", "march", 2025)

	_, err = tier.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, tier.Set(ctx, key, []byte(`{"month":"March 2025"}`), time.Minute))
	got, err := tier.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"March 2025"}`, string(got))

	require.NoError(t, tier.DeleteByPattern(ctx, keys.MonthlyPattern()))
	_, err = tier.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestInitRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := InitRedis(ctx, "127.0.0.1:1", "", "")
	assert.Error(t, err)
}
