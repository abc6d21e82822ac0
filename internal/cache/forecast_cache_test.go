package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

func baseKey() ForecastKey {
	return ForecastKey{
		ItemID:  "FOODS_1_001",
		StoreID: "CA_1",
		Horizon: 28,
		Model:   "weekday_trend",
		Params:  inventory.DefaultParams(),
	}
}

func TestForecastKeyHash_StableAndNormalized(t *testing.T) {
	a := baseKey()
	b := baseKey()
	b.ItemID = " FOODS_1_001 "
	b.Model = "Weekday_Trend"

	assert.Equal(t, forecastKeyHash(a), forecastKeyHash(b))
	assert.True(t, strings.HasPrefix(buildForecastKey(a), "forecast:result:"))
}

func TestForecastKeyHash_DistinguishesInputs(t *testing.T) {
	base := forecastKeyHash(baseKey())

	mutations := map[string]func(k *ForecastKey){
		"horizon":      func(k *ForecastKey) { k.Horizon = 14 },
		"store":        func(k *ForecastKey) { k.StoreID = "CA_2" },
		"inventory":    func(k *ForecastKey) { k.CurrentInventory = domain.Float64Ptr(0) },
		"service":      func(k *ForecastKey) { k.Params.ServiceLevel = 0.99 },
		"holding cost": func(k *ForecastKey) { k.Params.HoldingCostPerUnit = 0 },
		"model":        func(k *ForecastKey) { k.Model = "holt" },
	}

	for name, mutate := range mutations {
		k := baseKey()
		mutate(&k)
		assert.NotEqual(t, base, forecastKeyHash(k), name)
	}
}

func TestNewForecastCache_DisabledIsNoop(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.SetResult(ctx, baseKey(), pipeline.Result{Success: true}))
	res, ok, err := c.GetResult(ctx, baseKey())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	require.NoError(t, c.SetItems(ctx, 10, []domain.ItemStore{{ItemID: "A", StoreID: "B"}}))
	items, ok, err := c.GetItems(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, items)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2, RedisPassword: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "s3cret", opts.Password)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:pw@redis.internal:6390/3"})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6390", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}
