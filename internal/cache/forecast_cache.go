package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

const (
	forecastKeyPrefix = "forecast:result"
	itemsKeyPrefix    = "forecast:items"
	forecastScanBatch = 100
)

// ForecastKey identifies a cacheable pipeline run.
type ForecastKey struct {
	ItemID           string
	StoreID          string
	Horizon          int
	Model            string
	CurrentInventory *float64
	Params           inventory.Params
}

// ForecastCache stores successful pipeline results and item listings.
type ForecastCache interface {
	GetResult(ctx context.Context, key ForecastKey) (*pipeline.Result, bool, error)
	SetResult(ctx context.Context, key ForecastKey, res pipeline.Result) error
	GetItems(ctx context.Context, limit int) ([]domain.ItemStore, bool, error)
	SetItems(ctx context.Context, limit int, items []domain.ItemStore) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisForecastCache(client, ttl), nil
}

// NewRedisForecastCache wraps an existing client.
func NewRedisForecastCache(client *redis.Client, ttl time.Duration) ForecastCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetResult(ctx context.Context, key ForecastKey) (*pipeline.Result, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &res, true, nil
}

func (c *redisForecastCache) SetResult(ctx context.Context, key ForecastKey, res pipeline.Result) error {
	if !res.Success {
		return nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if err := c.client.Set(ctx, buildForecastKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) GetItems(ctx context.Context, limit int) ([]domain.ItemStore, bool, error) {
	payload, err := c.client.Get(ctx, buildItemsKey(limit)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.ItemStore
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false, fmt.Errorf("decode items cache: %w", err)
	}
	return items, true, nil
}

func (c *redisForecastCache) SetItems(ctx context.Context, limit int, items []domain.ItemStore) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode items cache: %w", err)
	}
	if err := c.client.Set(ctx, buildItemsKey(limit), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatch); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, itemsKeyPrefix, forecastScanBatch)
}

func (n *noopForecastCache) GetResult(ctx context.Context, key ForecastKey) (*pipeline.Result, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetResult(ctx context.Context, key ForecastKey, res pipeline.Result) error {
	return nil
}

func (n *noopForecastCache) GetItems(ctx context.Context, limit int) ([]domain.ItemStore, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetItems(ctx context.Context, limit int, items []domain.ItemStore) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(key ForecastKey) string {
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, forecastKeyHash(key))
}

func buildItemsKey(limit int) string {
	return fmt.Sprintf("%s:%d", itemsKeyPrefix, limit)
}

func forecastKeyHash(key ForecastKey) string {
	inv := "none"
	if key.CurrentInventory != nil {
		inv = formatFloat(*key.CurrentInventory)
	}

	parts := []string{
		"item=" + strings.TrimSpace(key.ItemID),
		"store=" + strings.TrimSpace(key.StoreID),
		"horizon=" + strconv.Itoa(key.Horizon),
		"model=" + strings.ToLower(strings.TrimSpace(key.Model)),
		"inventory=" + inv,
		"lead_time=" + formatFloat(key.Params.LeadTimeDays),
		"service_level=" + formatFloat(key.Params.ServiceLevel),
		"order_cost=" + formatFloat(key.Params.OrderCost),
		"holding_cost=" + formatFloat(key.Params.HoldingCostPerUnit),
	}

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
