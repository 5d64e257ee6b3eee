package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/domain"
)

// The overview has no filter dimensions, one key is enough. It lives
// under the metrics prefix so MetricsCache.InvalidateAll wipes it too.
const overviewKey = metricsKeyPrefix + ":overview"

type OverviewCache interface {
	GetOverview(ctx context.Context) (*domain.MetricsOverview, bool, error)
	SetOverview(ctx context.Context, overview *domain.MetricsOverview) error
}

type redisOverviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopOverviewCache struct{}

func NewOverviewCache(cfg config.CacheConfig) (OverviewCache, error) {
	if !cfg.Enabled {
		return &noopOverviewCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisOverviewCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopOverviewCache() OverviewCache {
	return &noopOverviewCache{}
}

func (c *redisOverviewCache) GetOverview(ctx context.Context) (*domain.MetricsOverview, bool, error) {
	payload, err := c.client.Get(ctx, overviewKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var overview domain.MetricsOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil, false, fmt.Errorf("decode overview cache: %w", err)
	}

	return &overview, true, nil
}

func (c *redisOverviewCache) SetOverview(ctx context.Context, overview *domain.MetricsOverview) error {
	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("encode overview cache: %w", err)
	}

	if err := c.client.Set(ctx, overviewKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (n *noopOverviewCache) GetOverview(context.Context) (*domain.MetricsOverview, bool, error) {
	return nil, false, nil
}

func (n *noopOverviewCache) SetOverview(context.Context, *domain.MetricsOverview) error {
	return nil
}
