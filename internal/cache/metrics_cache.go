package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/domain"
)

const (
	metricsKeyPrefix     = "metrics"
	metricsScanBatchSize = 100
)

// MetricsCache fronts the paged metric reads. Entries are keyed by a
// normalized filter hash, so requests with the same effective filter
// share one entry regardless of parameter order.
type MetricsCache interface {
	GetScores(ctx context.Context, filter domain.MetricsFilter) (*domain.ScorePage, bool, error)
	SetScores(ctx context.Context, filter domain.MetricsFilter, page *domain.ScorePage) error
	GetGaps(ctx context.Context, filter domain.MetricsFilter) (*domain.GapPage, bool, error)
	SetGaps(ctx context.Context, filter domain.MetricsFilter, page *domain.GapPage) error
	GetCoefficients(ctx context.Context, filter domain.MetricsFilter) (*domain.CoefficientPage, bool, error)
	SetCoefficients(ctx context.Context, filter domain.MetricsFilter, page *domain.CoefficientPage) error
	InvalidateAll(ctx context.Context) error
}

type redisMetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopMetricsCache struct{}

func NewMetricsCache(cfg config.CacheConfig) (MetricsCache, error) {
	if !cfg.Enabled {
		return &noopMetricsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisMetricsCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopMetricsCache() MetricsCache {
	return &noopMetricsCache{}
}

func (c *redisMetricsCache) GetScores(ctx context.Context, filter domain.MetricsFilter) (*domain.ScorePage, bool, error) {
	var page domain.ScorePage
	found, err := c.get(ctx, buildMetricsKey("scores", filter), &page)
	if err != nil || !found {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *redisMetricsCache) SetScores(ctx context.Context, filter domain.MetricsFilter, page *domain.ScorePage) error {
	return c.set(ctx, buildMetricsKey("scores", filter), page)
}

func (c *redisMetricsCache) GetGaps(ctx context.Context, filter domain.MetricsFilter) (*domain.GapPage, bool, error) {
	var page domain.GapPage
	found, err := c.get(ctx, buildMetricsKey("gaps", filter), &page)
	if err != nil || !found {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *redisMetricsCache) SetGaps(ctx context.Context, filter domain.MetricsFilter, page *domain.GapPage) error {
	return c.set(ctx, buildMetricsKey("gaps", filter), page)
}

func (c *redisMetricsCache) GetCoefficients(ctx context.Context, filter domain.MetricsFilter) (*domain.CoefficientPage, bool, error) {
	var page domain.CoefficientPage
	found, err := c.get(ctx, buildMetricsKey("coefficients", filter), &page)
	if err != nil || !found {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *redisMetricsCache) SetCoefficients(ctx context.Context, filter domain.MetricsFilter, page *domain.CoefficientPage) error {
	return c.set(ctx, buildMetricsKey("coefficients", filter), page)
}

func (c *redisMetricsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, metricsKeyPrefix+":", metricsScanBatchSize)
}

func (c *redisMetricsCache) get(ctx context.Context, key string, target any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return false, fmt.Errorf("decode metrics cache: %w", err)
	}
	return true, nil
}

func (c *redisMetricsCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode metrics cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopMetricsCache) GetScores(context.Context, domain.MetricsFilter) (*domain.ScorePage, bool, error) {
	return nil, false, nil
}

func (n *noopMetricsCache) SetScores(context.Context, domain.MetricsFilter, *domain.ScorePage) error {
	return nil
}

func (n *noopMetricsCache) GetGaps(context.Context, domain.MetricsFilter) (*domain.GapPage, bool, error) {
	return nil, false, nil
}

func (n *noopMetricsCache) SetGaps(context.Context, domain.MetricsFilter, *domain.GapPage) error {
	return nil
}

func (n *noopMetricsCache) GetCoefficients(context.Context, domain.MetricsFilter) (*domain.CoefficientPage, bool, error) {
	return nil, false, nil
}

func (n *noopMetricsCache) SetCoefficients(context.Context, domain.MetricsFilter, *domain.CoefficientPage) error {
	return nil
}

func (n *noopMetricsCache) InvalidateAll(context.Context) error {
	return nil
}

func buildMetricsKey(kind string, filter domain.MetricsFilter) string {
	return fmt.Sprintf("%s:%s:%s", metricsKeyPrefix, kind, metricsFilterHash(filter))
}

func metricsFilterHash(filter domain.MetricsFilter) string {
	parts := []string{}

	if len(filter.ProductIDs) > 0 {
		parts = append(parts, "product_ids="+joinInt64s(filter.ProductIDs))
	}
	if filter.MinScore != nil {
		parts = append(parts, fmt.Sprintf("min=%.4f", *filter.MinScore))
	}
	if filter.MaxScore != nil {
		parts = append(parts, fmt.Sprintf("max=%.4f", *filter.MaxScore))
	}
	if filter.RunID != "" {
		parts = append(parts, "run_id="+strings.ToLower(strings.TrimSpace(filter.RunID)))
	}
	if filter.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", filter.Page))
	}
	if filter.PageSize > 0 {
		parts = append(parts, fmt.Sprintf("page_size=%d", filter.PageSize))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinInt64s(values []int64) string {
	c := append([]int64(nil), values...)
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	strs := make([]string, len(c))
	for i, v := range c {
		strs[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(strs, ",")
}
