// Package cache holds fetched OHLCV series for the duration of a TTL so
// closely spaced scan runs do not refetch the whole universe.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/altpilot/altpilot/internal/models"
)

// Cache stores serialized series by symbol and timeframe.
type Cache interface {
	Get(ctx context.Context, symbol string, tf models.Timeframe) (models.TimeframeSeries, bool)
	Set(ctx context.Context, series models.TimeframeSeries, ttl time.Duration)
}

// New returns the in-process cache, or a Redis-backed one when addr is
// non-empty.
func New(addr string) Cache {
	if addr != "" {
		return &redisCache{r: redis.NewClient(&redis.Options{Addr: addr})}
	}
	return &memory{m: make(map[string]entry)}
}

func key(symbol string, tf models.Timeframe) string {
	return fmt.Sprintf("ohlcv:%s:%s", symbol, tf)
}

type entry struct {
	series models.TimeframeSeries
	exp    time.Time
}

type memory struct {
	mu sync.RWMutex
	m  map[string]entry
}

func (c *memory) Get(_ context.Context, symbol string, tf models.Timeframe) (models.TimeframeSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key(symbol, tf)]
	if !ok || time.Now().After(e.exp) {
		return models.TimeframeSeries{}, false
	}
	return e.series, true
}

func (c *memory) Set(_ context.Context, series models.TimeframeSeries, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key(series.Symbol, series.Timeframe)] = entry{series: series, exp: time.Now().Add(ttl)}
}

type redisCache struct {
	r *redis.Client
}

func (c *redisCache) Get(ctx context.Context, symbol string, tf models.Timeframe) (models.TimeframeSeries, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	b, err := c.r.Get(ctx, key(symbol, tf)).Bytes()
	if err != nil {
		return models.TimeframeSeries{}, false
	}
	var series models.TimeframeSeries
	if err := json.Unmarshal(b, &series); err != nil {
		return models.TimeframeSeries{}, false
	}
	series.Symbol = symbol
	series.Timeframe = tf
	return series, true
}

func (c *redisCache) Set(ctx context.Context, series models.TimeframeSeries, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	b, err := json.Marshal(series)
	if err != nil {
		return
	}
	_ = c.r.Set(ctx, key(series.Symbol, series.Timeframe), b, ttl).Err()
}
