package datasource

import (
	"context"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/portfolio-lab/internal/metrics"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// CachedSource memoizes another PriceSource for a fixed TTL
type CachedSource struct {
	source    PriceSource
	cache     *cache.Cache
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewCachedSource wraps source with an in-memory cache
func NewCachedSource(source PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, ttl*2),
	}
}

func cacheKey(source, symbol, lookback string) string {
	return source + "|" + symbol + "|" + lookback
}

// Name returns the wrapped source's name
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// FetchHistory returns a cached history or fetches and caches it. Failed
// fetches are never cached.
func (c *CachedSource) FetchHistory(ctx context.Context, symbol, lookback string) ([]models.PricePoint, error) {
	key := cacheKey(c.source.Name(), symbol, lookback)
	if cached, found := c.cache.Get(key); found {
		if points, ok := cached.([]models.PricePoint); ok {
			c.hitCount.Add(1)
			metrics.RecordCacheLookup(true)
			return append([]models.PricePoint(nil), points...), nil
		}
	}
	c.missCount.Add(1)
	metrics.RecordCacheLookup(false)

	points, err := c.source.FetchHistory(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]models.PricePoint(nil), points...))
	return points, nil
}

// Invalidate drops every cached history
func (c *CachedSource) Invalidate() {
	c.cache.Flush()
}

// Stats returns cache hits and misses
func (c *CachedSource) Stats() (hits, misses uint64) {
	return c.hitCount.Load(), c.missCount.Load()
}
