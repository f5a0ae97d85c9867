package cache

import (
	"context"
	"encoding/json"
	"strconv"

	"shortlink/internal/domain"
	"shortlink/pkg/logger"
)

// URLCache owns the typed cache projections for URL records. All operations
// are best-effort: a cache failure degrades to a miss or a no-op and is
// logged, never propagated to the caller. The durable store stays reachable
// as ground truth with the cache entirely down.
type URLCache interface {
	// CacheURL stores the URL view and the code-by-longURL hint
	CacheURL(ctx context.Context, url *domain.URL)

	// GetCachedURL returns the cached view for a short code, or nil on miss
	GetCachedURL(ctx context.Context, shortCode string) *domain.CachedURL

	// GetCachedShortCode returns the known-short-code hint for a long URL, or ""
	GetCachedShortCode(ctx context.Context, longURL string) string

	// CacheStats stores the stats projection
	CacheStats(ctx context.Context, stats *domain.URLStats)

	// GetCachedStats returns the cached stats projection, or nil on miss
	GetCachedStats(ctx context.Context, shortCode string) *domain.URLStats

	// IncrementClicks bumps the cache-only click counter and returns the tally
	IncrementClicks(ctx context.Context, shortCode string) int64

	// GetCachedClicks reads the cache-only click counter
	GetCachedClicks(ctx context.Context, shortCode string) int64

	// InvalidateStats drops the stats projection
	InvalidateStats(ctx context.Context, shortCode string)

	// InvalidateURL drops both the URL view and the stats projection
	InvalidateURL(ctx context.Context, shortCode string)

	// HealthCheck verifies a cache round-trip
	HealthCheck(ctx context.Context) bool
}

// urlCache implements URLCache on top of the generic Cache adapter
type urlCache struct {
	cache  Cache
	logger *logger.Logger
}

// NewURLCache creates the URL view cache. The underlying cache handle is an
// injected dependency with an explicit lifecycle owned by the caller.
func NewURLCache(c Cache, log *logger.Logger) URLCache {
	return &urlCache{cache: c, logger: log}
}

func (c *urlCache) CacheURL(ctx context.Context, url *domain.URL) {
	view := domain.NewCachedURL(url)

	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Error("Failed to marshal cached URL", "error", err, "short_code", url.ShortCode)
		return
	}

	if err := c.cache.Set(ctx, URLKey(url.ShortCode), string(data), URLViewTTL); err != nil {
		c.logger.Warn("Failed to cache URL", "error", err, "short_code", url.ShortCode)
	}

	// The hint expires before the view; see keys.go
	if err := c.cache.Set(ctx, ShortCodeKey(url.LongURL), url.ShortCode, ShortCodeKeyTTL); err != nil {
		c.logger.Warn("Failed to cache short code hint", "error", err, "short_code", url.ShortCode)
	}
}

func (c *urlCache) GetCachedURL(ctx context.Context, shortCode string) *domain.CachedURL {
	data, err := c.cache.Get(ctx, URLKey(shortCode))
	if err != nil {
		c.logger.Warn("Failed to read cached URL", "error", err, "short_code", shortCode)
		return nil
	}
	if data == "" {
		return nil
	}

	var view domain.CachedURL
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		c.logger.Warn("Corrupt cached URL entry", "error", err, "short_code", shortCode)
		return nil
	}

	return &view
}

func (c *urlCache) GetCachedShortCode(ctx context.Context, longURL string) string {
	code, err := c.cache.Get(ctx, ShortCodeKey(longURL))
	if err != nil {
		c.logger.Warn("Failed to read short code hint", "error", err)
		return ""
	}
	return code
}

func (c *urlCache) CacheStats(ctx context.Context, stats *domain.URLStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		c.logger.Error("Failed to marshal cached stats", "error", err, "short_code", stats.ShortCode)
		return
	}

	if err := c.cache.Set(ctx, StatsKey(stats.ShortCode), string(data), StatsTTL); err != nil {
		c.logger.Warn("Failed to cache stats", "error", err, "short_code", stats.ShortCode)
	}
}

func (c *urlCache) GetCachedStats(ctx context.Context, shortCode string) *domain.URLStats {
	data, err := c.cache.Get(ctx, StatsKey(shortCode))
	if err != nil {
		c.logger.Warn("Failed to read cached stats", "error", err, "short_code", shortCode)
		return nil
	}
	if data == "" {
		return nil
	}

	var stats domain.URLStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		c.logger.Warn("Corrupt cached stats entry", "error", err, "short_code", shortCode)
		return nil
	}

	return &stats
}

func (c *urlCache) IncrementClicks(ctx context.Context, shortCode string) int64 {
	key := ClicksKey(shortCode)

	clicks, err := c.cache.Increment(ctx, key)
	if err != nil {
		c.logger.Warn("Failed to increment click counter", "error", err, "short_code", shortCode)
		return 0
	}

	if err := c.cache.Expire(ctx, key, ClicksTTL); err != nil {
		c.logger.Warn("Failed to set click counter TTL", "error", err, "short_code", shortCode)
	}

	return clicks
}

func (c *urlCache) GetCachedClicks(ctx context.Context, shortCode string) int64 {
	data, err := c.cache.Get(ctx, ClicksKey(shortCode))
	if err != nil {
		c.logger.Warn("Failed to read click counter", "error", err, "short_code", shortCode)
		return 0
	}
	if data == "" {
		return 0
	}

	clicks, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		c.logger.Warn("Corrupt click counter entry", "error", err, "short_code", shortCode)
		return 0
	}

	return clicks
}

func (c *urlCache) InvalidateStats(ctx context.Context, shortCode string) {
	if err := c.cache.Delete(ctx, StatsKey(shortCode)); err != nil {
		c.logger.Warn("Failed to invalidate stats", "error", err, "short_code", shortCode)
	}
}

func (c *urlCache) InvalidateURL(ctx context.Context, shortCode string) {
	if err := c.cache.Delete(ctx, URLKey(shortCode)); err != nil {
		c.logger.Warn("Failed to invalidate URL view", "error", err, "short_code", shortCode)
	}
	c.InvalidateStats(ctx, shortCode)
}

func (c *urlCache) HealthCheck(ctx context.Context) bool {
	if err := c.cache.Ping(ctx); err != nil {
		c.logger.Warn("Cache health check failed", "error", err)
		return false
	}
	return true
}
