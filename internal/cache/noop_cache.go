package cache

import (
	"context"

	"shortlink/internal/domain"
)

// noopURLCache is used when no cache backend is available. Every read is a
// miss and every write is dropped, which pushes all traffic to the durable
// store; correctness is unchanged, only latency.
type noopURLCache struct{}

// NewNoopURLCache creates a URLCache that caches nothing.
func NewNoopURLCache() URLCache {
	return noopURLCache{}
}

func (noopURLCache) CacheURL(context.Context, *domain.URL) {}

func (noopURLCache) GetCachedURL(context.Context, string) *domain.CachedURL { return nil }

func (noopURLCache) GetCachedShortCode(context.Context, string) string { return "" }

func (noopURLCache) CacheStats(context.Context, *domain.URLStats) {}

func (noopURLCache) GetCachedStats(context.Context, string) *domain.URLStats { return nil }

func (noopURLCache) IncrementClicks(context.Context, string) int64 { return 0 }

func (noopURLCache) GetCachedClicks(context.Context, string) int64 { return 0 }

func (noopURLCache) InvalidateStats(context.Context, string) {}

func (noopURLCache) InvalidateURL(context.Context, string) {}

func (noopURLCache) HealthCheck(context.Context) bool { return false }
