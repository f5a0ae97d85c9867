package service

import (
	"context"

	"shortlink/internal/domain"
)

// URLService is the public surface the routing layer calls. It orchestrates
// the code generator, collision resolver, durable store, and cache behind the
// cache-aside protocol.
type URLService interface {
	// ShortenURL creates a short code for a long URL. A URL that already has
	// one gets an alternate mapping (a second, salted code) rather than the
	// existing code back.
	ShortenURL(ctx context.Context, longURL string) (*domain.ShortenResponse, error)

	// Redirect resolves a short code to its long URL and counts the click.
	// The cache-hit path never waits on the store.
	Redirect(ctx context.Context, shortCode string) (string, error)

	// GetStats returns the click statistics projection for a short code
	GetStats(ctx context.Context, shortCode string) (*domain.URLStats, error)
}
