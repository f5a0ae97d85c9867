package repository

import (
	"context"

	"shortlink/internal/domain"
)

// URLRepository defines the contract for durable URL storage. The store is
// the source of truth for records and enforces short code uniqueness; the
// cache in front of it is only a projection.
type URLRepository interface {
	// Create stores a new URL record. A duplicate short code yields
	// domain.ErrShortCodeTaken.
	Create(ctx context.Context, url *domain.URL) error

	// FindByShortCode retrieves a record by its short code, or
	// domain.ErrURLNotFound.
	FindByShortCode(ctx context.Context, shortCode string) (*domain.URL, error)

	// FindByLongURL retrieves any record for an exact long URL, or
	// domain.ErrURLNotFound.
	FindByLongURL(ctx context.Context, longURL string) (*domain.URL, error)

	// IncrementClicks atomically adds delta to the click counter and returns
	// the updated record, or domain.ErrURLNotFound.
	IncrementClicks(ctx context.Context, shortCode string, delta int64) (*domain.URL, error)

	// Update persists changes to an existing record
	Update(ctx context.Context, url *domain.URL) error
}
