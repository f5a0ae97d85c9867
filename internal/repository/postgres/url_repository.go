package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
)

// urlRepository implements the URLRepository interface for PostgreSQL
type urlRepository struct {
	db *gorm.DB
}

// NewURLRepository creates a new PostgreSQL URL repository
func NewURLRepository(db *gorm.DB) repository.URLRepository {
	return &urlRepository{db: db}
}

// Create inserts a new URL record into the database. The unique index on
// short_code is the final backstop against a collision the resolver missed:
// a duplicate insert surfaces as ErrShortCodeTaken, never silently succeeds.
func (r *urlRepository) Create(ctx context.Context, url *domain.URL) error {
	result := r.db.WithContext(ctx).Create(url)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrShortCodeTaken
		}
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// FindByShortCode retrieves a URL by its short code
// Returns ErrURLNotFound if the code doesn't exist
func (r *urlRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URL, error) {
	var url domain.URL

	result := r.db.WithContext(ctx).
		Where("short_code = ?", shortCode).
		First(&url)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrURLNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &url, nil
}

// FindByLongURL checks if a long URL has already been shortened. The same
// long URL may have several records (alternate mappings); any one of them is
// enough to answer the question.
func (r *urlRepository) FindByLongURL(ctx context.Context, longURL string) (*domain.URL, error) {
	var url domain.URL

	result := r.db.WithContext(ctx).
		Where("long_url = ?", longURL).
		First(&url)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrURLNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &url, nil
}

// IncrementClicks atomically adds delta to the click counter
// Uses a SQL UPDATE expression to avoid a SELECT-then-UPDATE race condition
func (r *urlRepository) IncrementClicks(ctx context.Context, shortCode string, delta int64) (*domain.URL, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.URL{}).
		Where("short_code = ?", shortCode).
		Update("clicks", gorm.Expr("clicks + ?", delta))

	if result.Error != nil {
		return nil, domain.NewInternalError(result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, domain.ErrURLNotFound
	}

	return r.FindByShortCode(ctx, shortCode)
}

// Update modifies an existing URL record
func (r *urlRepository) Update(ctx context.Context, url *domain.URL) error {
	result := r.db.WithContext(ctx).Save(url)
	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrURLNotFound
	}

	return nil
}
