package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"shortlink/internal/cache"
	"shortlink/internal/config"
	"shortlink/internal/domain"
	"shortlink/internal/repository"
	"shortlink/internal/shortener"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

// saltRange bounds the random salt applied to alternate mappings
const saltRange = 100

// reconcileTimeout bounds the fire-and-forget store write after a cache-hit
// redirect
const reconcileTimeout = 5 * time.Second

// urlService implements the URLService interface
type urlService struct {
	repo   repository.URLRepository
	urls   cache.URLCache
	cfg    *config.Config
	logger *logger.Logger
}

// NewURLService creates a new URL service with dependencies injected
func NewURLService(
	repo repository.URLRepository,
	urls cache.URLCache,
	cfg *config.Config,
	logger *logger.Logger,
) URLService {
	return &urlService{
		repo:   repo,
		urls:   urls,
		cfg:    cfg,
		logger: logger,
	}
}

// ShortenURL creates a new shortened URL. URLs that were already shortened
// get an alternate mapping: a second record with its own salted code pointing
// at the same destination.
func (s *urlService) ShortenURL(ctx context.Context, longURL string) (*domain.ShortenResponse, error) {
	// Step 1: Validate the long URL before any I/O
	if err := validator.ValidateURL(longURL); err != nil {
		s.logger.Warn("Invalid URL provided", "url", longURL, "error", err)
		return nil, domain.NewValidationError(err.Error())
	}

	// Step 2: Allocate the identifier that seeds code generation
	id := newRecordID()

	// Step 3: Two-tier "already shortened" lookup. The cached hint can be
	// stale or orphaned, so it only counts if it still resolves to a store
	// record; the store is always the tie-breaker.
	if hint := s.urls.GetCachedShortCode(ctx, longURL); hint != "" {
		_, err := s.repo.FindByShortCode(ctx, hint)
		if err == nil {
			s.logger.Info("URL already shortened via cache hint, creating alternate mapping",
				"hint", hint)
			return s.createAlternateMapping(ctx, id, longURL)
		}
		if !errors.Is(err, domain.ErrURLNotFound) {
			return nil, err
		}
		// Orphaned hint: fall through to the authoritative store lookup
	}

	existing, err := s.repo.FindByLongURL(ctx, longURL)
	if err == nil {
		s.logger.Info("URL already shortened, creating alternate mapping",
			"existing_code", existing.ShortCode)
		return s.createAlternateMapping(ctx, id, longURL)
	}
	if !errors.Is(err, domain.ErrURLNotFound) {
		return nil, err
	}

	// Step 4: First-time URL; generate from the bare identifier, no salt
	code := shortener.GenerateFromSeed(id, 0)
	return s.persist(ctx, &domain.URL{ID: id, LongURL: longURL}, code)
}

// createAlternateMapping persists a second short code for a long URL that
// already has one, distinguished by a random salt.
func (s *urlService) createAlternateMapping(ctx context.Context, id, longURL string) (*domain.ShortenResponse, error) {
	salt := rand.Intn(saltRange)
	code := shortener.GenerateFromSeed(id, salt)

	url := &domain.URL{
		ID:      id,
		LongURL: longURL,
		Salt:    &salt,
	}

	return s.persist(ctx, url, code)
}

// persist resolves the candidate code against cache and store, writes the
// record through to both, and builds the response. Cache write failures never
// block the response.
func (s *urlService) persist(ctx context.Context, url *domain.URL, candidate string) (*domain.ShortenResponse, error) {
	code, err := s.resolveUniqueCode(ctx, candidate)
	if err != nil {
		s.logger.Error("Failed to resolve unique short code", "error", err)
		return nil, err
	}
	url.ShortCode = code

	if err := s.repo.Create(ctx, url); err != nil {
		if errors.Is(err, domain.ErrShortCodeTaken) {
			// A concurrent insert won the code, or the post-retry fallback
			// collided. The unique index caught it; surface as a conflict.
			s.logger.Error("Write-time short code collision", "short_code", code)
			return nil, domain.NewConflictError(code)
		}
		s.logger.Error("Failed to create URL record", "error", err, "short_code", code)
		return nil, err
	}

	s.urls.CacheURL(ctx, url)

	s.logger.Info("URL shortened",
		"short_code", code,
		"alternate", url.IsAlternateMapping(),
	)

	return &domain.ShortenResponse{
		OriginalURL: url.LongURL,
		ShortURL:    fmt.Sprintf("%s/%s", s.cfg.BaseURL, code),
		ShortCode:   code,
	}, nil
}

// resolveUniqueCode retries code generation against both cache and store
// until a free code is found. Cache errors are treated as misses (fail-open
// toward the store); store errors are fatal since uniqueness cannot be
// assumed without it. After the retries exhaust, a single 6-character random
// code is returned without a further check; the store's unique index is the
// final backstop for that best-effort fallback.
func (s *urlService) resolveUniqueCode(ctx context.Context, initialCode string) (string, error) {
	code := initialCode

	for retries := 0; retries < s.cfg.MaxCollisionRetries; retries++ {
		if s.urls.GetCachedURL(ctx, code) != nil {
			s.logger.Warn("Short code collision in cache, retrying",
				"short_code", code, "attempt", retries+1)
			code = shortener.RandomCode(shortener.MinCodeLength)
			continue
		}

		_, err := s.repo.FindByShortCode(ctx, code)
		if errors.Is(err, domain.ErrURLNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}

		s.logger.Warn("Short code collision in store, retrying",
			"short_code", code, "attempt", retries+1)
		code = shortener.RandomCode(shortener.MinCodeLength)
	}

	return shortener.RandomCode(shortener.MinCodeLength + 1), nil
}

// Redirect resolves a short code via the cache-aside protocol. A cache hit
// answers immediately: the cache-only click counter is bumped and the store
// write happens in the background. A miss loads and updates the store
// synchronously, then repopulates the cache.
func (s *urlService) Redirect(ctx context.Context, shortCode string) (string, error) {
	if cached := s.urls.GetCachedURL(ctx, shortCode); cached != nil {
		// Fast-path tally, separate from the view's embedded click count
		tally := s.urls.IncrementClicks(ctx, shortCode)

		// Fire-and-forget reconciliation; the redirect never waits on it
		go s.reconcileClicks(shortCode)

		s.logger.Debug("Cache hit", "short_code", shortCode, "cache_clicks", tally)
		return cached.LongURL, nil
	}

	updated, err := s.repo.IncrementClicks(ctx, shortCode, 1)
	if err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			s.logger.Warn("Short code not found", "short_code", shortCode)
		}
		return "", err
	}

	s.urls.CacheURL(ctx, updated)
	s.urls.InvalidateStats(ctx, shortCode)

	s.logger.Info("URL accessed", "short_code", shortCode, "clicks", updated.Clicks)
	return updated.LongURL, nil
}

// reconcileClicks lands a single click on the store after a cache-hit
// redirect and refreshes the cached projections from the updated record.
// Supervision policy is log-on-failure with no retry: a lost write is
// recovered by any later cache-miss redirect, or lost for good if the cache
// entry outlives the store's downtime window.
func (s *urlService) reconcileClicks(shortCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	updated, err := s.repo.IncrementClicks(ctx, shortCode, 1)
	if err != nil {
		s.logger.Error("Failed to reconcile click count", "error", err, "short_code", shortCode)
		return
	}

	s.urls.CacheURL(ctx, updated)
	s.urls.InvalidateStats(ctx, shortCode)
}

// GetStats serves the statistics projection cache-first, building and caching
// it from the store on a miss.
func (s *urlService) GetStats(ctx context.Context, shortCode string) (*domain.URLStats, error) {
	if cached := s.urls.GetCachedStats(ctx, shortCode); cached != nil {
		s.logger.Debug("Stats cache hit", "short_code", shortCode)
		return cached, nil
	}

	url, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	// The fast-path tally can run ahead of the store until the
	// fire-and-forget writes land; the store value is the one served
	if tally := s.urls.GetCachedClicks(ctx, shortCode); tally > url.Clicks {
		s.logger.Debug("Cache click tally ahead of store",
			"short_code", shortCode, "cache_clicks", tally, "store_clicks", url.Clicks)
	}

	stats := domain.NewURLStats(url)
	s.urls.CacheStats(ctx, stats)

	return stats, nil
}

// newRecordID allocates a globally unique hex identifier used as the code
// generation seed.
func newRecordID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
