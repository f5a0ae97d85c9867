package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shortlink/internal/config"
	"shortlink/internal/domain"
	"shortlink/internal/service"
	"shortlink/pkg/logger"
)

// MockURLRepository is a mock implementation of repository.URLRepository
type MockURLRepository struct {
	mock.Mock
}

func (m *MockURLRepository) Create(ctx context.Context, url *domain.URL) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockURLRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URL, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URL), args.Error(1)
}

func (m *MockURLRepository) FindByLongURL(ctx context.Context, longURL string) (*domain.URL, error) {
	args := m.Called(ctx, longURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URL), args.Error(1)
}

func (m *MockURLRepository) IncrementClicks(ctx context.Context, shortCode string, delta int64) (*domain.URL, error) {
	args := m.Called(ctx, shortCode, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URL), args.Error(1)
}

func (m *MockURLRepository) Update(ctx context.Context, url *domain.URL) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// MockURLCache is a mock implementation of cache.URLCache
type MockURLCache struct {
	mock.Mock
}

func (m *MockURLCache) CacheURL(ctx context.Context, url *domain.URL) {
	m.Called(ctx, url)
}

func (m *MockURLCache) GetCachedURL(ctx context.Context, shortCode string) *domain.CachedURL {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.CachedURL)
}

func (m *MockURLCache) GetCachedShortCode(ctx context.Context, longURL string) string {
	args := m.Called(ctx, longURL)
	return args.String(0)
}

func (m *MockURLCache) CacheStats(ctx context.Context, stats *domain.URLStats) {
	m.Called(ctx, stats)
}

func (m *MockURLCache) GetCachedStats(ctx context.Context, shortCode string) *domain.URLStats {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.URLStats)
}

func (m *MockURLCache) IncrementClicks(ctx context.Context, shortCode string) int64 {
	args := m.Called(ctx, shortCode)
	return args.Get(0).(int64)
}

func (m *MockURLCache) GetCachedClicks(ctx context.Context, shortCode string) int64 {
	args := m.Called(ctx, shortCode)
	return args.Get(0).(int64)
}

func (m *MockURLCache) InvalidateStats(ctx context.Context, shortCode string) {
	m.Called(ctx, shortCode)
}

func (m *MockURLCache) InvalidateURL(ctx context.Context, shortCode string) {
	m.Called(ctx, shortCode)
}

func (m *MockURLCache) HealthCheck(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type serviceFixture struct {
	repo    *MockURLRepository
	urls    *MockURLCache
	cfg     *config.Config
	service service.URLService
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	repo := new(MockURLRepository)
	urls := new(MockURLCache)
	cfg := &config.Config{
		BaseURL:             "https://sho.rt",
		MaxCollisionRetries: 5,
	}

	return &serviceFixture{
		repo:    repo,
		urls:    urls,
		cfg:     cfg,
		service: service.NewURLService(repo, urls, cfg, logger.NewLogger()),
	}
}

func assertValidShortCode(t *testing.T, code string) {
	t.Helper()
	assert.GreaterOrEqual(t, len(code), 5)
	for i := 0; i < len(code); i++ {
		assert.True(t, strings.ContainsRune(base62Chars, rune(code[i])),
			"unexpected symbol %q in code %q", code[i], code)
	}
}

func TestShortenURL_FreshURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/very/long/path"

	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.repo.On("FindByLongURL", ctx, longURL).Return(nil, domain.ErrURLNotFound)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	resp, err := f.service.ShortenURL(ctx, longURL)

	assert.NoError(t, err)
	assert.Equal(t, longURL, resp.OriginalURL)
	assert.Equal(t, "https://sho.rt/"+resp.ShortCode, resp.ShortURL)
	assertValidShortCode(t, resp.ShortCode)

	// First-time URLs carry no salt
	assert.NotNil(t, created)
	assert.Nil(t, created.Salt)
	assert.Equal(t, resp.ShortCode, created.ShortCode)

	f.repo.AssertExpectations(t)
	f.urls.AssertExpectations(t)
}

func TestShortenURL_InvalidURL(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ShortenURL(context.Background(), "not a url")

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidURL)

	var appErr *domain.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)

	// Rejected before any I/O
	f.repo.AssertNotCalled(t, "FindByLongURL")
	f.urls.AssertNotCalled(t, "GetCachedShortCode")
}

func TestShortenURL_AlternateMappingFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/duplicate"

	existing := &domain.URL{
		ID:        "507f191e810c19729de860ea",
		LongURL:   longURL,
		ShortCode: "1toWWW",
		CreatedAt: time.Now(),
	}

	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.repo.On("FindByLongURL", ctx, longURL).Return(existing, nil)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	resp, err := f.service.ShortenURL(ctx, longURL)

	assert.NoError(t, err)
	assertValidShortCode(t, resp.ShortCode)

	// A second, salted mapping: distinct record with its own code
	assert.NotNil(t, created)
	assert.NotNil(t, created.Salt)
	assert.GreaterOrEqual(t, *created.Salt, 0)
	assert.Less(t, *created.Salt, 100)
	assert.NotEqual(t, existing.ShortCode, resp.ShortCode)
	assert.Equal(t, longURL, created.LongURL)
}

func TestShortenURL_VerifiedCacheHint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/hinted"

	hinted := &domain.URL{ShortCode: "hint1", LongURL: longURL}
	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("hint1")
	f.repo.On("FindByShortCode", ctx, "hint1").Return(hinted, nil).Once()
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	_, err := f.service.ShortenURL(ctx, longURL)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.NotNil(t, created.Salt, "a verified hint must produce an alternate mapping")

	// The hint was trusted, so the store was never scanned by long URL
	f.repo.AssertNotCalled(t, "FindByLongURL")
}

func TestShortenURL_OrphanedCacheHint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/orphaned"

	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("dead1")
	f.repo.On("FindByShortCode", ctx, "dead1").
		Return(nil, domain.ErrURLNotFound).Once()
	f.repo.On("FindByLongURL", ctx, longURL).Return(nil, domain.ErrURLNotFound)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	_, err := f.service.ShortenURL(ctx, longURL)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Nil(t, created.Salt, "an orphaned hint must fall through to the fresh-URL path")
}

func TestShortenURL_WriteConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/conflict"

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.repo.On("FindByLongURL", ctx, longURL).Return(nil, domain.ErrURLNotFound)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(domain.ErrShortCodeTaken)

	_, err := f.service.ShortenURL(ctx, longURL)

	assert.ErrorIs(t, err, domain.ErrShortCodeTaken)

	var appErr *domain.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode)

	f.urls.AssertNotCalled(t, "CacheURL")
}

func TestResolveUniqueCode_NeverReturnsColliding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/collide"

	var checkedCodes []string
	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.repo.On("FindByLongURL", ctx, longURL).Return(nil, domain.ErrURLNotFound)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)

	// The first candidate collides in the store, later ones are free
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(&domain.URL{}, nil).
		Once().
		Run(func(args mock.Arguments) {
			checkedCodes = append(checkedCodes, args.String(1))
		})
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	resp, err := f.service.ShortenURL(ctx, longURL)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.NotEqual(t, checkedCodes[0], resp.ShortCode,
		"a colliding initial code must never be returned")
}

func TestResolveUniqueCode_FallbackAfterMaxRetries(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxCollisionRetries = 3
	ctx := context.Background()
	longURL := "https://example.com/dense"

	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.repo.On("FindByLongURL", ctx, longURL).Return(nil, domain.ErrURLNotFound)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)

	// Every candidate is taken; after the retries exhaust the resolver falls
	// back to an unchecked 6-character code
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(&domain.URL{}, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	_, err := f.service.ShortenURL(ctx, longURL)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Len(t, created.ShortCode, 6)
	f.repo.AssertNumberOfCalls(t, "FindByShortCode", 3)
}

func TestRedirect_CacheHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cached := &domain.CachedURL{
		ID:        "507f191e810c19729de860ea",
		LongURL:   "https://example.com/cached",
		ShortCode: "1toWWW",
		CreatedAt: "2024-03-01T10:00:00Z",
		Clicks:    3,
	}
	updated := &domain.URL{
		ID:        cached.ID,
		LongURL:   cached.LongURL,
		ShortCode: cached.ShortCode,
		Clicks:    4,
	}

	reconciled := make(chan struct{})

	f.urls.On("GetCachedURL", ctx, "1toWWW").Return(cached)
	f.urls.On("IncrementClicks", ctx, "1toWWW").Return(int64(4))
	f.repo.On("IncrementClicks", mock.Anything, "1toWWW", int64(1)).
		Return(updated, nil)
	f.urls.On("CacheURL", mock.Anything, updated).Return()
	f.urls.On("InvalidateStats", mock.Anything, "1toWWW").Return().
		Run(func(mock.Arguments) { close(reconciled) })

	longURL, err := f.service.Redirect(ctx, "1toWWW")

	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", longURL)

	// The store write is fire-and-forget but must eventually land and
	// invalidate the stats projection
	select {
	case <-reconciled:
	case <-time.After(2 * time.Second):
		t.Fatal("background click reconciliation never ran")
	}

	f.repo.AssertNotCalled(t, "FindByShortCode")
	f.urls.AssertExpectations(t)
}

func TestRedirect_CacheMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updated := &domain.URL{
		ID:        "507f191e810c19729de860ea",
		LongURL:   "https://example.com/notcached",
		ShortCode: "1toWWW",
		Clicks:    1,
	}

	f.urls.On("GetCachedURL", ctx, "1toWWW").Return(nil)
	f.repo.On("IncrementClicks", ctx, "1toWWW", int64(1)).Return(updated, nil)
	f.urls.On("CacheURL", ctx, updated).Return()
	f.urls.On("InvalidateStats", ctx, "1toWWW").Return()

	longURL, err := f.service.Redirect(ctx, "1toWWW")

	assert.NoError(t, err)
	assert.Equal(t, "https://example.com/notcached", longURL)

	f.repo.AssertExpectations(t)
	f.urls.AssertExpectations(t)
}

func TestRedirect_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.urls.On("GetCachedURL", ctx, "nope1").Return(nil)
	f.repo.On("IncrementClicks", ctx, "nope1", int64(1)).
		Return(nil, domain.ErrURLNotFound)

	_, err := f.service.Redirect(ctx, "nope1")

	assert.ErrorIs(t, err, domain.ErrURLNotFound)
	f.urls.AssertNotCalled(t, "CacheURL")
}

func TestShortenThenRedirect_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/round/trip?q=1"

	var created *domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.repo.On("FindByLongURL", ctx, longURL).Return(nil, domain.ErrURLNotFound)
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.URL)
		})
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()

	resp, err := f.service.ShortenURL(ctx, longURL)
	assert.NoError(t, err)

	// Redirect through the store path using the record the create flow wrote
	f.repo.On("IncrementClicks", ctx, resp.ShortCode, int64(1)).
		Return(created, nil)
	f.urls.On("InvalidateStats", ctx, resp.ShortCode).Return()

	got, err := f.service.Redirect(ctx, resp.ShortCode)

	assert.NoError(t, err)
	assert.Equal(t, longURL, got)
}

func TestGetStats_CacheMissBuildsProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	url := &domain.URL{
		ID:        "507f191e810c19729de860ea",
		LongURL:   "https://example.com/stats",
		ShortCode: "1toWWW",
		CreatedAt: time.Date(2024, 3, 1, 15, 42, 7, 0, time.UTC),
		Clicks:    0,
	}

	f.urls.On("GetCachedStats", ctx, "1toWWW").Return(nil)
	f.repo.On("FindByShortCode", ctx, "1toWWW").Return(url, nil)
	f.urls.On("GetCachedClicks", ctx, "1toWWW").Return(int64(0))
	f.urls.On("CacheStats", ctx, mock.AnythingOfType("*domain.URLStats")).Return()

	stats, err := f.service.GetStats(ctx, "1toWWW")

	assert.NoError(t, err)
	assert.Equal(t, int64(0), stats.Clicks)
	assert.Equal(t, "2024-03-01", stats.CreatedAt, "createdAt is calendar-date granularity")
	assert.Equal(t, "https://example.com/stats", stats.LongURL)
	assert.Equal(t, "1toWWW", stats.ShortCode)

	f.urls.AssertExpectations(t)
}

func TestGetStats_CacheHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cached := &domain.URLStats{
		LongURL:   "https://example.com/stats",
		Clicks:    7,
		CreatedAt: "2024-03-01",
		ShortCode: "1toWWW",
	}

	f.urls.On("GetCachedStats", ctx, "1toWWW").Return(cached)

	stats, err := f.service.GetStats(ctx, "1toWWW")

	assert.NoError(t, err)
	assert.Equal(t, cached, stats)
	f.repo.AssertNotCalled(t, "FindByShortCode")
}

func TestGetStats_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.urls.On("GetCachedStats", ctx, "nope1").Return(nil)
	f.repo.On("FindByShortCode", ctx, "nope1").Return(nil, domain.ErrURLNotFound)

	_, err := f.service.GetStats(ctx, "nope1")

	assert.ErrorIs(t, err, domain.ErrURLNotFound)
	f.urls.AssertNotCalled(t, "CacheStats")
}

func TestShortenURL_SameURLTwiceYieldsDistinctCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	longURL := "https://example.com/twice"

	var records []*domain.URL

	f.urls.On("GetCachedShortCode", ctx, longURL).Return("")
	f.urls.On("GetCachedURL", ctx, mock.AnythingOfType("string")).Return(nil)
	f.repo.On("FindByShortCode", ctx, mock.AnythingOfType("string")).
		Return(nil, domain.ErrURLNotFound)
	f.urls.On("CacheURL", ctx, mock.AnythingOfType("*domain.URL")).Return()
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.URL")).
		Return(nil).
		Run(func(args mock.Arguments) {
			records = append(records, args.Get(1).(*domain.URL))
		})

	// First call: nothing in the store yet
	f.repo.On("FindByLongURL", ctx, longURL).
		Return(nil, domain.ErrURLNotFound).Once()

	first, err := f.service.ShortenURL(ctx, longURL)
	assert.NoError(t, err)

	// Second call: the store now knows the URL
	f.repo.On("FindByLongURL", ctx, longURL).Return(records[0], nil)

	second, err := f.service.ShortenURL(ctx, longURL)
	assert.NoError(t, err)

	assert.NotEqual(t, first.ShortCode, second.ShortCode)
	assert.Equal(t, first.OriginalURL, second.OriginalURL)
	assert.Len(t, records, 2)
	assert.Nil(t, records[0].Salt)
	assert.NotNil(t, records[1].Salt)
}
