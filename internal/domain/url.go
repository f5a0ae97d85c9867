package domain

import (
	"time"
)

// URL represents a shortened URL entry in the system
// This is the core domain entity that models our business concept
type URL struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	LongURL   string    `gorm:"not null;type:text;index" json:"long_url"`
	ShortCode string    `gorm:"uniqueIndex;not null;size:12" json:"short_code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Clicks    int64     `gorm:"default:0" json:"clicks"`
	Salt      *int      `json:"salt,omitempty"` // Set only on alternate mappings for an already-shortened URL
}

// TableName specifies the table name for GORM
func (URL) TableName() string {
	return "urls"
}

// IsAlternateMapping reports whether this record was created as a second
// short code for a long URL that already had one.
func (u *URL) IsAlternateMapping() bool {
	return u.Salt != nil
}

// CachedURL is the denormalized cache projection of a URL record.
// It may be stale relative to the store's click count.
type CachedURL struct {
	ID        string `json:"id"`
	LongURL   string `json:"longUrl"`
	ShortCode string `json:"shortCode"`
	CreatedAt string `json:"createdAt"` // ISO 8601
	Clicks    int64  `json:"clicks"`
	Salt      *int   `json:"salt,omitempty"`
}

// NewCachedURL builds the cache projection from a store record.
func NewCachedURL(u *URL) *CachedURL {
	return &CachedURL{
		ID:        u.ID,
		LongURL:   u.LongURL,
		ShortCode: u.ShortCode,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		Clicks:    u.Clicks,
		Salt:      u.Salt,
	}
}

// URLStats represents aggregated statistics for a shortened URL.
// CreatedAt is truncated to calendar-date granularity.
type URLStats struct {
	LongURL   string `json:"longUrl"`
	Clicks    int64  `json:"clicks"`
	CreatedAt string `json:"createdAt"` // YYYY-MM-DD
	ShortCode string `json:"shortCode"`
}

// NewURLStats builds the stats projection from a store record.
func NewURLStats(u *URL) *URLStats {
	return &URLStats{
		LongURL:   u.LongURL,
		Clicks:    u.Clicks,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02"),
		ShortCode: u.ShortCode,
	}
}

// ShortenRequest represents the request payload for creating a short URL
type ShortenRequest struct {
	URL string `json:"url" binding:"required"`
}

// ShortenResponse represents the response after creating a short URL
type ShortenResponse struct {
	OriginalURL string `json:"originalUrl"`
	ShortURL    string `json:"shortUrl"`
	ShortCode   string `json:"shortCode"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
