package cache

import (
	"encoding/base64"
	"time"
)

// Independent TTLs per key namespace. The code-by-longURL hint expires before
// the detailed URL view on purpose: URLs not re-submitted within a day get a
// fresh alternate-mapping decision instead of riding a week-old hint.
const (
	URLViewTTL      = 7 * 24 * time.Hour
	StatsTTL        = time.Hour
	ClicksTTL       = 24 * time.Hour
	ShortCodeKeyTTL = 24 * time.Hour
)

// URLKey addresses the cached URL view for a short code.
func URLKey(shortCode string) string {
	return "url:" + shortCode
}

// StatsKey addresses the cached stats projection for a short code.
func StatsKey(shortCode string) string {
	return "stats:" + shortCode
}

// ClicksKey addresses the cache-only click counter for a short code.
func ClicksKey(shortCode string) string {
	return "clicks:" + shortCode
}

// ShortCodeKey addresses the known-short-code hint for a long URL. The URL is
// base64-encoded so arbitrary URLs produce ASCII-safe, bounded keys.
func ShortCodeKey(longURL string) string {
	return "shortcode:" + base64.StdEncoding.EncodeToString([]byte(longURL))
}
