// Package cache provides the research cache: a TTL key-value store used to
// avoid repeat external lookups for paint locations, promotional content and
// web search results. Two implementations share one interface: an in-process
// store with a background sweep, and a Redis-backed store for deployments
// where multiple instances should share research results.
package cache

import (
	"strconv"
	"strings"
	"time"
)

// Default TTLs per research kind, reflecting how often the underlying fact
// changes.
const (
	LocationTTL  = 30 * 24 * time.Hour
	EraTTL       = 7 * 24 * time.Hour
	WebSearchTTL = 24 * time.Hour
	ColorTTL     = 24 * time.Hour
)

// Store is a TTL key-value cache. Get on an expired entry behaves as a miss
// and removes the entry; callers never observe stale data.
type Store[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T, ttl time.Duration)
	Delete(key string)
	Len() int
	Close()
}

// Key builders. Keys are pure functions of normalized inputs so logically
// identical queries hit the same entry.

func LocationKey(brand, model string, year int) string {
	return "loc:" + canonical(brand) + ":" + canonical(model) + ":" + canonicalInt(year)
}

func EraKey(brand, model, repairType string) string {
	if repairType == "" {
		repairType = "touchup"
	}
	return "era:" + canonical(brand) + ":" + canonical(model) + ":" + canonical(repairType)
}

func SearchKey(query string) string {
	return "search:" + strings.ToLower(strings.TrimSpace(query))
}

func ColorKey(brand, code string) string {
	return "color:" + canonical(brand) + ":" + canonical(code)
}

func canonical(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "-")
}

func canonicalInt(n int) string {
	if n <= 0 {
		return "any"
	}
	return strconv.Itoa(n)
}
