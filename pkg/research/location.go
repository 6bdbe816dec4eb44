// Package research answers the two slow questions of the conversation flow:
// where the paint code label is on a given vehicle, and which promotional
// article and video fit its era. Both are cached aggressively because the
// answers change on the timescale of model years, not requests.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paintcode/pkg/cache"
	"paintcode/pkg/domain"
	"paintcode/pkg/search"
)

// LocationExtractor pulls label locations out of search results.
type LocationExtractor interface {
	ExtractLocations(ctx context.Context, brand, model string, year int, results []domain.SearchResult) (domain.LocationInfo, error)
}

// LocationResearcher resolves paint code label locations: curated table
// first, then cached web research, then a generic answer.
type LocationResearcher struct {
	searcher  search.Searcher
	extractor LocationExtractor
	store     cache.Store[domain.LocationInfo]
	ttl       time.Duration
}

// NewLocationResearcher builds a researcher. searcher and extractor may be
// nil; only the curated table and the generic fallback are used then.
func NewLocationResearcher(searcher search.Searcher, extractor LocationExtractor, store cache.Store[domain.LocationInfo]) *LocationResearcher {
	return &LocationResearcher{
		searcher:  searcher,
		extractor: extractor,
		store:     store,
		ttl:       cache.LocationTTL,
	}
}

// Research returns label locations for the vehicle. The curated table wins
// without any caching; web research results are cached for thirty days.
// Research never fails: when everything else comes up empty the generic
// locations are returned.
func (l *LocationResearcher) Research(ctx context.Context, brand, model string, year int) domain.LocationInfo {
	if locs, ok := StaticLocations(brand); ok {
		return domain.LocationInfo{Locations: locs}
	}

	key := cache.LocationKey(brand, model, year)
	if hit, ok := l.store.Get(key); ok {
		hit.Cached = true
		return hit
	}

	if l.searcher != nil && l.extractor != nil {
		info, err := l.webResearch(ctx, brand, model, year)
		if err != nil {
			slog.Warn("location research failed", "brand", brand, "model", model, "year", year, "err", err)
		} else if len(info.Locations) > 0 {
			l.store.Set(key, info, l.ttl)
			return info
		}
	}

	return domain.LocationInfo{Locations: genericLocations}
}

func (l *LocationResearcher) webResearch(ctx context.Context, brand, model string, year int) (domain.LocationInfo, error) {
	query := fmt.Sprintf("%d %s %s paint code location", year, brand, model)
	results, err := l.searcher.Search(ctx, query)
	if err != nil {
		return domain.LocationInfo{}, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return domain.LocationInfo{}, nil
	}
	return l.extractor.ExtractLocations(ctx, brand, model, year, results)
}
