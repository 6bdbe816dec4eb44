// Package resolver implements the tiered paint code resolution pipeline:
// product catalog first, OEM reference data second, cached or live web
// research last. Callers receive either a Resolution or a typed NotFoundError
// telling them whether a broader web search is worth offering.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paintcode/pkg/ai"
	"paintcode/pkg/cache"
	"paintcode/pkg/domain"
	"paintcode/pkg/paint"
	"paintcode/pkg/search"
)

// NotFoundError reports that no tier produced a usable record.
// FallbackToWebSearch distinguishes "research ran and found nothing reliable"
// (offer the user a manual search) from "research was unavailable".
type NotFoundError struct {
	Brand               string
	Code                string
	FallbackToWebSearch bool
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no paint record for %s %s", e.Brand, e.Code)
}

// ColorExtractor turns web search results into a resolved color.
type ColorExtractor interface {
	ExtractColor(ctx context.Context, brand, code string, results []domain.SearchResult) (domain.ResolvedColor, error)
}

// Resolver runs the three-tier pipeline.
type Resolver struct {
	db        *paint.Database
	searcher  search.Searcher
	extractor ColorExtractor
	colors    cache.Store[domain.ResolvedColor]
	colorTTL  time.Duration
}

// New builds a resolver. searcher and extractor may be nil, in which case the
// research tier is disabled and misses report FallbackToWebSearch false.
func New(db *paint.Database, searcher search.Searcher, extractor ColorExtractor, colors cache.Store[domain.ResolvedColor]) *Resolver {
	return &Resolver{
		db:        db,
		searcher:  searcher,
		extractor: extractor,
		colors:    colors,
		colorTTL:  cache.ColorTTL,
	}
}

// Resolve looks up a brand and paint code through the tiers in order.
// The first tier that yields a record wins; later tiers are not consulted.
func (r *Resolver) Resolve(ctx context.Context, brand, code string) (domain.Resolution, error) {
	if rec, tier, ok := r.db.Lookup(brand, code); ok {
		return domain.Resolution{Record: rec, Tier: tier}, nil
	}

	key := cache.ColorKey(brand, code)
	if color, ok := r.colors.Get(key); ok {
		return r.researchResolution(brand, code, color), nil
	}

	if r.searcher == nil || r.extractor == nil {
		return domain.Resolution{}, &NotFoundError{Brand: brand, Code: code}
	}

	color, err := r.research(ctx, brand, code)
	if err != nil {
		slog.Warn("paint code research failed", "brand", brand, "code", code, "err", err)
		return domain.Resolution{}, &NotFoundError{Brand: brand, Code: code, FallbackToWebSearch: true}
	}

	// Cache before returning so a concurrent request for the same code
	// does not repeat the search.
	r.colors.Set(key, color, r.colorTTL)
	return r.researchResolution(brand, code, color), nil
}

func (r *Resolver) research(ctx context.Context, brand, code string) (domain.ResolvedColor, error) {
	query := fmt.Sprintf("%s paint code %s color", brand, code)
	results, err := r.searcher.Search(ctx, query)
	if err != nil {
		return domain.ResolvedColor{}, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return domain.ResolvedColor{}, fmt.Errorf("search %q: no results", query)
	}

	color, err := r.extractor.ExtractColor(ctx, brand, code, results)
	if err != nil {
		return domain.ResolvedColor{}, err
	}
	if !paint.ValidHex(color.HexBase) {
		return domain.ResolvedColor{}, fmt.Errorf("research produced invalid hex %q", color.HexBase)
	}
	if color.Confidence != domain.ConfidenceHigh && color.Confidence != domain.ConfidenceMedium {
		return domain.ResolvedColor{}, fmt.Errorf("research confidence %q too low", color.Confidence)
	}

	rgb, err := paint.HexToRGB(color.HexBase)
	if err != nil {
		return domain.ResolvedColor{}, err
	}
	color.RGBBase = rgb
	return color, nil
}

func (r *Resolver) researchResolution(brand, code string, color domain.ResolvedColor) domain.Resolution {
	rec := domain.PaintRecord{
		Identifier: fmt.Sprintf("%s - %s - %s", brand, code, color.Name),
		Brand:      brand,
		Code:       code,
		ColorName:  color.Name,
		Swatch:     paint.DeriveSwatch(color.RGBBase, domain.FinishUnknown),
		Finish:     domain.FinishUnknown,
		Gloss:      domain.GlossUnknown,
		Tier:       domain.TierResearch,
		InStock:    false,
	}
	res := domain.Resolution{Record: rec, Tier: domain.TierResearch}
	if color.Source != "" {
		res.Sources = []string{color.Source}
	}
	return res
}

var _ ColorExtractor = (*ai.Extractor)(nil)
