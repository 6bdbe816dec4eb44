package research

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"paintcode/pkg/cache"
	"paintcode/pkg/domain"
	"paintcode/pkg/search"
)

// ContentSelector picks the best article and video from search candidates.
type ContentSelector interface {
	SelectContent(ctx context.Context, brand, model string, year int, articles, videos []domain.SearchResult) (domain.EraContent, error)
}

// EraResearcher finds era-appropriate repair content for a vehicle. The two
// searches run in parallel, the model picks one article and one video, and
// the selection is cached for a week.
type EraResearcher struct {
	searcher search.Searcher
	selector ContentSelector
	store    cache.Store[domain.EraContent]
	ttl      time.Duration
}

// NewEraResearcher builds a researcher.
func NewEraResearcher(searcher search.Searcher, selector ContentSelector, store cache.Store[domain.EraContent]) *EraResearcher {
	return &EraResearcher{
		searcher: searcher,
		selector: selector,
		store:    store,
		ttl:      cache.EraTTL,
	}
}

// Research returns article and video picks for the vehicle and repair kind.
// A conversation never fails on missing content: when nothing useful is found
// the result simply has neither link.
func (e *EraResearcher) Research(ctx context.Context, brand, model string, year int, repair domain.RepairType) (domain.EraContent, error) {
	key := cache.EraKey(brand, model, string(repair))
	if hit, ok := e.store.Get(key); ok {
		hit.Cached = true
		return hit, nil
	}
	if e.searcher == nil || e.selector == nil {
		return domain.EraContent{}, nil
	}

	var articles, videos []domain.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = e.searcher.Search(gctx, fmt.Sprintf("%d %s %s %s paint repair guide", year, brand, model, repair))
		return err
	})
	g.Go(func() error {
		var err error
		videos, err = e.searcher.Search(gctx, fmt.Sprintf("%d %s %s %s paint repair video tutorial", year, brand, model, repair))
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.EraContent{}, fmt.Errorf("era content search: %w", err)
	}
	if len(articles) == 0 && len(videos) == 0 {
		// A known-empty answer is still an answer; cache it so the next
		// turn for this vehicle does not repeat both searches.
		content := domain.EraContent{Researched: true}
		e.store.Set(key, content, e.ttl)
		return content, nil
	}

	content, err := e.selector.SelectContent(ctx, brand, model, year, articles, videos)
	if err != nil {
		return domain.EraContent{}, fmt.Errorf("era content selection: %w", err)
	}
	content.Researched = true
	e.store.Set(key, content, e.ttl)
	return content, nil
}
