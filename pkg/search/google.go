// Package search wraps the Google Custom Search JSON API and adds a cached
// front so repeated research queries within a day cost nothing.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"paintcode/pkg/cache"
	"paintcode/pkg/domain"
)

const (
	defaultEndpoint = "https://www.googleapis.com/customsearch/v1"
	maxResults      = 10
)

// Searcher runs a web search and returns ranked results.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// GoogleClient queries the Google Custom Search JSON API.
type GoogleClient struct {
	apiKey     string
	engineID   string
	endpoint   string
	httpClient *http.Client
}

// NewGoogleClient builds a client for the given API key and search engine ID.
// endpoint is overridable for tests; empty uses the real API.
func NewGoogleClient(apiKey, engineID, endpoint string) *GoogleClient {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &GoogleClient{
		apiKey:   apiKey,
		engineID: engineID,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search runs the query and returns up to ten results. An empty result list
// with a nil error means the query genuinely matched nothing.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call search: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var out googleResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("search error %d: %s", out.Error.Code, out.Error.Message)
	}

	results := make([]domain.SearchResult, 0, len(out.Items))
	for _, it := range out.Items {
		results = append(results, domain.SearchResult{
			Title:   it.Title,
			Snippet: it.Snippet,
			URL:     it.Link,
		})
	}
	return results, nil
}

// Cached wraps a Searcher with a TTL cache keyed on the normalized query.
// Only successful searches are cached; failures always retry.
type Cached struct {
	inner Searcher
	store cache.Store[[]domain.SearchResult]
	ttl   time.Duration
}

// NewCached builds the caching wrapper. A non-positive ttl uses the standard
// web search TTL of one day.
func NewCached(inner Searcher, store cache.Store[[]domain.SearchResult], ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = cache.WebSearchTTL
	}
	return &Cached{inner: inner, store: store, ttl: ttl}
}

// Search serves from cache when possible, otherwise delegates and caches.
func (c *Cached) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	key := cache.SearchKey(query)
	if hit, ok := c.store.Get(key); ok {
		return hit, nil
	}
	results, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, results, c.ttl)
	return results, nil
}
