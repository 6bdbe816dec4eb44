package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paintcode/pkg/cache"
	"paintcode/pkg/domain"
)

func TestGoogleSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if r.URL.Query().Get("cx") != "engine-1" {
			t.Errorf("cx = %q", r.URL.Query().Get("cx"))
		}
		w.Write([]byte(`{"items":[
			{"title":"Toyota 040","snippet":"Super White","link":"https://example.com/a"},
			{"title":"Paint codes","snippet":"All Toyota codes","link":"https://example.com/b"}
		]}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("key", "engine-1", srv.URL)
	got, err := c.Search(context.Background(), "Toyota paint code 040 color")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "Toyota paint code 040 color" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(got) != 2 || got[0].URL != "https://example.com/a" {
		t.Fatalf("results = %+v", got)
	}
}

func TestGoogleSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":403,"message":"daily limit exceeded"}}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("key", "engine-1", srv.URL)
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

type countingSearcher struct {
	calls   int
	results []domain.SearchResult
	err     error
}

func (c *countingSearcher) Search(context.Context, string) ([]domain.SearchResult, error) {
	c.calls++
	return c.results, c.err
}

func TestCachedSearch(t *testing.T) {
	store := cache.NewMemory[[]domain.SearchResult](time.Hour)
	defer store.Close()

	inner := &countingSearcher{results: []domain.SearchResult{{Title: "hit"}}}
	c := NewCached(inner, store, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := c.Search(context.Background(), "Toyota Paint Code 040")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 1 || got[0].Title != "hit" {
			t.Fatalf("results = %+v", got)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}

	// Same query with different casing must share the cache entry.
	if _, err := c.Search(context.Background(), "  toyota paint code 040 "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls after normalized query = %d, want 1", inner.calls)
	}
}

func TestCachedSearchDoesNotCacheFailures(t *testing.T) {
	store := cache.NewMemory[[]domain.SearchResult](time.Hour)
	defer store.Close()

	inner := &countingSearcher{err: context.DeadlineExceeded}
	c := NewCached(inner, store, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.Search(context.Background(), "q"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2 (failures must retry)", inner.calls)
	}
}
