package rss

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"newsreader/internal/news"
)

// memStore is an in-memory ArticleStore for pipeline tests.
type memStore struct {
	mu       sync.Mutex
	items    map[string]news.NewsItem
	failIDs  map[string]bool
	upserted int
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]news.NewsItem), failIDs: make(map[string]bool)}
}

func (m *memStore) UpsertArticle(_ context.Context, item news.NewsItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted++
	if m.failIDs[item.ID] {
		return errors.New("simulated upsert failure")
	}
	m.items[item.ID] = item
	return nil
}

func (m *memStore) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	return ids
}

const testFeed = `<rss><channel>
	<item><title>Hi</title><link>http://x/1</link><description>D</description><pubDate>2024-01-01T00:00:00Z</pubDate></item>
	<item><title>Two</title><link>http://x/2</link><description>E</description><pubDate>2024-01-02T00:00:00Z</pubDate></item>
</channel></rss>`

func newTestPipeline(store ArticleStore, sources []Source, apiBase string) *Pipeline {
	client := NewClient(2*time.Second, testLogger())
	return NewPipeline(client, store, sources, apiBase, testLogger())
}

func TestPipelineDirectSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testFeed)
	}))
	defer ts.Close()

	store := newMemStore()
	p := newTestPipeline(store, []Source{{Name: "Test", URL: ts.URL}}, "http://127.0.0.1:1/")

	summary := p.Run(context.Background())

	if summary.Processed != 2 || summary.Saved != 2 {
		t.Errorf("summary = %+v, want 2 processed and 2 saved", summary)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("errors = %v, want none", summary.Errors)
	}
	if len(store.items) != 2 {
		t.Errorf("stored %d items, want 2", len(store.items))
	}
}

func TestPipelineIdempotentAcrossRuns(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testFeed)
	}))
	defer ts.Close()

	store := newMemStore()
	p := newTestPipeline(store, []Source{{Name: "Test", URL: ts.URL}}, "http://127.0.0.1:1/")

	p.Run(context.Background())
	first := store.ids()
	p.Run(context.Background())
	second := store.ids()

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("stored %d then %d items, want 2 both times", len(first), len(second))
	}
	// Same feed body must re-derive the same ids: upserts, not duplicates.
	for _, id := range first {
		if _, ok := store.items[id]; !ok {
			t.Errorf("id %q from first run missing after second run", id)
		}
	}
}

func TestPipelineFallbackURLUsed(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testFeed)
	}))
	defer good.Close()

	store := newMemStore()
	src := Source{Name: "Test", URL: "http://127.0.0.1:1/", FallbackURL: good.URL}
	p := newTestPipeline(store, []Source{src}, "http://127.0.0.1:1/")

	summary := p.Run(context.Background())

	if summary.Saved != 2 {
		t.Errorf("saved = %d, want 2 items parsed from fallback body", summary.Saved)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("errors = %v; a recovered source must not fail the run", summary.Errors)
	}
}

func TestPipelineThirdPartyFallback(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("rss_url") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"status":"ok","items":[
			{"title":"T1","link":"http://x/1","description":"<b>D1</b>","content":"C1","pubDate":"2024-01-01T00:00:00Z"}
		]}`)
	}))
	defer api.Close()

	store := newMemStore()
	src := Source{Name: "Test", URL: "http://127.0.0.1:1/feed"}
	p := newTestPipeline(store, []Source{src}, api.URL)

	summary := p.Run(context.Background())

	if summary.Saved != 1 || summary.Processed != 1 {
		t.Fatalf("summary = %+v, want 1 processed and 1 saved via third-party tier", summary)
	}
	for _, item := range store.items {
		if item.Description != "D1" {
			t.Errorf("Description = %q, want sanitized D1", item.Description)
		}
		if item.Source != "Test" {
			t.Errorf("Source = %q, want Test", item.Source)
		}
	}
}

func TestPipelineStaticFallback(t *testing.T) {
	store := newMemStore()
	src := Source{
		Name: "虎嗅",
		URL:  "http://127.0.0.1:1/feed",
		StaticItems: []news.NewsItem{
			{ID: "huxiu_fallback_1", Title: "静态内容", Link: "https://www.huxiu.com", Source: "虎嗅"},
		},
	}
	p := newTestPipeline(store, []Source{src}, "http://127.0.0.1:1/")

	summary := p.Run(context.Background())

	if summary.Saved != 1 {
		t.Errorf("saved = %d, want the static item", summary.Saved)
	}
	if _, ok := store.items["huxiu_fallback_1"]; !ok {
		t.Errorf("static fallback item not stored; have %v", store.ids())
	}
	if len(summary.Errors) != 0 {
		t.Errorf("errors = %v; static fallback counts as success", summary.Errors)
	}
}

func TestPipelineTotalFailurePlaceholders(t *testing.T) {
	store := newMemStore()
	sources := []Source{
		{Name: "A", URL: "http://127.0.0.1:1/a"},
		{Name: "B", URL: "http://127.0.0.1:1/b"},
	}
	p := newTestPipeline(store, sources, "http://127.0.0.1:1/api")

	summary := p.Run(context.Background())

	if summary.Saved < 1 {
		t.Errorf("saved = %d, want at least the offline placeholders", summary.Saved)
	}
	if len(summary.Errors) != 2 {
		t.Errorf("got %d errors, want one per failed source: %v", len(summary.Errors), summary.Errors)
	}
	if _, ok := store.items["fallback-1"]; !ok {
		t.Errorf("offline placeholder missing; have %v", store.ids())
	}
}

func TestPipelinePerItemFailureIsSkipped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testFeed)
	}))
	defer ts.Close()

	store := newMemStore()
	failID := news.SafeID("Test", "http://x/1", "Hi")
	store.failIDs[failID] = true

	p := newTestPipeline(store, []Source{{Name: "Test", URL: ts.URL}}, "http://127.0.0.1:1/")
	summary := p.Run(context.Background())

	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
	if summary.Saved != 1 {
		t.Errorf("saved = %d, want 1; the failing item is skipped, not fatal", summary.Saved)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("errors = %v; per-item failures must not fail the run", summary.Errors)
	}
}

func TestPipelineOneSourceFailureDoesNotAbortRun(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testFeed)
	}))
	defer ts.Close()

	store := newMemStore()
	sources := []Source{
		{Name: "Broken", URL: "http://127.0.0.1:1/feed"},
		{Name: "Works", URL: ts.URL},
	}
	p := newTestPipeline(store, sources, "http://127.0.0.1:1/api")

	summary := p.Run(context.Background())

	if summary.Saved != 2 {
		t.Errorf("saved = %d, want 2 from the working source", summary.Saved)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "Broken") {
		t.Errorf("errors = %v, want one entry naming the broken source", summary.Errors)
	}
	if _, ok := store.items["fallback-1"]; ok {
		t.Error("offline placeholders stored even though one source succeeded")
	}
}

func TestPipelineRescueParsesUnknownShape(t *testing.T) {
	// RDF-style feeds carry attributes on <item>, which the regex scanner
	// does not match; gofeed should still recover the entries.
	rdfFeed := `<?xml version="1.0"?>
	<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/">
		<channel rdf:about="http://x/"><title>c</title><link>http://x/</link><description>d</description></channel>
		<item rdf:about="http://x/1"><title>Rescued</title><link>http://x/1</link><description>D</description></item>
	</rdf:RDF>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, rdfFeed)
	}))
	defer ts.Close()

	store := newMemStore()
	p := newTestPipeline(store, []Source{{Name: "Test", URL: ts.URL}}, "http://127.0.0.1:1/")

	summary := p.Run(context.Background())
	if summary.Saved != 1 {
		t.Fatalf("saved = %d, want 1 rescued item (errors: %v)", summary.Saved, summary.Errors)
	}
	for _, item := range store.items {
		if item.Title != "Rescued" {
			t.Errorf("Title = %q, want Rescued", item.Title)
		}
	}
}
