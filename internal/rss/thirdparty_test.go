package rss

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchViaAPISuccess(t *testing.T) {
	var gotFeedURL string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFeedURL = r.URL.Query().Get("rss_url")
		io.WriteString(w, `{"status":"ok","items":[
			{"title":"A","link":"http://x/a","description":"<p>da</p>","content":"ca","pubDate":"2024-01-01T00:00:00Z"},
			{"title":"B","link":"http://x/b","description":"db","content":"cb","pubDate":"2024-01-02T00:00:00Z"}
		]}`)
	}))
	defer api.Close()

	c := NewClient(2*time.Second, testLogger())
	items, err := c.FetchViaAPI(context.Background(), api.URL, "http://feeds.example.com/rss", "Test")
	if err != nil {
		t.Fatalf("FetchViaAPI returned error: %v", err)
	}

	if gotFeedURL != "http://feeds.example.com/rss" {
		t.Errorf("rss_url = %q, want the original feed URL", gotFeedURL)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Description != "da" {
		t.Errorf("Description = %q, want sanitized da", items[0].Description)
	}
	if items[0].ID == items[1].ID {
		t.Errorf("items share ID %q, want distinct deterministic IDs", items[0].ID)
	}
	if items[0].Source != "Test" || items[1].Source != "Test" {
		t.Errorf("sources = %q, %q; want Test", items[0].Source, items[1].Source)
	}
}

func TestFetchViaAPIFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"service error status", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"status":"error","items":[]}`)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "not json")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := httptest.NewServer(tt.handler)
			defer api.Close()

			c := NewClient(2*time.Second, testLogger())
			items, err := c.FetchViaAPI(context.Background(), api.URL, "http://x/feed", "Test")
			if err == nil {
				t.Error("FetchViaAPI succeeded, want error")
			}
			if items != nil {
				t.Errorf("items = %v, want nil", items)
			}
		})
	}
}
