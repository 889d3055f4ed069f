package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/vigia/config"
)

func TestNewsAPIRequiresKey(t *testing.T) {
	agent := NewNewsAPIAgent(config.NewsAPIConfig{}, NewHTTPClient(time.Second, 0, time.Millisecond))
	if _, err := agent.Search(context.Background(), Query{Text: "acme"}); err == nil {
		t.Fatalf("expected missing api key to fail the agent")
	}
}

func TestNewsAPIMapsArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "k" {
			t.Errorf("expected api key header, got %q", got)
		}
		if got := r.URL.Query().Get("language"); got != "es" {
			t.Errorf("expected language es, got %q", got)
		}
		w.Write([]byte(`{"totalResults": 1, "articles": [{
			"title": "Acme sancionada",
			"author": "Redacción",
			"url": "https://example.com/a",
			"publishedAt": "2025-06-10T08:00:00Z",
			"description": "Multa regulatoria",
			"content": "La CNMV impuso una multa...",
			"source": {"name": "Expansión"}
		}]}`))
	}))
	defer srv.Close()

	agent := NewNewsAPIAgent(config.NewsAPIConfig{
		APIKey:   "k",
		Endpoint: srv.URL,
	}, NewHTTPClient(time.Second, 0, time.Millisecond))

	res, err := agent.Search(context.Background(), Query{Text: "acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", res.Summary.TotalResults)
	}
	doc := res.Documents[0]
	if doc.Title != "Acme sancionada" {
		t.Fatalf("expected title %q, got %q", "Acme sancionada", doc.Title)
	}
	if doc.Source != "Expansión" {
		t.Fatalf("expected source %q, got %q", "Expansión", doc.Source)
	}
	if doc.ID == "" {
		t.Fatalf("expected a generated document id")
	}
}
