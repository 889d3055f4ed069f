package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/vigia/config"
)

func rssBody(pubDate string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Economía</title>
<item>
  <title>Acme SA recibe sanción de la CNMV</title>
  <link>https://example.com/acme-sancion</link>
  <description>&lt;p&gt;La CNMV impuso una &lt;b&gt;multa&lt;/b&gt; a Acme SA.&lt;/p&gt;</description>
  <pubDate>%s</pubDate>
</item>
<item>
  <title>Otra noticia sin relación</title>
  <link>https://example.com/otra</link>
  <description>nada relevante</description>
  <pubDate>%s</pubDate>
</item>
</channel>
</rss>`, pubDate, pubDate)
}

func TestRSSAgentMatchesAndStripsHTML(t *testing.T) {
	pubDate := time.Now().Add(-24 * time.Hour).Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody(pubDate)))
	}))
	defer srv.Close()

	agent := NewRSSAgent("expansion", []string{srv.URL}, config.RSSConfig{}, NewHTTPClient(time.Second, 0, time.Millisecond))
	res, err := agent.Search(context.Background(), Query{Text: "acme sa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary.TotalResults != 1 {
		t.Fatalf("expected 1 match, got %d", res.Summary.TotalResults)
	}
	doc := res.Documents[0]
	if doc.Source != "expansion" {
		t.Fatalf("expected source %q, got %q", "expansion", doc.Source)
	}
	if doc.Summary != "La CNMV impuso una multa a Acme SA." {
		t.Fatalf("expected stripped summary, got %q", doc.Summary)
	}
}

func TestRSSAgentFiltersByWindow(t *testing.T) {
	old := time.Now().AddDate(0, 0, -30).Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody(old)))
	}))
	defer srv.Close()

	agent := NewRSSAgent("expansion", []string{srv.URL}, config.RSSConfig{}, NewHTTPClient(time.Second, 0, time.Millisecond))
	res, err := agent.Search(context.Background(), Query{Text: "acme sa", DaysBack: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary.TotalResults != 0 {
		t.Fatalf("expected out-of-window item filtered, got %d", res.Summary.TotalResults)
	}
}

func TestRSSAgentAllFeedsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	agent := NewRSSAgent("elpais", []string{srv.URL}, config.RSSConfig{}, NewHTTPClient(time.Second, 0, time.Millisecond))
	if _, err := agent.Search(context.Background(), Query{Text: "acme"}); err == nil {
		t.Fatalf("expected error when every feed is unreachable")
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML(`<p>uno <a href="x">dos</a>   tres</p>`)
	if got != "uno dos tres" {
		t.Fatalf("expected %q, got %q", "uno dos tres", got)
	}
}
