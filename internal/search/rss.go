package search

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/mohammad-safakhou/vigia/config"
)

// defaultOutlets lists the RSS news outlets registered with the
// orchestrator and their fallback feed URLs.
var defaultOutlets = map[string][]string{
	"elpais":         {"https://feeds.elpais.com/mrss-s/pages/ep/site/elpais.com/section/economia/portada"},
	"elmundo":        {"https://e00-elmundo.uecdn.es/elmundo/rss/economia.xml"},
	"expansion":      {"https://e00-expansion.uecdn.es/rss/empresas.xml"},
	"lavanguardia":   {"https://www.lavanguardia.com/rss/economia.xml"},
	"elconfidencial": {"https://rss.elconfidencial.com/empresas/"},
	"eldiario":       {"https://www.eldiario.es/rss/economia/"},
	"europapress":    {"https://www.europapress.es/rss/rss.aspx?ch=00136"},
	"abc":            {"https://www.abc.es/rss/feeds/abc_Economia.xml"},
}

// RSSAgent searches one news outlet's RSS feeds for items mentioning the
// query. Matched articles can optionally be fetched and run through
// readability to recover the full text.
type RSSAgent struct {
	name  string
	feeds []string
	cfg   config.RSSConfig
	http  *HTTPClient
}

func NewRSSAgent(name string, feeds []string, cfg config.RSSConfig, httpc *HTTPClient) *RSSAgent {
	return &RSSAgent{name: name, feeds: feeds, cfg: cfg, http: httpc}
}

func (a *RSSAgent) Family() Family { return FamilyNews }

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Creator     string `xml:"creator"`
}

func (a *RSSAgent) Search(ctx context.Context, q Query) (*SourceResult, error) {
	start, end, err := q.Window(time.Now())
	if err != nil {
		return nil, err
	}
	startT, _ := time.Parse(dateLayout, start)
	endT, _ := time.Parse(dateLayout, end)
	// pubDate carries a time of day; include the whole end day
	endT = endT.AddDate(0, 0, 1)

	maxArticles := a.cfg.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 20
	}

	var (
		docs    []Document
		errs    []string
		needle  = strings.ToLower(q.Text)
		fetched int
	)
	for _, feedURL := range a.feeds {
		if len(docs) >= maxArticles {
			break
		}
		body, err := a.http.Get(ctx, feedURL, map[string]string{"Accept": "application/rss+xml, application/xml"})
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", feedURL, err))
			continue
		}
		var feed rssFeed
		if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&feed); err != nil {
			errs = append(errs, fmt.Sprintf("%s: parse: %v", feedURL, err))
			continue
		}
		fetched++

		for _, item := range feed.Channel.Items {
			if len(docs) >= maxArticles {
				break
			}
			if !strings.Contains(strings.ToLower(item.Title), needle) &&
				!strings.Contains(strings.ToLower(item.Description), needle) {
				continue
			}
			pub, ok := parsePubDate(item.PubDate)
			if ok && (pub.Before(startT) || pub.After(endT)) {
				continue
			}
			doc := Document{
				ID:      uuid.NewString(),
				Title:   strings.TrimSpace(item.Title),
				Source:  a.name,
				Author:  strings.TrimSpace(item.Creator),
				URL:     item.Link,
				Summary: stripHTML(item.Description),
			}
			if ok {
				doc.Date = pub.Format(time.RFC3339)
			}
			if a.cfg.ExtractText && item.Link != "" {
				doc.Text = a.fetchArticleText(ctx, item.Link)
			}
			if doc.Text == "" {
				doc.Text = doc.Summary
			}
			docs = append(docs, doc)
		}
	}

	// distinguish "no matches" from "every feed unreachable"
	if fetched == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%s: all feeds failed: %s", a.name, errs[0])
	}

	if len(errs) > 5 {
		errs = errs[:5]
	}
	return &SourceResult{
		Summary: SearchSummary{
			Query:        q.Text,
			DateRange:    fmt.Sprintf("%s to %s", start, end),
			TotalResults: len(docs),
			Errors:       errs,
		},
		Documents: docs,
	}, nil
}

// fetchArticleText fetches the article page and extracts the readable
// body. Best effort: a failed fetch just leaves the text empty.
func (a *RSSAgent) fetchArticleText(ctx context.Context, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	body, err := a.http.Get(ctx, link, map[string]string{"Accept": "text/html"})
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z07:00",
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stripHTML removes markup from feed descriptions, which often embed
// anchor tags and images.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
