package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/vigia/config"
)

// NewsAPIAgent searches newsapi.org for press coverage of the company.
type NewsAPIAgent struct {
	cfg  config.NewsAPIConfig
	http *HTTPClient
}

func NewNewsAPIAgent(cfg config.NewsAPIConfig, httpc *HTTPClient) *NewsAPIAgent {
	return &NewsAPIAgent{cfg: cfg, http: httpc}
}

func (a *NewsAPIAgent) Family() Family { return FamilyNews }

func (a *NewsAPIAgent) Search(ctx context.Context, q Query) (*SourceResult, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("newsapi api key not configured")
	}

	start, end, err := q.Window(time.Now())
	if err != nil {
		return nil, err
	}

	// free-tier NewsAPI rejects queries older than ~30 days; clamp the
	// window instead of failing the whole search
	if a.cfg.RateLimitDays > 0 {
		oldest := time.Now().AddDate(0, 0, -a.cfg.RateLimitDays)
		if startT, err := time.Parse(dateLayout, start); err == nil && startT.Before(oldest) {
			start = oldest.Format(dateLayout)
		}
	}

	maxResults := a.cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("from", start)
	params.Set("to", end)
	params.Set("language", "es")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", maxResults))

	var resp struct {
		TotalResults int `json:"totalResults"`
		Articles     []struct {
			Title       string `json:"title"`
			Author      string `json:"author"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
			Content     string `json:"content"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	headers := map[string]string{"X-Api-Key": a.cfg.APIKey}
	if err := a.http.DoJSON(ctx, "GET", a.cfg.Endpoint+"?"+params.Encode(), headers, nil, &resp); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(resp.Articles))
	for _, art := range resp.Articles {
		docs = append(docs, Document{
			ID:      uuid.NewString(),
			Title:   art.Title,
			Source:  art.Source.Name,
			Author:  art.Author,
			URL:     art.URL,
			Date:    art.PublishedAt,
			Text:    strings.TrimSpace(art.Content),
			Summary: strings.TrimSpace(art.Description),
		})
	}

	return &SourceResult{
		Summary: SearchSummary{
			Query:        q.Text,
			DateRange:    fmt.Sprintf("%s to %s", start, end),
			TotalResults: len(docs),
		},
		Documents: docs,
	}, nil
}
