package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/vigia/config"
)

// YahooFinanceAgent resolves the company to a ticker symbol and derives
// risk indicators from recent market data. Symbol lookups are cached in
// redis; market data itself is fetched fresh on every search.
type YahooFinanceAgent struct {
	cfg  config.YahooFinanceConfig
	http *HTTPClient
	rdb  *redis.Client
}

func NewYahooFinanceAgent(cfg config.YahooFinanceConfig, httpc *HTTPClient, rdb *redis.Client) *YahooFinanceAgent {
	return &YahooFinanceAgent{cfg: cfg, http: httpc, rdb: rdb}
}

func (a *YahooFinanceAgent) Family() Family { return FamilyFinancial }

func (a *YahooFinanceAgent) Search(ctx context.Context, q Query) (*SourceResult, error) {
	start, end, err := q.Window(time.Now())
	if err != nil {
		return nil, err
	}
	summary := SearchSummary{
		Query:     q.Text,
		DateRange: fmt.Sprintf("%s to %s", start, end),
	}

	symbol, name, err := a.lookupSymbol(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	if symbol == "" {
		// unlisted companies are a normal outcome, not a failure
		return &SourceResult{Summary: summary}, nil
	}

	snapshot, err := a.fetchSnapshot(ctx, symbol, name)
	if err != nil {
		return nil, err
	}
	summary.TotalResults = 1
	return &SourceResult{Summary: summary, Financial: snapshot}, nil
}

const tickerCachePrefix = "vigia:ticker:"

// lookupSymbol resolves a company name to a ticker, consulting the redis
// cache first. A cached empty string records "not listed". Cache errors
// are tolerated; the lookup falls through to the API.
func (a *YahooFinanceAgent) lookupSymbol(ctx context.Context, company string) (symbol, name string, err error) {
	key := tickerCachePrefix + strings.ToLower(strings.TrimSpace(company))
	if a.rdb != nil {
		if cached, err := a.rdb.Get(ctx, key).Result(); err == nil {
			parts := strings.SplitN(cached, "|", 2)
			if len(parts) == 2 {
				return parts[0], parts[1], nil
			}
			return parts[0], "", nil
		}
	}

	var resp struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			Shortname string `json:"shortname"`
		} `json:"quotes"`
	}
	lookupURL := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=1", a.cfg.Endpoint, url.QueryEscape(company))
	if err := a.http.DoJSON(ctx, "GET", lookupURL, nil, nil, &resp); err != nil {
		return "", "", fmt.Errorf("ticker lookup: %w", err)
	}
	if len(resp.Quotes) > 0 {
		symbol = resp.Quotes[0].Symbol
		name = resp.Quotes[0].Shortname
	}

	if a.rdb != nil {
		ttl := a.cfg.TickerTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_ = a.rdb.Set(ctx, key, symbol+"|"+name, ttl).Err()
	}
	return symbol, name, nil
}

// fetchSnapshot pulls three months of daily closes and derives risk
// indicators from them.
func (a *YahooFinanceAgent) fetchSnapshot(ctx context.Context, symbol, name string) (*FinancialSnapshot, error) {
	var resp struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					Currency           string  `json:"currency"`
				} `json:"meta"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=3mo&interval=1d", a.cfg.Endpoint, url.PathEscape(symbol))
	if err := a.http.DoJSON(ctx, "GET", chartURL, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("market data for %s: %w", symbol, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no market data for %s", symbol)
	}

	result := resp.Chart.Result[0]
	snapshot := &FinancialSnapshot{
		Symbol:   symbol,
		Name:     name,
		Price:    result.Meta.RegularMarketPrice,
		Currency: result.Meta.Currency,
	}

	var closes []float64
	if len(result.Indicators.Quote) > 0 {
		for _, c := range result.Indicators.Quote[0].Close {
			if c > 0 {
				closes = append(closes, c)
			}
		}
	}
	if len(closes) >= 2 {
		first, last := closes[0], closes[len(closes)-1]
		snapshot.Change3M = (last - first) / first * 100
	}

	switch {
	case snapshot.Change3M <= -30:
		snapshot.RiskIndicators = append(snapshot.RiskIndicators, fmt.Sprintf("severe price decline: %.1f%% over 3 months", snapshot.Change3M))
	case snapshot.Change3M <= -15:
		snapshot.RiskIndicators = append(snapshot.RiskIndicators, fmt.Sprintf("significant price decline: %.1f%% over 3 months", snapshot.Change3M))
	}
	if maxDrawdown(closes) >= 0.25 {
		snapshot.RiskIndicators = append(snapshot.RiskIndicators, "drawdown above 25% within the window")
	}

	switch {
	case len(snapshot.RiskIndicators) >= 2:
		snapshot.RiskScore = "red"
	case len(snapshot.RiskIndicators) == 1:
		snapshot.RiskScore = "orange"
	default:
		snapshot.RiskScore = "green"
	}
	return snapshot, nil
}

// maxDrawdown returns the largest peak-to-trough decline as a fraction.
func maxDrawdown(closes []float64) float64 {
	var peak, worst float64
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			dd := (peak - c) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
