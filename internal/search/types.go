package search

import "context"

// Family groups source agents by the shape of data they return. It drives
// diagnostics only; the returned payload is uniform across families.
type Family string

const (
	FamilyGazette   Family = "gazette"
	FamilyNews      Family = "news"
	FamilyFinancial Family = "financial"
)

// collectionName maps an agent family to the name of its primary result
// collection, used purely for log lines.
var collectionName = map[Family]string{
	FamilyGazette:   "results",
	FamilyNews:      "articles",
	FamilyFinancial: "financial_data",
}

// Query is an immutable search request handed to every source agent.
type Query struct {
	Text      string `json:"text"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // YYYY-MM-DD
	DaysBack  int    `json:"days_back,omitempty"`
}

// SearchSummary describes one agent's search outcome. Present on every
// result, success or failure, so consumers never branch on its absence.
type SearchSummary struct {
	Query        string   `json:"query"`
	DateRange    string   `json:"date_range"`
	TotalResults int      `json:"total_results"`
	Errors       []string `json:"errors,omitempty"`
}

// Document is one risk-relevant item returned by a source agent.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
	Author  string `json:"author,omitempty"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
	Text    string `json:"text,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// FinancialSnapshot is the financial-data payload of the market agent.
type FinancialSnapshot struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name,omitempty"`
	Price          float64  `json:"price"`
	Currency       string   `json:"currency,omitempty"`
	Change3M       float64  `json:"change_3m_pct"`
	RiskIndicators []string `json:"risk_indicators,omitempty"`
	RiskScore      string   `json:"risk_score"`
}

// SourceResult is the uniform payload every source agent returns.
type SourceResult struct {
	Summary   SearchSummary      `json:"search_summary"`
	Documents []Document         `json:"documents,omitempty"`
	Financial *FinancialSnapshot `json:"financial_data,omitempty"`
}

// Envelope is one agent's slot in an aggregate result: the agent's payload,
// or the error that replaced it. A failed slot still carries a search
// summary with a zero result count.
type Envelope struct {
	Error     string             `json:"error,omitempty"`
	Summary   SearchSummary      `json:"search_summary"`
	Documents []Document         `json:"documents,omitempty"`
	Financial *FinancialSnapshot `json:"financial_data,omitempty"`
}

// Failed reports whether this slot holds an error instead of a payload.
func (e Envelope) Failed() bool { return e.Error != "" }

// SourceAgent is the single capability every provider implements.
// Search must not fail for "no results"; an empty result with a zero
// count is the expected answer. Genuine failures (network, auth, rate
// limits) are returned as errors and isolated by the orchestrator.
type SourceAgent interface {
	Search(ctx context.Context, q Query) (*SourceResult, error)
	Family() Family
}
