package server

import (
	"github.com/mohammad-safakhou/vigia/internal/search"
	"github.com/mohammad-safakhou/vigia/models"
)

// HTTPError is the generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// SearchRequest asks for a company risk search over selected sources.
type SearchRequest struct {
	CompanyName string   `json:"company_name"`
	StartDate   string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     string   `json:"end_date,omitempty"`   // YYYY-MM-DD
	DaysBack    int      `json:"days_back,omitempty"`
	Agents      []string `json:"agents,omitempty"`
}

// SearchMetadata summarizes a search response.
type SearchMetadata struct {
	TotalResults    int      `json:"total_results"`
	HighRiskResults int      `json:"high_risk_results"`
	SourcesSearched []string `json:"sources_searched"`
	SourcesFailed   []string `json:"sources_failed,omitempty"`
}

// SearchPerformance reports timing and classifier routing for one search.
type SearchPerformance struct {
	TotalSeconds          float64 `json:"total_seconds"`
	SearchSeconds         float64 `json:"search_seconds"`
	ClassificationSeconds float64 `json:"classification_seconds"`
	KeywordHits           int     `json:"keyword_hits"`
	LLMCalls              int     `json:"llm_calls"`
}

// SearchResponse is the full payload of POST /api/search.
type SearchResponse struct {
	CompanyName string                      `json:"company_name"`
	SearchDate  string                      `json:"search_date"`
	DateRange   string                      `json:"date_range"`
	Results     []models.ClassifiedDocument `json:"results"`
	Financial   *search.FinancialSnapshot   `json:"financial_data,omitempty"`
	Metadata    SearchMetadata              `json:"metadata"`
	Performance SearchPerformance           `json:"performance"`
}

// ClassifyRequest is the payload of POST /api/analysis/classify.
type ClassifyRequest struct {
	Text    string `json:"text"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
}

// GenerateRequest is the payload of POST /api/analysis/generate.
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// GenerateResponse carries generated free text.
type GenerateResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// AnalyzeCompanyRequest is the payload of POST /api/analysis/analyze_company.
type AnalyzeCompanyRequest struct {
	CompanyName string         `json:"company_name"`
	CompanyData map[string]any `json:"company_data,omitempty"`
}

// ClassifyBatchRequest is the payload of POST /api/analysis/classify_batch.
type ClassifyBatchRequest struct {
	Documents []models.BatchDocument `json:"documents"`
}

// ClassifyBatchResponse carries the surviving batch classifications.
type ClassifyBatchResponse struct {
	Classifications []models.BatchClassification `json:"classifications"`
	Submitted       int                          `json:"submitted"`
	Returned        int                          `json:"returned"`
}
