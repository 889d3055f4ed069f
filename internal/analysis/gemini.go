package analysis

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/vigia/config"
	"github.com/mohammad-safakhou/vigia/internal/search"
)

// TextModel is the single capability the gateway needs from a model
// backend. Implementations block until the model answers.
type TextModel interface {
	GenerateContent(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	Name() string
}

// GenerationOptions bound a single generation call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

// GeminiModel calls the Gemini generateContent API over HTTP.
type GeminiModel struct {
	apiKey   string
	endpoint string
	model    string
	http     *search.HTTPClient
}

// NewGeminiModel builds the model handle. Returns nil (not an error) when
// no API key is configured: startup proceeds and the gateway fails fast
// per call instead.
func NewGeminiModel(cfg config.LLMConfig) *GeminiModel {
	if cfg.APIKey == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &GeminiModel{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		// retries happen in the gateway's backoff loop, not here
		http: search.NewHTTPClient(timeout, 0, 0),
	}
}

func (m *GeminiModel) Name() string { return m.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

// request represents a generateContent request
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// response represents a generateContent response
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (m *GeminiModel) GenerateContent(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		req.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		m.endpoint, url.PathEscape(m.model), url.QueryEscape(m.apiKey))

	var resp geminiResponse
	if err := m.http.DoJSON(ctx, "POST", endpoint, nil, req, &resp); err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return b.String(), nil
}
