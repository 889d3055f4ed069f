package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/vigia/config"
	"github.com/mohammad-safakhou/vigia/internal/telemetry"
	"github.com/mohammad-safakhou/vigia/models"
)

// Gateway owns the model handle and exposes the typed classification and
// analysis operations. Every model call runs inside a bounded
// retry-with-backoff loop and through a bounded worker pool, so a burst
// of requests cannot pile unlimited blocking calls onto the backend.
type Gateway struct {
	model  TextModel
	logger *log.Logger
	tele   *telemetry.Telemetry

	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	maxTokens   int
	temperature float64

	workers chan struct{}
}

// NewGateway wires the gateway. A nil model is allowed: the gateway comes
// up, and every operation fails fast with ErrServiceUnavailable until a
// credential is configured.
func NewGateway(model TextModel, cfg config.LLMConfig, logger *log.Logger, tele *telemetry.Telemetry) *Gateway {
	if logger == nil {
		logger = log.New(log.Writer(), "[GEMINI] ", log.LstdFlags)
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = 4 * time.Second
	}
	ceiling := cfg.BackoffCap
	if ceiling < base {
		ceiling = 10 * time.Second
	}
	concurrent := cfg.MaxConcurrent
	if concurrent <= 0 {
		concurrent = 4
	}
	return &Gateway{
		model:       model,
		logger:      logger,
		tele:        tele,
		maxAttempts: attempts,
		backoffBase: base,
		backoffCap:  ceiling,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		workers:     make(chan struct{}, concurrent),
	}
}

// Configured reports whether a model handle is available.
func (g *Gateway) Configured() bool { return g.model != nil }

// ModelName returns the backend model identifier, or empty when not
// configured.
func (g *Gateway) ModelName() string {
	if g.model == nil {
		return ""
	}
	return g.model.Name()
}

// generate performs one model call through the worker pool.
func (g *Gateway) generate(ctx context.Context, operation, prompt string, opts GenerationOptions) (string, error) {
	select {
	case g.workers <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-g.workers }()

	started := time.Now()
	text, err := g.model.GenerateContent(ctx, prompt, opts)
	g.tele.RecordLLMCall(operation, err, time.Since(started))
	return text, err
}

// generateWithRetry runs generate under the retry budget: up to
// maxAttempts calls, sleeping base*2^(n-1) (capped) between attempts.
// The last failure is surfaced when the budget is exhausted.
func (g *Gateway) generateWithRetry(ctx context.Context, operation, prompt string, opts GenerationOptions) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(g.backoffDelay(attempt - 1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		text, err := g.generate(ctx, operation, prompt, opts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		g.logger.Printf("WARN %s attempt %d/%d failed: %v", operation, attempt, g.maxAttempts, err)
	}
	return "", fmt.Errorf("%s failed after %d attempts: %w", operation, g.maxAttempts, lastErr)
}

func (g *Gateway) backoffDelay(retries int) time.Duration {
	d := g.backoffBase << (retries - 1)
	if d > g.backoffCap {
		d = g.backoffCap
	}
	return d
}

// ClassifyRisk classifies one document into the four-label D&O taxonomy.
// Call failures after the retry budget propagate; a successful call with
// unusable output degrades to the Unknown fallback record instead.
func (g *Gateway) ClassifyRisk(ctx context.Context, req models.ClassificationRequest) (models.ClassificationResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return models.ClassificationResult{}, fmt.Errorf("%w: text cannot be empty", ErrInvalidArgument)
	}
	if g.model == nil {
		return models.ClassificationResult{}, ErrServiceUnavailable
	}

	g.logger.Printf("classifying document from %s", req.Source)

	text, err := g.generateWithRetry(ctx, "classify", classifyPrompt(req), g.defaultOptions())
	if err != nil {
		return models.ClassificationResult{}, err
	}

	obj, ok := ExtractObject(text)
	if !ok {
		g.logger.Printf("WARN unparseable classify response: %.200s", text)
		return fallbackClassification(), nil
	}
	result, ok := ValidateClassification(obj)
	if !ok {
		g.logger.Printf("WARN invalid classify response: %.200s", text)
		return fallbackClassification(), nil
	}
	result.Method = "gemini_analysis"
	return result, nil
}

// Generate produces free text for an arbitrary prompt.
func (g *Gateway) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidArgument)
	}
	if g.model == nil {
		return "", ErrServiceUnavailable
	}
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}
	return g.generateWithRetry(ctx, "generate", prompt, GenerationOptions{MaxTokens: maxTokens, Temperature: temperature})
}

// AnalyzeCompany produces a company-level risk assessment over the fixed
// category set. Unusable model output degrades to the deterministic
// all-green fallback so callers always receive a structurally valid
// assessment.
func (g *Gateway) AnalyzeCompany(ctx context.Context, companyName string, companyData map[string]any) (models.CompanyAnalysis, error) {
	if strings.TrimSpace(companyName) == "" {
		return models.CompanyAnalysis{}, fmt.Errorf("%w: company name cannot be empty", ErrInvalidArgument)
	}
	if g.model == nil {
		return models.CompanyAnalysis{}, ErrServiceUnavailable
	}

	g.logger.Printf("analyzing company: %s", companyName)

	prompt := analyzeCompanyPrompt(companyName, companyContext(companyData))
	text, err := g.generateWithRetry(ctx, "analyze_company", prompt, g.defaultOptions())
	if err != nil {
		return models.CompanyAnalysis{}, err
	}

	obj, ok := ExtractObject(text)
	if !ok {
		g.logger.Printf("WARN unparseable analysis response: %.200s", text)
		return fallbackAnalysis(companyName), nil
	}
	result, ok := ValidateCompanyAnalysis(obj)
	if !ok {
		g.logger.Printf("WARN invalid analysis response: %.200s", text)
		return fallbackAnalysis(companyName), nil
	}
	result.AnalysisMethod = "cloud_gemini"
	return result, nil
}

// ClassifyBatch classifies several documents in one model call. Elements
// that fail schema validation are dropped from the output; the caller
// observes the drop as a shorter result sequence. An unparseable batch
// response propagates as ErrMalformedResponse, since there is no
// per-element fallback that would preserve document correspondence.
func (g *Gateway) ClassifyBatch(ctx context.Context, docs []models.BatchDocument) ([]models.BatchClassification, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents provided", ErrInvalidArgument)
	}
	if g.model == nil {
		return nil, ErrServiceUnavailable
	}

	text, err := g.generateWithRetry(ctx, "classify_batch", batchClassifyPrompt(docs), g.defaultOptions())
	if err != nil {
		return nil, err
	}

	list, ok := ExtractList(text)
	if !ok {
		g.logger.Printf("WARN unparseable batch response: %.200s", text)
		return nil, fmt.Errorf("%w: batch response not a JSON list", ErrMalformedResponse)
	}

	validated := make([]models.BatchClassification, 0, len(list))
	for i, element := range list {
		result, ok := ValidateBatchElement(element)
		if !ok {
			g.logger.Printf("WARN dropping invalid batch element %d: %v", i, element)
			continue
		}
		validated = append(validated, result)
	}
	return validated, nil
}

// Health probes the model with a one-line generation and reports
// availability.
func (g *Gateway) Health(ctx context.Context) models.HealthStatus {
	if g.model == nil {
		return models.HealthStatus{
			Status:           "unhealthy",
			APIKeyConfigured: false,
			ModelAvailable:   false,
			Error:            "API key or model not configured",
		}
	}

	text, err := g.generate(ctx, "health", "Test: Say 'OK'", GenerationOptions{MaxTokens: 16})
	if err != nil || strings.TrimSpace(text) == "" {
		msg := "model test failed"
		if err != nil {
			msg = err.Error()
		}
		return models.HealthStatus{
			Status:           "unhealthy",
			APIKeyConfigured: true,
			ModelAvailable:   false,
			ModelName:        g.model.Name(),
			Error:            msg,
		}
	}
	return models.HealthStatus{
		Status:           "healthy",
		APIKeyConfigured: true,
		ModelAvailable:   true,
		ModelName:        g.model.Name(),
		TestResponse:     strings.TrimSpace(text),
	}
}

func (g *Gateway) defaultOptions() GenerationOptions {
	return GenerationOptions{MaxTokens: g.maxTokens, Temperature: g.temperature}
}
