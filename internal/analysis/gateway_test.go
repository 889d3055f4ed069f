package analysis

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/mohammad-safakhou/vigia/config"
	"github.com/mohammad-safakhou/vigia/models"
)

// fakeModel returns canned responses in order, cycling on the last one.
type fakeModel struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeModel) GenerateContent(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.responses[i], err
}

func (f *fakeModel) Name() string { return "fake" }

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		MaxAttempts:   3,
		BackoffBase:   time.Millisecond,
		BackoffCap:    2 * time.Millisecond,
		MaxTokens:     100,
		MaxConcurrent: 2,
	}
}

func newTestGateway(model TextModel) *Gateway {
	return NewGateway(model, testConfig(), log.New(io.Discard, "", 0), nil)
}

func TestClassifyEmptyTextRejectedBeforeAnyCall(t *testing.T) {
	model := &fakeModel{responses: []string{"{}"}}
	g := newTestGateway(model)
	_, err := g.ClassifyRisk(context.Background(), models.ClassificationRequest{Text: "   "})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if model.calls != 0 {
		t.Fatalf("expected 0 model calls, got %d", model.calls)
	}
}

func TestClassifyWithoutModelFailsFast(t *testing.T) {
	g := newTestGateway(nil)
	_, err := g.ClassifyRisk(context.Background(), models.ClassificationRequest{Text: "concurso"})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestClassifySuccess(t *testing.T) {
	model := &fakeModel{responses: []string{`{"label": "High-Legal", "reason": "concurso de acreedores", "confidence": 0.93}`}}
	g := newTestGateway(model)
	result, err := g.ClassifyRisk(context.Background(), models.ClassificationRequest{Text: "concurso", Source: "BOE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != "High-Legal" {
		t.Fatalf("expected label %q, got %q", "High-Legal", result.Label)
	}
	if result.Method != "gemini_analysis" {
		t.Fatalf("expected method %q, got %q", "gemini_analysis", result.Method)
	}
	if model.calls != 1 {
		t.Fatalf("expected 1 model call, got %d", model.calls)
	}
}

func TestClassifyRetriesThenSucceeds(t *testing.T) {
	boom := errors.New("upstream 500")
	model := &fakeModel{
		responses: []string{"", "", `{"label": "Low-Other", "reason": "rutinario", "confidence": 0.6}`},
		errs:      []error{boom, boom, nil},
	}
	g := newTestGateway(model)
	result, err := g.ClassifyRisk(context.Background(), models.ClassificationRequest{Text: "registro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.calls != 3 {
		t.Fatalf("expected 3 model calls, got %d", model.calls)
	}
	if result.Label != "Low-Other" {
		t.Fatalf("expected label %q, got %q", "Low-Other", result.Label)
	}
}

func TestClassifyExhaustsRetryBudget(t *testing.T) {
	boom := errors.New("upstream 500")
	model := &fakeModel{responses: []string{""}, errs: []error{boom}}
	g := newTestGateway(model)
	_, err := g.ClassifyRisk(context.Background(), models.ClassificationRequest{Text: "registro"})
	if err == nil {
		t.Fatalf("expected error after exhausted retries")
	}
	if model.calls != 3 {
		t.Fatalf("expected exactly 3 model calls, got %d", model.calls)
	}
}

func TestClassifyUnparseableFallsBackWithoutRetry(t *testing.T) {
	model := &fakeModel{responses: []string{"lo siento, no puedo responder en JSON"}}
	g := newTestGateway(model)
	result, err := g.ClassifyRisk(context.Background(), models.ClassificationRequest{Text: "registro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("parse failures must not retry; expected 1 call, got %d", model.calls)
	}
	if result.Label != "Unknown" || result.Method != "gemini_error" || result.Confidence != 0.0 {
		t.Fatalf("expected fallback record, got %+v", result)
	}
}

func TestGenerateValidation(t *testing.T) {
	g := newTestGateway(&fakeModel{responses: []string{"hola"}})
	if _, err := g.Generate(context.Background(), "  ", 0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	text, err := g.Generate(context.Background(), "saluda", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hola" {
		t.Fatalf("expected %q, got %q", "hola", text)
	}
}

func TestAnalyzeCompanyFallsBackAllGreen(t *testing.T) {
	model := &fakeModel{responses: []string{"texto sin estructura alguna"}}
	g := newTestGateway(model)
	result, err := g.AnalyzeCompany(context.Background(), "Acme SA", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence != 0.5 || result.Methodology != "gemini_fallback" {
		t.Fatalf("expected fallback analysis, got %+v", result)
	}
	for category, color := range result.RiskAssessment {
		if color != "green" {
			t.Fatalf("expected %s green, got %q", category, color)
		}
	}
	if result.AnalysisMethod != "cloud_gemini" {
		t.Fatalf("expected analysis method %q, got %q", "cloud_gemini", result.AnalysisMethod)
	}
}

func TestAnalyzeCompanySuccess(t *testing.T) {
	model := &fakeModel{responses: []string{`{
		"company_name": "Acme SA",
		"risk_assessment": {"turnover": "orange", "shareholding": "green", "bankruptcy": "red", "legal": "red", "corruption": "green", "overall": "red"},
		"analysis_summary": "riesgo elevado",
		"confidence": 0.82,
		"methodology": "gemini_comprehensive_analysis"
	}`}}
	g := newTestGateway(model)
	result, err := g.AnalyzeCompany(context.Background(), "Acme SA", map[string]any{"sector": "construcción"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RiskAssessment["bankruptcy"] != "red" {
		t.Fatalf("expected bankruptcy red, got %q", result.RiskAssessment["bankruptcy"])
	}
	if result.AnalysisMethod != "cloud_gemini" {
		t.Fatalf("expected analysis method %q, got %q", "cloud_gemini", result.AnalysisMethod)
	}
}

func TestClassifyBatchDropsInvalidElements(t *testing.T) {
	model := &fakeModel{responses: []string{`[
		{"category": "legal", "label": "red", "confidence": 0.9, "reason": "demanda", "method": "cloud_gemini_analysis"},
		{"category": "astrology", "label": "red", "confidence": 0.9, "reason": "??", "method": "cloud_gemini_analysis"},
		{"category": "financial", "label": "green", "confidence": 0.4, "reason": "estable", "method": "cloud_gemini_analysis"}
	]`}}
	g := newTestGateway(model)
	docs := []models.BatchDocument{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	results, err := g.ClassifyBatch(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 surviving elements, got %d", len(results))
	}
	if results[0].Category != "legal" || results[1].Category != "financial" {
		t.Fatalf("expected order preserved, got %+v", results)
	}
}

func TestClassifyBatchUnparseableIsMalformed(t *testing.T) {
	model := &fakeModel{responses: []string{"no hay lista aquí"}}
	g := newTestGateway(model)
	_, err := g.ClassifyBatch(context.Background(), []models.BatchDocument{{Text: "a"}})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClassifyBatchEmptyRejected(t *testing.T) {
	g := newTestGateway(&fakeModel{responses: []string{"[]"}})
	if _, err := g.ClassifyBatch(context.Background(), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestHealthWithoutModel(t *testing.T) {
	g := newTestGateway(nil)
	status := g.Health(context.Background())
	if status.Status != "unhealthy" || status.APIKeyConfigured {
		t.Fatalf("unexpected health: %+v", status)
	}
}

func TestHealthWithModel(t *testing.T) {
	g := newTestGateway(&fakeModel{responses: []string{"OK"}})
	status := g.Health(context.Background())
	if status.Status != "healthy" || !status.ModelAvailable {
		t.Fatalf("unexpected health: %+v", status)
	}
	if status.TestResponse != "OK" {
		t.Fatalf("expected test response %q, got %q", "OK", status.TestResponse)
	}
}
