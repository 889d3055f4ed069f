package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry records search and model call metrics.
type Telemetry struct {
	sourceSearches *prometheus.CounterVec
	sourceDocs     *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	llmCalls       *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
	gateHits       *prometheus.CounterVec
}

// New registers vigia metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use their own registry.
func New(reg prometheus.Registerer) *Telemetry {
	factory := promauto.With(reg)
	return &Telemetry{
		sourceSearches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_source_searches_total",
			Help: "Search invocations per source agent and outcome",
		}, []string{"agent", "outcome"}),
		sourceDocs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_source_documents_total",
			Help: "Documents returned per source agent",
		}, []string{"agent"}),
		sourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vigia_source_search_seconds",
			Help:    "Search latency per source agent",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"agent"}),
		llmCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_llm_calls_total",
			Help: "Model calls per operation and outcome",
		}, []string{"operation", "outcome"}),
		llmDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vigia_llm_call_seconds",
			Help:    "Model call latency per operation",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"operation"}),
		gateHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_keyword_gate_total",
			Help: "Keyword gate classifications per outcome (hit or routed to llm)",
		}, []string{"outcome"}),
	}
}

// RecordSearch records one source agent invocation.
func (t *Telemetry) RecordSearch(agent string, docs int, err error, d time.Duration) {
	if t == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	t.sourceSearches.WithLabelValues(agent, outcome).Inc()
	t.sourceDocs.WithLabelValues(agent).Add(float64(docs))
	t.sourceDuration.WithLabelValues(agent).Observe(d.Seconds())
}

// RecordLLMCall records one model backend invocation.
func (t *Telemetry) RecordLLMCall(operation string, err error, d time.Duration) {
	if t == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	t.llmCalls.WithLabelValues(operation, outcome).Inc()
	t.llmDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordGate records a keyword gate decision.
func (t *Telemetry) RecordGate(hit bool) {
	if t == nil {
		return
	}
	if hit {
		t.gateHits.WithLabelValues("hit").Inc()
	} else {
		t.gateHits.WithLabelValues("llm").Inc()
	}
}
