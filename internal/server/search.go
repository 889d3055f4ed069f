package server

import (
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/vigia/internal/analysis"
	"github.com/mohammad-safakhou/vigia/internal/search"
	"github.com/mohammad-safakhou/vigia/internal/store"
	"github.com/mohammad-safakhou/vigia/internal/telemetry"
	"github.com/mohammad-safakhou/vigia/models"
)

// SearchHandler runs the company risk pipeline: fan-out search, hybrid
// classification, best-effort persistence.
type SearchHandler struct {
	Orch    *search.Orchestrator
	Gateway *analysis.Gateway
	Store   *store.Store
	Logger  *log.Logger
	Tele    *telemetry.Telemetry
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/search", h.search)
	g.GET("/search/agents", h.agents)
}

func (h *SearchHandler) agents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"agents": h.Orch.Agents()})
}

func (h *SearchHandler) search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CompanyName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "company_name is required")
	}

	ctx := c.Request().Context()
	overallStart := time.Now()
	q := search.Query{
		Text:      req.CompanyName,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		DaysBack:  req.DaysBack,
	}

	searchStart := time.Now()
	envelopes := h.Orch.SearchAll(ctx, q, req.Agents)
	searchTime := time.Since(searchStart)

	var (
		searched  []string
		failed    []string
		docs      []search.Document
		financial *search.FinancialSnapshot
	)
	names := make([]string, 0, len(envelopes))
	for name := range envelopes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env := envelopes[name]
		searched = append(searched, name)
		if env.Failed() {
			failed = append(failed, name)
			continue
		}
		docs = append(docs, env.Documents...)
		if financial == nil && env.Financial != nil {
			financial = env.Financial
		}
	}

	classifyStart := time.Now()
	classified := make([]models.ClassifiedDocument, 0, len(docs))
	keywordHits, llmCalls := 0, 0
	for _, doc := range docs {
		result, viaKeyword := h.classifyDoc(c, doc)
		if viaKeyword {
			keywordHits++
		} else {
			llmCalls++
		}
		classified = append(classified, models.ClassifiedDocument{
			Source:       doc.Source,
			Date:         doc.Date,
			Title:        doc.Title,
			Summary:      doc.Summary,
			URL:          doc.URL,
			Section:      doc.Section,
			RiskLevel:    result.Label,
			Confidence:   result.Confidence,
			Method:       result.Method,
			Reason:       result.Reason,
			ClassifiedAt: time.Now().UTC(),
		})
	}
	classifyTime := time.Since(classifyStart)

	// most recent first
	sort.SliceStable(classified, func(i, j int) bool { return classified[i].Date > classified[j].Date })

	h.persist(c, req.CompanyName, docs, classified)

	highRisk := 0
	for _, d := range classified {
		if d.RiskLevel == string(models.LabelHighLegal) {
			highRisk++
		}
	}

	return c.JSON(http.StatusOK, SearchResponse{
		CompanyName: req.CompanyName,
		SearchDate:  time.Now().UTC().Format(time.RFC3339),
		DateRange:   q.DateRange(time.Now()),
		Results:     classified,
		Financial:   financial,
		Metadata: SearchMetadata{
			TotalResults:    len(classified),
			HighRiskResults: highRisk,
			SourcesSearched: searched,
			SourcesFailed:   failed,
		},
		Performance: SearchPerformance{
			TotalSeconds:          time.Since(overallStart).Seconds(),
			SearchSeconds:         searchTime.Seconds(),
			ClassificationSeconds: classifyTime.Seconds(),
			KeywordHits:           keywordHits,
			LLMCalls:              llmCalls,
		},
	})
}

// classifyDoc runs the hybrid pipeline for one document. The keyword gate
// answers most documents; only legal-looking leftovers pay for a model
// call, and a failing model degrades to the non-legal default rather than
// failing the search.
func (h *SearchHandler) classifyDoc(c echo.Context, doc search.Document) (models.ClassificationResult, bool) {
	text := doc.Text
	if text == "" {
		text = doc.Summary
	}
	if result, ok := analysis.KeywordGate(doc.Title, text, doc.Section); ok {
		h.Tele.RecordGate(true)
		return result, true
	}
	h.Tele.RecordGate(false)
	if h.Gateway.Configured() && analysis.LooksLegal(doc.Title+" "+text) {
		result, err := h.Gateway.ClassifyRisk(c.Request().Context(), models.ClassificationRequest{
			Text:    text,
			Title:   doc.Title,
			Source:  doc.Source,
			Section: doc.Section,
		})
		if err == nil {
			return result, false
		}
		h.Logger.Printf("WARN model classification failed for %q: %v", doc.Title, err)
		return analysis.DefaultClassification(), false
	}
	return analysis.DefaultClassification(), true
}

// persist writes raw documents and classified events. Failures are logged
// and never fail the request.
func (h *SearchHandler) persist(c echo.Context, company string, docs []search.Document, classified []models.ClassifiedDocument) {
	if h.Store == nil {
		return
	}
	ctx := c.Request().Context()
	for _, doc := range docs {
		if _, err := h.Store.SaveRawDoc(ctx, doc); err != nil {
			h.Logger.Printf("WARN raw doc persist failed for %q: %v", doc.Title, err)
		}
	}
	for _, doc := range classified {
		if _, err := h.Store.SaveEvent(ctx, company, doc); err != nil {
			h.Logger.Printf("WARN event persist failed for %q: %v", doc.Title, err)
		}
	}
}
