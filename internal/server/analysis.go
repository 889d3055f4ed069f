package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/vigia/internal/analysis"
	"github.com/mohammad-safakhou/vigia/internal/store"
	"github.com/mohammad-safakhou/vigia/models"
)

// AnalysisHandler exposes the model gateway operations over HTTP.
type AnalysisHandler struct {
	Gateway *analysis.Gateway
	Store   *store.Store
}

func (h *AnalysisHandler) Register(g *echo.Group) {
	g.POST("/classify", h.classify)
	g.POST("/generate", h.generate)
	g.POST("/analyze_company", h.analyzeCompany)
	g.POST("/classify_batch", h.classifyBatch)
	g.GET("/health", h.health)
}

func (h *AnalysisHandler) classify(c echo.Context) error {
	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.Gateway.ClassifyRisk(c.Request().Context(), models.ClassificationRequest{
		Text:    req.Text,
		Title:   req.Title,
		Source:  req.Source,
		Section: req.Section,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text, err := h.Gateway.Generate(c.Request().Context(), req.Prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GenerateResponse{Text: text, Model: h.Gateway.ModelName()})
}

func (h *AnalysisHandler) analyzeCompany(c echo.Context) error {
	var req AnalyzeCompanyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.Gateway.AnalyzeCompany(c.Request().Context(), req.CompanyName, req.CompanyData)
	if err != nil {
		return err
	}
	if h.Store != nil {
		// best effort; assessments are an audit trail, not a dependency
		_, _ = h.Store.SaveAssessment(c.Request().Context(), result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) classifyBatch(c echo.Context) error {
	var req ClassifyBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := h.Gateway.ClassifyBatch(c.Request().Context(), req.Documents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ClassifyBatchResponse{
		Classifications: results,
		Submitted:       len(req.Documents),
		Returned:        len(results),
	})
}

func (h *AnalysisHandler) health(c echo.Context) error {
	status := h.Gateway.Health(c.Request().Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
