package models

import "time"

// RiskLabel is the document-level D&O risk classification.
type RiskLabel string

const (
	LabelHighLegal RiskLabel = "High-Legal"
	LabelMediumReg RiskLabel = "Medium-Reg"
	LabelLowOther  RiskLabel = "Low-Other"
	LabelUnknown   RiskLabel = "Unknown"
)

// ValidRiskLabel reports whether l is one of the four fixed labels.
func ValidRiskLabel(l string) bool {
	switch RiskLabel(l) {
	case LabelHighLegal, LabelMediumReg, LabelLowOther, LabelUnknown:
		return true
	}
	return false
}

// RiskColor is the per-category traffic light used in company assessments.
type RiskColor string

const (
	ColorGreen  RiskColor = "green"
	ColorOrange RiskColor = "orange"
	ColorRed    RiskColor = "red"
)

// RiskCategories are the fixed keys of a company risk assessment.
var RiskCategories = []string{"turnover", "shareholding", "bankruptcy", "legal", "corruption", "overall"}

// BatchCategories are the modular categories used by batch classification.
var BatchCategories = []string{"legal", "financial", "regulatory", "shareholding", "dismissals", "environmental", "operational"}

// ValidBatchCategory reports whether c is a known batch category.
func ValidBatchCategory(c string) bool {
	for _, v := range BatchCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidTrafficLabel reports whether l is a valid batch traffic light.
func ValidTrafficLabel(l string) bool {
	return l == "red" || l == "amber" || l == "green"
}

// ClassificationRequest is a single document submitted for risk classification.
type ClassificationRequest struct {
	Text    string `json:"text"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
}

// ClassificationResult is the validated outcome of classifying one document.
type ClassificationResult struct {
	Label      string  `json:"label"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// CompanyAnalysis is a full company-level risk assessment.
type CompanyAnalysis struct {
	CompanyName     string            `json:"company_name"`
	RiskAssessment  map[string]string `json:"risk_assessment"`
	AnalysisSummary string            `json:"analysis_summary"`
	Confidence      float64           `json:"confidence"`
	Methodology     string            `json:"methodology"`
	AnalysisMethod  string            `json:"analysis_method"`
}

// BatchDocument is one element of a batch classification request.
type BatchDocument struct {
	Text    string `json:"text"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
}

// BatchClassification is one validated element of a batch classification response.
type BatchClassification struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Method     string  `json:"method"`
}

// HealthStatus reports availability of the model backend.
type HealthStatus struct {
	Status           string `json:"status"`
	APIKeyConfigured bool   `json:"api_key_configured"`
	ModelAvailable   bool   `json:"model_available"`
	ModelName        string `json:"model_name,omitempty"`
	TestResponse     string `json:"test_response,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ClassifiedDocument is a search hit annotated with its risk classification.
type ClassifiedDocument struct {
	Source       string    `json:"source"`
	Date         string    `json:"date,omitempty"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary,omitempty"`
	URL          string    `json:"url,omitempty"`
	Section      string    `json:"section,omitempty"`
	RiskLevel    string    `json:"risk_level"`
	Confidence   float64   `json:"confidence"`
	Method       string    `json:"method"`
	Reason       string    `json:"reason,omitempty"`
	ClassifiedAt time.Time `json:"classified_at"`
}
