package analysis

import (
	"encoding/json"
	"strings"

	"github.com/mohammad-safakhou/vigia/models"
)

// The model is asked for strict JSON but does not always comply. The
// extractors below run a fixed sequence of increasingly tolerant parses
// and report "no result" instead of failing, so callers can substitute a
// fallback record.

// ExtractObject pulls a single JSON object out of raw model text.
func ExtractObject(raw string) (map[string]any, bool) {
	for _, candidate := range candidates(raw, '{', '}') {
		var obj map[string]any
		if json.Unmarshal([]byte(candidate), &obj) == nil {
			return obj, true
		}
	}
	return nil, false
}

// ExtractList pulls a JSON array of objects out of raw model text. A
// single object is accepted and wrapped, since the model occasionally
// answers a one-element batch without the surrounding array.
func ExtractList(raw string) ([]map[string]any, bool) {
	for _, candidate := range candidates(raw, '[', ']') {
		var list []map[string]any
		if json.Unmarshal([]byte(candidate), &list) == nil {
			return list, true
		}
	}
	if obj, ok := ExtractObject(raw); ok {
		return []map[string]any{obj}, true
	}
	return nil, false
}

// candidates builds the ordered parse attempts: the first balanced span,
// the whole text, then quote-repaired and literal-style variants of both.
func candidates(raw string, open, close byte) []string {
	var out []string
	if span, ok := balancedSpan(raw, open, close); ok {
		out = append(out, span)
	}
	out = append(out, raw)

	// repair typographic quotes only when the text actually carries
	// structural markers; plain prose is not worth re-parsing
	if strings.IndexByte(raw, open) >= 0 {
		n := len(out)
		for i := 0; i < n; i++ {
			out = append(out, repairQuotes(out[i]))
		}
		for i := 0; i < n; i++ {
			out = append(out, literalToJSON(out[i]))
		}
	}
	return out
}

// balancedSpan returns the substring from the first open delimiter to the
// last matching close delimiter, mirroring a greedy dot-all regex scan.
func balancedSpan(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

var quoteRepairer = strings.NewReplacer(
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"‘", `'`, // left single quotation mark
	"’", `'`, // right single quotation mark
)

func repairQuotes(s string) string {
	return quoteRepairer.Replace(s)
}

// literalToJSON rewrites Python-literal-style structures into JSON:
// single-quoted strings, True/False/None constants. It is a character
// transform followed by a normal JSON parse; nothing is evaluated.
func literalToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == quote {
				inString = false
				b.WriteByte('"')
				continue
			}
			if c == '"' && quote == '\'' {
				b.WriteString(`\"`)
				continue
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			inString = true
			quote = c
			b.WriteByte('"')
		case c == 'T' && strings.HasPrefix(s[i:], "True"):
			b.WriteString("true")
			i += 3
		case c == 'F' && strings.HasPrefix(s[i:], "False"):
			b.WriteString("false")
			i += 4
		case c == 'N' && strings.HasPrefix(s[i:], "None"):
			b.WriteString("null")
			i += 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// numericField reads a JSON number from a decoded map.
func numericField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// ValidateClassification checks a decoded object against the document
// classification schema. A result is only trusted when the label is one
// of the four fixed values and confidence is a number in [0,1].
func ValidateClassification(m map[string]any) (models.ClassificationResult, bool) {
	label, ok := stringField(m, "label")
	if !ok || !models.ValidRiskLabel(label) {
		return models.ClassificationResult{}, false
	}
	reason, ok := stringField(m, "reason")
	if !ok {
		return models.ClassificationResult{}, false
	}
	confidence, ok := numericField(m, "confidence")
	if !ok || confidence < 0 || confidence > 1 {
		return models.ClassificationResult{}, false
	}
	method, _ := stringField(m, "method")
	return models.ClassificationResult{
		Label:      label,
		Reason:     reason,
		Confidence: confidence,
		Method:     method,
	}, true
}

// ValidateCompanyAnalysis checks a decoded object against the company
// analysis schema.
func ValidateCompanyAnalysis(m map[string]any) (models.CompanyAnalysis, bool) {
	name, ok := stringField(m, "company_name")
	if !ok {
		return models.CompanyAnalysis{}, false
	}
	rawAssessment, ok := m["risk_assessment"].(map[string]any)
	if !ok {
		return models.CompanyAnalysis{}, false
	}
	summary, ok := stringField(m, "analysis_summary")
	if !ok {
		return models.CompanyAnalysis{}, false
	}
	confidence, ok := numericField(m, "confidence")
	if !ok || confidence < 0 || confidence > 1 {
		return models.CompanyAnalysis{}, false
	}
	methodology, ok := stringField(m, "methodology")
	if !ok {
		return models.CompanyAnalysis{}, false
	}

	assessment := make(map[string]string, len(models.RiskCategories))
	for _, category := range models.RiskCategories {
		color, _ := rawAssessment[category].(string)
		if color != string(models.ColorGreen) && color != string(models.ColorOrange) && color != string(models.ColorRed) {
			color = string(models.ColorGreen)
		}
		assessment[category] = color
	}

	return models.CompanyAnalysis{
		CompanyName:     name,
		RiskAssessment:  assessment,
		AnalysisSummary: summary,
		Confidence:      confidence,
		Methodology:     methodology,
	}, true
}

// ValidateBatchElement checks one element of a batch classification
// response. Elements failing validation are dropped by the caller.
func ValidateBatchElement(m map[string]any) (models.BatchClassification, bool) {
	category, ok := stringField(m, "category")
	if !ok || !models.ValidBatchCategory(category) {
		return models.BatchClassification{}, false
	}
	label, ok := stringField(m, "label")
	if !ok || !models.ValidTrafficLabel(label) {
		return models.BatchClassification{}, false
	}
	confidence, ok := numericField(m, "confidence")
	if !ok || confidence < 0 || confidence > 1 {
		return models.BatchClassification{}, false
	}
	reason, ok := stringField(m, "reason")
	if !ok {
		return models.BatchClassification{}, false
	}
	method, ok := stringField(m, "method")
	if !ok {
		return models.BatchClassification{}, false
	}
	return models.BatchClassification{
		Category:   category,
		Label:      label,
		Confidence: confidence,
		Reason:     reason,
		Method:     method,
	}, true
}

// fallbackClassification is the deterministic record substituted when a
// classification response cannot be parsed or validated.
func fallbackClassification() models.ClassificationResult {
	return models.ClassificationResult{
		Label:      string(models.LabelUnknown),
		Reason:     "Failed to parse model response",
		Confidence: 0.0,
		Method:     "gemini_error",
	}
}

// fallbackAnalysis is the deterministic all-green record substituted when
// a company analysis response cannot be parsed or validated.
func fallbackAnalysis(companyName string) models.CompanyAnalysis {
	assessment := make(map[string]string, len(models.RiskCategories))
	for _, category := range models.RiskCategories {
		assessment[category] = string(models.ColorGreen)
	}
	return models.CompanyAnalysis{
		CompanyName:     companyName,
		RiskAssessment:  assessment,
		AnalysisSummary: "Análisis automático de " + companyName + ". No se detectaron riesgos significativos.",
		Confidence:      0.5,
		Methodology:     "gemini_fallback",
		AnalysisMethod:  "cloud_gemini",
	}
}
