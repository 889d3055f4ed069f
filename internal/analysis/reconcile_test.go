package analysis

import "testing"

func TestExtractObjectPlainJSON(t *testing.T) {
	obj, ok := ExtractObject(`{"label": "High-Legal", "reason": "concurso", "confidence": 0.9}`)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if obj["label"] != "High-Legal" {
		t.Fatalf("expected label %q, got %v", "High-Legal", obj["label"])
	}
}

func TestExtractObjectEmbeddedInProse(t *testing.T) {
	raw := "Claro, aquí está el JSON solicitado:\n```json\n{\"label\": \"Low-Other\", \"reason\": \"rutinario\", \"confidence\": 0.7}\n```\nEspero que ayude."
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if obj["label"] != "Low-Other" {
		t.Fatalf("expected label %q, got %v", "Low-Other", obj["label"])
	}
}

func TestExtractObjectTypographicQuotes(t *testing.T) {
	raw := `{“label”: “Medium-Reg”, “reason”: “multa”, “confidence”: 0.8}`
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatalf("expected quote repair to recover the object")
	}
	if obj["label"] != "Medium-Reg" {
		t.Fatalf("expected label %q, got %v", "Medium-Reg", obj["label"])
	}
}

func TestExtractObjectPythonLiteral(t *testing.T) {
	raw := `{'label': 'Unknown', 'reason': 'sin datos', 'confidence': 0.1, 'final': True, 'extra': None}`
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatalf("expected literal parse to recover the object")
	}
	if obj["label"] != "Unknown" {
		t.Fatalf("expected label %q, got %v", "Unknown", obj["label"])
	}
	if obj["final"] != true {
		t.Fatalf("expected True to become true, got %v", obj["final"])
	}
	if obj["extra"] != nil {
		t.Fatalf("expected None to become null, got %v", obj["extra"])
	}
}

func TestExtractObjectGarbage(t *testing.T) {
	if _, ok := ExtractObject("no structure here at all"); ok {
		t.Fatalf("expected garbage to fail")
	}
	if _, ok := ExtractObject("{broken: [}"); ok {
		t.Fatalf("expected broken structure to fail")
	}
}

func TestExtractListWrapsSingleObject(t *testing.T) {
	list, ok := ExtractList(`{"category": "legal", "label": "red", "confidence": 0.9, "reason": "x", "method": "m"}`)
	if !ok {
		t.Fatalf("expected single object to be accepted")
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 element, got %d", len(list))
	}
}

func TestExtractListFromProse(t *testing.T) {
	raw := "Resultados:\n[{\"category\": \"legal\", \"label\": \"red\", \"confidence\": 0.9, \"reason\": \"a\", \"method\": \"m\"}, {\"category\": \"financial\", \"label\": \"green\", \"confidence\": 0.5, \"reason\": \"b\", \"method\": \"m\"}]\nFin."
	list, ok := ExtractList(raw)
	if !ok {
		t.Fatalf("expected list extraction to succeed")
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(list))
	}
}

func TestValidateClassificationRejectsOutOfRangeConfidence(t *testing.T) {
	_, ok := ValidateClassification(map[string]any{
		"label": "High-Legal", "reason": "x", "confidence": 1.4,
	})
	if ok {
		t.Fatalf("expected confidence 1.4 to be rejected")
	}
}

func TestValidateClassificationRejectsUnknownLabel(t *testing.T) {
	_, ok := ValidateClassification(map[string]any{
		"label": "Critical", "reason": "x", "confidence": 0.9,
	})
	if ok {
		t.Fatalf("expected unknown label to be rejected")
	}
}

func TestValidateClassificationAccepts(t *testing.T) {
	result, ok := ValidateClassification(map[string]any{
		"label": "Medium-Reg", "reason": "multa", "confidence": 0.85,
	})
	if !ok {
		t.Fatalf("expected valid object to pass")
	}
	if result.Label != "Medium-Reg" || result.Confidence != 0.85 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestValidateCompanyAnalysisCoercesBadColors(t *testing.T) {
	result, ok := ValidateCompanyAnalysis(map[string]any{
		"company_name": "Acme SA",
		"risk_assessment": map[string]any{
			"turnover": "red", "legal": "purple",
		},
		"analysis_summary": "resumen",
		"confidence":       0.7,
		"methodology":      "gemini_comprehensive_analysis",
	})
	if !ok {
		t.Fatalf("expected analysis to validate")
	}
	if result.RiskAssessment["turnover"] != "red" {
		t.Fatalf("expected turnover red, got %q", result.RiskAssessment["turnover"])
	}
	if result.RiskAssessment["legal"] != "green" {
		t.Fatalf("expected invalid color coerced to green, got %q", result.RiskAssessment["legal"])
	}
	if result.RiskAssessment["overall"] != "green" {
		t.Fatalf("expected missing category to default green, got %q", result.RiskAssessment["overall"])
	}
}

func TestValidateBatchElementEnums(t *testing.T) {
	if _, ok := ValidateBatchElement(map[string]any{
		"category": "astrology", "label": "red", "confidence": 0.9, "reason": "x", "method": "m",
	}); ok {
		t.Fatalf("expected unknown category to be rejected")
	}
	if _, ok := ValidateBatchElement(map[string]any{
		"category": "legal", "label": "orange", "confidence": 0.9, "reason": "x", "method": "m",
	}); ok {
		t.Fatalf("expected non-traffic label to be rejected")
	}
	result, ok := ValidateBatchElement(map[string]any{
		"category": "legal", "label": "amber", "confidence": 0.9, "reason": "x", "method": "m",
	})
	if !ok {
		t.Fatalf("expected valid element to pass")
	}
	if result.Label != "amber" {
		t.Fatalf("expected label amber, got %q", result.Label)
	}
}

func TestFallbackRecords(t *testing.T) {
	fc := fallbackClassification()
	if fc.Label != "Unknown" || fc.Confidence != 0.0 || fc.Method != "gemini_error" {
		t.Fatalf("unexpected classification fallback: %+v", fc)
	}
	fa := fallbackAnalysis("Acme SA")
	if fa.Confidence != 0.5 || fa.Methodology != "gemini_fallback" {
		t.Fatalf("unexpected analysis fallback: %+v", fa)
	}
	for _, category := range []string{"turnover", "shareholding", "bankruptcy", "legal", "corruption", "overall"} {
		if fa.RiskAssessment[category] != "green" {
			t.Fatalf("expected %s green, got %q", category, fa.RiskAssessment[category])
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("ñandú", 3); got != "ñan" {
		t.Fatalf("expected %q, got %q", "ñan", got)
	}
	if got := truncateRunes("corto", 100); got != "corto" {
		t.Fatalf("expected %q, got %q", "corto", got)
	}
}
