package analysis

import (
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/vigia/models"
)

// The keyword gate classifies high-signal Spanish documents locally so
// only genuinely ambiguous text reaches the model. Patterns are compiled
// once at package init.

var (
	highLegalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(concurso de acreedores|administración concursal|suspensión de pagos|quiebra|insolvencia|liquidación)\b`),
		regexp.MustCompile(`(?i)\b(sentencia penal|proceso penal|delito societario|responsabilidad penal|inhabilitación)\b`),
		regexp.MustCompile(`(?i)\b(sanción grave|expediente sancionador|multa de [0-9]+|penalización)\b`),
		regexp.MustCompile(`(?i)\b(blanqueo de capitales|financiación del terrorismo|lavado de dinero)\b`),
		regexp.MustCompile(`(?i)\b(manipulación de mercado|abuso de mercado|uso de información privilegiada)\b`),
	}

	mediumRegPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(requerimiento|advertencia|apercibimiento|incumplimiento)\b`),
		regexp.MustCompile(`(?i)\b(expediente administrativo|procedimiento sancionador|resolución administrativa)\b`),
		regexp.MustCompile(`(?i)\b(sanción leve|sanción menor|multa menor)\b`),
		regexp.MustCompile(`(?i)\b(deficiencia|irregularidad|incumplimiento normativo)\b`),
	}

	lowOtherPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(circular|normativa|regulación|supervisión)\b`),
		regexp.MustCompile(`(?i)\b(autorización|licencia|registro|inscripción)\b`),
	}

	nonLegalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(fútbol|deportes|entretenimiento|espectáculos|cultura|turismo)\b`),
		regexp.MustCompile(`(?i)\b(beneficios|facturación|crecimiento|expansión|inversión|dividendos)\b`),
		regexp.MustCompile(`(?i)\b(premio|reconocimiento|galardón|distinción)\b`),
	}

	// Gazette section codes published by supervisors and courts.
	highRiskSections = map[string]bool{
		"JUS": true, "CNMC": true, "AEPD": true, "CNMV": true,
		"BDE": true, "DGSFP": true, "SEPBLAC": true,
	}

	legalContentDetector = regexp.MustCompile(`(?i)\b(tribunal|juzgado|sentencia|proceso|expediente|sanción|multa|infracción|normativ|regulación)\b`)
)

// KeywordGate tries to classify title+text without touching the model.
// The second return is false when no pattern fires and the document must
// go to the model (or the non-legal default).
func KeywordGate(title, text, section string) (models.ClassificationResult, bool) {
	full := strings.TrimSpace(title + " " + text)

	if section != "" {
		upper := strings.ToUpper(section)
		for code := range highRiskSections {
			if strings.Contains(upper, code) {
				return models.ClassificationResult{
					Label:      string(models.LabelHighLegal),
					Confidence: 0.95,
					Method:     "keyword_section",
					Reason:     "High-risk section: " + section,
				}, true
			}
		}
	}

	// Obvious non-legal content is eliminated before the risk patterns
	// so a sports story mentioning "registro" does not get flagged.
	for _, re := range nonLegalPatterns {
		if m := re.FindString(full); m != "" {
			return models.ClassificationResult{
				Label:      string(models.LabelLowOther),
				Confidence: 0.90,
				Method:     "keyword_no_legal",
				Reason:     "Non-legal content detected: " + m,
			}, true
		}
	}

	rules := []struct {
		patterns   []*regexp.Regexp
		label      models.RiskLabel
		confidence float64
		method     string
		prefix     string
	}{
		{highLegalPatterns, models.LabelHighLegal, 0.92, "keyword_high_legal", "High-risk keyword: "},
		{mediumRegPatterns, models.LabelMediumReg, 0.87, "keyword_medium_reg", "Medium-risk keyword: "},
		{lowOtherPatterns, models.LabelLowOther, 0.82, "keyword_low_other", "Low-risk keyword: "},
	}
	for _, rule := range rules {
		for _, re := range rule.patterns {
			if m := re.FindString(full); m != "" {
				return models.ClassificationResult{
					Label:      string(rule.label),
					Confidence: rule.confidence,
					Method:     rule.method,
					Reason:     rule.prefix + m,
				}, true
			}
		}
	}

	return models.ClassificationResult{}, false
}

// LooksLegal reports whether ungated text carries any legal vocabulary
// worth a model call.
func LooksLegal(text string) bool {
	return legalContentDetector.MatchString(text)
}

// DefaultClassification is the quick answer for text with no legal
// indicators at all.
func DefaultClassification() models.ClassificationResult {
	return models.ClassificationResult{
		Label:      string(models.LabelLowOther),
		Confidence: 0.8,
		Method:     "hybrid_default",
		Reason:     "No legal indicators detected",
	}
}
