package analysis

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/vigia/models"
)

const (
	// classification prompts embed at most this many runes of document text
	classifyTextLimit = 1500
	// company analysis prompts get a slightly larger context window
	analysisTextLimit = 2000
)

// truncateRunes bounds s to n runes so prompt size stays predictable
// regardless of input document length.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func classifyPrompt(req models.ClassificationRequest) string {
	section := req.Section
	if section == "" {
		section = "N/A"
	}
	text := req.Text
	if text == "" {
		text = "N/A"
	}
	return fmt.Sprintf(`Analiza este documento para riesgos D&O:

FUENTE: %s
SECCIÓN: %s
TÍTULO: %s
TEXTO: %s

Clasifica el riesgo para directivos/administradores españoles:

- High-Legal: Concurso acreedores, sentencia penal firme, inhabilitación directivos, delitos societarios
- Medium-Reg: Sanción administrativa, multa regulatoria, expediente sancionador, infracciones graves
- Low-Other: Nombramientos, procedimientos rutinarios, administración general
- Unknown: Información insuficiente

Responde SOLO en formato JSON:
{"label": "High-Legal|Medium-Reg|Low-Other|Unknown", "reason": "explicación breve", "confidence": 0.0-1.0}`,
		req.Source, section, req.Title, truncateRunes(text, classifyTextLimit))
}

func analyzeCompanyPrompt(companyName, context string) string {
	return fmt.Sprintf(`Realiza un análisis completo de riesgos D&O para la empresa: %s

INFORMACIÓN DISPONIBLE:
%s

Analiza los siguientes riesgos para directivos y administradores:

1. FACTURACIÓN (turnover): Problemas financieros, pérdidas, crisis de liquidez
2. PARTICIPACIONES (shareholding): Cambios accionariales significativos, adquisiciones, fusiones
3. CONCURSO DE ACREEDORES (bankruptcy): Insolvencia, concurso, suspensión de pagos
4. PROCEDIMIENTOS JUDICIALES (legal): Demandas, sentencias, investigaciones judiciales
5. CORRUPCIÓN (corruption): Fraude, soborno, blanqueo, delitos económicos

Para cada categoría, clasifica el riesgo como:
- red: Riesgo alto, evidencia clara de problemas
- orange: Riesgo medio, indicios preocupantes
- green: Riesgo bajo, sin evidencia de problemas

Responde SOLO en formato JSON:
{
    "company_name": "%s",
    "risk_assessment": {
        "turnover": "green|orange|red",
        "shareholding": "green|orange|red",
        "bankruptcy": "green|orange|red",
        "legal": "green|orange|red",
        "corruption": "green|orange|red",
        "overall": "green|orange|red"
    },
    "analysis_summary": "Resumen del análisis en español",
    "confidence": 0.0-1.0,
    "methodology": "gemini_comprehensive_analysis"
}`, companyName, truncateRunes(context, analysisTextLimit), companyName)
}

// companyContext flattens the free-form company data into prompt text.
// The "search_results" key, when present, is rendered as one line per
// result; remaining string values are appended as key: value lines.
func companyContext(companyData map[string]any) string {
	var b strings.Builder
	if results, ok := companyData["search_results"].([]any); ok {
		for _, entry := range results {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			title, _ := m["title"].(string)
			source, _ := m["source"].(string)
			fmt.Fprintf(&b, "[%s] %s\n", source, title)
		}
	}
	for key, value := range companyData {
		if key == "search_results" {
			continue
		}
		if s, ok := value.(string); ok {
			fmt.Fprintf(&b, "%s: %s\n", key, s)
		}
	}
	return b.String()
}

func batchClassifyPrompt(docs []models.BatchDocument) string {
	var lines []string
	for i, doc := range docs {
		lines = append(lines, fmt.Sprintf("Documento %d:\nTÍTULO: %s\nTEXTO: %s\nSECCIÓN: %s\nFUENTE: %s\n",
			i+1, doc.Title, truncateRunes(doc.Text, classifyTextLimit), doc.Section, doc.Source))
	}
	return fmt.Sprintf(`Analiza cada uno de los siguientes documentos para riesgos D&O. Para cada documento, responde SOLO en formato JSON con los siguientes campos:
- category: Una de ['legal', 'financial', 'regulatory', 'shareholding', 'dismissals', 'environmental', 'operational']
- label: 'red', 'amber', o 'green' (tráfico)
- confidence: número entre 0.0 y 1.0
- reason: explicación breve
- method: 'cloud_gemini_analysis'

Ejemplo de salida para cada documento:
{"category": "shareholding", "label": "red", "confidence": 0.91, "reason": "Board members exited following activist investor pressure", "method": "cloud_gemini_analysis"}

Documentos:
%s

Responde con una lista JSON, un objeto por documento, en el mismo orden.`, strings.Join(lines, "\n"))
}
