package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/vigia/config"
)

// BOEAgent searches the Spanish official gazette (BOE) by walking the
// daily summaries inside the query window and matching titles.
type BOEAgent struct {
	cfg  config.BOEConfig
	http *HTTPClient
}

func NewBOEAgent(cfg config.BOEConfig, httpc *HTTPClient) *BOEAgent {
	return &BOEAgent{cfg: cfg, http: httpc}
}

func (a *BOEAgent) Family() Family { return FamilyGazette }

// boeItemList tolerates the API's habit of returning a single object
// where a list is expected.
type boeItemList []boeItem

func (l *boeItemList) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, (*[]boeItem)(l))
	}
	var one boeItem
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*l = boeItemList{one}
	return nil
}

type boeItem struct {
	Identificador string `json:"identificador"`
	Titulo        string `json:"titulo"`
	URLHTML       string `json:"url_html"`
	URLXML        string `json:"url_xml"`
}

type boeSection struct {
	Codigo        string          `json:"codigo"`
	Nombre        string          `json:"nombre"`
	Departamentos json.RawMessage `json:"departamento"`
}

type boeSummary struct {
	Data struct {
		Sumario struct {
			Diario []struct {
				Secciones json.RawMessage `json:"seccion"`
			} `json:"diario"`
		} `json:"sumario"`
	} `json:"data"`
}

func (a *BOEAgent) Search(ctx context.Context, q Query) (*SourceResult, error) {
	start, end, err := q.Window(time.Now())
	if err != nil {
		return nil, err
	}

	startT, _ := time.Parse(dateLayout, start)
	endT, _ := time.Parse(dateLayout, end)

	var (
		docs   []Document
		errs   []string
		needle = strings.ToLower(q.Text)
	)

	for day := startT; !day.After(endT); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dateKey := day.Format("20060102")
		var sum boeSummary
		if err := a.http.DoJSON(ctx, "GET", fmt.Sprintf("%s/%s", a.cfg.Endpoint, dateKey), nil, nil, &sum); err != nil {
			// days without a published gazette come back as 404
			if !IsNotFound(err) {
				errs = append(errs, fmt.Sprintf("%s: %v", dateKey, err))
			}
			continue
		}

		for _, diario := range sum.Data.Sumario.Diario {
			for _, sec := range decodeSections(diario.Secciones) {
				for _, item := range sectionItems(sec) {
					if !strings.Contains(strings.ToLower(item.Titulo), needle) {
						continue
					}
					doc := Document{
						ID:      item.Identificador,
						Title:   item.Titulo,
						Source:  "BOE",
						Section: sec.Codigo,
						URL:     item.URLHTML,
						Date:    day.Format(dateLayout),
					}
					if a.cfg.FetchText && item.URLXML != "" {
						if body, err := a.http.Get(ctx, item.URLXML, nil); err == nil {
							doc.Text = extractXMLText(string(body))
							doc.Summary = truncateSummary(doc.Text, 300)
						}
					}
					if doc.Summary == "" {
						doc.Summary = truncateSummary(doc.Title, 300)
					}
					docs = append(docs, doc)
				}
			}
		}
	}

	if len(errs) > 5 {
		errs = errs[:5]
	}
	return &SourceResult{
		Summary: SearchSummary{
			Query:        q.Text,
			DateRange:    fmt.Sprintf("%s to %s", start, end),
			TotalResults: len(docs),
			Errors:       errs,
		},
		Documents: docs,
	}, nil
}

func decodeSections(raw json.RawMessage) []boeSection {
	if len(raw) == 0 {
		return nil
	}
	var list []boeSection
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one boeSection
	if err := json.Unmarshal(raw, &one); err == nil {
		return []boeSection{one}
	}
	return nil
}

// sectionItems collects the items of a section across its departments,
// whether they hang off the department directly or under an epigraph.
func sectionItems(sec boeSection) []boeItem {
	type epigrafe struct {
		Items boeItemList `json:"item"`
	}
	type departamento struct {
		Items     boeItemList     `json:"item"`
		Epigrafes json.RawMessage `json:"epigrafe"`
	}

	var deps []departamento
	if len(sec.Departamentos) == 0 {
		return nil
	}
	if err := json.Unmarshal(sec.Departamentos, &deps); err != nil {
		var one departamento
		if err := json.Unmarshal(sec.Departamentos, &one); err != nil {
			return nil
		}
		deps = []departamento{one}
	}

	var items []boeItem
	for _, dep := range deps {
		items = append(items, dep.Items...)
		if len(dep.Epigrafes) == 0 {
			continue
		}
		var eps []epigrafe
		if err := json.Unmarshal(dep.Epigrafes, &eps); err != nil {
			var one epigrafe
			if err := json.Unmarshal(dep.Epigrafes, &one); err != nil {
				continue
			}
			eps = []epigrafe{one}
		}
		for _, ep := range eps {
			items = append(items, ep.Items...)
		}
	}
	return items
}

// extractXMLText strips markup from a BOE article XML body.
func extractXMLText(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncateSummary(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
