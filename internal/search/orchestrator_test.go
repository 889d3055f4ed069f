package search

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
)

// stubAgent answers with a fixed result, error, or panic.
type stubAgent struct {
	docs      []Document
	financial *FinancialSnapshot
	err       error
	panics    bool
}

func (s *stubAgent) Search(ctx context.Context, q Query) (*SourceResult, error) {
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &SourceResult{
		Summary:   SearchSummary{Query: q.Text, TotalResults: len(s.docs)},
		Documents: s.docs,
		Financial: s.financial,
	}, nil
}

func (s *stubAgent) Family() Family { return FamilyNews }

func newTestOrchestrator(agents map[string]SourceAgent) *Orchestrator {
	return &Orchestrator{agents: agents, logger: log.New(io.Discard, "", 0)}
}

func TestSearchAllCompleteMap(t *testing.T) {
	o := newTestOrchestrator(map[string]SourceAgent{
		"alpha": &stubAgent{docs: []Document{{Title: "a"}}},
		"beta":  &stubAgent{err: errors.New("rate limited")},
		"gamma": &stubAgent{docs: nil},
	})

	results := o.SearchAll(context.Background(), Query{Text: "acme"}, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(results))
	}
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if _, ok := results[name]; !ok {
			t.Fatalf("missing slot for %s", name)
		}
	}
}

func TestSearchAllIsolatesFailures(t *testing.T) {
	o := newTestOrchestrator(map[string]SourceAgent{
		"good": &stubAgent{docs: []Document{{Title: "hit"}}},
		"bad":  &stubAgent{err: errors.New("connection refused")},
	})

	results := o.SearchAll(context.Background(), Query{Text: "acme"}, nil)

	good := results["good"]
	if good.Failed() {
		t.Fatalf("expected good agent to succeed, got error %q", good.Error)
	}
	if len(good.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(good.Documents))
	}

	bad := results["bad"]
	if !bad.Failed() {
		t.Fatalf("expected bad agent to fail")
	}
	if bad.Summary.TotalResults != 0 {
		t.Fatalf("failed slot must report zero results, got %d", bad.Summary.TotalResults)
	}
	if len(bad.Summary.Errors) == 0 {
		t.Fatalf("failed slot must carry its error in the summary")
	}
}

func TestSearchAllSkipsUnknownAgents(t *testing.T) {
	o := newTestOrchestrator(map[string]SourceAgent{
		"known": &stubAgent{},
	})

	results := o.SearchAll(context.Background(), Query{Text: "acme"}, []string{"known", "mystery"})
	if len(results) != 1 {
		t.Fatalf("expected unknown agent skipped, got %d slots", len(results))
	}
	if _, ok := results["mystery"]; ok {
		t.Fatalf("unknown agent must not appear in results")
	}
}

func TestSearchAllConvertsPanicsToErrors(t *testing.T) {
	o := newTestOrchestrator(map[string]SourceAgent{
		"wild":   &stubAgent{panics: true},
		"stable": &stubAgent{docs: []Document{{Title: "ok"}}},
	})

	results := o.SearchAll(context.Background(), Query{Text: "acme"}, nil)

	wild := results["wild"]
	if !wild.Failed() {
		t.Fatalf("expected panicking agent to produce an error envelope")
	}
	if results["stable"].Failed() {
		t.Fatalf("expected stable agent unaffected by sibling panic")
	}
}

func TestSearchAllEmptySelection(t *testing.T) {
	o := newTestOrchestrator(map[string]SourceAgent{"only": &stubAgent{}})

	results := o.SearchAll(context.Background(), Query{Text: "acme"}, []string{})
	if len(results) != 0 {
		t.Fatalf("explicit empty selection must search nothing, got %d slots", len(results))
	}
}

func TestCountResultsFinancial(t *testing.T) {
	res := &SourceResult{Financial: &FinancialSnapshot{Symbol: "ACX.MC"}}
	if got := countResults(res); got != 1 {
		t.Fatalf("expected financial payload to count as 1, got %d", got)
	}
	if got := countResults(nil); got != 0 {
		t.Fatalf("expected nil result to count 0, got %d", got)
	}
}
