package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/vigia/config"
	"github.com/mohammad-safakhou/vigia/internal/telemetry"
)

// Orchestrator fans a query out across the registered source agents and
// folds the per-agent outcomes into a single complete map. One agent's
// failure never aborts or blocks the others.
type Orchestrator struct {
	agents map[string]SourceAgent
	logger *log.Logger
	tele   *telemetry.Telemetry
}

// NewOrchestrator builds the full agent registry from configuration. The
// set of agent names is fixed from here on.
func NewOrchestrator(cfg config.SourcesConfig, rdb *redis.Client, logger *log.Logger, tele *telemetry.Telemetry) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	httpc := NewHTTPClient(cfg.Timeout, cfg.Retries, cfg.Backoff)

	agents := map[string]SourceAgent{
		"boe":           NewBOEAgent(cfg.BOE, httpc),
		"newsapi":       NewNewsAPIAgent(cfg.NewsAPI, httpc),
		"yahoo_finance": NewYahooFinanceAgent(cfg.YahooFinance, httpc, rdb),
	}
	for outlet := range defaultOutlets {
		feeds := cfg.RSS.Feeds[outlet]
		if len(feeds) == 0 {
			feeds = defaultOutlets[outlet]
		}
		agents[outlet] = NewRSSAgent(outlet, feeds, cfg.RSS, httpc)
	}

	return &Orchestrator{agents: agents, logger: logger, tele: tele}
}

// Agents returns the registered agent names, sorted.
func (o *Orchestrator) Agents() []string {
	names := make([]string, 0, len(o.agents))
	for name := range o.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchAll queries the selected agents and returns one envelope per
// requested (known) agent. The key set of the returned map is exactly the
// valid subset of active, or the full registry when active is nil.
// Unknown names are skipped with a warning. Agent failures, including
// panics, become error envelopes in that agent's slot only.
func (o *Orchestrator) SearchAll(ctx context.Context, q Query, active []string) map[string]Envelope {
	if active == nil {
		active = o.Agents()
	}

	o.logger.Printf("search %q using %v", q.Text, active)

	selected := make([]string, 0, len(active))
	for _, name := range active {
		if _, ok := o.agents[name]; !ok {
			o.logger.Printf("WARN unknown agent: %s", name)
			continue
		}
		selected = append(selected, name)
	}

	results := make(map[string]Envelope, len(selected))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, name := range selected {
		wg.Add(1)
		go func(name string, agent SourceAgent) {
			defer wg.Done()
			env := o.searchOne(ctx, name, agent, q)
			mu.Lock()
			results[name] = env
			mu.Unlock()
		}(name, o.agents[name])
	}
	wg.Wait()

	return results
}

// searchOne invokes a single agent and converts any failure, including a
// panic, into an error envelope for that agent's slot.
func (o *Orchestrator) searchOne(ctx context.Context, name string, agent SourceAgent, q Query) (env Envelope) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("agent panic: %v", r)
			o.logger.Printf("ERROR %s search panicked: %v", name, r)
			o.tele.RecordSearch(name, 0, err, time.Since(started))
			env = errorEnvelope(q, err)
		}
	}()

	res, err := agent.Search(ctx, q)
	o.tele.RecordSearch(name, countResults(res), err, time.Since(started))
	if err != nil {
		o.logger.Printf("ERROR %s search failed: %v", name, err)
		return errorEnvelope(q, err)
	}

	o.logger.Printf("%s: %d %s", name, countResults(res), collectionName[agent.Family()])
	return Envelope{
		Summary:   res.Summary,
		Documents: res.Documents,
		Financial: res.Financial,
	}
}

// countResults extracts the agent-family-specific result count for
// diagnostics. Informational only.
func countResults(res *SourceResult) int {
	if res == nil {
		return 0
	}
	if res.Financial != nil {
		return 1
	}
	return len(res.Documents)
}

func errorEnvelope(q Query, err error) Envelope {
	return Envelope{
		Error: err.Error(),
		Summary: SearchSummary{
			Query:        q.Text,
			DateRange:    q.DateRange(time.Now()),
			TotalResults: 0,
			Errors:       []string{err.Error()},
		},
	}
}
