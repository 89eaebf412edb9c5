package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbsmedya/keyscope/internal/config"
	"github.com/dbsmedya/keyscope/internal/logger"
	"github.com/dbsmedya/keyscope/internal/ranker"
	"github.com/dbsmedya/keyscope/internal/store"
	"github.com/dbsmedya/keyscope/internal/topology"
)

// CategoryRanking is one category's ranking in the final report, in
// the order categories were first observed.
type CategoryRanking struct {
	Name    string         `json:"name"`
	Entries []ranker.Entry `json:"entries"`
}

// Report is the immutable outcome of one scan run.
type Report struct {
	Top        []ranker.Entry               `json:"top"`
	Categories []CategoryRanking            `json:"categories,omitempty"`
	TypeTotals map[store.KeyType]TypeTotals `json:"type_totals"`
	Nodes      map[string]NodeStats         `json:"nodes"`
	TopN       int                          `json:"top_n"`
	StartedAt  time.Time                    `json:"started_at"`
	Elapsed    time.Duration                `json:"elapsed"`
	Complete   bool                         `json:"complete"`
}

// TotalScanned sums the scanned counters across nodes.
func (r *Report) TotalScanned() int64 {
	var n int64
	for _, stats := range r.Nodes {
		n += stats.Scanned
	}
	return n
}

// TotalErrors sums the error counters across nodes.
func (r *Report) TotalErrors() int64 {
	var n int64
	for _, stats := range r.Nodes {
		n += stats.Errors
	}
	return n
}

// TotalSkipped sums the skip counters across nodes.
func (r *Report) TotalSkipped() int64 {
	var n int64
	for _, stats := range r.Nodes {
		n += stats.Skipped
	}
	return n
}

// TotalBytes sums the estimated bytes of every key seen, ranked or not.
func (r *Report) TotalBytes() int64 {
	var n int64
	for _, t := range r.TypeTotals {
		n += t.Bytes
	}
	return n
}

// Orchestrator drives a whole scan run: topology resolution, one
// pipeline per node under the shared admission gate, and the final
// merge into one report.
type Orchestrator struct {
	cfg    *config.Config
	pool   *store.Pool
	logger *logger.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg *config.Config, pool *store.Pool, log *logger.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Orchestrator{cfg: cfg, pool: pool, logger: log}, nil
}

// Run executes one scan. Node failures are absorbed into per-node
// statistics; only an unresolvable topology or a run in which not a
// single node could be scanned comes back as an error. On cancellation
// a best-effort report is still produced, flagged incomplete.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	endpoints, err := topology.Resolve(ctx, o.pool, o.cfg.Target, o.logger)
	if err != nil {
		return nil, err
	}

	o.logger.Infow("Starting scan run",
		"nodes", len(endpoints),
		"top_n", o.cfg.Scan.TopN,
		"batch_size", o.cfg.Scan.BatchSize,
		"concurrency", o.cfg.Scan.Concurrency,
		"pacing_ms", o.cfg.Scan.PacingMs,
		"sampling_threshold", o.cfg.Scan.SamplingThreshold,
	)

	// The gate is the one resource shared across pipelines: every
	// estimation call anywhere must hold a slot while in flight.
	gate := make(chan struct{}, o.cfg.Scan.Concurrency)
	scn := NewCursorScanner(int64(o.cfg.Scan.BatchSize), o.cfg.Scan.Match)
	est := NewEstimator(o.cfg.Scan.SamplingThreshold, o.cfg.Scan.SampleSize)
	pacing := time.Duration(o.cfg.Scan.PacingMs) * time.Millisecond

	pipelines := make([]*pipeline, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		pipelines[i] = newPipeline(ep, o.pool, scn, est, gate, pacing,
			o.cfg.Scan.MaxRetries, o.cfg.Scan.TopN, o.cfg.Scan.PrefixDelimiter, o.logger)

		wg.Add(1)
		go func(p *pipeline) {
			defer wg.Done()
			p.run(ctx)
		}(pipelines[i])
	}
	wg.Wait()

	report := o.assemble(ctx, started, pipelines)

	if !report.Complete && ctx.Err() == nil && report.TotalScanned() == 0 {
		return nil, fmt.Errorf("no node completed a scan (%d nodes failed)", len(endpoints))
	}

	o.logger.Infow("Scan run finished",
		"elapsed", report.Elapsed,
		"scanned", report.TotalScanned(),
		"errors", report.TotalErrors(),
		"skipped", report.TotalSkipped(),
		"complete", report.Complete,
	)
	return report, nil
}

// assemble merges the per-node rankings and counters into the final
// report by re-offering every held entry into fresh rankers of the
// same capacity.
func (o *Orchestrator) assemble(ctx context.Context, started time.Time, pipelines []*pipeline) *Report {
	topN := o.cfg.Scan.TopN

	global := ranker.New(topN)
	categories := ranker.NewCategorySet(topN, o.cfg.Scan.PrefixDelimiter)
	typeTotals := make(map[store.KeyType]TypeTotals)
	nodes := make(map[string]NodeStats, len(pipelines))

	complete := ctx.Err() == nil
	for _, p := range pipelines {
		ranker.Merge(global, p.ranker)
		p.categories.MergeInto(categories)

		for kind, t := range p.totals {
			agg := typeTotals[kind]
			agg.Count += t.Count
			agg.Bytes += t.Bytes
			typeTotals[kind] = agg
		}

		nodes[p.endpoint.Addr] = p.stats
		if p.state != StateDone {
			complete = false
		}
	}

	var rankings []CategoryRanking
	for _, name := range categories.Categories() {
		rankings = append(rankings, CategoryRanking{
			Name:    name,
			Entries: categories.Entries(name),
		})
	}

	return &Report{
		Top:        global.Entries(),
		Categories: rankings,
		TypeTotals: typeTotals,
		Nodes:      nodes,
		TopN:       topN,
		StartedAt:  started,
		Elapsed:    time.Since(started),
		Complete:   complete,
	}
}
