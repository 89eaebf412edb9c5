package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dbsmedya/keyscope/internal/logger"
	"github.com/dbsmedya/keyscope/internal/ranker"
	"github.com/dbsmedya/keyscope/internal/store"
	"github.com/dbsmedya/keyscope/internal/topology"
)

// NodeState is the lifecycle state of one node's scan pipeline.
type NodeState string

const (
	StatePending  NodeState = "pending"
	StateScanning NodeState = "scanning"
	StateDraining NodeState = "draining" // stopped early: node-fatal error or cancellation
	StateDone     NodeState = "done"     // cursor completed a full cycle
)

// NodeStats are the per-node counters surfaced in the final report.
type NodeStats struct {
	Scanned int64     `json:"scanned"`
	Errors  int64     `json:"errors"`
	Skipped int64     `json:"skipped"`
	State   NodeState `json:"state"`
	Role    string    `json:"role"`
	ShardID string    `json:"shard_id,omitempty"`
}

// TypeTotals aggregates every estimated key of one type, not just the
// ranked ones.
type TypeTotals struct {
	Count int64 `json:"count"`
	Bytes int64 `json:"bytes"`
}

// progressEvery controls how often a pipeline logs traversal progress.
const progressEvery = 50_000

const retryBaseBackoff = 250 * time.Millisecond

// pipeline drives the scan of a single node: cursor steps, estimation
// fan-out through the shared admission gate, and offers into its own
// rankers. It shares nothing mutable with other pipelines.
type pipeline struct {
	endpoint   topology.Endpoint
	pool       *store.Pool
	scanner    *CursorScanner
	estimator  *Estimator
	gate       chan struct{}
	pacing     time.Duration
	maxRetries int
	logger     *logger.Logger

	state      NodeState
	stats      NodeStats
	ranker     *ranker.Ranker
	categories *ranker.CategorySet
	totals     map[store.KeyType]TypeTotals
}

func newPipeline(ep topology.Endpoint, pool *store.Pool, scn *CursorScanner, est *Estimator,
	gate chan struct{}, pacing time.Duration, maxRetries, topN int, prefixDelimiter string,
	log *logger.Logger) *pipeline {
	return &pipeline{
		endpoint:   ep,
		pool:       pool,
		scanner:    scn,
		estimator:  est,
		gate:       gate,
		pacing:     pacing,
		maxRetries: maxRetries,
		logger:     log.WithNode(ep.Addr),
		state:      StatePending,
		stats:      NodeStats{State: StatePending, Role: string(ep.Role), ShardID: ep.ShardID},
		ranker:     ranker.New(topN),
		categories: ranker.NewCategorySet(topN, prefixDelimiter),
		totals:     make(map[store.KeyType]TypeTotals),
	}
}

// run executes the pipeline until the cursor completes, a node-fatal
// error occurs, or the run is cancelled. It never panics the run and
// never returns an error: all failures end up in the node's stats.
func (p *pipeline) run(ctx context.Context) {
	p.setState(StateScanning)

	if cli, err := p.pool.Acquire(ctx, p.endpoint.Addr); err == nil {
		if total, err := cli.DBSize(ctx); err == nil {
			p.logger.Infow("Starting node scan", "keyspace_size", total, "role", p.endpoint.Role)
		}
	}

	cursor := &Cursor{}
	for !cursor.Done() {
		if ctx.Err() != nil {
			p.drain("run cancelled")
			return
		}

		keys, err := p.nextBatch(ctx, cursor)
		if err != nil {
			p.handleFailure(ctx, err)
			return
		}

		if err := p.processBatch(ctx, keys); err != nil {
			p.handleFailure(ctx, err)
			return
		}

		if p.pacing > 0 && !cursor.Done() {
			select {
			case <-ctx.Done():
				p.drain("run cancelled")
				return
			case <-time.After(p.pacing):
			}
		}
	}

	p.setState(StateDone)
	p.logger.Infow("Node scan complete",
		"scanned", p.stats.Scanned,
		"skipped", p.stats.Skipped,
	)
}

// nextBatch performs one cursor step, retrying transient failures from
// the same cursor position against a freshly acquired connection.
func (p *pipeline) nextBatch(ctx context.Context, cursor *Cursor) ([]string, error) {
	var keys []string
	err := p.retryTransient(ctx, func(cli store.Client) error {
		batch, err := p.scanner.NextBatch(ctx, cli, p.endpoint.Addr, cursor)
		if err != nil {
			return err
		}
		keys = batch
		return nil
	})
	return keys, err
}

type estimateResult struct {
	cand ranker.Candidate
	err  error
}

// processBatch fans the batch's keys through the estimator. Every
// estimation acquires a slot on the shared gate first, so simultaneous
// in-flight estimation calls across all pipelines never exceed the
// configured ceiling.
func (p *pipeline) processBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	results := make(chan estimateResult, len(keys))
	var wg sync.WaitGroup

	var dispatchErr error
	for _, key := range keys {
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
		case p.gate <- struct{}{}:
			wg.Add(1)
			go func(k string) {
				defer wg.Done()
				defer func() { <-p.gate }()
				cand, err := p.estimateKey(ctx, k)
				results <- estimateResult{cand: cand, err: err}
			}(key)
		}
		if dispatchErr != nil {
			break
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstFailure error
	for r := range results {
		switch {
		case r.err == nil:
			p.admit(r.cand)
		case errors.Is(r.err, ErrUnsupportedType), errors.Is(r.err, ErrKeyExpired):
			p.stats.Skipped++
		default:
			if firstFailure == nil {
				firstFailure = r.err
			}
		}
	}

	if dispatchErr != nil {
		return dispatchErr
	}
	return firstFailure
}

// estimateKey sizes one key with transient retries. Per-key skip
// conditions pass through untouched for the batch collector to count.
func (p *pipeline) estimateKey(ctx context.Context, key string) (ranker.Candidate, error) {
	var cand ranker.Candidate
	err := p.retryTransient(ctx, func(cli store.Client) error {
		c, err := p.estimator.Estimate(ctx, cli, p.endpoint.Addr, key)
		if err != nil {
			return err
		}
		cand = c
		return nil
	})
	return cand, err
}

// admit records an estimated candidate in the pipeline's rankings and
// aggregates.
func (p *pipeline) admit(c ranker.Candidate) {
	p.stats.Scanned++
	t := p.totals[c.Type]
	t.Count++
	t.Bytes += c.Size
	p.totals[c.Type] = t

	p.ranker.Offer(c)
	p.categories.Offer(c)

	if p.stats.Scanned%progressEvery == 0 {
		p.logger.Infow("Scan progress", "scanned", p.stats.Scanned)
	}
}

// retryTransient runs op with a fresh connection per attempt, backing
// off between transient failures. Skip conditions and cancellation
// return immediately; exhausting retries escalates to node-fatal.
func (p *pipeline) retryTransient(ctx context.Context, op func(cli store.Client) error) error {
	backoff := retryBaseBackoff

	for attempt := 0; ; attempt++ {
		cli, err := p.pool.Acquire(ctx, p.endpoint.Addr)
		if err == nil {
			err = op(cli)
		}
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrKeyExpired) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		scanErr := asScanError(p.endpoint.Addr, err)
		if !scanErr.Transient || attempt >= p.maxRetries {
			scanErr.Transient = false
			return scanErr
		}

		p.logger.Warnw("Transient store failure, retrying",
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		p.pool.Discard(p.endpoint.Addr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// handleFailure transitions the pipeline out of Scanning after an
// unrecoverable batch error. Cancellation drains quietly; anything
// else is a node-fatal error counted in the stats.
func (p *pipeline) handleFailure(ctx context.Context, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		p.drain("run cancelled")
		return
	}

	p.stats.Errors++
	p.drain("node abandoned")
	p.logger.Errorw("Node scan failed",
		"scanned", p.stats.Scanned,
		"error", err,
	)
}

func (p *pipeline) drain(reason string) {
	p.setState(StateDraining)
	p.logger.Infow("Pipeline draining", "reason", reason)
}

func (p *pipeline) setState(s NodeState) {
	p.state = s
	p.stats.State = s
}

// asScanError normalizes any store failure into a node-scoped ScanError.
func asScanError(node string, err error) *ScanError {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}
	return classifyScanError(node, err)
}
