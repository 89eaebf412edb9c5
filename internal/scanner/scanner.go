// Package scanner implements the scan-and-rank engine: cursor-based
// keyspace traversal, tiered size estimation, and the orchestration
// that runs both across nodes under concurrency and pacing limits.
package scanner

import (
	"context"

	"github.com/dbsmedya/keyscope/internal/store"
)

// Cursor is one node's traversal position. It is owned by exactly one
// pipeline and never shared.
type Cursor struct {
	pos     uint64
	started bool
}

// Done reports whether the traversal has cycled back to its start.
func (c *Cursor) Done() bool {
	return c.started && c.pos == 0
}

// CursorScanner performs cursor-based keyspace enumeration steps
// against one node. The traversal order is whatever the store yields;
// the same key may appear more than once under concurrent mutation and
// callers must tolerate that.
type CursorScanner struct {
	batchSize int64
	match     string
}

// NewCursorScanner creates a scanner requesting at most batchSize keys
// per step, optionally filtered by a match pattern.
func NewCursorScanner(batchSize int64, match string) *CursorScanner {
	return &CursorScanner{batchSize: batchSize, match: match}
}

// NextBatch advances the cursor by one enumeration step. The returned
// keys slice may be empty even mid-traversal. Errors are classified as
// node-scoped ScanErrors; on a transient one the caller may reacquire a
// connection and retry with the same cursor.
func (s *CursorScanner) NextBatch(ctx context.Context, cli store.Client, node string, cursor *Cursor) ([]string, error) {
	keys, next, err := cli.Scan(ctx, cursor.pos, s.match, s.batchSize)
	if err != nil {
		return nil, classifyScanError(node, err)
	}

	cursor.pos = next
	cursor.started = true
	return keys, nil
}
