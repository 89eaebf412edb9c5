// Package topology resolves the set of store nodes a scan run covers.
package topology

import (
	"context"
	"fmt"
	"sort"

	"github.com/dbsmedya/keyscope/internal/config"
	"github.com/dbsmedya/keyscope/internal/logger"
	"github.com/dbsmedya/keyscope/internal/store"
)

// Role of a node within its shard.
type Role string

const (
	RolePrimary Role = "primary"
	RoleReplica Role = "replica"
)

// Endpoint is one node to scan. The set of endpoints is fixed for the
// duration of a run; a new run re-resolves from the seeds.
type Endpoint struct {
	Addr    string
	Role    Role
	ShardID string // empty for single-node targets
}

// TopologyError means no scannable node set could be determined. It is
// fatal for the whole run.
type TopologyError struct {
	Mode string
	Err  error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("topology resolution failed (mode %s): %v", e.Mode, e.Err)
}

func (e *TopologyError) Unwrap() error {
	return e.Err
}

// Resolve determines the endpoints to scan from the configured seeds.
//
// In single mode every reachable seed becomes an endpoint. In cluster
// mode the slot map is fetched from the first reachable seed and shard
// primaries are deduplicated; with include_replicas set, a shard's
// first replica is scanned in place of its primary to move read load
// off the primaries.
func Resolve(ctx context.Context, pool *store.Pool, cfg config.TargetConfig, log *logger.Logger) ([]Endpoint, error) {
	if log == nil {
		log = logger.NewDefault()
	}

	switch cfg.Mode {
	case config.ModeCluster:
		return resolveCluster(ctx, pool, cfg, log)
	default:
		return resolveSingle(ctx, pool, cfg, log)
	}
}

func resolveSingle(ctx context.Context, pool *store.Pool, cfg config.TargetConfig, log *logger.Logger) ([]Endpoint, error) {
	var endpoints []Endpoint
	var lastErr error

	for _, seed := range cfg.Seeds {
		if _, err := pool.Acquire(ctx, seed); err != nil {
			log.Warnw("Seed endpoint unreachable", "node", seed, "error", err)
			lastErr = err
			continue
		}
		endpoints = append(endpoints, Endpoint{Addr: seed, Role: RolePrimary})
	}

	if len(endpoints) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no seed endpoints configured")
		}
		return nil, &TopologyError{Mode: config.ModeSingle, Err: lastErr}
	}
	return endpoints, nil
}

func resolveCluster(ctx context.Context, pool *store.Pool, cfg config.TargetConfig, log *logger.Logger) ([]Endpoint, error) {
	slots, err := fetchSlots(ctx, pool, cfg.Seeds, log)
	if err != nil {
		return nil, &TopologyError{Mode: config.ModeCluster, Err: err}
	}
	if len(slots) == 0 {
		return nil, &TopologyError{Mode: config.ModeCluster, Err: fmt.Errorf("cluster reported an empty slot map")}
	}

	// Slot ranges are not guaranteed to arrive sorted
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })

	// One endpoint per shard, keyed by primary address. A primary serving
	// several slot ranges is still scanned once.
	byPrimary := make(map[string]Endpoint)
	for _, slot := range slots {
		if slot.Primary == "" {
			return nil, &TopologyError{
				Mode: config.ModeCluster,
				Err:  fmt.Errorf("slot range %d-%d has no primary", slot.Start, slot.End),
			}
		}

		existing, seen := byPrimary[slot.Primary]
		shardID := fmt.Sprintf("slots-%d-%d", slot.Start, slot.End)
		if seen {
			// Keep the lowest-numbered range as the shard identifier
			shardID = existing.ShardID
		}

		ep := Endpoint{Addr: slot.Primary, Role: RolePrimary, ShardID: shardID}
		if cfg.IncludeReplicas && len(slot.Replicas) > 0 {
			ep = Endpoint{Addr: slot.Replicas[0], Role: RoleReplica, ShardID: shardID}
		}
		byPrimary[slot.Primary] = ep
	}

	endpoints := make([]Endpoint, 0, len(byPrimary))
	for _, ep := range byPrimary {
		endpoints = append(endpoints, ep)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].ShardID < endpoints[j].ShardID
	})

	log.Infow("Resolved cluster topology",
		"shards", len(endpoints),
		"include_replicas", cfg.IncludeReplicas,
	)
	return endpoints, nil
}

// fetchSlots queries the slot map from the first seed that answers.
func fetchSlots(ctx context.Context, pool *store.Pool, seeds []string, log *logger.Logger) ([]store.SlotRange, error) {
	var lastErr error

	for _, seed := range seeds {
		cli, err := pool.Acquire(ctx, seed)
		if err != nil {
			log.Warnw("Seed endpoint unreachable", "node", seed, "error", err)
			lastErr = err
			continue
		}

		slots, err := cli.ClusterSlots(ctx)
		if err != nil {
			log.Warnw("Seed did not answer topology query", "node", seed, "error", err)
			lastErr = err
			continue
		}
		return slots, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no seed endpoints configured")
	}
	return nil, lastErr
}
