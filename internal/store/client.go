package store

import (
	"context"
	"errors"
)

// ErrKeyMissing is returned by size and sampling queries when the key no
// longer exists. Keys routinely expire or get deleted between discovery
// and estimation; callers treat this as a skip, not a failure.
var ErrKeyMissing = errors.New("key does not exist")

// StreamEntry is one sampled entry of a stream key.
type StreamEntry struct {
	ID     string
	Values map[string]interface{}
}

// SlotRange describes one contiguous hash-slot range of a cluster and
// the nodes serving it. Addrs in Replicas are in the order the store
// reported them.
type SlotRange struct {
	Start    int
	End      int
	Primary  string
	Replicas []string
}

// Client is the read-only view of one store node that the scan engine
// uses. Implementations must be safe for concurrent use; every method
// honors the context and the configured per-operation timeout.
//
// No method ever writes to the store.
type Client interface {
	// Ping verifies the node is reachable and authenticated.
	Ping(ctx context.Context) error

	// DBSize returns the number of keys on the node. Used for progress
	// logging only; the scan does not depend on it.
	DBSize(ctx context.Context) (int64, error)

	// Scan performs one cursor-enumeration step, returning at most
	// roughly count keys and the next cursor. A next cursor of 0 means
	// the traversal has cycled back to its start.
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

	// Type returns the value type of key, TypeNone if it is gone.
	Type(ctx context.Context, key string) (KeyType, error)

	// MemoryUsage returns the store's own memory accounting for key,
	// in bytes. samples controls collection element sampling on the
	// server: 0 means every element (exact), negative means the server
	// default. Returns ErrKeyMissing if the key is gone.
	MemoryUsage(ctx context.Context, key string, samples int) (int64, error)

	// StrLen returns the byte length of a string value.
	StrLen(ctx context.Context, key string) (int64, error)

	// Cardinality returns the element count of a collection key of the
	// given kind (list/hash/set/zset/stream).
	Cardinality(ctx context.Context, kind KeyType, key string) (int64, error)

	// ListRange returns the first n elements of a list.
	ListRange(ctx context.Context, key string, n int64) ([]string, error)

	// HashSample returns up to n random fields of a hash as a flat
	// field, value, field, value... slice.
	HashSample(ctx context.Context, key string, n int64) ([]string, error)

	// SetSample returns up to n random members of a set.
	SetSample(ctx context.Context, key string, n int64) ([]string, error)

	// ZSetSample returns up to n random members of a sorted set.
	ZSetSample(ctx context.Context, key string, n int64) ([]string, error)

	// StreamRange returns the first n entries of a stream.
	StreamRange(ctx context.Context, key string, n int64) ([]StreamEntry, error)

	// ClusterSlots returns the cluster's slot-to-node assignment.
	// Fails on non-clustered stores.
	ClusterSlots(ctx context.Context) ([]SlotRange, error)

	// Close releases all connections held for this node.
	Close() error
}
