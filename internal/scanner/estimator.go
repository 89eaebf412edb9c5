package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/keyscope/internal/ranker"
	"github.com/dbsmedya/keyscope/internal/store"
)

// Per-entry bookkeeping the store spends on top of the payload bytes we
// can observe by sampling. Rough allocator-level figures; the sampled
// estimate only needs to land in the right order of magnitude to rank
// keys usefully.
const (
	stringValueOverhead = 16
	listElementOverhead = 11
	hashEntryOverhead   = 46
	setMemberOverhead   = 40
	zsetMemberOverhead  = 69
	streamEntryOverhead = 32
	collectionBaseSize  = 96
)

// Estimator produces a size estimate for one key at bounded cost.
//
// Scalars are sized with a single exact query. Collections are sized
// exactly while their cardinality stays at or below the sampling
// threshold; above it, a fixed-size random sample's mean element size
// is extrapolated by the cardinality, so per-key cost is bounded by
// the sample size no matter how large the collection is.
type Estimator struct {
	threshold  int64
	sampleSize int64
}

// NewEstimator creates an Estimator with the given sampling threshold
// and sample size.
func NewEstimator(threshold, sampleSize int64) *Estimator {
	return &Estimator{threshold: threshold, sampleSize: sampleSize}
}

// Estimate sizes one key. It returns ErrUnsupportedType or
// ErrKeyExpired (wrapped) for the two per-key skip cases; any other
// error is a store failure the caller may retry.
func (e *Estimator) Estimate(ctx context.Context, cli store.Client, node, key string) (ranker.Candidate, error) {
	kind, err := cli.Type(ctx, key)
	if err != nil {
		return ranker.Candidate{}, err
	}

	switch {
	case kind == store.TypeNone:
		return ranker.Candidate{}, fmt.Errorf("key %q: %w", key, ErrKeyExpired)
	case kind == store.TypeString:
		return e.estimateString(ctx, cli, node, key)
	case kind.IsCollection():
		return e.estimateCollection(ctx, cli, node, key, kind)
	default:
		return ranker.Candidate{}, fmt.Errorf("key %q has type %q: %w", key, kind, ErrUnsupportedType)
	}
}

func (e *Estimator) estimateString(ctx context.Context, cli store.Client, node, key string) (ranker.Candidate, error) {
	size, err := cli.MemoryUsage(ctx, key, -1)
	switch {
	case errors.Is(err, store.ErrKeyMissing):
		return ranker.Candidate{}, fmt.Errorf("key %q: %w", key, ErrKeyExpired)
	case err != nil && isUnknownCommand(err):
		// Older stores without memory introspection: fall back to the
		// value length plus fixed object overhead.
		n, lenErr := cli.StrLen(ctx, key)
		if lenErr != nil {
			return ranker.Candidate{}, lenErr
		}
		size = n + int64(len(key)) + stringValueOverhead
	case err != nil:
		return ranker.Candidate{}, err
	}

	return ranker.Candidate{
		Key:  key,
		Type: store.TypeString,
		Size: size,
		Node: node,
	}, nil
}

func (e *Estimator) estimateCollection(ctx context.Context, cli store.Client, node, key string, kind store.KeyType) (ranker.Candidate, error) {
	card, err := cli.Cardinality(ctx, kind, key)
	if err != nil {
		return ranker.Candidate{}, err
	}
	if card == 0 {
		// Emptied collections are removed by the store
		return ranker.Candidate{}, fmt.Errorf("key %q: %w", key, ErrKeyExpired)
	}

	if card <= e.threshold {
		size, err := cli.MemoryUsage(ctx, key, 0)
		switch {
		case errors.Is(err, store.ErrKeyMissing):
			return ranker.Candidate{}, fmt.Errorf("key %q: %w", key, ErrKeyExpired)
		case err != nil && isUnknownCommand(err):
			return e.estimateBySampling(ctx, cli, node, key, kind, card)
		case err != nil:
			return ranker.Candidate{}, err
		}
		return ranker.Candidate{
			Key:         key,
			Type:        kind,
			Size:        size,
			Cardinality: card,
			Node:        node,
		}, nil
	}

	return e.estimateBySampling(ctx, cli, node, key, kind, card)
}

// estimateBySampling extrapolates total size from a bounded sample.
// Exactly one sampling call is issued regardless of cardinality.
func (e *Estimator) estimateBySampling(ctx context.Context, cli store.Client, node, key string, kind store.KeyType, card int64) (ranker.Candidate, error) {
	payload, sampled, overhead, err := e.samplePayload(ctx, cli, key, kind)
	if err != nil {
		return ranker.Candidate{}, err
	}
	if sampled == 0 {
		// Shrunk or vanished under us
		return ranker.Candidate{}, fmt.Errorf("key %q: %w", key, ErrKeyExpired)
	}

	avg := float64(payload)/float64(sampled) + float64(overhead)
	size := int64(avg*float64(card)) + collectionBaseSize + int64(len(key))

	return ranker.Candidate{
		Key:         key,
		Type:        kind,
		Size:        size,
		Cardinality: card,
		Node:        node,
	}, nil
}

// samplePayload reads up to sampleSize elements and returns their total
// payload bytes, the element count actually sampled, and the per-entry
// overhead constant for the kind.
func (e *Estimator) samplePayload(ctx context.Context, cli store.Client, key string, kind store.KeyType) (payload int64, sampled int64, overhead int64, err error) {
	switch kind {
	case store.TypeList:
		elems, err := cli.ListRange(ctx, key, e.sampleSize)
		if err != nil {
			return 0, 0, 0, err
		}
		return stringsPayload(elems), int64(len(elems)), listElementOverhead, nil

	case store.TypeHash:
		flat, err := cli.HashSample(ctx, key, e.sampleSize)
		if err != nil {
			return 0, 0, 0, err
		}
		return stringsPayload(flat), int64(len(flat) / 2), hashEntryOverhead, nil

	case store.TypeSet:
		members, err := cli.SetSample(ctx, key, e.sampleSize)
		if err != nil {
			return 0, 0, 0, err
		}
		return stringsPayload(members), int64(len(members)), setMemberOverhead, nil

	case store.TypeZSet:
		members, err := cli.ZSetSample(ctx, key, e.sampleSize)
		if err != nil {
			return 0, 0, 0, err
		}
		// Scores are stored as 8-byte floats alongside each member
		return stringsPayload(members) + 8*int64(len(members)), int64(len(members)), zsetMemberOverhead, nil

	case store.TypeStream:
		entries, err := cli.StreamRange(ctx, key, e.sampleSize)
		if err != nil {
			return 0, 0, 0, err
		}
		var total int64
		for _, entry := range entries {
			total += int64(len(entry.ID))
			for field, value := range entry.Values {
				total += int64(len(field)) + valueLen(value)
			}
		}
		return total, int64(len(entries)), streamEntryOverhead, nil

	default:
		return 0, 0, 0, fmt.Errorf("type %q: %w", kind, ErrUnsupportedType)
	}
}

func stringsPayload(elems []string) int64 {
	var total int64
	for _, s := range elems {
		total += int64(len(s))
	}
	return total
}

func valueLen(v interface{}) int64 {
	switch val := v.(type) {
	case string:
		return int64(len(val))
	case []byte:
		return int64(len(val))
	default:
		return int64(len(fmt.Sprint(val)))
	}
}

func isUnknownCommand(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unknown command")
}
