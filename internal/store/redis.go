package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dbsmedya/keyscope/internal/config"
)

// redisClient adapts a go-redis client to the Client interface. The
// underlying client is itself a connection pool: connections are dialed
// lazily, handed out exclusively per command, and dropped when broken.
type redisClient struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

// NewClient creates a Client for one node address using the target
// connection settings.
func NewClient(addr string, cfg config.TargetConfig) Client {
	timeout := time.Duration(cfg.OpTimeoutSeconds) * time.Second

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	return &redisClient{
		rdb:       rdb,
		opTimeout: timeout,
	}
}

// withTimeout bounds a single store operation. Network calls must never
// block a pipeline for unbounded time.
func (c *redisClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

func (c *redisClient) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *redisClient) DBSize(ctx context.Context) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.DBSize(ctx).Result()
}

func (c *redisClient) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Scan(ctx, cursor, match, count).Result()
}

func (c *redisClient) Type(ctx context.Context, key string) (KeyType, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	t, err := c.rdb.Type(ctx, key).Result()
	if err != nil {
		return TypeNone, err
	}
	return ParseKeyType(t), nil
}

func (c *redisClient) MemoryUsage(ctx context.Context, key string, samples int) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var cmd *redis.IntCmd
	if samples >= 0 {
		cmd = c.rdb.MemoryUsage(ctx, key, samples)
	} else {
		cmd = c.rdb.MemoryUsage(ctx, key)
	}

	n, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrKeyMissing
	}
	return n, err
}

func (c *redisClient) StrLen(ctx context.Context, key string) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.StrLen(ctx, key).Result()
}

func (c *redisClient) Cardinality(ctx context.Context, kind KeyType, key string) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	switch kind {
	case TypeList:
		return c.rdb.LLen(ctx, key).Result()
	case TypeHash:
		return c.rdb.HLen(ctx, key).Result()
	case TypeSet:
		return c.rdb.SCard(ctx, key).Result()
	case TypeZSet:
		return c.rdb.ZCard(ctx, key).Result()
	case TypeStream:
		return c.rdb.XLen(ctx, key).Result()
	default:
		return 0, fmt.Errorf("type %q has no cardinality", kind)
	}
}

func (c *redisClient) ListRange(ctx context.Context, key string, n int64) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.LRange(ctx, key, 0, n-1).Result()
}

func (c *redisClient) HashSample(ctx context.Context, key string, n int64) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.HRandField(ctx, key, int(n), true).Result()
}

func (c *redisClient) SetSample(ctx context.Context, key string, n int64) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.SRandMemberN(ctx, key, n).Result()
}

func (c *redisClient) ZSetSample(ctx context.Context, key string, n int64) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.ZRandMember(ctx, key, int(n), false).Result()
}

func (c *redisClient) StreamRange(ctx context.Context, key string, n int64) ([]StreamEntry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msgs, err := c.rdb.XRangeN(ctx, key, "-", "+", n).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]StreamEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, StreamEntry{ID: m.ID, Values: m.Values})
	}
	return entries, nil
}

func (c *redisClient) ClusterSlots(ctx context.Context) ([]SlotRange, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	slots, err := c.rdb.ClusterSlots(ctx).Result()
	if err != nil {
		return nil, err
	}

	ranges := make([]SlotRange, 0, len(slots))
	for _, s := range slots {
		r := SlotRange{Start: s.Start, End: s.End}
		for i, node := range s.Nodes {
			// The first node of a slot range is its primary
			if i == 0 {
				r.Primary = node.Addr
			} else {
				r.Replicas = append(r.Replicas, node.Addr)
			}
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func (c *redisClient) Close() error {
	return c.rdb.Close()
}
