package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbsmedya/keyscope/internal/config"
	"github.com/dbsmedya/keyscope/internal/logger"
)

// Factory builds a Client for a node address. Swapped out in tests.
type Factory func(addr string) Client

// Pool hands out one Client per node address, created lazily on first
// acquire and verified with a ping. A client that produced errors can be
// discarded; the next acquire for that address builds a fresh one.
// Health is inferred from operation outcomes, never from active probing.
type Pool struct {
	mu      sync.Mutex
	clients map[string]Client
	cfg     config.TargetConfig
	factory Factory
	logger  *logger.Logger
}

// NewPool creates a Pool backed by real store clients.
func NewPool(cfg config.TargetConfig, log *logger.Logger) *Pool {
	return NewPoolWithFactory(cfg, log, func(addr string) Client {
		return NewClient(addr, cfg)
	})
}

// NewPoolWithFactory creates a Pool with a custom client factory.
func NewPoolWithFactory(cfg config.TargetConfig, log *logger.Logger, factory Factory) *Pool {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Pool{
		clients: make(map[string]Client),
		cfg:     cfg,
		factory: factory,
		logger:  log,
	}
}

// Acquire returns a healthy client for addr, creating and ping-checking
// one if none is cached. Creation retries with exponential backoff.
func (p *Pool) Acquire(ctx context.Context, addr string) (Client, error) {
	p.mu.Lock()
	if cli, ok := p.clients[addr]; ok {
		p.mu.Unlock()
		return cli, nil
	}
	p.mu.Unlock()

	cli, err := p.connectWithRetry(ctx, addr)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have connected meanwhile; keep the first.
	if existing, ok := p.clients[addr]; ok {
		_ = cli.Close()
		return existing, nil
	}
	p.clients[addr] = cli
	return cli, nil
}

// Discard drops the cached client for addr after a failed operation.
// A replacement is built lazily on the next Acquire.
func (p *Pool) Discard(addr string) {
	p.mu.Lock()
	cli, ok := p.clients[addr]
	if ok {
		delete(p.clients, addr)
	}
	p.mu.Unlock()

	if ok {
		if err := cli.Close(); err != nil {
			p.logger.Warnw("Failed to close discarded client", "node", addr, "error", err)
		}
	}
}

// connectWithRetry attempts to connect with exponential backoff.
func (p *Pool) connectWithRetry(ctx context.Context, addr string) (Client, error) {
	var lastErr error

	maxRetries := 3
	backoff := 500 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		cli := p.factory(addr)
		if err := cli.Ping(ctx); err == nil {
			return cli, nil
		} else {
			_ = cli.Close()
			lastErr = err
		}

		if i < maxRetries-1 {
			p.logger.Warnw("Connection attempt failed, retrying",
				"node", addr,
				"attempt", i+1,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", addr, maxRetries, lastErr)
}

// Close releases every cached client.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for addr, cli := range p.clients {
		if err := cli.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.clients, addr)
	}
	return firstErr
}
