package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Connector owns the process-wide connection pool. It is created once at
// startup and handed to every component that needs the record store.
//
// Pool is safe for concurrent first use: callers arriving while the pool is
// being built wait for it and receive the same instance.
type Connector struct {
	mu   sync.Mutex
	pool *pgxpool.Pool

	dial  func(ctx context.Context) (*pgxpool.Pool, error)
	retry []backoff.RetryOption
}

// NewConnector creates a connector for the given pool configuration. No
// connection is made until Pool is called.
func NewConnector(cfg *PoolConfig) *Connector {
	return &Connector{
		dial: func(ctx context.Context) (*pgxpool.Pool, error) {
			return NewPool(ctx, cfg)
		},
		retry: []backoff.RetryOption{
			backoff.WithBackOff(backoff.NewExponentialBackOff()),
			backoff.WithMaxElapsedTime(retryWindow(cfg)),
		},
	}
}

func retryWindow(cfg *PoolConfig) time.Duration {
	if cfg == nil || cfg.ConnectRetryTimeout <= 0 {
		return 30 * time.Second
	}
	return cfg.ConnectRetryTimeout
}

// Pool returns the shared pool, connecting on first use. Connection attempts
// are retried with exponential backoff until the retry window closes.
func (c *Connector) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		return c.pool, nil
	}

	opts := append([]backoff.RetryOption{
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("Database not ready, retrying")
		}),
	}, c.retry...)

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		return c.dial(ctx)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c.pool = pool
	log.Info().Msg("Database connection pool ready")

	return c.pool, nil
}

// Close releases the pool if it was ever created.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}
