package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig configures the single pool shared by the company and user stores.
// Zero values are replaced by ApplyDefaults.
type PoolConfig struct {
	// ConnString is a postgres:// URL or key/value DSN.
	ConnString string

	MaxConns          int32         // default 20
	MinConns          int32         // default 5
	MaxConnLifetime   time.Duration // default 1h
	MaxConnIdleTime   time.Duration // default 30m
	HealthCheckPeriod time.Duration // default 1m
	ConnectTimeout    time.Duration // default 10s

	// ConnectRetryTimeout bounds how long the Connector keeps retrying the
	// first connection. Default 30s.
	ConnectRetryTimeout time.Duration
}

var errMissingConnString = errors.New("connection string is required")

func (c *PoolConfig) Validate() error {
	if c.ConnString == "" {
		return errMissingConnString
	}
	return nil
}

func (c *PoolConfig) ApplyDefaults() {
	setDefault(&c.MaxConns, 20)
	setDefault(&c.MinConns, 5)
	setDefault(&c.MaxConnLifetime, time.Hour)
	setDefault(&c.MaxConnIdleTime, 30*time.Minute)
	setDefault(&c.HealthCheckPeriod, time.Minute)
	setDefault(&c.ConnectTimeout, 10*time.Second)
	setDefault(&c.ConnectRetryTimeout, 30*time.Second)
}

func setDefault[T int32 | time.Duration](v *T, def T) {
	if *v == 0 {
		*v = def
	}
}

// NewPool opens a pool and pings it once. It makes a single attempt; retries
// belong to the Connector.
func NewPool(ctx context.Context, cfg *PoolConfig) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, errors.New("pool config is required")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	pgCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pgCfg.MaxConns = cfg.MaxConns
	pgCfg.MinConns = cfg.MinConns
	pgCfg.MaxConnLifetime = cfg.MaxConnLifetime
	pgCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	pgCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	pgCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
