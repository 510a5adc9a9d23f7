package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	memorystore "github.com/Xepelin-BizOps/Cotizador-OV/internal/store/memory"
	postgresstore "github.com/Xepelin-BizOps/Cotizador-OV/internal/store/postgres"
	"github.com/rs/zerolog/log"
)

type Globals struct {
	Debug   bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

type StoreFlags struct {
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"COTIZADOR_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString   string `help:"PostgreSQL connection string" env:"DATABASE_URL"`
	RetryTimeout time.Duration `help:"how long to keep retrying the initial connection" default:"30s" env:"COTIZADOR_POSTGRES_RETRY_TIMEOUT"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"COTIZADOR_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or DATABASE_URL)")
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:          s.ConnString,
		MaxConns:            s.MaxConns,
		MinConns:            s.MinConns,
		MaxConnLifetime:     s.MaxConnLifetime,
		MaxConnIdleTime:     s.MaxConnIdleTime,
		ConnectRetryTimeout: s.RetryTimeout,
	}
}

// connect creates the shared connector and connects eagerly so the first
// requests never race to build the pool.
func (s *PostgresStoreFlags) connect(ctx context.Context) (*postgresstore.Connector, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	connector := postgresstore.NewConnector(s.poolConfig())
	pool, err := connector.Pool(ctx)
	if err != nil {
		return nil, err
	}

	if s.AutoMigrate {
		if err := postgresstore.Migrate(ctx, pool); err != nil {
			connector.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed")
	}

	return connector, nil
}

// Stores are the record stores shared by every request.
type Stores struct {
	Companies store.CompanyStore
	Users     store.UserStore
	close     func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

func (f *StoreFlags) open(ctx context.Context) (*Stores, error) {
	switch f.StoreType {
	case "postgres":
		connector, err := f.PostgresStore.connect(ctx)
		if err != nil {
			return nil, err
		}
		pool, err := connector.Pool(ctx)
		if err != nil {
			connector.Close()
			return nil, err
		}

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")
		return &Stores{
			Companies: postgresstore.NewCompanyStore(pool),
			Users:     postgresstore.NewUserStore(pool),
			close:     connector.Close,
		}, nil

	default:
		log.Info().Msg("Using in-memory stores")
		return &Stores{
			Companies: memorystore.NewCompanyStore(),
			Users:     memorystore.NewUserStore(),
		}, nil
	}
}
