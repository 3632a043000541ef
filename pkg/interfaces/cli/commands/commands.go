package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"MONOPILOT_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig() *postgres.PoolConfig {
	return &postgres.PoolConfig{
		ConnString:      s.ConnString,
		MaxConns:        s.MaxConns,
		MinConns:        s.MinConns,
		MaxConnLifetime: s.MaxConnLifetime,
		MaxConnIdleTime: s.MaxConnIdleTime,
	}
}

// backend is an opened repository set with its lifecycle hooks
type backend struct {
	repos  repositories.Set
	health func(ctx context.Context) error
	close  func()
}

// openStore opens the memory or postgres store
func openStore(ctx context.Context, storeType string, pg *PostgresStoreFlags) (*backend, error) {
	log := zerolog.Ctx(ctx)

	switch storeType {
	case "postgres":
		if err := pg.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}
		pool, err := postgres.NewPool(ctx, pg.poolConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if pg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		store := postgres.NewStore(pool)
		log.Info().Msg("Using PostgreSQL store")
		return &backend{repos: store.Repositories(), health: store.Ping, close: store.Close}, nil

	default:
		store := memory.NewStore()
		log.Info().Msg("Using in-memory store")
		return &backend{repos: store.Repositories(), close: func() {}}, nil
	}
}
