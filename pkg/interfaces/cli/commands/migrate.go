package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/monopilot/pkg/infrastructure/logger"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/postgres"
)

// MigrateCmd applies pending schema migrations
type MigrateCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	if err := c.PostgresStore.Validate(); err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, c.PostgresStore.poolConfig())
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info().Msg("Migrations applied")
	return nil
}
