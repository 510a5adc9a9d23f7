package commands

import (
	"context"
	"fmt"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/logger"
	postgresstore "github.com/Xepelin-BizOps/Cotizador-OV/internal/store/postgres"
)

type MigrateCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	if err := c.PostgresStore.Validate(); err != nil {
		return err
	}

	connector := postgresstore.NewConnector(c.PostgresStore.poolConfig())
	defer connector.Close()

	pool, err := connector.Pool(ctx)
	if err != nil {
		return err
	}

	if err := postgresstore.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database migrations completed")
	return nil
}
