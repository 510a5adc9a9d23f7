package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/logger"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/seed"
	"github.com/rs/zerolog/log"
)

type SeedCmd struct {
	File  string     `arg:"" help:"YAML file of companies and their users" type:"existingfile"`
	Store StoreFlags `embed:""`
}

func (c *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	if c.Store.StoreType == "memory" {
		log.Warn().Msg("Seeding the in-memory store, data is discarded on exit")
	}

	stores, err := c.Store.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer stores.Close()

	return seedFromFile(ctx, stores, c.File)
}

func seedFromFile(ctx context.Context, stores *Stores, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	file, err := seed.Load(f)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	res, err := seed.Apply(ctx, stores.Companies, stores.Users, file)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().Str("file", path).Int("companies", res.Companies).Int("users", res.Users).Msg("Seed applied")
	return nil
}
