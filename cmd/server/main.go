package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Xepelin-BizOps/Cotizador-OV/cmd/server/internal/commands"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool                  `help:"Enable debug mode." env:"AUTH_DEBUG"`
		Version   kong.VersionFlag
		Serve     commands.ServeCmd     `cmd:"" help:"Start the authentication server"`
		Migrate   commands.MigrateCmd   `cmd:"" help:"Apply database migrations"`
		Seed      commands.SeedCmd      `cmd:"" help:"Load companies and users from a YAML file"`
		Handshake commands.HandshakeCmd `cmd:"" help:"Run one login handshake against a running server"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// secrets must be in the environment before flags read their env defaults
	if _, err := config.LoadSecrets(os.Getenv(config.SecretsEnvVar)); err != nil {
		log.Warn().Err(err).Msg("Ignoring invalid secrets")
	}

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
