package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/logger"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/login"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/resolver"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/server"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/session"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"COTIZADOR_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"COTIZADOR_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"COTIZADOR_TLS_KEY"`

	// Session configuration
	AllowedOrigins string        `help:"comma separated origins trusted to post login messages and call the API" default:"" env:"ALLOWED_ORIGINS"`
	Environment    string        `help:"deployment environment, production requires an explicit origin list" default:"development" enum:"development,production" env:"APP_ENV"`
	CookieMaxAge   time.Duration `help:"how long browsers keep the session cookies" default:"168h" env:"COTIZADOR_COOKIE_MAX_AGE"`

	// Operational modes
	Tracing          bool    `help:"enable tracing" default:"false" env:"COTIZADOR_TRACING"`
	TraceSampleRatio float64 `help:"fraction of traces to keep" default:"1" env:"COTIZADOR_TRACE_SAMPLE_RATIO"`
	SeedFile         string  `help:"YAML file of companies and users loaded at startup" type:"path" env:"COTIZADOR_SEED_FILE"`

	Store StoreFlags `embed:""`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Str("environment", c.Environment).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "cotizador-auth", globals.Version, c.TraceSampleRatio)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, err := c.Store.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer stores.Close()

	if c.SeedFile != "" {
		if err := seedFromFile(ctx, stores, c.SeedFile); err != nil {
			return err
		}
	}

	allow := config.ParseAllowList(c.AllowedOrigins, c.Environment == "production")
	log.Info().Strs("origins", allow.Origins).Bool("allow_all", allow.AllowAll).Msg("Origin allow-list loaded")

	handler := login.NewHandler(
		resolver.New(stores.Companies, stores.Users),
		session.NewManager(c.CookieMaxAge),
		stores.Companies,
	)

	h, err := server.NewServer(handler, allow).WithTracing(c.Tracing).Handler(log)
	if err != nil {
		return err
	}

	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be provided together (--cert and --key)")
	}
	if c.Cert != "" {
		if _, err := os.Stat(c.Cert); err != nil {
			return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
		}
		if _, err := os.Stat(c.Key); err != nil {
			return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
		}
	}

	srv := configureHTTPServer(c.Listen, h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", c.Listen).Bool("tls", c.Cert != "").Msg("Starting HTTP server")

		var err error
		if c.Cert != "" {
			err = srv.ListenAndServeTLS(c.Cert, c.Key)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
