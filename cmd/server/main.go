// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/themestudio/internal/config"
	"github.com/codr1/themestudio/internal/drafts"
	"github.com/codr1/themestudio/internal/ratelimit"
	"github.com/codr1/themestudio/internal/scheduler"
	"github.com/codr1/themestudio/internal/session"
	"github.com/codr1/themestudio/internal/store"
)

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the yaml configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	themeStore, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("open theme store: %w", err)
	}
	defer func() {
		if err := themeStore.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close theme store")
		}
	}()

	sessions := session.NewRegistry(themeStore,
		session.WithMaxSessions(cfg.Sessions.MaxOpen),
		session.WithManagerOptions(
			drafts.WithHistoryLimit(cfg.History.MaxEntries),
			drafts.WithLogger(log.Logger),
		),
	)

	jobs, err := scheduler.New()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if _, err := jobs.RegisterSessionSweep(cfg.Sessions.SweepCron, sessions, cfg.Sessions.IdleTimeout); err != nil {
		return fmt.Errorf("register session sweep: %w", err)
	}
	jobs.Start()
	defer func() {
		if err := jobs.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}()

	limiter := ratelimit.New(&ratelimit.Config{
		Window:          time.Minute,
		ClientPerWindow: cfg.RateLimit.ClientWritesPerMinute,
		TenantPerWindow: cfg.RateLimit.TenantWritesPerMinute,
	})
	defer limiter.Close()

	server := newServer(cfg, sessions, limiter)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("storage", cfg.Storage.Driver).
			Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
