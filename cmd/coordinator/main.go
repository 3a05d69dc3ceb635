package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/workspace-coordinator/internal/assign"
	"github.com/p-blackswan/workspace-coordinator/internal/claim"
	"github.com/p-blackswan/workspace-coordinator/internal/config"
	"github.com/p-blackswan/workspace-coordinator/internal/health"
	"github.com/p-blackswan/workspace-coordinator/internal/journal"
	"github.com/p-blackswan/workspace-coordinator/internal/metrics"
	"github.com/p-blackswan/workspace-coordinator/internal/mgmt"
	"github.com/p-blackswan/workspace-coordinator/internal/session"
	"github.com/p-blackswan/workspace-coordinator/internal/sweep"
)

func main() {
	// Structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	project, err := config.LoadProject(cfg.ProjectFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load project manifest")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("project", project.Name).
		Str("root", project.Root).
		Str("backend", cfg.StoreBackend).
		Str("listen", cfg.ListenAddr).
		Msg("starting workspace coordinator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Session store
	var (
		store    session.Store
		shutdown func() error
	)
	switch cfg.StoreBackend {
	case "sqlite":
		s, err := session.NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open sqlite store")
		}
		store, shutdown = s, s.Shutdown
	case "memory":
		store = session.NewMemoryStore()
	default:
		s, err := session.NewFileStore(cfg.DataDir, project.Root, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open file store")
		}
		store = s
	}

	// Core services
	claims := claim.New(store, logger)
	allocator := assign.NewAllocator(store)

	plan, err := journal.New(cfg.JournalDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open journal")
	}

	m := metrics.New()

	checker := health.NewChecker(logger)
	checker.Register("store", func(context.Context) health.Status {
		if _, err := store.List(session.FilterActive); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Periodic conflict sweep
	var wg sync.WaitGroup
	sweeper := sweep.New(store, m, cfg.SweepInterval, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	// Management API
	handlers := mgmt.NewHandlers(store, claims, allocator, plan, checker, m, project.DefaultFocus, logger)
	server := mgmt.NewServer(mgmt.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: mgmt.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, m, logger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("management API server error")
		}
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	cancel()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("management API server shutdown error")
	}
	if shutdown != nil {
		if err := shutdown(); err != nil {
			logger.Error().Err(err).Msg("store shutdown error")
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("workspace coordinator stopped")
}
