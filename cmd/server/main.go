// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/api"
	"github.com/tomtom215/estatemap/internal/audit"
	"github.com/tomtom215/estatemap/internal/cache"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/database"
	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/supervisor"
	"github.com/tomtom215/estatemap/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("artifacts_dir", cfg.Artifacts.Dir).
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Estatemap with supervisor tree")

	os.Exit(run(cfg))
}

// run owns every deferred close so they execute before os.Exit.
func run(cfg *config.Config) int {
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	analyticsCache := cache.New(cfg.Analytics.CacheTTL)
	defer analyticsCache.Close()

	loader := catalog.NewLoader(cfg, db, analytics.NewService(db, analyticsCache, cfg.Analytics))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Audit.Enabled {
		history, err := newReloadHistory(ctx, cfg, db)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to initialize reload history")
			return 1
		}
		defer func() {
			if err := history.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing reload history")
			}
		}()
		history.StartCleanupRoutine(ctx)
		loader.SetAudit(history)
		logging.Info().Int("retention_days", cfg.Audit.RetentionDays).Msg("Reload history enabled")
	}

	// Missing artifacts disable features, they do not stop the server
	snap, err := loader.Reload(ctx, catalog.TriggerStartup)
	if err != nil {
		logging.Warn().Err(err).Msg("Starting with some features disabled")
	}
	for feature, status := range snap.Status() {
		logging.Info().Str("feature", string(feature)).Bool("ready", status.Ready).Msg("Feature status")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return 1
	}

	handler := api.NewHandler(loader, db, cfg)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, cfg).SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.Artifacts.Watch {
		tree.AddDataService(services.NewArtifactWatchService(cfg.Artifacts, loader))
		logging.Info().Msg("Artifact watcher added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
	}
	code := 0
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		code = 1
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Application stopped")
	return code
}

// newReloadHistory stores reload events next to the listings in DuckDB.
func newReloadHistory(ctx context.Context, cfg *config.Config, db *database.DB) (*audit.Logger, error) {
	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		return nil, err
	}
	return audit.NewLogger(store, &audit.Config{
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: time.Hour,
		BufferSize:      cfg.Audit.BufferSize,
	}), nil
}
