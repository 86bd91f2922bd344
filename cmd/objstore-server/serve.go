package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pepperjack/objectstore/internal/blobstore"
	"github.com/pepperjack/objectstore/internal/boundary"
	"github.com/pepperjack/objectstore/internal/catalog/postgres"
	"github.com/pepperjack/objectstore/internal/config"
	"github.com/pepperjack/objectstore/internal/delete"
	"github.com/pepperjack/objectstore/internal/download"
	"github.com/pepperjack/objectstore/internal/gc"
	"github.com/pepperjack/objectstore/internal/metrics"
	"github.com/pepperjack/objectstore/internal/pathbuilder"
	"github.com/pepperjack/objectstore/internal/upload"
)

var runMigrationsOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&runMigrationsOnStart, "migrate", false, "apply pending catalog migrations before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP boundary and background garbage collector",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Root context — cancelled when a shutdown signal arrives. Every
	// long-running background goroutine (GC) receives this context so it
	// stops cleanly without its own signal wiring, matching the teacher's
	// cmd/server/main.go pattern.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if runMigrationsOnStart {
		if err := postgres.RunMigrations(ctx, cfg.CatalogDSN, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	pgCfg := cfg.PostgresConfig()
	catalogs, err := postgres.Open(ctx, &pgCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer catalogs.Close()

	paths := pathbuilder.New(cfg.HotRoot, cfg.ColdRoot)
	store, err := blobstore.NewLocal(paths, cfg.DurableWrites)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	mtr := metrics.New()

	uploadCoord := upload.New(catalogs.Objects, catalogs.Blobs, store, logger, mtr)
	downloadCoord := download.New(catalogs.Objects, store, logger, mtr)
	deleteCoord := delete.New(catalogs.Objects, catalogs.Blobs, store, logger, mtr)

	collector := gc.New(cfg.GarbageCollectorConfig(), catalogs.Objects, catalogs.Blobs, store, logger, mtr)
	go collector.Run(ctx)

	router := boundary.NewRouter(boundary.Deps{
		Upload:   uploadCoord,
		Download: downloadCoord,
		Delete:   deleteCoord,
		Objects:  catalogs.Objects,
		Pinger:   catalogs,
		Store:    store,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/metrics", mtr.Handler())

	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: mux,
		// ReadHeaderTimeout closes Slowloris: a client that never finishes
		// sending headers holds a goroutine until this fires.
		ReadHeaderTimeout: 10 * time.Second,
		// ReadTimeout/WriteTimeout are intentionally disabled (0 = no limit):
		// a large upload or download at modest bandwidth can run for many
		// minutes, and any finite value here would abort it mid-stream. An
		// outer reverse proxy is the right layer for a connection-level cap.
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("objectstore server starting",
			"listen_address", cfg.ListenAddress,
			"hot_root", cfg.HotRoot,
			"cold_root", cfg.ColdRoot,
			"gc_interval", cfg.GCInterval().String(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, shutdownSignals...)
	<-quit

	logger.Info("shutdown signal received — draining connections")
	cancel() // stop the GC loop before draining in-flight HTTP requests

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}

	logger.Info("objectstore server stopped")
	return nil
}
