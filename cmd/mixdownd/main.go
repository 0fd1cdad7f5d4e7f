package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"mixdown/internal/api"
	"mixdown/internal/catalog"
	"mixdown/internal/config"
	"mixdown/internal/deps"
	"mixdown/internal/jobs"
	"mixdown/internal/logging"
	"mixdown/internal/merge"
	"mixdown/internal/notifications"
	"mixdown/internal/staging"
	"mixdown/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logger.Error("required tools missing", logging.Any("tools", missing))
		return
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open jobs store", logging.Error(err))
		return
	}
	defer store.Close()

	backend, err := storage.NewLocal(cfg.StorageDir, cfg.PublicBaseURL, logger)
	if err != nil {
		logger.Error("open storage backend", logging.Error(err))
		return
	}

	syncer := catalog.NewSynchronizer(backend, cfg.CatalogDocument, cfg.PublicBaseURL, catalog.RetryPolicy{
		Attempts: cfg.VerifyAttempts,
		Backoff:  cfg.VerifyBackoff(),
	}, logger)

	notifier := notifications.NewService(cfg)
	pipeline := merge.NewPipeline(cfg, backend, syncer, store, notifier, logger)
	server := api.NewServer(cfg, pipeline, store, syncer, notifier, logger)

	go sweep(ctx, cfg, store, logger)

	if err := server.Serve(ctx); err != nil {
		logger.Error("api server", logging.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if failed, err := store.FailInFlight(shutdownCtx, ""); err != nil {
		logger.Warn("fail in-flight jobs", logging.Error(err))
	} else if failed > 0 {
		logger.Info("in-flight jobs marked failed", logging.Int64("count", failed))
	}
	logger.Info("mixdownd shutting down")
}

// jobRetention bounds how long finished jobs stay queryable before the
// sweep prunes them.
const jobRetention = 30 * 24 * time.Hour

// sweep periodically removes abandoned staging namespaces left behind by
// crashed or interrupted merges and prunes old job history.
func sweep(ctx context.Context, cfg *config.Config, store *jobs.Store, logger *slog.Logger) {
	interval := cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, cfg, store, time.Now().Add(-jobRetention), logger)
		}
	}
}

func sweepOnce(ctx context.Context, cfg *config.Config, store *jobs.Store, jobCutoff time.Time, logger *slog.Logger) {
	result := staging.CleanStale(ctx, cfg.StagingDir, cfg.StagingMaxAge(), logger)
	if len(result.Removed) > 0 {
		logger.Info("stale staging removed", logging.Int("count", len(result.Removed)))
	}
	pruned, err := store.Prune(ctx, jobCutoff)
	if err != nil {
		logger.Warn("prune job history", logging.Error(err))
	} else if pruned > 0 {
		logger.Info("old jobs pruned", logging.Int64("count", pruned))
	}
}
