package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/db"
	"ticketscan/backend/internal/logging"
	"ticketscan/backend/internal/repository"
	"ticketscan/backend/internal/ticketparser/core"
	"ticketscan/backend/internal/ticketparser/extract"
)

// scanStore is the part of the repository the worker needs.
type scanStore interface {
	ListScansBeforeCatalog(ctx context.Context, version string, limit int) ([]core.ScanResult, error)
	UpdateScanFields(ctx context.Context, id string, fields core.FieldRecord, version string) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging, "worker")
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate error", "error", err)
		os.Exit(1)
	}

	extractor, err := extract.NewFromFile(cfg.CatalogFile)
	if err != nil {
		logger.Error("catalog error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker_started", "catalog_version", extractor.Version(), "interval", cfg.Worker.Interval.String())
	run(ctx, repository.New(pool), extractor, cfg.Worker, logger)
	logger.Info("shutdown", "service", "worker")
}

// run re-extracts stale scans until ctx is cancelled, sleeping between empty or failing batches.
func run(ctx context.Context, store scanStore, extractor *extract.Extractor, cfg config.WorkerConfig, logger *slog.Logger) {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	for {
		fetched, updated, err := reextractBatch(ctx, store, extractor, cfg.BatchSize, logger)
		wait := time.Duration(0)
		switch {
		case err != nil:
			logger.Error("fetch_scans_error", "error", err)
			wait = 5 * time.Second
		case fetched == 0 || updated < fetched:
			wait = cfg.Interval
		}
		if wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		} else if ctx.Err() != nil {
			return
		}
	}
}

// reextractBatch runs the current catalog over one batch of scans produced by an older one.
func reextractBatch(ctx context.Context, store scanStore, extractor *extract.Extractor, batch int, logger *slog.Logger) (fetched, updated int, err error) {
	scans, err := store.ListScansBeforeCatalog(ctx, extractor.Version(), batch)
	if err != nil {
		return 0, 0, err
	}
	for _, scan := range scans {
		fields := core.ExtractFields(extractor, scan.RawText)
		if err := store.UpdateScanFields(ctx, scan.ID, fields, extractor.Version()); err != nil {
			logger.Error("scan_update_failed", "scan_id", scan.ID, "error", err)
			continue
		}
		updated++
		logger.Debug("scan_reextracted",
			"scan_id", scan.ID,
			"from_version", scan.CatalogVersion,
			"to_version", extractor.Version(),
			"changed", !sameFields(scan.Fields, fields),
		)
	}
	if len(scans) > 0 {
		logger.Info("batch_reextracted", "fetched", len(scans), "updated", updated)
	}
	return len(scans), updated, nil
}

func sameFields(a, b core.FieldRecord) bool {
	return sameDate(a.EventDate, b.EventDate) && sameString(a.Venue, b.Venue) && sameString(a.Title, b.Title)
}

func sameDate(a, b *extract.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
