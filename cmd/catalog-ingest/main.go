package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
		cfg         IngesterConfig
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing item dumps")
	flag.StringVar(&pattern, "pattern", "items*.jsonl.gz", "glob of dump files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&cfg.Workers, "workers", 8, "concurrent database writers")
	flag.UintVar(&cfg.Capacity, "capacity", 1_000_000, "expected number of distinct items")
	flag.Float64Var(&cfg.FalsePositive, "false-positive", 1e-7, "accepted rate of unique items skipped as duplicates")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		return run(ctx, lg, filepath.Join(dataDir, pattern), databaseURL, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, glob, databaseURL string, cfg IngesterConfig) error {
	files, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrap(err, "match dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no dump files match %s", glob)
	}
	lg.Info("Ingesting catalog", zap.Strings("files", files), zap.Int("workers", cfg.Workers))

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	in := NewIngester(postgres.NewCatalogRepository(pool), cfg, lg)
	stats, err := in.Run(ctx, files)
	lg.Info("Ingest finished",
		zap.Int64("read", stats.Read),
		zap.Int64("invalid", stats.Invalid),
		zap.Int64("duplicates", stats.Duplicates),
		zap.Int64("written", stats.Written),
	)
	if err != nil {
		return errors.Wrap(err, "ingest")
	}
	return nil
}
