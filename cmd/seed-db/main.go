package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		if err := run(ctx, lg, databaseURL, catalogFile); err != nil {
			return errors.Wrap(err, "seed")
		}
		lg.Info("Seed completed")
		return nil
	})
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile string) error {
	f, err := os.Open(catalogFile)
	if err != nil {
		return errors.Wrap(err, "open catalog file")
	}
	defer func() { _ = f.Close() }()

	seed, err := decodeSeed(f)
	if err != nil {
		return errors.Wrap(err, "parse catalog file")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return write(ctx, lg, postgres.NewCatalogRepository(pool), seed)
}

// write stores the seed. Items are upserted by name and currency so a rerun
// is a no-op for them; discounts and taxes are appended.
func write(ctx context.Context, lg *zap.Logger, repo catalogWriter, s *seed) error {
	for i := range s.Items {
		it := &s.Items[i]
		if err := repo.UpsertItem(ctx, it); err != nil {
			return errors.Wrapf(err, "upsert item %q", it.Name)
		}
		lg.Info("Upserted item",
			zap.Int64("id", it.ID),
			zap.String("name", it.Name),
			zap.Stringer("currency", it.Currency),
		)
	}
	for i := range s.Discounts {
		d := &s.Discounts[i]
		if err := repo.CreateDiscount(ctx, d); err != nil {
			return errors.Wrapf(err, "create discount %q", d.Name)
		}
		lg.Info("Created discount", zap.Int64("id", d.ID), zap.String("name", d.Name))
	}
	for i := range s.Taxes {
		t := &s.Taxes[i]
		if err := repo.CreateTax(ctx, t); err != nil {
			return errors.Wrapf(err, "create tax %q", t.Name)
		}
		lg.Info("Created tax", zap.Int64("id", t.ID), zap.String("name", t.Name))
	}
	return nil
}
