package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
)

const progressEvery = 100_000

// upserter stores catalog items.
type upserter interface {
	UpsertItem(ctx context.Context, it *catalog.Item) error
}

// Stats counts what an ingest run did with each line.
type Stats struct {
	Read       int64
	Invalid    int64
	Duplicates int64
	Written    int64
}

type counters struct {
	read, invalid, duplicates, written atomic.Int64
}

func (c *counters) stats() Stats {
	return Stats{
		Read:       c.read.Load(),
		Invalid:    c.invalid.Load(),
		Duplicates: c.duplicates.Load(),
		Written:    c.written.Load(),
	}
}

// Ingester streams gzip-compressed JSON-lines item dumps into the catalog.
// Each line is one item: {"name","description","price","currency"}.
type Ingester struct {
	repo    upserter
	workers int
	lg      *zap.Logger

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// IngesterConfig sizes an Ingester.
type IngesterConfig struct {
	Workers int
	// Capacity is the expected number of distinct items; FalsePositive is
	// the accepted rate of unique items skipped as duplicates.
	Capacity      uint
	FalsePositive float64
}

// NewIngester creates an Ingester.
func NewIngester(repo upserter, cfg IngesterConfig, lg *zap.Logger) *Ingester {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = 1_000_000
	}
	if cfg.FalsePositive <= 0 {
		cfg.FalsePositive = 1e-7
	}
	return &Ingester{
		repo:    repo,
		workers: cfg.Workers,
		lg:      lg,
		seen:    bloom.NewWithEstimates(cfg.Capacity, cfg.FalsePositive),
	}
}

// Run reads all files concurrently and upserts every first occurrence of a
// name and currency pair. Invalid lines are skipped; storage errors stop the
// run.
func (in *Ingester) Run(ctx context.Context, files []string) (Stats, error) {
	var c counters
	items := make(chan catalog.Item, 1024)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(items)
		rg, rctx := errgroup.WithContext(ctx)
		for i, f := range files {
			rg.Go(func() error {
				if err := in.readFile(rctx, f, items, &c); err != nil {
					return errors.Wrapf(err, "file %d", i+1)
				}
				return nil
			})
		}
		return rg.Wait()
	})
	for range in.workers {
		g.Go(func() error {
			for it := range items {
				if err := in.write(ctx, &it, &c); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return c.stats(), err
}

func (in *Ingester) write(ctx context.Context, it *catalog.Item, c *counters) error {
	err := in.repo.UpsertItem(ctx, it)
	var vErr *catalog.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.invalid.Add(1)
		in.lg.Warn("Skipping invalid item", zap.String("name", it.Name), zap.Error(err))
		return nil
	case err != nil:
		return errors.Wrapf(err, "upsert item %q", it.Name)
	}
	if n := c.written.Add(1); n%progressEvery == 0 {
		in.lg.Info("Ingest progress", zap.Int64("written", n))
	}
	return nil
}

// firstSeen records the item key and reports whether it was new.
func (in *Ingester) firstSeen(it *catalog.Item) bool {
	key := strings.ToLower(strings.TrimSpace(it.Name)) + "\x00" + it.Currency.String()

	in.mu.Lock()
	defer in.mu.Unlock()
	return !in.seen.TestOrAddString(key)
}

func (in *Ingester) readFile(ctx context.Context, path string, out chan<- catalog.Item, c *counters) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	lg := in.lg.With(zap.String("file", path))
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	var line int
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		c.read.Add(1)

		it, err := decodeItem(raw)
		if err != nil {
			c.invalid.Add(1)
			lg.Warn("Skipping malformed line", zap.Int("line", line), zap.Error(err))
			continue
		}
		if !in.firstSeen(&it) {
			c.duplicates.Add(1)
			continue
		}

		select {
		case out <- it:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	lg.Info("File complete", zap.Int("lines", line))
	return nil
}

func decodeItem(raw []byte) (catalog.Item, error) {
	var it catalog.Item
	err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			it.Name, err = d.Str()
		case "description":
			it.Description, err = d.Str()
		case "price":
			var s string
			switch d.Next() {
			case jx.Number:
				var n jx.Num
				n, err = d.Num()
				s = n.String()
			default:
				s, err = d.Str()
			}
			if err == nil {
				it.Price, err = decimal.NewFromString(s)
			}
		case "currency":
			var s string
			if s, err = d.Str(); err == nil && s != "" {
				it.Currency, err = money.ParseCurrency(s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return catalog.Item{}, err
	}
	if it.Currency == "" {
		it.Currency = money.DefaultCurrency
	}
	return it, nil
}
