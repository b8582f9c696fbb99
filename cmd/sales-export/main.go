package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/export"
	"github.com/xenking/pos-console/internal/repository"
)

func main() {
	var (
		databaseURL string
		stores      string
		outDir      string
		limit       int
	)

	flag.StringVar(&databaseURL, "database-url", "", "receipt journal PostgreSQL URL (or POS_DATABASE_URL env)")
	flag.StringVar(&stores, "stores", "0", "comma-separated store IDs to export; 0 exports all stores into one file")
	flag.StringVar(&outDir, "out-dir", ".", "directory for the sales-store-N.csv.gz files")
	flag.IntVar(&limit, "limit", 10000, "maximum receipts per store")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("POS_DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or POS_DATABASE_URL")
		os.Exit(1)
	}

	storeIDs, err := parseStores(stores)
	if err != nil {
		slog.Error("invalid --stores", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, storeIDs, outDir, limit); err != nil {
		slog.Error("sales export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("sales export completed successfully")
}

func parseStores(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 0 {
			return nil, errors.Errorf("bad store id %q", part)
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, errors.New("no store ids")
	}
	return out, nil
}

func run(ctx context.Context, databaseURL string, storeIDs []int64, outDir string, limit int) error {
	slog.Info("connecting to journal database")

	pool, err := repository.Open(ctx, databaseURL, int32(len(storeIDs)+1))
	if err != nil {
		return errors.Wrap(err, "open journal")
	}
	defer pool.Close()

	receipts := repository.NewReceiptRepository(pool)

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range storeIDs {
		g.Go(func() error {
			return exportStore(ctx, receipts, id, outDir, limit)
		})
	}
	return g.Wait()
}

func exportStore(ctx context.Context, receipts sale.ReceiptRepository, storeID int64, outDir string, limit int) error {
	sales, err := receipts.ListRecent(ctx, storeID, limit)
	if err != nil {
		return errors.Wrapf(err, "list store %d", storeID)
	}

	path := filepath.Join(outDir, fmt.Sprintf("sales-store-%d.csv.gz", storeID))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := export.WriteGzip(f, sales); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}

	slog.Info("store exported",
		slog.Int64("store_id", storeID),
		slog.Int("sales", len(sales)),
		slog.String("path", path),
	)
	return nil
}
