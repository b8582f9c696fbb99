package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-console/internal/backend"
	"github.com/xenking/pos-console/internal/export"
	"github.com/xenking/pos-console/internal/repository"
)

func main() {
	var (
		databaseURL string
		backendURL  string
		username    string
		password    string
		storeID     int64
		maxPages    int
	)

	flag.StringVar(&databaseURL, "database-url", "", "receipt journal PostgreSQL URL (or POS_DATABASE_URL env)")
	flag.StringVar(&backendURL, "backend-url", "http://localhost:5000", "inventory backend base URL (or POS_BACKEND_URL env)")
	flag.StringVar(&username, "username", "", "backend username (or POS_SYNC_USERNAME env)")
	flag.StringVar(&password, "password", "", "backend password (or POS_SYNC_PASSWORD env)")
	flag.Int64Var(&storeID, "store", 0, "store ID to sync; 0 syncs every store")
	flag.IntVar(&maxPages, "max-pages", 50, "maximum pages of 100 sales to fetch")
	flag.Parse()

	databaseURL = orEnv(databaseURL, "POS_DATABASE_URL")
	if v := os.Getenv("POS_BACKEND_URL"); v != "" {
		backendURL = v
	}
	username = orEnv(username, "POS_SYNC_USERNAME")
	password = orEnv(password, "POS_SYNC_PASSWORD")

	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or POS_DATABASE_URL")
		os.Exit(1)
	}
	if username == "" || password == "" {
		slog.Error("backend credentials are required: set --username/--password or POS_SYNC_USERNAME/POS_SYNC_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, backendURL, username, password, storeID, maxPages); err != nil {
		slog.Error("journal sync failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("journal sync completed successfully")
}

func orEnv(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func run(ctx context.Context, databaseURL, backendURL, username, password string, storeID int64, maxPages int) error {
	slog.Info("connecting to journal database")

	pool, err := repository.Open(ctx, databaseURL, 0)
	if err != nil {
		return errors.Wrap(err, "open journal")
	}
	defer pool.Close()

	factory, err := backend.NewFactory(backendURL, 30*time.Second)
	if err != nil {
		return errors.Wrap(err, "backend client")
	}
	client := factory.New()

	slog.Info("signing in to backend", slog.String("url", backendURL), slog.String("username", username))
	if _, err := client.Login(ctx, username, password); err != nil {
		return errors.Wrap(err, "sign in")
	}
	defer func() {
		if err := client.Logout(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("backend logout failed", slog.String("error", err.Error()))
		}
	}()

	sales, err := export.Collect(ctx, client, storeID, 100, maxPages)
	if err != nil {
		return errors.Wrap(err, "fetch sales")
	}
	slog.Info("sales fetched", slog.Int("count", len(sales)))

	receipts := repository.NewReceiptRepository(pool)
	for i := range sales {
		if err := receipts.Save(ctx, &sales[i]); err != nil {
			return errors.Wrapf(err, "journal %s", sales[i].InvoiceNumber)
		}
	}
	return nil
}
