//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/pos-console/internal/domain/sale"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dc, err := tc.NewDockerCompose("testdata/docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}
	defer func() {
		if err := dc.Down(context.Background(), tc.RemoveOrphans(true), tc.RemoveVolumes(true)); err != nil {
			log.Printf("compose down: %v", err)
		}
	}()

	err = dc.
		WaitForService("postgres", wait.ForLog("database system is ready to accept connections").WithOccurrence(2)).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Fatalf("compose up: %v", err)
	}

	pg, err := dc.ServiceContainer(ctx, "postgres")
	if err != nil {
		log.Fatalf("postgres container: %v", err)
	}
	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port())
	testPool, err = Open(ctx, url, 4)
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer testPool.Close()

	return m.Run()
}

func TestReceiptRepository_SaveFind(t *testing.T) {
	ctx := context.Background()
	r := NewReceiptRepository(testPool)
	at := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, r.Save(ctx, newReceipt("INV-IT-1", 1, at)))
	require.NoError(t, r.Save(ctx, newReceipt("INV-IT-1", 1, at)), "duplicate invoice is ignored")

	got, err := r.FindByInvoice(ctx, "INV-IT-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.StoreID)
	assert.True(t, got.SaleDate.Equal(at))
	assert.Equal(t, "110.00", got.TotalAmount.StringFixed(2))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Whey", got.Items[0].ProductName)
	assert.True(t, got.Items[0].LineTotal.Equal(got.Subtotal))

	_, err = r.FindByInvoice(ctx, "missing")
	require.ErrorIs(t, err, sale.ErrReceiptNotFound)
}

func TestReceiptRepository_ListRecent(t *testing.T) {
	ctx := context.Background()
	r := NewReceiptRepository(testPool)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, r.Save(ctx, newReceipt("INV-LR-1", 7, base)))
	require.NoError(t, r.Save(ctx, newReceipt("INV-LR-2", 7, base.Add(time.Hour))))
	require.NoError(t, r.Save(ctx, newReceipt("INV-LR-3", 8, base.Add(2*time.Hour))))

	got, err := r.ListRecent(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "INV-LR-2", got[0].InvoiceNumber)
	assert.Equal(t, "INV-LR-1", got[1].InvoiceNumber)

	all, err := r.ListRecent(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
