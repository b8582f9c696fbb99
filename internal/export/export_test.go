package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pos-console/internal/domain/sale"
)

func testSales() []sale.Sale {
	return []sale.Sale{
		{
			InvoiceNumber: "INV20250101120000",
			SaleDate:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
			StoreID:       1,
			StoreName:     "Colombo, Main",
			Items:         []sale.Item{{Quantity: 2}, {Quantity: 1}},
			Subtotal:      decimal.RequireFromString("150"),
			TaxAmount:     decimal.RequireFromString("15"),
			TotalAmount:   decimal.RequireFromString("165"),
			PaymentMethod: "cash",
		},
	}
}

func TestWriteGzip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGzip(&buf, testSales()))

	gz, err := pgzip.NewReader(&buf)
	require.NoError(t, err)
	defer func() { _ = gz.Close() }()

	records, err := csv.NewReader(gz).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{
		"INV20250101120000", "2025-01-01T12:00:00Z", "1", "Colombo, Main", "3",
		"150.00", "15.00", "165.00", "cash",
	}, records[1])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

type pagedLister struct {
	total int
	err   error
	pages []int
}

func (p *pagedLister) ListSales(_ context.Context, _ int64, page, perPage int) ([]sale.Sale, error) {
	p.pages = append(p.pages, page)
	if p.err != nil {
		return nil, p.err
	}
	start := (page - 1) * perPage
	end := min(start+perPage, p.total)
	var out []sale.Sale
	for i := start; i < end; i++ {
		out = append(out, sale.Sale{ID: int64(i)})
	}
	return out, nil
}

func TestCollect(t *testing.T) {
	l := &pagedLister{total: 25}
	got, err := Collect(context.Background(), l, 1, 10, 100)
	require.NoError(t, err)
	assert.Len(t, got, 25)
	assert.Equal(t, []int{1, 2, 3}, l.pages)
}

func TestCollect_MaxPages(t *testing.T) {
	l := &pagedLister{total: 1000}
	got, err := Collect(context.Background(), l, 1, 10, 2)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestCollect_Error(t *testing.T) {
	l := &pagedLister{err: errors.New("boom")}
	_, err := Collect(context.Background(), l, 1, 10, 2)
	require.Error(t, err)
}
