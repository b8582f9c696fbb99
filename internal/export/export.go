// Package export writes sales as gzip-compressed CSV.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/pos-console/internal/domain/sale"
)

// Header is the first CSV record.
var Header = []string{
	"invoice_number", "sale_date", "store_id", "store_name", "items",
	"subtotal", "tax_amount", "total_amount", "payment_method",
}

// WriteCSV writes sales as CSV records, one per sale.
func WriteCSV(w io.Writer, sales []sale.Sale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := range sales {
		s := &sales[i]
		rec := []string{
			s.InvoiceNumber,
			s.SaleDate.UTC().Format(time.RFC3339),
			strconv.FormatInt(s.StoreID, 10),
			s.StoreName,
			strconv.Itoa(s.ItemCount()),
			s.Subtotal.StringFixed(2),
			s.TaxAmount.StringFixed(2),
			s.TotalAmount.StringFixed(2),
			s.PaymentMethod,
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write %s", s.InvoiceNumber)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return nil
}

// WriteGzip writes sales as CSV compressed with parallel gzip.
func WriteGzip(w io.Writer, sales []sale.Sale) error {
	gz := pgzip.NewWriter(w)
	if err := WriteCSV(gz, sales); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}
	return nil
}

// Collect pages through lister until a short page, at most maxPages pages.
func Collect(ctx context.Context, lister sale.Lister, storeID int64, perPage, maxPages int) ([]sale.Sale, error) {
	var out []sale.Sale
	for page := 1; page <= maxPages; page++ {
		batch, err := lister.ListSales(ctx, storeID, page, perPage)
		if err != nil {
			return nil, errors.Wrapf(err, "page %d", page)
		}
		out = append(out, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return out, nil
}
