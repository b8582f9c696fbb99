package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-console/internal/domain/sale"
)

const (
	saveReceiptSQL = `INSERT INTO receipts (
		invoice_number, sale_id, store_id, store_name, customer_name, sale_date,
		subtotal, tax_amount, total_amount, payment_method, items)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (invoice_number) DO NOTHING`

	receiptColumns = `invoice_number, sale_id, store_id, store_name, customer_name, sale_date,
		subtotal, tax_amount, total_amount, payment_method, items`

	findReceiptSQL = `SELECT ` + receiptColumns + ` FROM receipts WHERE invoice_number = $1`

	listRecentSQL = `SELECT ` + receiptColumns + ` FROM receipts
	WHERE ($1::bigint = 0 OR store_id = $1::bigint)
	ORDER BY sale_date DESC, invoice_number DESC
	LIMIT $2`
)

// receiptItem is the JSONB form of a receipt line.
type receiptItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

var _ sale.ReceiptRepository = (*ReceiptRepository)(nil)

// ReceiptRepository implements sale.ReceiptRepository backed by PostgreSQL.
type ReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewReceiptRepository returns a ReceiptRepository that uses the given pool.
func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

// Save journals s. Saving an invoice twice keeps the first copy.
func (r *ReceiptRepository) Save(ctx context.Context, s *sale.Sale) error {
	items := make([]receiptItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = receiptItem(it)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling receipt items: %w", err)
	}

	_, err = r.pool.Exec(ctx, saveReceiptSQL,
		s.InvoiceNumber, s.ID, s.StoreID, s.StoreName, s.CustomerName, s.SaleDate,
		s.Subtotal, s.TaxAmount, s.TotalAmount, s.PaymentMethod, itemsJSON,
	)
	if err != nil {
		return fmt.Errorf("saving receipt %q: %w", s.InvoiceNumber, err)
	}
	return nil
}

// FindByInvoice returns the receipt for invoice or sale.ErrReceiptNotFound.
func (r *ReceiptRepository) FindByInvoice(ctx context.Context, invoice string) (*sale.Sale, error) {
	s, err := scanReceipt(r.pool.QueryRow(ctx, findReceiptSQL, invoice))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sale.ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding receipt %q: %w", invoice, err)
	}
	return s, nil
}

// ListRecent returns up to limit receipts, newest first. A zero storeID
// lists every store.
func (r *ReceiptRepository) ListRecent(ctx context.Context, storeID int64, limit int) ([]sale.Sale, error) {
	rows, err := r.pool.Query(ctx, listRecentSQL, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	defer rows.Close()

	var out []sale.Sale
	for rows.Next() {
		s, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receipts: %w", err)
	}
	return out, nil
}

func scanReceipt(row pgx.Row) (*sale.Sale, error) {
	var (
		s         sale.Sale
		itemsJSON []byte
	)
	if err := row.Scan(
		&s.InvoiceNumber, &s.ID, &s.StoreID, &s.StoreName, &s.CustomerName, &s.SaleDate,
		&s.Subtotal, &s.TaxAmount, &s.TotalAmount, &s.PaymentMethod, &itemsJSON,
	); err != nil {
		return nil, err
	}

	var items []receiptItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling receipt items: %w", err)
	}
	s.Items = make([]sale.Item, len(items))
	for i, it := range items {
		s.Items[i] = sale.Item(it)
	}
	return &s, nil
}
