package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrReceiptNotFound is returned when no receipt exists for an invoice number.
var ErrReceiptNotFound = errors.New("receipt not found")

// PaymentCash is the payment method used by the POS checkout.
const PaymentCash = "cash"

// Request is a sale submission built from a cart at checkout.
type Request struct {
	StoreID       int64
	Items         []RequestItem
	TaxAmount     decimal.Decimal
	PaymentMethod string
}

// RequestItem is one product line of a sale submission.
type RequestItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Sale is the server-confirmed record of a completed sale.
type Sale struct {
	ID            int64
	InvoiceNumber string
	SaleDate      time.Time
	StoreID       int64
	StoreName     string
	CustomerName  string
	Items         []Item
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	PaymentMethod string
}

// Item is a confirmed sale line.
type Item struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// ItemCount returns the total number of units sold.
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Recorder submits sales to the system of record.
type Recorder interface {
	RecordSale(ctx context.Context, req Request) (*Sale, error)
}

// Lister returns recent sales for a store, newest first.
type Lister interface {
	ListSales(ctx context.Context, storeID int64, page, perPage int) ([]Sale, error)
}

// ReceiptRepository persists printable receipts of completed sales.
type ReceiptRepository interface {
	Save(ctx context.Context, s *Sale) error
	FindByInvoice(ctx context.Context, invoice string) (*Sale, error)
	ListRecent(ctx context.Context, storeID int64, limit int) ([]Sale, error)
}
