package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/sale"
)

// ProductLookup resolves products from the currently loaded product list.
type ProductLookup interface {
	Lookup(id int64) (product.Product, bool)
}

// Refresher reloads stock and dashboard data after a completed sale.
type Refresher interface {
	RefreshAfterSale(ctx context.Context, storeID int64) error
}

// Config holds non-dependency settings of a Manager.
type Config struct {
	// TaxRate defaults to DefaultTaxRate when nil. A zero rate charges no tax.
	TaxRate       *decimal.Decimal
	PaymentMethod string
	// Telemetry may be nil.
	Telemetry *Telemetry
}

// CheckoutResult is the outcome of a successful checkout.
type CheckoutResult struct {
	Sale *sale.Sale
	// RefreshErr is set when the post-sale reload failed. The sale stands.
	RefreshErr error
}

// Manager owns the cart of one POS session. Mutations are serialised and
// rejected while a checkout is in flight.
type Manager struct {
	products ProductLookup
	sales    sale.Recorder
	refresh  Refresher

	taxRate       decimal.Decimal
	paymentMethod string
	tel           *Telemetry

	mu      sync.Mutex
	cart    Cart
	pending bool
}

// NewManager creates a Manager with an empty cart.
func NewManager(cfg Config, products ProductLookup, sales sale.Recorder, refresh Refresher) *Manager {
	rate := DefaultTaxRate
	if cfg.TaxRate != nil {
		rate = *cfg.TaxRate
	}
	method := cfg.PaymentMethod
	if method == "" {
		method = sale.PaymentCash
	}
	return &Manager{
		products:      products,
		sales:         sales,
		refresh:       refresh,
		taxRate:       rate,
		paymentMethod: method,
		tel:           cfg.Telemetry,
	}
}

// Add puts one unit of productID in the cart. Unknown products are ignored.
func (m *Manager) Add(productID int64) error {
	p, ok := m.products.Lookup(productID)
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return ErrCheckoutInProgress
	}
	return m.cart.Add(p)
}

// Remove deletes the line for productID if present.
func (m *Manager) Remove(productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return ErrCheckoutInProgress
	}
	m.cart.Remove(productID)
	return nil
}

// SetQuantity sets the quantity of an existing line.
func (m *Manager) SetQuantity(productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return ErrCheckoutInProgress
	}
	return m.cart.SetQuantity(productID, quantity)
}

// Reset empties the cart, as when the POS view is re-initialised. It is
// rejected while a checkout is in flight.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return ErrCheckoutInProgress
	}
	m.cart.Clear()
	return nil
}

// Items returns a copy of the current line items.
func (m *Manager) Items() []LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cart.Items()
}

// View renders the current cart state.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Render(m.cart.items, m.taxRate, m.pending)
}

// Checkout submits the cart as a sale for storeID. On success the cart is
// cleared and the refresher is asked to reload stock and dashboard data. On
// failure the cart is left as it was.
func (m *Manager) Checkout(ctx context.Context, storeID int64) (*CheckoutResult, error) {
	req, err := m.beginCheckout(storeID)
	if err != nil {
		return nil, err
	}

	if m.tel != nil {
		var span trace.Span
		ctx, span = m.tel.tracer.Start(ctx, "cart.Checkout",
			trace.WithAttributes(
				attribute.Int64("store_id", storeID),
				attribute.Int("lines", len(req.Items)),
			),
		)
		defer span.End()
	}

	lg := zctx.From(ctx)
	s, err := m.sales.RecordSale(ctx, req)
	m.finishCheckout(err == nil)
	if err != nil {
		m.recordOutcome(ctx, "failed", 0)
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sale submission failed")
		}
		lg.Warn("Checkout failed", zap.Int64("store_id", storeID), zap.Error(err))
		return nil, errors.Wrap(err, "submit sale")
	}

	m.recordOutcome(ctx, "ok", unitsOf(req))
	lg.Info("Checkout completed",
		zap.String("invoice", s.InvoiceNumber),
		zap.Int64("store_id", storeID),
		zap.String("total", s.TotalAmount.StringFixed(2)),
	)

	res := &CheckoutResult{Sale: s}
	if m.refresh != nil {
		if err := m.refresh.RefreshAfterSale(ctx, storeID); err != nil {
			lg.Warn("Post-sale refresh failed", zap.Error(err))
			res.RefreshErr = err
		}
	}
	return res, nil
}

// beginCheckout validates the preconditions, builds the sale request from a
// consistent snapshot and marks the cart as pending.
func (m *Manager) beginCheckout(storeID int64) (sale.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		return sale.Request{}, ErrCheckoutInProgress
	}
	if m.cart.IsEmpty() {
		return sale.Request{}, ErrEmptyCart
	}
	if storeID == 0 {
		return sale.Request{}, ErrNoStore
	}

	items := make([]sale.RequestItem, len(m.cart.items))
	for i, li := range m.cart.items {
		items[i] = sale.RequestItem{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		}
	}
	totals := ComputeTotals(m.cart.items, m.taxRate)

	m.pending = true
	return sale.Request{
		StoreID:       storeID,
		Items:         items,
		TaxAmount:     totals.Tax.Round(2),
		PaymentMethod: m.paymentMethod,
	}, nil
}

func (m *Manager) finishCheckout(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = false
	if ok {
		m.cart.Clear()
	}
}

func (m *Manager) recordOutcome(ctx context.Context, outcome string, units int) {
	if m.tel == nil {
		return
	}
	m.tel.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if units > 0 {
		m.tel.unitsSold.Add(ctx, int64(units))
	}
}

func unitsOf(req sale.Request) int {
	n := 0
	for _, it := range req.Items {
		n += it.Quantity
	}
	return n
}
