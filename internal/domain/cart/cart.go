package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-console/internal/domain/product"
)

// DefaultTaxRate is the sales tax applied to the cart subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Validation errors. They leave the cart unchanged.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoStore            = errors.New("select a store before checkout")
	ErrCheckoutInProgress = errors.New("checkout in progress")
)

// OutOfStockError indicates a product with no available stock.
type OutOfStockError struct {
	ProductID   int64
	ProductName string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock", e.ProductName)
}

// StockExceededError indicates a quantity above the stock snapshot.
type StockExceededError struct {
	ProductID   int64
	ProductName string
	Available   int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("only %d of %s available", e.Available, e.ProductName)
}

// IsValidation reports whether err is a cart validation failure.
func IsValidation(err error) bool {
	var (
		oos *OutOfStockError
		sxe *StockExceededError
	)
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrNoStore) ||
		errors.Is(err, ErrCheckoutInProgress) ||
		errors.As(err, &oos) ||
		errors.As(err, &sxe)
}

// LineItem is one product entry with its price and stock snapshot.
type LineItem struct {
	ProductID   int64
	ProductName string
	ProductSKU  string
	UnitPrice   decimal.Decimal
	Quantity    int
	MaxQuantity int
}

// LineTotal returns UnitPrice × Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Totals are derived from line items and never stored.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the line totals and applies rate to the subtotal.
func ComputeTotals(items []LineItem, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.LineTotal())
	}
	tax := subtotal.Mul(rate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Cart is an ordered list of line items, unique by product ID. Every
// quantity stays within [1, MaxQuantity]. Cart is not safe for concurrent
// use; Manager serialises access.
type Cart struct {
	items []LineItem
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of line items.
func (c *Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Clear removes every line item.
func (c *Cart) Clear() { c.items = nil }

func (c *Cart) index(productID int64) int {
	for i, li := range c.items {
		if li.ProductID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line item for productID.
func (c *Cart) Find(productID int64) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Add puts one unit of p in the cart. A new line captures the price and
// stock snapshot of p; an existing line keeps its original snapshot.
func (c *Cart) Add(p product.Product) error {
	if p.TotalQuantity <= 0 {
		return &OutOfStockError{ProductID: p.ID, ProductName: p.Name}
	}
	if i := c.index(p.ID); i >= 0 {
		li := &c.items[i]
		if li.Quantity+1 > li.MaxQuantity {
			return &StockExceededError{ProductID: li.ProductID, ProductName: li.ProductName, Available: li.MaxQuantity}
		}
		li.Quantity++
		return nil
	}
	c.items = append(c.items, LineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		UnitPrice:   p.SellingPrice,
		Quantity:    1,
		MaxQuantity: p.TotalQuantity,
	})
	return nil
}

// Remove deletes the line for productID. It reports whether a line existed.
func (c *Cart) Remove(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// SetQuantity sets the quantity of an existing line. Zero or less removes
// the line; a value above the stock snapshot is rejected.
func (c *Cart) SetQuantity(productID int64, quantity int) error {
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}
	li := &c.items[i]
	if quantity > li.MaxQuantity {
		return &StockExceededError{ProductID: li.ProductID, ProductName: li.ProductName, Available: li.MaxQuantity}
	}
	li.Quantity = quantity
	return nil
}
