package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item as reported by the inventory backend.
type Product struct {
	ID            int64
	Name          string
	SKU           string
	CategoryID    int64
	CategoryName  string
	Description   string
	WeightVolume  string
	CostPrice     decimal.Decimal
	SellingPrice  decimal.Decimal
	ReorderPoint  int
	TotalQuantity int
	HasFlavors    bool
	FlavorIDs     []int64
	IsActive      bool
}

// StockLevel classifies the available quantity of a product.
type StockLevel string

const (
	StockOut StockLevel = "out"
	StockLow StockLevel = "low"
	StockOK  StockLevel = "ok"
)

// Stock returns the stock level of p relative to its reorder point.
func (p Product) Stock() StockLevel {
	switch {
	case p.TotalQuantity <= 0:
		return StockOut
	case p.TotalQuantity <= p.ReorderPoint:
		return StockLow
	default:
		return StockOK
	}
}

// Repository defines read operations for the product catalog.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Filter narrows a product listing.
type Filter struct {
	// Search matches name or SKU, case-insensitively.
	Search     string
	CategoryID int64
}

// Catalog is an immutable snapshot of the loaded product list.
type Catalog struct {
	products []Product
	byID     map[int64]int
}

// NewCatalog indexes products by ID. Later duplicates win.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[int64]int, len(products)),
	}
	copy(c.products, products)
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// Lookup returns the product with the given ID.
func (c *Catalog) Lookup(id int64) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Len returns the number of products in the snapshot.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// List returns the products matching f in load order.
func (c *Catalog) List(f Filter) []Product {
	if c == nil {
		return nil
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sellable returns active products that have stock left.
func (c *Catalog) Sellable() []Product {
	if c == nil {
		return nil
	}
	var out []Product
	for _, p := range c.products {
		if p.IsActive && p.TotalQuantity > 0 {
			out = append(out, p)
		}
	}
	return out
}
