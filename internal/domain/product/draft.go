package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultReorderPoint is used when a new product does not set one.
const DefaultReorderPoint = 10

// ValidationError is a product form value the backend would reject.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Draft is the editable part of a product, used to create or update one.
type Draft struct {
	Name         string
	SKU          string
	CategoryID   int64
	Description  string
	WeightVolume string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	ReorderPoint int
	HasFlavors   bool
	FlavorIDs    []int64
	IsActive     bool
}

// Validate checks the fields the backend requires.
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return &ValidationError{Message: "Product name is required"}
	case strings.TrimSpace(d.SKU) == "":
		return &ValidationError{Message: "SKU is required"}
	case d.CategoryID <= 0:
		return &ValidationError{Message: "Category is required"}
	case d.SellingPrice.IsNegative():
		return &ValidationError{Message: "Selling price cannot be negative"}
	case d.CostPrice.IsNegative():
		return &ValidationError{Message: "Cost price cannot be negative"}
	case d.ReorderPoint < 0:
		return &ValidationError{Message: "Reorder point cannot be negative"}
	case d.HasFlavors && len(d.FlavorIDs) == 0:
		return &ValidationError{Message: "Select at least one flavor"}
	}
	return nil
}

// DraftOf returns the editable fields of p.
func DraftOf(p Product) Draft {
	return Draft{
		Name:         p.Name,
		SKU:          p.SKU,
		CategoryID:   p.CategoryID,
		Description:  p.Description,
		WeightVolume: p.WeightVolume,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		ReorderPoint: p.ReorderPoint,
		HasFlavors:   p.HasFlavors,
		FlavorIDs:    append([]int64(nil), p.FlavorIDs...),
		IsActive:     p.IsActive,
	}
}

// HasFlavor reports whether flavorID is selected.
func (d Draft) HasFlavor(flavorID int64) bool {
	for _, id := range d.FlavorIDs {
		if id == flavorID {
			return true
		}
	}
	return false
}

// Editor manages products on the backend.
type Editor interface {
	Product(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, d Draft) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, d Draft) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
