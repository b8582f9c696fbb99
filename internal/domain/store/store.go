// Package store holds the reference data and dashboard aggregates the console
// loads per retail location.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is a retail location.
type Store struct {
	ID          int64
	Name        string
	Address     string
	Phone       string
	Email       string
	ManagerName string
	IsActive    bool
}

// Category groups products.
type Category struct {
	ID          int64
	Name        string
	Description string
}

// Flavor is a product flavor variant.
type Flavor struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
}

// FindFlavor returns the flavor with the given ID.
func FindFlavor(flavors []Flavor, id int64) (Flavor, bool) {
	for _, f := range flavors {
		if f.ID == id {
			return f, true
		}
	}
	return Flavor{}, false
}

// InventorySummary is the per-store aggregate shown on the dashboard.
type InventorySummary struct {
	TotalItems    int
	TotalValue    decimal.Decimal
	LowStockCount int
	ExpiredItems  int
}

// LowStockItem is a product at or below its reorder point in a store.
type LowStockItem struct {
	ProductID    int64
	ProductName  string
	CurrentStock int
	ReorderPoint int
}

// ExpiringItem is an inventory batch close to its expiration date.
type ExpiringItem struct {
	InventoryID    int64
	ProductName    string
	BatchNumber    string
	Quantity       int
	ExpirationDate time.Time
}

// DaysLeft returns whole days until expiration relative to now.
func (e ExpiringItem) DaysLeft(now time.Time) int {
	return int(e.ExpirationDate.Sub(now.Truncate(24*time.Hour)).Hours() / 24)
}

// Dashboard bundles the aggregates for one store.
type Dashboard struct {
	StoreID  int64
	Summary  InventorySummary
	LowStock []LowStockItem
	Expiring []ExpiringItem
}

// Find returns the store with the given ID.
func Find(stores []Store, id int64) (Store, bool) {
	for _, s := range stores {
		if s.ID == id {
			return s, true
		}
	}
	return Store{}, false
}
