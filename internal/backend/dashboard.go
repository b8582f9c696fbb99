package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-console/internal/domain/store"
)

// Dashboard loads the inventory summary, low-stock list and expiring batches
// of a store concurrently.
func (c *Client) Dashboard(ctx context.Context, storeID int64) (*store.Dashboard, error) {
	id := strconv.FormatInt(storeID, 10)
	q := url.Values{"store_id": []string{id}}

	var (
		summary  storeSummaryDTO
		lowStock []productDTO
		expiring []inventoryDTO
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.get(ctx, "/api/stores/"+id+"/inventory-summary", nil, &summary); err != nil {
			return errors.Wrap(err, "inventory summary")
		}
		return nil
	})
	g.Go(func() error {
		if err := c.get(ctx, "/api/products/low-stock", q, &lowStock); err != nil {
			return errors.Wrap(err, "low stock")
		}
		return nil
	})
	g.Go(func() error {
		if err := c.get(ctx, "/api/inventory/expiring-soon", q, &expiring); err != nil {
			return errors.Wrap(err, "expiring soon")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "dashboard for store %d", storeID)
	}

	d := &store.Dashboard{
		StoreID: storeID,
		Summary: store.InventorySummary{
			TotalItems:    summary.InventorySummary.TotalItems,
			TotalValue:    summary.InventorySummary.TotalValue,
			LowStockCount: summary.InventorySummary.LowStockCount,
			ExpiredItems:  summary.InventorySummary.ExpiredItems,
		},
		LowStock: make([]store.LowStockItem, len(lowStock)),
		Expiring: make([]store.ExpiringItem, len(expiring)),
	}
	for i, p := range lowStock {
		d.LowStock[i] = store.LowStockItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			CurrentStock: p.TotalQuantity,
			ReorderPoint: p.ReorderPoint,
		}
	}
	for i, inv := range expiring {
		d.Expiring[i] = store.ExpiringItem{
			InventoryID:    inv.ID,
			ProductName:    inv.ProductName,
			BatchNumber:    inv.BatchNumber,
			Quantity:       inv.Quantity,
			ExpirationDate: inv.ExpirationDate.Time,
		}
	}
	return d, nil
}
