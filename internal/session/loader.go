package session

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/domain/store"
)

// ErrUnknownStore is returned when selecting a store that was not loaded.
var ErrUnknownStore = errors.New("unknown store")

// LoadInitial fetches stores, categories, flavors and products concurrently.
// When preferredStore names a loaded store it is selected and its dashboard
// loaded. On failure a danger alert is queued and the session stays usable
// with whatever it had before.
func (s *State) LoadInitial(ctx context.Context, preferredStore int64) error {
	var (
		stores     []store.Store
		categories []store.Category
		flavors    []store.Flavor
		products   []product.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stores, err = s.Backend.Stores(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.Backend.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		flavors, err = s.Backend.Flavors(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.Backend.ListProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.Push(AlertDanger, "Error loading data. Please refresh the page.")
		return errors.Wrap(err, "load initial data")
	}

	s.mu.Lock()
	s.stores = stores
	s.categories = categories
	s.flavors = flavors
	s.catalog = product.NewCatalog(products)
	if _, ok := store.Find(stores, preferredStore); ok {
		s.storeID = preferredStore
	} else if _, ok := store.Find(stores, s.storeID); !ok {
		s.storeID = 0
	}
	storeID := s.storeID
	s.mu.Unlock()

	zctx.From(ctx).Info("Session data loaded",
		zap.String("session", s.ID),
		zap.Int("stores", len(stores)),
		zap.Int("products", len(products)),
		zap.Int64("store_id", storeID),
	)

	if storeID == 0 {
		return nil
	}
	return s.loadStoreData(ctx, storeID)
}

// SelectStore switches the active store. The cart is reset since its stock
// snapshots belong to the previous store, so switching is refused while a
// checkout is in flight.
func (s *State) SelectStore(ctx context.Context, storeID int64) error {
	s.mu.RLock()
	_, ok := store.Find(s.stores, storeID)
	changed := s.storeID != storeID
	s.mu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrUnknownStore, "store %d", storeID)
	}

	if changed {
		if err := s.Cart.Reset(); err != nil {
			return errors.Wrap(err, "select store")
		}
		s.mu.Lock()
		s.storeID = storeID
		s.mu.Unlock()
	}
	return s.loadStoreData(ctx, storeID)
}

// RefreshAfterSale reloads product stock, dashboard aggregates and recent
// sales. The product list and the store data are fetched independently: a
// failure of one does not discard the other. The completed sale is never
// affected by a failure here.
func (s *State) RefreshAfterSale(ctx context.Context, storeID int64) error {
	var productsErr, storeErr error
	var g errgroup.Group
	g.Go(func() error {
		productsErr = s.ReloadProducts(ctx)
		return nil
	})
	g.Go(func() error {
		storeErr = s.loadStoreData(ctx, storeID)
		return nil
	})
	_ = g.Wait()

	if err := multierr.Combine(productsErr, storeErr); err != nil {
		return errors.Wrap(err, "refresh after sale")
	}
	return nil
}

// ReloadProducts replaces the product snapshot.
func (s *State) ReloadProducts(ctx context.Context) error {
	products, err := s.Backend.ListProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "reload products")
	}
	s.mu.Lock()
	s.catalog = product.NewCatalog(products)
	s.mu.Unlock()
	return nil
}

// loadStoreData fetches the dashboard and recent sales of storeID. Results
// for a store that is no longer selected are discarded.
func (s *State) loadStoreData(ctx context.Context, storeID int64) error {
	var (
		dash   *store.Dashboard
		recent []sale.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dash, err = s.Backend.Dashboard(gctx, storeID)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.Backend.ListSales(gctx, storeID, 1, s.recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "load store %d", storeID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeID == storeID {
		s.dashboard = dash
		s.recentSales = recent
	}
	return nil
}
