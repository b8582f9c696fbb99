package session

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
)

// SaveProduct creates a product when id is 0 and updates product id
// otherwise, then reloads the product snapshot. A failed reload is logged;
// the write stands.
func (s *State) SaveProduct(ctx context.Context, id int64, d product.Draft) (*product.Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		p   *product.Product
		err error
	)
	if id == 0 {
		p, err = s.Backend.CreateProduct(ctx, d)
	} else {
		p, err = s.Backend.UpdateProduct(ctx, id, d)
	}
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product", s.ReloadProducts(ctx))
	return p, nil
}

// DeleteProduct deletes product id and reloads the product snapshot.
func (s *State) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.Backend.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "product", s.ReloadProducts(ctx))
	return nil
}

// SaveStore creates a store when id is 0 and updates store id otherwise.
func (s *State) SaveStore(ctx context.Context, id int64, d store.Draft) (*store.Store, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		st  *store.Store
		err error
	)
	if id == 0 {
		st, err = s.Backend.CreateStore(ctx, d)
	} else {
		st, err = s.Backend.UpdateStore(ctx, id, d)
	}
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "store", s.reloadStores(ctx))
	return st, nil
}

// DeleteStore deletes or deactivates store id. It returns the backend's
// confirmation message.
func (s *State) DeleteStore(ctx context.Context, id int64) (string, error) {
	msg, err := s.Backend.DeleteStore(ctx, id)
	if err != nil {
		return "", err
	}
	s.afterWrite(ctx, "store", s.reloadStores(ctx))
	return msg, nil
}

// SaveFlavor creates a flavor when id is 0 and updates flavor id otherwise.
func (s *State) SaveFlavor(ctx context.Context, id int64, d store.FlavorDraft) (*store.Flavor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		f   *store.Flavor
		err error
	)
	if id == 0 {
		f, err = s.Backend.CreateFlavor(ctx, d)
	} else {
		f, err = s.Backend.UpdateFlavor(ctx, id, d)
	}
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "flavor", s.reloadFlavors(ctx))
	return f, nil
}

// DeleteFlavor deletes or deactivates flavor id.
func (s *State) DeleteFlavor(ctx context.Context, id int64) (string, error) {
	msg, err := s.Backend.DeleteFlavor(ctx, id)
	if err != nil {
		return "", err
	}
	s.afterWrite(ctx, "flavor", s.reloadFlavors(ctx))
	return msg, nil
}

func (s *State) afterWrite(ctx context.Context, kind string, reloadErr error) {
	if reloadErr == nil {
		return
	}
	zctx.From(ctx).Warn("Reload after write failed",
		zap.String("session", s.ID),
		zap.String("kind", kind),
		zap.Error(reloadErr),
	)
	s.Push(AlertWarning, "Saved, but the list could not be refreshed. Please reload the page.")
}

// reloadStores replaces the store list. A selected store that is no longer
// listed is deselected along with its dashboard and the cart.
func (s *State) reloadStores(ctx context.Context) error {
	stores, err := s.Backend.Stores(ctx)
	if err != nil {
		return errors.Wrap(err, "reload stores")
	}

	s.mu.Lock()
	s.stores = stores
	_, kept := store.Find(stores, s.storeID)
	dropped := s.storeID != 0 && !kept
	if dropped {
		s.storeID = 0
		s.dashboard = nil
		s.recentSales = nil
	}
	s.mu.Unlock()

	if dropped {
		// A checkout in flight finishes against the old store.
		_ = s.Cart.Reset()
	}
	return nil
}

func (s *State) reloadFlavors(ctx context.Context) error {
	flavors, err := s.Backend.Flavors(ctx)
	if err != nil {
		return errors.Wrap(err, "reload flavors")
	}
	s.mu.Lock()
	s.flavors = flavors
	s.mu.Unlock()
	return nil
}
