package session

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pos-console/internal/domain/auth"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
)

func newLoadedState(t *testing.T, fb *fakeBackend) *State {
	t.Helper()

	st := NewState("s1", auth.User{}, fb, Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	return st
}

func TestState_SaveProduct(t *testing.T) {
	fb := newLoadedBackend()
	st := newLoadedState(t, fb)
	ctx := context.Background()

	d := product.Draft{Name: "Creatine", SKU: "CR-1", CategoryID: 1, SellingPrice: decimal.NewFromInt(40), IsActive: true}
	p, err := st.SaveProduct(ctx, 0, d)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Catalog().Len())
	_, ok := st.Lookup(p.ID)
	assert.True(t, ok)

	d.Name = "Creatine HCL"
	_, err = st.SaveProduct(ctx, p.ID, d)
	require.NoError(t, err)
	got, _ := st.Lookup(p.ID)
	assert.Equal(t, "Creatine HCL", got.Name)
	assert.Equal(t, []string{"product.create", "product.update"}, fb.writes)
}

func TestState_SaveProductInvalid(t *testing.T) {
	fb := newLoadedBackend()
	st := newLoadedState(t, fb)

	_, err := st.SaveProduct(context.Background(), 0, product.Draft{SKU: "X"})
	var ve *product.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, fb.writes)
}

func TestState_DeleteProduct(t *testing.T) {
	fb := newLoadedBackend()
	st := newLoadedState(t, fb)

	require.NoError(t, st.DeleteProduct(context.Background(), 11))
	_, ok := st.Lookup(11)
	assert.False(t, ok)

	err := st.DeleteProduct(context.Background(), 99)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestState_WriteFailureLeavesSnapshot(t *testing.T) {
	fb := newLoadedBackend()
	fb.writeErr = errors.New("Product name already exists")
	st := newLoadedState(t, fb)

	_, err := st.SaveProduct(context.Background(), 0, product.Draft{Name: "Whey", SKU: "W", CategoryID: 1})
	require.Error(t, err)
	assert.Equal(t, 2, st.Catalog().Len())
	assert.Empty(t, st.Alerts())
}

func TestState_ReloadFailureAfterWriteWarns(t *testing.T) {
	fb := newLoadedBackend()
	st := newLoadedState(t, fb)
	fb.mu.Lock()
	fb.productsErr = errors.New("timeout")
	fb.mu.Unlock()

	_, err := st.SaveProduct(context.Background(), 0, product.Draft{Name: "Gel", SKU: "G", CategoryID: 1})
	require.NoError(t, err)

	alerts := st.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertWarning, alerts[0].Level)
}

func TestState_SaveStore(t *testing.T) {
	fb := newLoadedBackend()
	st := newLoadedState(t, fb)
	ctx := context.Background()

	s, err := st.SaveStore(ctx, 0, store.Draft{Name: "Galle"})
	require.NoError(t, err)
	require.Len(t, st.Stores(), 3)
	assert.Equal(t, "Galle", st.Stores()[2].Name)

	_, err = st.SaveStore(ctx, s.ID, store.Draft{Name: "Galle Fort"})
	require.NoError(t, err)
	assert.Equal(t, "Galle Fort", st.Stores()[2].Name)

	_, err = st.SaveStore(ctx, 0, store.Draft{})
	var ve *store.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestState_DeleteSelectedStoreDeselects(t *testing.T) {
	fb := newLoadedBackend()
	st := newLoadedState(t, fb)
	require.NoError(t, st.Cart.Add(10))

	msg, err := st.DeleteStore(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Store deactivated successfully", msg)
	assert.Equal(t, int64(1), st.StoreID())
	assert.Len(t, st.Cart.Items(), 1)

	_, err = st.DeleteStore(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, st.StoreID())
	assert.Nil(t, st.Dashboard())
	assert.Empty(t, st.RecentSales())
	assert.Empty(t, st.Cart.Items())
}

func TestState_Flavors(t *testing.T) {
	fb := newLoadedBackend()
	fb.flavors = []store.Flavor{{ID: 1, Name: "Chocolate", IsActive: true}}
	st := newLoadedState(t, fb)
	ctx := context.Background()

	f, err := st.SaveFlavor(ctx, 0, store.FlavorDraft{Name: "Vanilla"})
	require.NoError(t, err)
	require.Len(t, st.Flavors(), 2)

	_, err = st.SaveFlavor(ctx, f.ID, store.FlavorDraft{Name: "Vanilla Bean", Description: "Smooth"})
	require.NoError(t, err)
	got, ok := store.FindFlavor(st.Flavors(), f.ID)
	require.True(t, ok)
	assert.Equal(t, "Vanilla Bean", got.Name)

	msg, err := st.DeleteFlavor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Flavor deleted successfully", msg)
	assert.Len(t, st.Flavors(), 1)

	_, err = st.SaveFlavor(ctx, 0, store.FlavorDraft{Name: " "})
	var ve *store.ValidationError
	require.ErrorAs(t, err, &ve)
}
