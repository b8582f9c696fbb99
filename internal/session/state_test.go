package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pos-console/internal/domain/auth"
	"github.com/xenking/pos-console/internal/domain/cart"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/domain/store"
)

// --- Mock implementations ---

type fakeBackend struct {
	mu           sync.Mutex
	stores       []store.Store
	products     []product.Product
	productsErr  error
	dashboardErr error
	dashboards   int
	listed       []int64
	sale         *sale.Sale
	block        chan struct{}
	flavors      []store.Flavor
	writeErr     error
	writes       []string
}

func (f *fakeBackend) Login(context.Context, string, string) (*auth.User, error) {
	return &auth.User{Username: "admin"}, nil
}

func (f *fakeBackend) CurrentUser(context.Context) (*auth.User, error) {
	return &auth.User{Username: "admin"}, nil
}

func (f *fakeBackend) Logout(context.Context) error { return nil }

func (f *fakeBackend) RecordSale(_ context.Context, req sale.Request) (*sale.Sale, error) {
	if f.sale == nil {
		return nil, errors.New("no sale configured")
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	// Stock moves on the server once the sale is recorded.
	for _, it := range req.Items {
		for i := range f.products {
			if f.products[i].ID == it.ProductID {
				f.products[i].TotalQuantity -= it.Quantity
			}
		}
	}
	f.mu.Unlock()
	return f.sale, nil
}

func (f *fakeBackend) ListSales(_ context.Context, storeID int64, _, perPage int) ([]sale.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, storeID)
	return []sale.Sale{{InvoiceNumber: "INV-recent", StoreID: storeID}}, nil
}

func (f *fakeBackend) Stores(context.Context) ([]store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Store(nil), f.stores...), nil
}

func (f *fakeBackend) Categories(context.Context) ([]store.Category, error) {
	return []store.Category{{ID: 1, Name: "Protein"}}, nil
}

func (f *fakeBackend) Flavors(context.Context) ([]store.Flavor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flavors == nil {
		return []store.Flavor{{ID: 1, Name: "Chocolate"}}, nil
	}
	return append([]store.Flavor(nil), f.flavors...), nil
}

func (f *fakeBackend) ListProducts(context.Context) ([]product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return append([]product.Product(nil), f.products...), nil
}

func (f *fakeBackend) Dashboard(_ context.Context, storeID int64) (*store.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	f.dashboards++
	return &store.Dashboard{StoreID: storeID, Summary: store.InventorySummary{TotalItems: 10}}, nil
}

func (f *fakeBackend) SalesHistory(_ context.Context, hf sale.HistoryFilter) (*sale.HistoryPage, error) {
	return &sale.HistoryPage{Page: hf.Page, Pages: 1}, nil
}

func (f *fakeBackend) Sale(context.Context, int64) (*sale.Sale, error) {
	return nil, sale.ErrReceiptNotFound
}

func (f *fakeBackend) Product(_ context.Context, id int64) (*product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// write records a backend write and reports the configured failure.
func (f *fakeBackend) write(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, name)
	return f.writeErr
}

func (f *fakeBackend) CreateProduct(_ context.Context, d product.Draft) (*product.Product, error) {
	if err := f.write("product.create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := product.Product{ID: int64(100 + len(f.products)), Name: d.Name, SKU: d.SKU, SellingPrice: d.SellingPrice, TotalQuantity: 0, IsActive: d.IsActive}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, id int64, d product.Draft) (*product.Product, error) {
	if err := f.write("product.update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = d.Name
			f.products[i].SellingPrice = d.SellingPrice
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (f *fakeBackend) DeleteProduct(_ context.Context, id int64) error {
	if err := f.write("product.delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return product.ErrNotFound
}

func (f *fakeBackend) CreateStore(_ context.Context, d store.Draft) (*store.Store, error) {
	if err := f.write("store.create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := store.Store{ID: int64(len(f.stores) + 1), Name: d.Name, IsActive: true}
	f.stores = append(f.stores, s)
	return &s, nil
}

func (f *fakeBackend) UpdateStore(_ context.Context, id int64, d store.Draft) (*store.Store, error) {
	if err := f.write("store.update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.stores {
		if f.stores[i].ID == id {
			f.stores[i].Name = d.Name
			s := f.stores[i]
			return &s, nil
		}
	}
	return nil, errors.New("store not found")
}

func (f *fakeBackend) DeleteStore(_ context.Context, id int64) (string, error) {
	if err := f.write("store.delete"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.stores {
		if f.stores[i].ID == id {
			f.stores = append(f.stores[:i], f.stores[i+1:]...)
			break
		}
	}
	return "Store deactivated successfully", nil
}

func (f *fakeBackend) CreateFlavor(_ context.Context, d store.FlavorDraft) (*store.Flavor, error) {
	if err := f.write("flavor.create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fl := store.Flavor{ID: int64(len(f.flavors) + 1), Name: d.Name, Description: d.Description, IsActive: true}
	f.flavors = append(f.flavors, fl)
	return &fl, nil
}

func (f *fakeBackend) UpdateFlavor(_ context.Context, id int64, d store.FlavorDraft) (*store.Flavor, error) {
	if err := f.write("flavor.update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.flavors {
		if f.flavors[i].ID == id {
			f.flavors[i].Name = d.Name
			f.flavors[i].Description = d.Description
			fl := f.flavors[i]
			return &fl, nil
		}
	}
	return nil, errors.New("flavor not found")
}

func (f *fakeBackend) DeleteFlavor(_ context.Context, id int64) (string, error) {
	if err := f.write("flavor.delete"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.flavors {
		if f.flavors[i].ID == id {
			f.flavors = append(f.flavors[:i], f.flavors[i+1:]...)
			break
		}
	}
	return "Flavor deleted successfully", nil
}

// --- Helpers ---

func newLoadedBackend() *fakeBackend {
	return &fakeBackend{
		stores: []store.Store{{ID: 1, Name: "Colombo"}, {ID: 2, Name: "Kandy"}},
		products: []product.Product{
			{ID: 10, Name: "Whey", SellingPrice: decimal.NewFromInt(100), TotalQuantity: 5, IsActive: true},
			{ID: 11, Name: "BCAA", SellingPrice: decimal.NewFromInt(50), TotalQuantity: 0, IsActive: true},
		},
		sale: &sale.Sale{InvoiceNumber: "INV1", StoreID: 1, TotalAmount: decimal.NewFromInt(110)},
	}
}

// --- Tests ---

func TestState_LoadInitial(t *testing.T) {
	fb := newLoadedBackend()
	st := NewState("s1", auth.User{Username: "admin"}, fb, Options{})

	require.NoError(t, st.LoadInitial(context.Background(), 0))

	assert.Len(t, st.Stores(), 2)
	assert.Len(t, st.Categories(), 1)
	assert.Len(t, st.Flavors(), 1)
	assert.Equal(t, 2, st.Catalog().Len())
	assert.Zero(t, st.StoreID())
	assert.Nil(t, st.Dashboard())
	assert.Empty(t, st.Alerts())
}

func TestState_LoadInitialPreferredStore(t *testing.T) {
	fb := newLoadedBackend()
	st := NewState("s1", auth.User{}, fb, Options{})

	require.NoError(t, st.LoadInitial(context.Background(), 2))

	cur, ok := st.CurrentStore()
	require.True(t, ok)
	assert.Equal(t, "Kandy", cur.Name)
	require.NotNil(t, st.Dashboard())
	assert.Equal(t, int64(2), st.Dashboard().StoreID)
	assert.Len(t, st.RecentSales(), 1)
}

func TestState_LoadInitialIgnoresUnknownPreferredStore(t *testing.T) {
	st := NewState("s1", auth.User{}, newLoadedBackend(), Options{})

	require.NoError(t, st.LoadInitial(context.Background(), 99))
	assert.Zero(t, st.StoreID())
}

func TestState_LoadInitialFailure(t *testing.T) {
	fb := newLoadedBackend()
	fb.productsErr = errors.New("connection refused")
	st := NewState("s1", auth.User{}, fb, Options{})

	err := st.LoadInitial(context.Background(), 0)
	require.Error(t, err)

	alerts := st.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertDanger, alerts[0].Level)
	assert.Contains(t, alerts[0].Message, "Error loading data")
}

func TestState_SelectStoreResetsCart(t *testing.T) {
	fb := newLoadedBackend()
	st := NewState("s1", auth.User{}, fb, Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	require.NoError(t, st.Cart.Add(10))

	require.NoError(t, st.SelectStore(context.Background(), 1))
	assert.Len(t, st.Cart.Items(), 1, "reselecting the same store keeps the cart")

	require.NoError(t, st.SelectStore(context.Background(), 2))
	assert.Empty(t, st.Cart.Items())
	assert.Equal(t, int64(2), st.Dashboard().StoreID)
}

func TestState_SelectUnknownStore(t *testing.T) {
	st := NewState("s1", auth.User{}, newLoadedBackend(), Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))

	err := st.SelectStore(context.Background(), 42)
	require.ErrorIs(t, err, ErrUnknownStore)
	assert.Equal(t, int64(1), st.StoreID())
}

func TestState_CheckoutRefreshesStock(t *testing.T) {
	fb := newLoadedBackend()
	st := NewState("s1", auth.User{}, fb, Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	dashboardsBefore := fb.dashboards

	require.NoError(t, st.Cart.Add(10))
	require.NoError(t, st.Cart.Add(10))
	res, err := st.Cart.Checkout(context.Background(), st.StoreID())
	require.NoError(t, err)
	require.NoError(t, res.RefreshErr)

	p, ok := st.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, 3, p.TotalQuantity)
	assert.Greater(t, fb.dashboards, dashboardsBefore)
	assert.True(t, st.Cart.View().Empty)
}

func TestState_RefreshFailureKeepsSale(t *testing.T) {
	fb := newLoadedBackend()
	st := NewState("s1", auth.User{}, fb, Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	require.NoError(t, st.Cart.Add(10))
	require.NoError(t, st.Cart.Add(10))

	fb.mu.Lock()
	fb.dashboardErr = errors.New("timeout")
	fb.mu.Unlock()

	res, err := st.Cart.Checkout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "INV1", res.Sale.InvoiceNumber)
	require.Error(t, res.RefreshErr)

	// The product list reloaded even though the dashboard did not.
	p, ok := st.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, 3, p.TotalQuantity)
}

func TestState_ProductRefreshFailureKeepsStoreData(t *testing.T) {
	fb := newLoadedBackend()
	st := NewState("s1", auth.User{}, fb, Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	dashboardsBefore := fb.dashboards
	require.NoError(t, st.Cart.Add(10))

	fb.mu.Lock()
	fb.productsErr = errors.New("timeout")
	fb.mu.Unlock()

	res, err := st.Cart.Checkout(context.Background(), 1)
	require.NoError(t, err)
	require.Error(t, res.RefreshErr)
	assert.Greater(t, fb.dashboards, dashboardsBefore)

	p, ok := st.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, 5, p.TotalQuantity, "stale snapshot kept")
}

func TestState_SelectStoreDuringCheckout(t *testing.T) {
	fb := newLoadedBackend()
	fb.block = make(chan struct{})
	st := NewState("s1", auth.User{}, fb, Options{})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	require.NoError(t, st.Cart.Add(10))

	done := make(chan error, 1)
	go func() {
		_, err := st.Cart.Checkout(context.Background(), 1)
		done <- err
	}()
	require.Eventually(t, func() bool { return st.Cart.View().Pending }, time.Second, time.Millisecond)

	err := st.SelectStore(context.Background(), 2)
	require.ErrorIs(t, err, cart.ErrCheckoutInProgress)
	assert.Equal(t, int64(1), st.StoreID())

	close(fb.block)
	require.NoError(t, <-done)
}

func TestState_Alerts(t *testing.T) {
	st := newBareState("s1")
	for i := range maxAlerts + 2 {
		st.Push(AlertInfo, string(rune('a'+i)))
	}

	alerts := st.Alerts()
	require.Len(t, alerts, maxAlerts)
	assert.Equal(t, "c", alerts[0].Message)

	assert.True(t, st.Dismiss(alerts[0].ID))
	assert.False(t, st.Dismiss(alerts[0].ID))
	assert.Len(t, st.Alerts(), maxAlerts-1)
}

type memReceipts struct {
	saved []*sale.Sale
}

func (m *memReceipts) Save(_ context.Context, s *sale.Sale) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *memReceipts) FindByInvoice(context.Context, string) (*sale.Sale, error) {
	return nil, sale.ErrReceiptNotFound
}

func (m *memReceipts) ListRecent(context.Context, int64, int) ([]sale.Sale, error) {
	return nil, nil
}

func TestState_JournalsReceipts(t *testing.T) {
	receipts := &memReceipts{}
	st := NewState("s1", auth.User{}, newLoadedBackend(), Options{Receipts: receipts})
	require.NoError(t, st.LoadInitial(context.Background(), 1))
	require.NoError(t, st.Cart.Add(10))

	_, err := st.Cart.Checkout(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, receipts.saved, 1)
}
