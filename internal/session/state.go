// Package session holds the per-operator application state of the console.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/pos-console/internal/domain/auth"
	"github.com/xenking/pos-console/internal/domain/cart"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/domain/store"
)

// Backend is the subset of the inventory backend a session uses.
type Backend interface {
	auth.Authenticator
	sale.Recorder
	sale.Lister
	sale.History
	product.Editor
	store.Editor
	Stores(ctx context.Context) ([]store.Store, error)
	Categories(ctx context.Context) ([]store.Category, error)
	Flavors(ctx context.Context) ([]store.Flavor, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	Dashboard(ctx context.Context, storeID int64) (*store.Dashboard, error)
}

// AlertLevel maps to the alert styles of the UI.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertSuccess AlertLevel = "success"
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

// Alert is a dismissible message shown on the next page render.
type Alert struct {
	ID      string
	Level   AlertLevel
	Message string
}

// maxAlerts caps the pending alert queue; older alerts are dropped.
const maxAlerts = 5

// Options configure new sessions.
type Options struct {
	Cart cart.Config
	// Receipts journals confirmed sales. Nil disables journaling.
	Receipts sale.ReceiptRepository
	// RecentSales is how many sales the POS view lists.
	RecentSales int
}

// State is everything one signed-in operator sees: reference data, the
// selected store, the product snapshot and the cart.
type State struct {
	ID      string
	User    auth.User
	Backend Backend
	Cart    *cart.Manager

	recentLimit int

	mu          sync.RWMutex
	storeID     int64
	stores      []store.Store
	categories  []store.Category
	flavors     []store.Flavor
	catalog     *product.Catalog
	dashboard   *store.Dashboard
	recentSales []sale.Sale
	alerts      []Alert
	lastSeen    time.Time
}

var (
	_ cart.ProductLookup = (*State)(nil)
	_ cart.Refresher     = (*State)(nil)
)

// NewState creates the state of a freshly signed-in operator.
func NewState(id string, user auth.User, backend Backend, opts Options) *State {
	st := &State{
		ID:          id,
		User:        user,
		Backend:     backend,
		recentLimit: opts.RecentSales,
		catalog:     product.NewCatalog(nil),
		lastSeen:    time.Now(),
	}
	if st.recentLimit <= 0 {
		st.recentLimit = 10
	}

	var recorder sale.Recorder = backend
	if opts.Receipts != nil {
		recorder = sale.NewJournalingRecorder(backend, opts.Receipts)
	}
	st.Cart = cart.NewManager(opts.Cart, st, recorder, st)
	return st
}

// Lookup resolves a product from the current snapshot.
func (s *State) Lookup(id int64) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog.Lookup(id)
}

// Catalog returns the current product snapshot.
func (s *State) Catalog() *product.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog
}

// StoreID returns the selected store, or 0.
func (s *State) StoreID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.storeID
}

// CurrentStore returns the selected store.
func (s *State) CurrentStore() (store.Store, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.storeID == 0 {
		return store.Store{}, false
	}
	return store.Find(s.stores, s.storeID)
}

// Stores returns the loaded stores.
func (s *State) Stores() []store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]store.Store(nil), s.stores...)
}

// Categories returns the loaded categories.
func (s *State) Categories() []store.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]store.Category(nil), s.categories...)
}

// Flavors returns the loaded flavors.
func (s *State) Flavors() []store.Flavor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]store.Flavor(nil), s.flavors...)
}

// Dashboard returns the aggregates of the selected store, or nil.
func (s *State) Dashboard() *store.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dashboard
}

// RecentSales returns the latest sales of the selected store.
func (s *State) RecentSales() []sale.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]sale.Sale(nil), s.recentSales...)
}

// Push queues an alert for the next render.
func (s *State) Push(level AlertLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, Alert{ID: uuid.NewString(), Level: level, Message: message})
	if n := len(s.alerts); n > maxAlerts {
		s.alerts = append([]Alert(nil), s.alerts[n-maxAlerts:]...)
	}
}

// Alerts returns the pending alerts.
func (s *State) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Alert(nil), s.alerts...)
}

// Dismiss removes the alert with the given ID. It reports whether it existed.
func (s *State) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *State) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return now.Sub(s.lastSeen)
}
