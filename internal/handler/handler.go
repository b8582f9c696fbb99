// Package handler serves the console pages, the action endpoint, the sales
// history and the sales export.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/session"
)

const (
	sessionCookie = "pos_session"
	storeCookie   = "pos_store"
)

// Config holds non-dependency settings of the Handler.
type Config struct {
	// SecureCookies sets the Secure attribute on cookies.
	SecureCookies bool
	// SessionTTL is the lifetime of the session cookie.
	SessionTTL time.Duration
	// ExportMaxPages bounds the sales history fetched for an export.
	ExportMaxPages int
	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int
}

// Deps are the collaborators of the Handler.
type Deps struct {
	Sessions *session.Store
	Signer   *session.Signer
	// NewBackend returns a backend client with its own cookie jar.
	NewBackend func() session.Backend
	// Session configures states created at sign-in.
	Session session.Options
	// Receipts may be nil.
	Receipts sale.ReceiptRepository
}

// Handler serves the console.
type Handler struct {
	cfg     Config
	deps    Deps
	views   *views
	actions map[string]ActionFunc
	now     func() time.Time
}

// New creates a Handler and parses its templates.
func New(cfg Config, deps Deps) (*Handler, error) {
	if deps.Sessions == nil || deps.Signer == nil || deps.NewBackend == nil {
		return nil, errors.New("handler: sessions, signer and backend are required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.ExportMaxPages <= 0 {
		cfg.ExportMaxPages = 50
	}

	v, err := parseViews()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	h := &Handler{
		cfg:   cfg,
		deps:  deps,
		views: v,
		now:   time.Now,
	}
	h.actions = h.defaultActions()
	return h, nil
}

// Routes returns the console router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Post("/logout", h.logout)
		r.Get("/", h.dashboardPage)
		r.Get("/products", h.productsPage)
		r.Get("/products/new", h.newProductPage)
		r.Get("/products/{id}/edit", h.editProductPage)
		r.Get("/stores", h.storesPage)
		r.Get("/flavors", h.flavorsPage)
		r.Get("/pos", h.posPage)
		r.Get("/api/cart", h.cartJSON)
		r.Post("/actions/{name}", h.action)
		r.Get("/receipts/{invoice}", h.receiptPage)
		r.Get("/sales", h.salesPage)
		r.Get("/sales/export", h.exportSales)
		r.Get("/sales/{id}", h.saleDetailPage)
		r.Get("/sections/{name}", h.sectionPage)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderError(w, r, http.StatusNotFound, "Page not found.")
	})
	return r
}

type stateKey struct{}

func withState(ctx context.Context, st *session.State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// stateFrom returns the session attached by requireSession.
func stateFrom(ctx context.Context) *session.State {
	st, _ := ctx.Value(stateKey{}).(*session.State)
	return st
}
