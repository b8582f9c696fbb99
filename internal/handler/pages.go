package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/domain/cart"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/domain/store"
	"github.com/xenking/pos-console/internal/export"
	"github.com/xenking/pos-console/internal/session"
)

// sections are the placeholder areas of the console.
var sections = map[string]string{
	"inventory": "Inventory",
	"suppliers": "Suppliers",
	"grn":       "Goods Received Notes",
	"transfers": "Stock Transfers",
	"reports":   "Reports",
}

type dashboardData struct {
	Store       *store.Store
	Dashboard   *store.Dashboard
	RecentSales []sale.Sale
}

func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	d := dashboardData{Dashboard: st.Dashboard(), RecentSales: st.RecentSales()}
	if s, ok := st.CurrentStore(); ok {
		d.Store = &s
	}
	h.render(w, r, http.StatusOK, "dashboard", h.page(st, "Dashboard", "dashboard", d))
}

type productsData struct {
	Products   []product.Product
	Categories []store.Category
	Search     string
	CategoryID int64
	Total      int
}

func (h *Handler) productsPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	f := filterFrom(r)
	catalog := st.Catalog()
	h.render(w, r, http.StatusOK, "products", h.page(st, "Products", "products", productsData{
		Products:   catalog.List(f),
		Categories: st.Categories(),
		Search:     f.Search,
		CategoryID: f.CategoryID,
		Total:      catalog.Len(),
	}))
}

type posData struct {
	Store       *store.Store
	Products    []product.Product
	Search      string
	Cart        cart.View
	RecentSales []sale.Sale
}

func (h *Handler) posPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	f := filterFrom(r)

	var sellable []product.Product
	for _, p := range st.Catalog().List(f) {
		if p.IsActive && p.TotalQuantity > 0 {
			sellable = append(sellable, p)
		}
	}
	d := posData{
		Products:    sellable,
		Search:      f.Search,
		Cart:        st.Cart.View(),
		RecentSales: st.RecentSales(),
	}
	if s, ok := st.CurrentStore(); ok {
		d.Store = &s
	}
	h.render(w, r, http.StatusOK, "pos", h.page(st, "Point of Sale", "pos", d))
}

type cartResponse struct {
	Cart   cart.View       `json:"cart"`
	Alerts []alertResponse `json:"alerts"`
}

type alertResponse struct {
	ID      string `json:"id"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (h *Handler) cartJSON(w http.ResponseWriter, r *http.Request) {
	writeCart(w, stateFrom(r.Context()))
}

func writeCart(w http.ResponseWriter, st *session.State) {
	resp := cartResponse{Cart: st.Cart.View(), Alerts: []alertResponse{}}
	for _, a := range st.Alerts() {
		resp.Alerts = append(resp.Alerts, alertResponse{ID: a.ID, Level: string(a.Level), Message: a.Message})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) receiptPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)
	invoice := chi.URLParam(r, "invoice")

	s, err := h.findReceipt(r, st, invoice)
	if err != nil {
		if errors.Is(err, sale.ErrReceiptNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Receipt not found.")
			return
		}
		zctx.From(ctx).Error("Load receipt", zap.String("invoice", invoice), zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, "Error loading sale data.")
		return
	}
	h.render(w, r, http.StatusOK, "receipt", h.page(st, "Invoice "+s.InvoiceNumber, "pos", s))
}

// findReceipt looks in the journal first and falls back to the recent sales
// of the session. Only sales of the selected store are visible.
func (h *Handler) findReceipt(r *http.Request, st *session.State, invoice string) (*sale.Sale, error) {
	storeID := st.StoreID()
	if storeID == 0 {
		return nil, sale.ErrReceiptNotFound
	}
	if h.deps.Receipts != nil {
		s, err := h.deps.Receipts.FindByInvoice(r.Context(), invoice)
		switch {
		case err == nil && s.StoreID == storeID:
			return s, nil
		case err != nil && !errors.Is(err, sale.ErrReceiptNotFound):
			return nil, err
		}
	}
	for _, s := range st.RecentSales() {
		if s.InvoiceNumber == invoice && s.StoreID == storeID {
			return &s, nil
		}
	}
	return nil, sale.ErrReceiptNotFound
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)
	storeID := st.StoreID()
	if storeID == 0 {
		st.Push(session.AlertWarning, "Please select a store first")
		http.Redirect(w, r, "/pos", http.StatusSeeOther)
		return
	}

	sales, err := export.Collect(ctx, st.Backend, storeID, 100, h.cfg.ExportMaxPages)
	if err != nil {
		zctx.From(ctx).Warn("Export sales", zap.Int64("store_id", storeID), zap.Error(err))
		st.Push(session.AlertDanger, "Error exporting sales data")
		http.Redirect(w, r, "/pos", http.StatusSeeOther)
		return
	}
	if len(sales) == 0 {
		st.Push(session.AlertWarning, "No sales data to export")
		http.Redirect(w, r, "/pos", http.StatusSeeOther)
		return
	}

	name := fmt.Sprintf("sales-store-%d-%s.csv.gz", storeID, h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteGzip(w, sales); err != nil {
		zctx.From(ctx).Error("Write export", zap.Error(err))
		return
	}
	zctx.From(ctx).Info("Sales exported", zap.Int64("store_id", storeID), zap.Int("sales", len(sales)))
}

func (h *Handler) sectionPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	name := chi.URLParam(r, "name")
	title, ok := sections[name]
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Page not found.")
		return
	}
	h.render(w, r, http.StatusOK, "placeholder", h.page(st, title, name, title))
}

func filterFrom(r *http.Request) product.Filter {
	q := r.URL.Query()
	f := product.Filter{Search: strings.TrimSpace(q.Get("search"))}
	if id, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil && id > 0 {
		f.CategoryID = id
	}
	return f
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
