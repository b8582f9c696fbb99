package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/backend"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/session"
)

type salesData struct {
	StoreSelected bool
	StartDate     string
	EndDate       string
	PaymentMethod string
	Amount        string
	Page          *sale.HistoryPage
	PrevURL       string
	NextURL       string
}

func (h *Handler) salesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)
	f := historyFilterFrom(r.URL.Query())
	f.StoreID = st.StoreID()

	d := salesData{
		StoreSelected: f.StoreID != 0,
		StartDate:     dateParam(f.StartDate),
		EndDate:       dateParam(f.EndDate),
		PaymentMethod: f.PaymentMethod,
		Amount:        string(f.Amount),
	}
	if !d.StoreSelected {
		h.render(w, r, http.StatusOK, "sales", h.page(st, "Sales history", "sales", d))
		return
	}

	page, err := st.Backend.SalesHistory(ctx, f)
	if err != nil {
		zctx.From(ctx).Warn("Load sales history", zap.Int64("store_id", f.StoreID), zap.Error(err))
		msg := "Error loading sales history"
		if backend.IsUnauthorized(err) {
			_, msg = alertFor(err)
		}
		st.Push(session.AlertDanger, msg)
		h.render(w, r, http.StatusOK, "sales", h.page(st, "Sales history", "sales", d))
		return
	}
	d.Page = page
	if page.HasPrev() {
		d.PrevURL = historyURL(f, page.Page-1)
	}
	if page.HasNext() {
		d.NextURL = historyURL(f, page.Page+1)
	}
	h.render(w, r, http.StatusOK, "sales", h.page(st, "Sales history", "sales", d))
}

func (h *Handler) saleDetailPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(w, r, http.StatusNotFound, "Sale not found.")
		return
	}

	s, err := st.Backend.Sale(ctx, id)
	switch {
	case errors.Is(err, sale.ErrReceiptNotFound):
		h.renderError(w, r, http.StatusNotFound, "Sale not found.")
		return
	case err != nil:
		zctx.From(ctx).Error("Load sale", zap.Int64("sale_id", id), zap.Error(err))
		h.renderError(w, r, http.StatusBadGateway, "Error loading sale details.")
		return
	case s.StoreID != st.StoreID():
		h.renderError(w, r, http.StatusNotFound, "Sale not found.")
		return
	}
	h.render(w, r, http.StatusOK, "receipt", h.page(st, "Invoice "+s.InvoiceNumber, "sales", s))
}

// historyFilterFrom reads the filter form. Malformed values are ignored.
func historyFilterFrom(q url.Values) sale.HistoryFilter {
	f := sale.HistoryFilter{
		PaymentMethod: strings.TrimSpace(q.Get("payment_method")),
		Amount:        sale.ParseAmountRange(q.Get("amount")),
	}
	if t, err := time.Parse(time.DateOnly, q.Get("start_date")); err == nil {
		f.StartDate = t
	}
	if t, err := time.Parse(time.DateOnly, q.Get("end_date")); err == nil {
		f.EndDate = t
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = p
	}
	return f.Normalize()
}

func historyURL(f sale.HistoryFilter, page int) string {
	q := url.Values{}
	if s := dateParam(f.StartDate); s != "" {
		q.Set("start_date", s)
	}
	if s := dateParam(f.EndDate); s != "" {
		q.Set("end_date", s)
	}
	if f.PaymentMethod != "" {
		q.Set("payment_method", f.PaymentMethod)
	}
	if f.Amount != sale.AmountAny {
		q.Set("amount", string(f.Amount))
	}
	q.Set("page", strconv.Itoa(page))
	return "/sales?" + q.Encode()
}

func dateParam(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
