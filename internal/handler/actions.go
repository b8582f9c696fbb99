package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/session"
)

// ActionFunc performs a named UI action on the caller's session. A returned
// error becomes an alert; it never fails the request.
type ActionFunc func(w http.ResponseWriter, r *http.Request, st *session.State) error

// inputError is a malformed action argument.
type inputError struct {
	field string
}

func (e *inputError) Error() string {
	return fmt.Sprintf("invalid %s", e.field)
}

func (h *Handler) defaultActions() map[string]ActionFunc {
	return map[string]ActionFunc{
		"cart.add":          h.cartAdd,
		"cart.remove":       h.cartRemove,
		"cart.set_quantity": h.cartSetQuantity,
		"cart.checkout":     h.cartCheckout,
		"store.select":      h.storeSelect,
		"products.reload":   h.productsReload,
		"product.save":      h.productSave,
		"product.delete":    h.productDelete,
		"store.save":        h.storeSave,
		"store.delete":      h.storeDelete,
		"flavor.save":       h.flavorSave,
		"flavor.delete":     h.flavorDelete,
		"alert.dismiss":     h.alertDismiss,
	}
}

// action dispatches POST /actions/{name}. Form posts are redirected back to
// the "redirect" field; JSON callers receive the cart view and alerts.
func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fn, ok := h.actions[name]
	if !ok {
		if wantsJSON(r) {
			writeJSONError(w, http.StatusNotFound, "Unknown action")
			return
		}
		h.renderError(w, r, http.StatusNotFound, "Unknown action.")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	st := stateFrom(r.Context())
	if err := fn(w, r, st); err != nil {
		level, msg := alertFor(err)
		st.Push(level, msg)
		if level == session.AlertDanger {
			zctx.From(r.Context()).Warn("Action failed", zap.String("action", name), zap.Error(err))
		}
	}

	if wantsJSON(r) {
		writeCart(w, st)
		return
	}
	http.Redirect(w, r, localRedirect(r.PostForm.Get("redirect"), "/pos"), http.StatusSeeOther)
}

func (h *Handler) cartAdd(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "product_id")
	if err != nil {
		return err
	}
	return st.Cart.Add(id)
}

func (h *Handler) cartRemove(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "product_id")
	if err != nil {
		return err
	}
	return st.Cart.Remove(id)
}

func (h *Handler) cartSetQuantity(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "product_id")
	if err != nil {
		return err
	}
	q, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("quantity")))
	if err != nil {
		return &inputError{field: "quantity"}
	}
	return st.Cart.SetQuantity(id, q)
}

func (h *Handler) cartCheckout(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	res, err := st.Cart.Checkout(r.Context(), st.StoreID())
	if err != nil {
		return err
	}
	st.Push(session.AlertSuccess, fmt.Sprintf("Sale completed successfully! Invoice: %s", res.Sale.InvoiceNumber))
	if res.RefreshErr != nil {
		st.Push(session.AlertWarning, "Sale recorded, but stock levels could not be refreshed.")
	}
	return nil
}

func (h *Handler) storeSelect(w http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "store_id")
	if err != nil {
		return err
	}
	if err := st.SelectStore(r.Context(), id); err != nil {
		return err
	}
	http.SetCookie(w, h.cookie(storeCookie, strconv.FormatInt(id, 10), 365*24*60*60))
	return nil
}

func (h *Handler) productsReload(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	if err := st.ReloadProducts(r.Context()); err != nil {
		return err
	}
	st.Push(session.AlertInfo, "Product list refreshed.")
	return nil
}

func (h *Handler) alertDismiss(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	st.Dismiss(r.PostForm.Get("id"))
	return nil
}

func formID(r *http.Request, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get(field)), 10, 64)
	if err != nil || id <= 0 {
		return 0, &inputError{field: strings.ReplaceAll(field, "_", " ")}
	}
	return id, nil
}

// localRedirect accepts only same-origin absolute paths.
func localRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
