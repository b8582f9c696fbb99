package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
	"github.com/xenking/pos-console/internal/session"
)

type productFormData struct {
	ID         int64
	Draft      product.Draft
	Categories []store.Category
	Flavors    []store.Flavor
}

func (h *Handler) newProductPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	h.render(w, r, http.StatusOK, "product_form", h.page(st, "New product", "products", productFormData{
		Draft:      product.Draft{ReorderPoint: product.DefaultReorderPoint, IsActive: true},
		Categories: st.Categories(),
		Flavors:    st.Flavors(),
	}))
}

func (h *Handler) editProductPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(w, r, http.StatusNotFound, "Product not found.")
		return
	}

	p, err := st.Backend.Product(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Product not found.")
			return
		}
		zctx.From(ctx).Error("Load product", zap.Int64("product_id", id), zap.Error(err))
		h.renderError(w, r, http.StatusBadGateway, "Error loading product.")
		return
	}
	h.render(w, r, http.StatusOK, "product_form", h.page(st, "Edit "+p.Name, "products", productFormData{
		ID:         p.ID,
		Draft:      product.DraftOf(*p),
		Categories: st.Categories(),
		Flavors:    st.Flavors(),
	}))
}

type storesData struct {
	Stores []store.Store
}

func (h *Handler) storesPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	h.render(w, r, http.StatusOK, "stores", h.page(st, "Stores", "stores", storesData{Stores: st.Stores()}))
}

type flavorsData struct {
	Flavors []store.Flavor
}

func (h *Handler) flavorsPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	h.render(w, r, http.StatusOK, "flavors", h.page(st, "Flavors", "flavors", flavorsData{Flavors: st.Flavors()}))
}

func (h *Handler) productSave(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := optionalID(r, "id")
	if err != nil {
		return err
	}
	d, err := productDraftFrom(r)
	if err != nil {
		return err
	}
	if _, err := st.SaveProduct(r.Context(), id, d); err != nil {
		return err
	}
	if id == 0 {
		st.Push(session.AlertSuccess, "Product created successfully!")
	} else {
		st.Push(session.AlertSuccess, "Product updated successfully!")
	}
	return nil
}

func (h *Handler) productDelete(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "id")
	if err != nil {
		return err
	}
	if err := st.DeleteProduct(r.Context(), id); err != nil {
		return err
	}
	st.Push(session.AlertSuccess, "Product deleted successfully!")
	return nil
}

func (h *Handler) storeSave(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := optionalID(r, "id")
	if err != nil {
		return err
	}
	d := store.Draft{
		Name:        formText(r, "name"),
		Address:     formText(r, "address"),
		Phone:       formText(r, "phone"),
		Email:       formText(r, "email"),
		ManagerName: formText(r, "manager_name"),
	}
	if _, err := st.SaveStore(r.Context(), id, d); err != nil {
		return err
	}
	if id == 0 {
		st.Push(session.AlertSuccess, "Store created successfully!")
	} else {
		st.Push(session.AlertSuccess, "Store updated successfully!")
	}
	return nil
}

func (h *Handler) storeDelete(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "id")
	if err != nil {
		return err
	}
	msg, err := st.DeleteStore(r.Context(), id)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Store deleted successfully"
	}
	st.Push(session.AlertSuccess, msg)
	return nil
}

func (h *Handler) flavorSave(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := optionalID(r, "id")
	if err != nil {
		return err
	}
	d := store.FlavorDraft{Name: formText(r, "name"), Description: formText(r, "description")}
	if _, err := st.SaveFlavor(r.Context(), id, d); err != nil {
		return err
	}
	if id == 0 {
		st.Push(session.AlertSuccess, "Flavor added successfully!")
	} else {
		st.Push(session.AlertSuccess, "Flavor updated successfully!")
	}
	return nil
}

func (h *Handler) flavorDelete(_ http.ResponseWriter, r *http.Request, st *session.State) error {
	id, err := formID(r, "id")
	if err != nil {
		return err
	}
	if _, err := st.DeleteFlavor(r.Context(), id); err != nil {
		return err
	}
	st.Push(session.AlertSuccess, "Flavor deleted successfully!")
	return nil
}

func productDraftFrom(r *http.Request) (product.Draft, error) {
	d := product.Draft{
		Name:         formText(r, "name"),
		SKU:          formText(r, "sku"),
		Description:  formText(r, "description"),
		WeightVolume: formText(r, "weight_volume"),
		ReorderPoint: product.DefaultReorderPoint,
		IsActive:     r.PostForm.Get("is_active") != "",
		HasFlavors:   r.PostForm.Get("has_flavors") != "",
	}
	var err error
	if d.CategoryID, err = optionalID(r, "category_id"); err != nil {
		return d, err
	}
	if d.SellingPrice, err = formMoney(r, "selling_price"); err != nil {
		return d, err
	}
	if d.CostPrice, err = formMoney(r, "cost_price"); err != nil {
		return d, err
	}
	if v := formText(r, "reorder_point"); v != "" {
		if d.ReorderPoint, err = strconv.Atoi(v); err != nil {
			return d, &inputError{field: "reorder point"}
		}
	}
	for _, v := range r.PostForm["flavor_ids"] {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id <= 0 {
			return d, &inputError{field: "flavor"}
		}
		d.FlavorIDs = append(d.FlavorIDs, id)
	}
	return d, nil
}

func formText(r *http.Request, field string) string {
	return strings.TrimSpace(r.PostForm.Get(field))
}

// optionalID is formID that maps an empty field to 0.
func optionalID(r *http.Request, field string) (int64, error) {
	if formText(r, field) == "" {
		return 0, nil
	}
	return formID(r, field)
}

// formMoney parses an amount field; empty is zero.
func formMoney(r *http.Request, field string) (decimal.Decimal, error) {
	v := formText(r, field)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &inputError{field: strings.ReplaceAll(field, "_", " ")}
	}
	return d, nil
}
