package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
)

var (
	_ product.Editor = (*Client)(nil)
	_ store.Editor   = (*Client)(nil)
)

func encodeProductDraft(e *jx.Encoder, d product.Draft) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(d.Name)
	e.FieldStart("sku")
	e.Str(d.SKU)
	e.FieldStart("category_id")
	e.Int64(d.CategoryID)
	e.FieldStart("description")
	e.Str(d.Description)
	e.FieldStart("weight_volume")
	e.Str(d.WeightVolume)
	e.FieldStart("cost_price")
	e.Raw([]byte(d.CostPrice.String()))
	e.FieldStart("selling_price")
	e.Raw([]byte(d.SellingPrice.String()))
	// Older backends read the legacy price field only.
	e.FieldStart("price")
	e.Raw([]byte(d.SellingPrice.String()))
	e.FieldStart("reorder_point")
	e.Int(d.ReorderPoint)
	e.FieldStart("is_active")
	e.Bool(d.IsActive)
	e.FieldStart("has_flavors")
	e.Bool(d.HasFlavors)
	e.FieldStart("flavor_ids")
	e.ArrStart()
	if d.HasFlavors {
		for _, id := range d.FlavorIDs {
			e.Int64(id)
		}
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeStoreDraft(e *jx.Encoder, d store.Draft) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(d.Name)
	e.FieldStart("address")
	e.Str(d.Address)
	e.FieldStart("phone")
	e.Str(d.Phone)
	e.FieldStart("email")
	e.Str(d.Email)
	e.FieldStart("manager_name")
	e.Str(d.ManagerName)
	e.ObjEnd()
}

func encodeFlavorDraft(e *jx.Encoder, d store.FlavorDraft) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(d.Name)
	e.FieldStart("description")
	e.Str(d.Description)
	e.ObjEnd()
}

func productPath(id int64) string { return "/api/products/" + strconv.FormatInt(id, 10) }
func storePath(id int64) string   { return "/api/stores/" + strconv.FormatInt(id, 10) }
func flavorPath(id int64) string  { return "/api/flavors/" + strconv.FormatInt(id, 10) }

// CreateProduct adds a product to the catalog.
func (c *Client) CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error) {
	var e jx.Encoder
	encodeProductDraft(&e, d)

	var resp productEnvelopeDTO
	if err := c.do(ctx, http.MethodPost, "/api/products", nil, e.Bytes(), &resp); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	p := resp.Product.toDomain()
	return &p, nil
}

// UpdateProduct replaces the editable fields of product id.
func (c *Client) UpdateProduct(ctx context.Context, id int64, d product.Draft) (*product.Product, error) {
	var e jx.Encoder
	encodeProductDraft(&e, d)

	var resp productEnvelopeDTO
	if err := c.do(ctx, http.MethodPut, productPath(id), nil, e.Bytes(), &resp); err != nil {
		if IsNotFound(err) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "update product %d", id)
	}
	p := resp.Product.toDomain()
	return &p, nil
}

// DeleteProduct removes product id. The backend refuses while stock remains.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, productPath(id), nil, nil, nil); err != nil {
		if IsNotFound(err) {
			return product.ErrNotFound
		}
		return errors.Wrapf(err, "delete product %d", id)
	}
	return nil
}

// CreateStore adds a retail location.
func (c *Client) CreateStore(ctx context.Context, d store.Draft) (*store.Store, error) {
	var e jx.Encoder
	encodeStoreDraft(&e, d)

	var resp storeDTO
	if err := c.do(ctx, http.MethodPost, "/api/stores", nil, e.Bytes(), &resp); err != nil {
		return nil, errors.Wrap(err, "create store")
	}
	s := resp.toDomain()
	return &s, nil
}

// UpdateStore replaces the editable fields of store id.
func (c *Client) UpdateStore(ctx context.Context, id int64, d store.Draft) (*store.Store, error) {
	var e jx.Encoder
	encodeStoreDraft(&e, d)

	var resp storeDTO
	if err := c.do(ctx, http.MethodPut, storePath(id), nil, e.Bytes(), &resp); err != nil {
		return nil, errors.Wrapf(err, "update store %d", id)
	}
	s := resp.toDomain()
	return &s, nil
}

// DeleteStore deletes store id, or deactivates it when it still holds
// inventory or sales. It returns the backend's confirmation.
func (c *Client) DeleteStore(ctx context.Context, id int64) (string, error) {
	var resp messageDTO
	if err := c.do(ctx, http.MethodDelete, storePath(id), nil, nil, &resp); err != nil {
		return "", errors.Wrapf(err, "delete store %d", id)
	}
	return resp.Message, nil
}

// CreateFlavor adds a flavor variant.
func (c *Client) CreateFlavor(ctx context.Context, d store.FlavorDraft) (*store.Flavor, error) {
	var e jx.Encoder
	encodeFlavorDraft(&e, d)

	var resp namedDTO
	if err := c.do(ctx, http.MethodPost, "/api/flavors", nil, e.Bytes(), &resp); err != nil {
		return nil, errors.Wrap(err, "create flavor")
	}
	f := resp.toFlavor()
	return &f, nil
}

// UpdateFlavor replaces the editable fields of flavor id.
func (c *Client) UpdateFlavor(ctx context.Context, id int64, d store.FlavorDraft) (*store.Flavor, error) {
	var e jx.Encoder
	encodeFlavorDraft(&e, d)

	var resp namedDTO
	if err := c.do(ctx, http.MethodPut, flavorPath(id), nil, e.Bytes(), &resp); err != nil {
		return nil, errors.Wrapf(err, "update flavor %d", id)
	}
	f := resp.toFlavor()
	return &f, nil
}

// DeleteFlavor deletes flavor id, or deactivates it when products use it.
func (c *Client) DeleteFlavor(ctx context.Context, id int64) (string, error) {
	var resp messageDTO
	if err := c.do(ctx, http.MethodDelete, flavorPath(id), nil, nil, &resp); err != nil {
		return "", errors.Wrapf(err, "delete flavor %d", id)
	}
	return resp.Message, nil
}
