package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
)

// productsPerPage is the page size used when loading the whole catalog.
const productsPerPage = 100

// maxProductPages stops runaway pagination if the backend misreports pages.
const maxProductPages = 1000

// Stores lists retail locations.
func (c *Client) Stores(ctx context.Context) ([]store.Store, error) {
	var resp []storeDTO
	if err := c.get(ctx, "/api/stores", nil, &resp); err != nil {
		return nil, errors.Wrap(err, "list stores")
	}
	out := make([]store.Store, len(resp))
	for i, s := range resp {
		out[i] = s.toDomain()
	}
	return out, nil
}

// Categories lists product categories.
func (c *Client) Categories(ctx context.Context) ([]store.Category, error) {
	var resp []namedDTO
	if err := c.get(ctx, "/api/categories", nil, &resp); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	out := make([]store.Category, len(resp))
	for i, v := range resp {
		out[i] = store.Category{ID: v.ID, Name: v.Name, Description: v.Description}
	}
	return out, nil
}

// Flavors lists flavor variants.
func (c *Client) Flavors(ctx context.Context) ([]store.Flavor, error) {
	var resp []namedDTO
	if err := c.get(ctx, "/api/flavors", nil, &resp); err != nil {
		return nil, errors.Wrap(err, "list flavors")
	}
	out := make([]store.Flavor, len(resp))
	for i, v := range resp {
		out[i] = v.toFlavor()
	}
	return out, nil
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products    []product.Product
	Total       int
	Pages       int
	CurrentPage int
}

// ProductsPage fetches a single page of products matching f.
func (c *Client) ProductsPage(ctx context.Context, f product.Filter, page, perPage int) (*ProductPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryID != 0 {
		q.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}

	var resp productPageDTO
	if err := c.get(ctx, "/api/products", q, &resp); err != nil {
		return nil, errors.Wrapf(err, "list products page %d", page)
	}
	out := &ProductPage{
		Products:    make([]product.Product, len(resp.Products)),
		Total:       resp.Total,
		Pages:       resp.Pages,
		CurrentPage: resp.CurrentPage,
	}
	for i, p := range resp.Products {
		out.Products[i] = p.toDomain()
	}
	return out, nil
}

// ListProducts fetches every page of the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	var all []product.Product
	for page := 1; page <= maxProductPages; page++ {
		p, err := c.ProductsPage(ctx, product.Filter{}, page, productsPerPage)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Products...)
		if page >= p.Pages || len(p.Products) == 0 {
			break
		}
	}
	return all, nil
}

// Product fetches a single product.
func (c *Client) Product(ctx context.Context, id int64) (*product.Product, error) {
	var resp productDTO
	if err := c.get(ctx, "/api/products/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		if IsNotFound(err) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	p := resp.toDomain()
	return &p, nil
}
