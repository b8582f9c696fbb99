package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pos-console/internal/domain/sale"
)

var (
	_ sale.Recorder = (*Client)(nil)
	_ sale.Lister   = (*Client)(nil)
	_ sale.History  = (*Client)(nil)
)

// backendTimeLayout is the naive ISO-8601 form the backend parses.
const backendTimeLayout = "2006-01-02T15:04:05"

// encodeSaleRequest writes req in the backend wire format. Money values are
// written as JSON numbers with their exact decimal digits.
func encodeSaleRequest(e *jx.Encoder, req sale.Request) {
	e.ObjStart()
	e.FieldStart("store_id")
	e.Int64(req.StoreID)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range req.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Int64(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unit_price")
		e.Raw([]byte(it.UnitPrice.String()))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("tax_amount")
	e.Raw([]byte(req.TaxAmount.String()))
	e.FieldStart("payment_method")
	e.Str(req.PaymentMethod)
	e.ObjEnd()
}

// RecordSale submits a sale. A rejected sale returns an *APIError carrying
// the backend's message.
func (c *Client) RecordSale(ctx context.Context, req sale.Request) (*sale.Sale, error) {
	var e jx.Encoder
	encodeSaleRequest(&e, req)

	var resp saleDTO
	if err := c.do(ctx, http.MethodPost, "/api/sales", nil, e.Bytes(), &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// ListSales returns one page of sales for storeID, newest first.
func (c *Client) ListSales(ctx context.Context, storeID int64, page, perPage int) ([]sale.Sale, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if storeID != 0 {
		q.Set("store_id", strconv.FormatInt(storeID, 10))
	}

	var resp salesPageDTO
	if err := c.get(ctx, "/api/sales", q, &resp); err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	out := make([]sale.Sale, len(resp.Sales))
	for i, s := range resp.Sales {
		out[i] = *s.toDomain()
	}
	return out, nil
}

// SalesHistory returns one page of sales matching f, newest first. The date
// range is applied by the backend; payment method and amount narrow the
// returned page locally, while the pagination totals stay the backend's.
func (c *Client) SalesHistory(ctx context.Context, f sale.HistoryFilter) (*sale.HistoryPage, error) {
	f = f.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("per_page", strconv.Itoa(f.PerPage))
	if f.StoreID != 0 {
		q.Set("store_id", strconv.FormatInt(f.StoreID, 10))
	}
	if !f.StartDate.IsZero() {
		q.Set("start_date", startOfDay(f.StartDate).Format(backendTimeLayout))
	}
	if !f.EndDate.IsZero() {
		q.Set("end_date", startOfDay(f.EndDate).Add(24*time.Hour-time.Second).Format(backendTimeLayout))
	}
	if f.PaymentMethod != "" {
		q.Set("payment_method", f.PaymentMethod)
	}

	var resp salesPageDTO
	if err := c.get(ctx, "/api/sales", q, &resp); err != nil {
		return nil, errors.Wrap(err, "sales history")
	}
	out := &sale.HistoryPage{
		Page:    resp.Pagination.Page,
		Pages:   resp.Pagination.Pages,
		PerPage: resp.Pagination.PerPage,
		Total:   resp.Pagination.Total,
	}
	for _, dto := range resp.Sales {
		if s := dto.toDomain(); f.Match(*s) {
			out.Sales = append(out.Sales, *s)
		}
	}
	return out, nil
}

// Sale fetches one sale with its items.
func (c *Client) Sale(ctx context.Context, id int64) (*sale.Sale, error) {
	var resp saleDTO
	if err := c.get(ctx, "/api/sales/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		if IsNotFound(err) {
			return nil, sale.ErrReceiptNotFound
		}
		return nil, errors.Wrapf(err, "get sale %d", id)
	}
	return resp.toDomain(), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
