package backend

import (
	"bytes"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-console/internal/domain/auth"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/domain/store"
)

// timestamp accepts the backend's ISO-8601 values, which may omit the zone
// (naive UTC) or carry a date only.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.Wrap(err, "timestamp")
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}
	return errors.Errorf("unsupported timestamp %q", s)
}

type userDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u userDTO) toDomain() *auth.User {
	return &auth.User{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

type storeDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	ManagerName string `json:"manager_name"`
	IsActive    bool   `json:"is_active"`
}

func (s storeDTO) toDomain() store.Store {
	return store.Store{
		ID:          s.ID,
		Name:        s.Name,
		Address:     s.Address,
		Phone:       s.Phone,
		Email:       s.Email,
		ManagerName: s.ManagerName,
		IsActive:    s.IsActive,
	}
}

type namedDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func (v namedDTO) toFlavor() store.Flavor {
	return store.Flavor{ID: v.ID, Name: v.Name, Description: v.Description, IsActive: v.IsActive}
}

type messageDTO struct {
	Message string `json:"message"`
}

type productDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    int64           `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	Description   string          `json:"description"`
	WeightVolume  string          `json:"weight_volume"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	ReorderPoint  int             `json:"reorder_point"`
	TotalQuantity int             `json:"total_quantity"`
	HasFlavors    bool            `json:"has_flavors"`
	IsActive      bool            `json:"is_active"`
	Flavors       []struct {
		FlavorID int64 `json:"flavor_id"`
	} `json:"flavors"`
}

func (p productDTO) toDomain() product.Product {
	out := product.Product{
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
		Description:   p.Description,
		WeightVolume:  p.WeightVolume,
		CostPrice:     p.CostPrice,
		SellingPrice:  p.SellingPrice,
		ReorderPoint:  p.ReorderPoint,
		TotalQuantity: p.TotalQuantity,
		HasFlavors:    p.HasFlavors,
		IsActive:      p.IsActive,
	}
	for _, f := range p.Flavors {
		out.FlavorIDs = append(out.FlavorIDs, f.FlavorID)
	}
	return out
}

// productEnvelopeDTO is the {"message", "product"} reply to product writes.
type productEnvelopeDTO struct {
	Message string     `json:"message"`
	Product productDTO `json:"product"`
}

type productPageDTO struct {
	Products    []productDTO `json:"products"`
	Total       int          `json:"total"`
	Pages       int          `json:"pages"`
	CurrentPage int          `json:"current_page"`
}

type saleItemDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type saleDTO struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	StoreID       int64           `json:"store_id"`
	StoreName     string          `json:"store_name"`
	CustomerName  string          `json:"customer_name"`
	SaleDate      timestamp       `json:"sale_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Items         []saleItemDTO   `json:"items"`
}

func (s saleDTO) toDomain() *sale.Sale {
	out := &sale.Sale{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		SaleDate:      s.SaleDate.Time,
		StoreID:       s.StoreID,
		StoreName:     s.StoreName,
		CustomerName:  s.CustomerName,
		Subtotal:      s.Subtotal,
		TaxAmount:     s.TaxAmount,
		TotalAmount:   s.TotalAmount,
		PaymentMethod: s.PaymentMethod,
		Items:         make([]sale.Item, len(s.Items)),
	}
	for i, it := range s.Items {
		out.Items[i] = sale.Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return out
}

type salesPageDTO struct {
	Sales      []saleDTO `json:"sales"`
	Pagination struct {
		Page    int `json:"page"`
		Pages   int `json:"pages"`
		PerPage int `json:"per_page"`
		Total   int `json:"total"`
	} `json:"pagination"`
}

type storeSummaryDTO struct {
	Store            storeDTO `json:"store"`
	InventorySummary struct {
		TotalItems    int             `json:"total_items"`
		TotalValue    decimal.Decimal `json:"total_value"`
		LowStockCount int             `json:"low_stock_count"`
		ExpiredItems  int             `json:"expired_items"`
	} `json:"inventory_summary"`
}

type inventoryDTO struct {
	ID             int64     `json:"id"`
	ProductName    string    `json:"product_name"`
	BatchNumber    string    `json:"batch_number"`
	Quantity       int       `json:"quantity"`
	ExpirationDate timestamp `json:"expiration_date"`
}
