package cart

import "github.com/shopspring/decimal"

// LineView is the display model of one line item.
type LineView struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	MinQuantity  int             `json:"min_quantity"`
	MaxQuantity  int             `json:"max_quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CanIncrement bool            `json:"can_increment"`
	CanDecrement bool            `json:"can_decrement"`
}

// View is the display model of a cart and its derived totals.
type View struct {
	Items       []LineView      `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Units       int             `json:"units"`
	Empty       bool            `json:"empty"`
	Pending     bool            `json:"pending"`
	CanCheckout bool            `json:"can_checkout"`
}

// Render builds the view of items. It has no side effects.
func Render(items []LineItem, rate decimal.Decimal, pending bool) View {
	totals := ComputeTotals(items, rate)
	v := View{
		Items:    make([]LineView, 0, len(items)),
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		TaxRate:  rate,
		Empty:    len(items) == 0,
		Pending:  pending,
	}
	for _, li := range items {
		v.Units += li.Quantity
		v.Items = append(v.Items, LineView{
			ProductID:    li.ProductID,
			Name:         li.ProductName,
			SKU:          li.ProductSKU,
			UnitPrice:    li.UnitPrice,
			Quantity:     li.Quantity,
			MinQuantity:  1,
			MaxQuantity:  li.MaxQuantity,
			LineTotal:    li.LineTotal(),
			CanIncrement: li.Quantity < li.MaxQuantity,
			CanDecrement: li.Quantity > 1,
		})
	}
	v.CanCheckout = !v.Empty && !pending
	return v
}
