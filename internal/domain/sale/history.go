package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultHistoryPageSize is the page size of the sales history.
const DefaultHistoryPageSize = 20

// AmountRange buckets sale totals in the history filter.
type AmountRange string

const (
	AmountAny     AmountRange = ""
	AmountUnder50 AmountRange = "under_50"
	Amount50To100 AmountRange = "50_100"
	AmountOver100 AmountRange = "over_100"
)

var (
	fifty   = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
)

// ParseAmountRange returns the range named s, or AmountAny.
func ParseAmountRange(s string) AmountRange {
	switch r := AmountRange(s); r {
	case AmountUnder50, Amount50To100, AmountOver100:
		return r
	default:
		return AmountAny
	}
}

// Contains reports whether total falls in r. Both bounds of 50_100 are
// inclusive.
func (r AmountRange) Contains(total decimal.Decimal) bool {
	switch r {
	case AmountUnder50:
		return total.LessThan(fifty)
	case Amount50To100:
		return total.GreaterThanOrEqual(fifty) && total.LessThanOrEqual(hundred)
	case AmountOver100:
		return total.GreaterThan(hundred)
	default:
		return true
	}
}

// HistoryFilter selects a page of past sales. StartDate and EndDate are
// calendar days and both inclusive; zero means unbounded. PaymentMethod and
// Amount narrow the fetched page.
type HistoryFilter struct {
	StoreID       int64
	StartDate     time.Time
	EndDate       time.Time
	PaymentMethod string
	Amount        AmountRange
	Page          int
	PerPage       int
}

// Normalize fills defaults and orders the date bounds.
func (f HistoryFilter) Normalize() HistoryFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultHistoryPageSize
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		f.StartDate, f.EndDate = f.EndDate, f.StartDate
	}
	return f
}

// Match reports whether s passes the local payment method and amount
// filters.
func (f HistoryFilter) Match(s Sale) bool {
	if f.PaymentMethod != "" && s.PaymentMethod != f.PaymentMethod {
		return false
	}
	return f.Amount.Contains(s.TotalAmount)
}

// HistoryPage is one page of the sales history.
type HistoryPage struct {
	Sales   []Sale
	Page    int
	Pages   int
	PerPage int
	Total   int
}

// HasPrev reports whether a previous page exists.
func (p *HistoryPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p *HistoryPage) HasNext() bool { return p.Page < p.Pages }

// History reads past sales.
type History interface {
	SalesHistory(ctx context.Context, f HistoryFilter) (*HistoryPage, error)
	Sale(ctx context.Context, id int64) (*Sale, error)
}
