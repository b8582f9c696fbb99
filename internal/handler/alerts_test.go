package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/pos-console/internal/backend"
	"github.com/xenking/pos-console/internal/domain/cart"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
	"github.com/xenking/pos-console/internal/session"
)

func TestAlertFor(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level session.AlertLevel
		msg   string
	}{
		{"no store", cart.ErrNoStore, session.AlertWarning, "Please select a store first"},
		{"empty cart", cart.ErrEmptyCart, session.AlertWarning, "Please add at least one item to the cart"},
		{"in flight", cart.ErrCheckoutInProgress, session.AlertWarning, "A sale is already being processed"},
		{"out of stock", &cart.OutOfStockError{ProductID: 1, ProductName: "Whey"}, session.AlertWarning, "Whey is out of stock"},
		{"exceeded", &cart.StockExceededError{ProductID: 1, ProductName: "Whey", Available: 2}, session.AlertWarning, "Only 2 of Whey available"},
		{"unknown store", errors.Wrap(session.ErrUnknownStore, "select 9"), session.AlertWarning, "Please select a store first"},
		{"bad input", &inputError{field: "quantity"}, session.AlertWarning, "Invalid quantity"},
		{"product form", &product.ValidationError{Message: "SKU is required"}, session.AlertWarning, "SKU is required"},
		{"store form", errors.Wrap(&store.ValidationError{Message: "Store name is required"}, "save"), session.AlertWarning, "Store name is required"},
		{"missing product", errors.Wrap(product.ErrNotFound, "delete"), session.AlertWarning, "Product not found"},
		{"server message", errors.Wrap(&backend.APIError{Status: 400, Message: "Insufficient quantity"}, "submit sale"), session.AlertDanger, "Error: Insufficient quantity"},
		{"unauthorized", &backend.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}, session.AlertDanger, "Your backend session has expired. Please sign out and sign in again."},
		{"timeout", errors.Wrap(context.DeadlineExceeded, "submit sale"), session.AlertDanger, "The server took too long to respond. Please try again."},
		{"other", errors.New("connection refused"), session.AlertDanger, "A server error occurred. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, msg := alertFor(tt.err)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "LKR 0.00"},
		{"5.5", "LKR 5.50"},
		{"999.999", "LKR 1,000.00"},
		{"1234.5", "LKR 1,234.50"},
		{"1234567.891", "LKR 1,234,567.89"},
		{"-42", "-LKR 42.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestLocalRedirect(t *testing.T) {
	assert.Equal(t, "/products", localRedirect("/products", "/pos"))
	assert.Equal(t, "/products?search=x", localRedirect("/products?search=x", "/pos"))
	assert.Equal(t, "/pos", localRedirect("", "/pos"))
	assert.Equal(t, "/pos", localRedirect("https://evil.example", "/pos"))
	assert.Equal(t, "/pos", localRedirect("//evil.example", "/pos"))
	assert.Equal(t, "/pos", localRedirect("/\\evil.example", "/pos"))
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.10", "10%"},
		{"0", "0%"},
		{"0.125", "12.5%"},
		{"0.08", "8%"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPercent(decimal.RequireFromString(tt.in)))
		})
	}
}
