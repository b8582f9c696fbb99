package handler

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-console/internal/backend"
	"github.com/xenking/pos-console/internal/domain/cart"
	"github.com/xenking/pos-console/internal/domain/product"
	"github.com/xenking/pos-console/internal/domain/store"
	"github.com/xenking/pos-console/internal/session"
)

// alertFor maps an action error to the alert shown to the operator.
func alertFor(err error) (session.AlertLevel, string) {
	var (
		apiErr   *backend.APIError
		inErr    *inputError
		prodErr  *product.ValidationError
		storeErr *store.ValidationError
	)
	switch {
	case errors.Is(err, cart.ErrNoStore):
		return session.AlertWarning, "Please select a store first"
	case errors.Is(err, cart.ErrEmptyCart):
		return session.AlertWarning, "Please add at least one item to the cart"
	case errors.Is(err, cart.ErrCheckoutInProgress):
		return session.AlertWarning, "A sale is already being processed"
	case cart.IsValidation(err):
		return session.AlertWarning, sentence(rootMessage(err))
	case errors.Is(err, session.ErrUnknownStore):
		return session.AlertWarning, "Please select a store first"
	case errors.As(err, &inErr):
		return session.AlertWarning, sentence(inErr.Error())
	case errors.As(err, &prodErr):
		return session.AlertWarning, prodErr.Message
	case errors.As(err, &storeErr):
		return session.AlertWarning, storeErr.Message
	case errors.Is(err, product.ErrNotFound):
		return session.AlertWarning, "Product not found"
	case backend.IsUnauthorized(err):
		return session.AlertDanger, "Your backend session has expired. Please sign out and sign in again."
	case errors.As(err, &apiErr):
		return session.AlertDanger, "Error: " + apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return session.AlertDanger, "The server took too long to respond. Please try again."
	default:
		return session.AlertDanger, "A server error occurred. Please try again."
	}
}

// rootMessage returns the message of the innermost error.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
