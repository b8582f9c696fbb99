package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrInvalidCredentials is returned when the backend rejects a login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is the operator signed in to the console.
type User struct {
	ID       int64
	Username string
	Email    string
	Role     string
}

// Authenticator signs operators in and out against the backend.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*User, error)
	CurrentUser(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
}
