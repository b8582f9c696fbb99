package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pos-console/internal/domain/auth"
)

var _ auth.Authenticator = (*Client)(nil)

// Login signs in and stores the backend session cookie in the client jar.
func (c *Client) Login(ctx context.Context, username, password string) (*auth.User, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("username")
	e.Str(username)
	e.FieldStart("password")
	e.Str(password)
	e.ObjEnd()

	var resp struct {
		User userDTO `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, e.Bytes(), &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "login")
	}
	return resp.User.toDomain(), nil
}

// CurrentUser returns the user bound to the backend session.
func (c *Client) CurrentUser(ctx context.Context) (*auth.User, error) {
	var resp struct {
		User userDTO `json:"user"`
	}
	if err := c.get(ctx, "/api/auth/me", nil, &resp); err != nil {
		return nil, errors.Wrap(err, "current user")
	}
	return resp.User.toDomain(), nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil); err != nil {
		return errors.Wrap(err, "logout")
	}
	return nil
}
