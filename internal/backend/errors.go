package backend

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// APIError is a non-2xx response from the inventory backend.
type APIError struct {
	Status int
	// Message is the human-readable reason reported by the backend, or the
	// status text when the body carried none.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the backend, meaning the
// backend session is gone.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// decodeAPIError builds an APIError from an {"error": "..."} or
// {"message": "..."} payload. Unparseable bodies fall back to the status text.
func decodeAPIError(status int, body []byte) *APIError {
	var errMsg, msg string
	if len(body) > 0 {
		d := jx.DecodeBytes(body)
		if d.Next() == jx.Object {
			_ = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				switch string(key) {
				case "error", "message":
					if d.Next() != jx.String {
						return d.Skip()
					}
					s, err := d.Str()
					if err != nil {
						return err
					}
					if string(key) == "error" {
						errMsg = s
					} else {
						msg = s
					}
					return nil
				default:
					return d.Skip()
				}
			})
		}
	}
	if errMsg == "" {
		errMsg = msg
	}
	if errMsg == "" {
		errMsg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: errMsg}
}
