// Package backend is a typed client for the inventory REST backend.
//
// Each operator session gets its own Client with a private cookie jar, so the
// backend's session cookie never leaks between operators. All clients built by
// one Factory share a single instrumented transport.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseSize bounds how much of a backend response body is read.
const maxResponseSize = 8 << 20

// Factory creates per-session clients for one backend.
type Factory struct {
	base      *url.URL
	transport http.RoundTripper
	timeout   time.Duration
}

// NewFactory validates baseURL and prepares a shared transport. The otelhttp
// options carry the tracer and meter providers.
func NewFactory(baseURL string, timeout time.Duration, opts ...otelhttp.Option) (*Factory, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse backend url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("backend url %q is not absolute", baseURL)
	}
	return &Factory{
		base:      u,
		transport: otelhttp.NewTransport(http.DefaultTransport, opts...),
		timeout:   timeout,
	}, nil
}

// New returns a client with an empty cookie jar.
func (f *Factory) New() *Client {
	// cookiejar.New only fails on a bad PublicSuffixList, and none is passed.
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: f.base,
		http: &http.Client{
			Transport: f.transport,
			Timeout:   f.timeout,
			Jar:       jar,
		},
	}
}

// Ping reports whether the backend answers HTTP at all. Any status below 500
// counts, since unauthenticated calls are expected to be rejected.
func (f *Factory) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base.JoinPath("/api/auth/me").String(), nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := (&http.Client{Transport: f.transport, Timeout: f.timeout}).Do(req)
	if err != nil {
		return errors.Wrap(err, "ping backend")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("backend status %d", resp.StatusCode)
	}
	return nil
}

// Client talks to the backend on behalf of one operator session.
type Client struct {
	base *url.URL
	http *http.Client
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return errors.Wrapf(err, "read %s response", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}
