package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
)

// LimiterConfig configures a sliding window Limiter.
type LimiterConfig struct {
	// Max is the number of attempts allowed per Window.
	Max    int
	Window time.Duration
	// TrustProxy makes ClientIP honour X-Forwarded-For and X-Real-IP.
	TrustProxy bool
}

type window struct {
	prev      float64
	curr      float64
	currStart time.Time
}

// Limiter counts attempts per key over a sliding window. It is used to
// throttle sign-in attempts per client address.
type Limiter struct {
	cfg LimiterConfig
	now func() time.Time

	mu   sync.Mutex
	keys map[string]*window
}

// NewLimiter creates a Limiter. Run must be started to evict idle keys.
func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		cfg:  cfg,
		now:  time.Now,
		keys: make(map[string]*window),
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit, with the time at which the current window resets.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.keys[key]
	if !ok {
		w = &window{currStart: now}
		l.keys[key] = w
	}
	if since := now.Sub(w.currStart); since >= l.cfg.Window {
		w.prev = w.curr
		if since >= 2*l.cfg.Window {
			w.prev = 0
		}
		w.curr = 0
		w.currStart = now.Truncate(l.cfg.Window)
	}

	overlap := math.Max(0, 1-now.Sub(w.currStart).Seconds()/l.cfg.Window.Seconds())
	resetAt := w.currStart.Add(l.cfg.Window)
	if w.prev*overlap+w.curr >= float64(l.cfg.Max) {
		return false, resetAt
	}
	w.curr++
	return true, resetAt
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func (l *Limiter) evict() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.keys {
		if now.Sub(w.currStart) >= 2*l.cfg.Window {
			delete(l.keys, key)
		}
	}
}

// Run evicts idle keys every two windows until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(2 * l.cfg.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

// ClientIP returns the address the limiter keys requests by.
func (l *Limiter) ClientIP(r *http.Request) string {
	if l.cfg.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit throttles requests for which match returns true. Rejected requests
// get 429 with a Retry-After header and an {"error": ...} body.
func Limit(l *Limiter, match func(*http.Request) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if match != nil && !match(r) {
				next.ServeHTTP(w, r)
				return
			}

			ok, resetAt := l.Allow(l.ClientIP(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retry := math.Ceil(math.Max(0, resetAt.Sub(l.now()).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)

			var e jx.Encoder
			e.Obj(func(e *jx.Encoder) {
				e.Field("error", func(e *jx.Encoder) {
					e.Str("Too many sign-in attempts. Please wait and try again.")
				})
			})
			_, _ = w.Write(e.Bytes())
		})
	}
}

// LoginAttempts matches sign-in form submissions.
func LoginAttempts(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == "/login"
}
