// Package health serves liveness and readiness checks.
//
// Every registered check runs on its own ticker. A check turns unhealthy only
// after FailureThreshold consecutive failures and healthy again after one
// success. Non-critical readiness checks are reported but never take the
// service out of rotation; they mark it "degraded" instead.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// Kind selects the endpoint a check contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// Checker describes a registered check.
type Checker struct {
	Name    string
	Kind    Kind
	Timeout time.Duration
	Check   CheckFunc
	// Critical readiness checks fail /readyz. Liveness checks are always critical.
	Critical bool
	// FailureThreshold defaults to 3.
	FailureThreshold int
}

type checkState struct {
	Checker

	healthy   atomic.Bool
	lastErr   atomic.Pointer[string]
	lastCheck atomic.Int64

	// Touched only by the check goroutine.
	fails int
}

func (p *checkState) run(ctx context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := p.Check(ctx)
	p.lastCheck.Store(now.UnixNano())
	if err == nil {
		p.fails = 0
		p.lastErr.Store(nil)
		p.healthy.Store(true)
		return
	}

	msg := err.Error()
	p.lastErr.Store(&msg)
	p.fails++
	if p.fails >= p.FailureThreshold {
		p.healthy.Store(false)
	}
}

func (p *checkState) critical() bool {
	return p.Kind == Liveness || p.Critical
}

// Health aggregates checks and the manual readiness switch.
type Health struct {
	ready atomic.Bool
	now   func() time.Time

	mu     sync.RWMutex
	checks []*checkState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{now: time.Now}
}

// Register adds a check. It must be called before Start.
func (h *Health) Register(p Checker) {
	if p.Timeout <= 0 {
		p.Timeout = time.Second
	}
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	st := &checkState{Checker: p}
	st.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, st)
}

// Start runs every check immediately and then at interval until Stop or ctx
// cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append([]*checkState(nil), h.checks...)
	h.mu.Unlock()

	for _, p := range checks {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.loop(ctx, p, interval)
		}()
	}
}

func (h *Health) loop(ctx context.Context, p *checkState, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.run(ctx, h.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx, h.now())
		}
	}
}

// Stop cancels the check goroutines and waits for them to exit.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.wg.Wait()
}

// SetReady flips the manual readiness switch.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Ready reports whether /readyz would answer 200.
func (h *Health) Ready() bool {
	r := h.report(Readiness)
	return r.ok
}

type report struct {
	ok       bool
	degraded bool
	checks   []*checkState
}

func (h *Health) report(kind Kind) report {
	h.mu.RLock()
	var checks []*checkState
	for _, p := range h.checks {
		if p.Kind == kind {
			checks = append(checks, p)
		}
	}
	h.mu.RUnlock()
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	r := report{ok: kind == Liveness || h.ready.Load(), checks: checks}
	for _, p := range checks {
		if p.healthy.Load() {
			continue
		}
		if p.critical() {
			r.ok = false
		} else {
			r.degraded = true
		}
	}
	return r
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, h.report(Liveness), true)
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, h.report(Readiness), h.ready.Load())
}

func writeReport(w http.ResponseWriter, r report, switchedOn bool) {
	status := "ok"
	code := http.StatusOK
	switch {
	case !r.ok:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case r.degraded:
		status = "degraded"
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if !switchedOn {
			e.Field("reason", func(e *jx.Encoder) { e.Str("service is not ready") })
		}
		if len(r.checks) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, p := range r.checks {
					e.Field(p.Name, func(e *jx.Encoder) { encodeCheck(e, p) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func encodeCheck(e *jx.Encoder, p *checkState) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("healthy", func(e *jx.Encoder) { e.Bool(p.healthy.Load()) })
		e.Field("critical", func(e *jx.Encoder) { e.Bool(p.critical()) })
		if msg := p.lastErr.Load(); msg != nil {
			e.Field("error", func(e *jx.Encoder) { e.Str(*msg) })
		}
		if ts := p.lastCheck.Load(); ts != 0 {
			e.Field("checked_at", func(e *jx.Encoder) {
				e.Str(time.Unix(0, ts).UTC().Format(time.RFC3339))
			})
		}
	})
}
