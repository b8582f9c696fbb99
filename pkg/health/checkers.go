package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is a dependency that can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck checks p.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// CapacityCheck fails when count() reaches limit, e.g. the number of live
// console sessions.
func CapacityCheck(what string, count func() int, limit int) CheckFunc {
	return func(context.Context) error {
		if n := count(); n >= limit {
			return errors.Errorf("%s: %d of %d in use", what, n, limit)
		}
		return nil
	}
}
