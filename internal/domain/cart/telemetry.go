package cart

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/pos-console/internal/domain/cart"

// Telemetry holds the instruments shared by every Manager.
type Telemetry struct {
	tracer    trace.Tracer
	checkouts metric.Int64Counter
	unitsSold metric.Int64Counter
}

// NewTelemetry creates checkout instruments from the given providers.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentationName)

	checkouts, err := meter.Int64Counter("pos.checkout.count",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "checkout counter")
	}
	unitsSold, err := meter.Int64Counter("pos.checkout.units",
		metric.WithDescription("Units sold through successful checkouts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "units counter")
	}

	return &Telemetry{
		tracer:    tp.Tracer(instrumentationName),
		checkouts: checkouts,
		unitsSold: unitsSold,
	}, nil
}
