package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-console/internal/backend"
	"github.com/xenking/pos-console/internal/domain/cart"
	"github.com/xenking/pos-console/internal/domain/sale"
	"github.com/xenking/pos-console/internal/handler"
	"github.com/xenking/pos-console/internal/repository"
	"github.com/xenking/pos-console/internal/session"
	"github.com/xenking/pos-console/pkg/health"
	"github.com/xenking/pos-console/pkg/httpmiddleware"
)

const sessionSweepInterval = time.Minute

// service is the wired console: the root handler and the components whose
// lifecycle Run manages.
type service struct {
	handler  http.Handler
	health   *health.Health
	sessions *session.Store
	limiter  *httpmiddleware.Limiter
	closers  []func()
}

func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.BackendURL),
	)

	svc, err := newService(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	healthSvc, sessions, limiter := svc.health, svc.sessions, svc.limiter
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Sign-in and checkout wait on several backend round trips.
		WriteTimeout:   4*cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        svc.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Run(gctx, sessionSweepInterval)
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		lg.Info("Server stopped", zap.Int("sessions", sessions.Len()))
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

// newService wires the console without starting any goroutine.
func newService(
	ctx context.Context,
	lg *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	cfg *Config,
) (_ *service, err error) {
	taxRate, err := cfg.Sales.Rate()
	if err != nil {
		return nil, errors.Wrap(err, "tax rate")
	}

	svc := &service{}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()
	healthSvc := health.New()

	// Receipt journal: PostgreSQL when configured, memory otherwise.
	var receipts sale.ReceiptRepository
	if cfg.DatabaseURL != "" {
		pool, err := repository.Open(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return nil, errors.Wrap(err, "open journal")
		}
		svc.closers = append(svc.closers, pool.Close)

		receipts = repository.NewReceiptRepository(pool)
		healthSvc.Register(health.Checker{
			Name:    "journal",
			Kind:    health.Readiness,
			Timeout: 5 * time.Second,
			Check:   health.PingCheck(pool),
		})
	} else {
		lg.Info("Receipt journal kept in memory", zap.Int("capacity", cfg.Sales.JournalCapacity))
		receipts = repository.NewMemoryReceipts(cfg.Sales.JournalCapacity)
	}

	// Inventory backend.
	factory, err := backend.NewFactory(cfg.BackendURL, cfg.BackendTimeout,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create backend client")
	}

	sessions := session.NewStore(cfg.Session.TTL)

	healthSvc.Register(health.Checker{
		Name:     "backend",
		Kind:     health.Readiness,
		Timeout:  5 * time.Second,
		Check:    health.PingCheck(factory),
		Critical: true,
	})
	if cfg.Session.MaxSessions > 0 {
		healthSvc.Register(health.Checker{
			Name:    "sessions",
			Kind:    health.Readiness,
			Timeout: time.Second,
			Check:   health.CapacityCheck("sessions", sessions.Len, cfg.Session.MaxSessions),
		})
	}
	healthSvc.Register(health.Checker{
		Name:    "goroutines",
		Kind:    health.Liveness,
		Timeout: time.Second,
		Check:   health.GoroutineCountCheck(10000),
	})

	cartTel, err := cart.NewTelemetry(tp, mp)
	if err != nil {
		return nil, errors.Wrap(err, "cart telemetry")
	}

	h, err := handler.New(handler.Config{
		SecureCookies:  cfg.Session.SecureCookies,
		SessionTTL:     cfg.Session.TTL,
		ExportMaxPages: cfg.Sales.ExportMaxPages,
		MaxSessions:    cfg.Session.MaxSessions,
	}, handler.Deps{
		Sessions:   sessions,
		Signer:     session.NewSigner([]byte(cfg.Session.Secret), cfg.Session.TTL),
		NewBackend: func() session.Backend { return factory.New() },
		Session: session.Options{
			Cart: cart.Config{
				TaxRate:       &taxRate,
				PaymentMethod: cfg.Sales.PaymentMethod,
				Telemetry:     cartTel,
			},
			Receipts:    receipts,
			RecentSales: cfg.Sales.RecentSales,
		},
		Receipts: receipts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create handler")
	}

	limiter := httpmiddleware.NewLimiter(httpmiddleware.LimiterConfig{
		Max:        cfg.RateLimit.Max,
		Window:     cfg.RateLimit.Window,
		TrustProxy: cfg.RateLimit.TrustProxy,
	})

	// Router: health endpoints + the console on one server.
	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	mux.Mount("/", otelhttp.NewHandler(h.Routes(), "pos-console",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))

	svc.handler = httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.Limit(limiter, httpmiddleware.LoginAttempts),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(isHealthPath),
	)
	svc.health = healthSvc
	svc.sessions = sessions
	svc.limiter = limiter
	return svc, nil
}

func isHealthPath(r *http.Request) bool {
	switch r.URL.Path {
	case "/livez", "/readyz":
		return true
	}
	return false
}
