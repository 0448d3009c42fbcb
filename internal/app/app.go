package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/stelliesdp/storefront/internal/domain/cart"
	"github.com/stelliesdp/storefront/internal/domain/catalog"
	"github.com/stelliesdp/storefront/internal/domain/order"
	"github.com/stelliesdp/storefront/internal/handler"
	"github.com/stelliesdp/storefront/internal/kv"
	"github.com/stelliesdp/storefront/internal/sink"
	"github.com/stelliesdp/storefront/internal/sink/postgres"
	"github.com/stelliesdp/storefront/internal/source"
	"github.com/stelliesdp/storefront/pkg/health"
	"github.com/stelliesdp/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("sink", cfg.Sink.Kind))

	// Persistent key-value store (cart, last order, pending queue, counter).
	store, err := kv.OpenFile(cfg.StorePath)
	if err != nil {
		return errors.Wrap(err, "open key-value store")
	}

	// Catalog source + initial load. A failed first fetch is logged, not
	// fatal: the storefront serves an empty catalog until a refresh works.
	var catalogSource catalog.Source
	if cfg.Catalog.URL != "" {
		catalogSource = source.NewHTTPSource(cfg.Catalog.URL, nil)
	} else {
		catalogSource = source.NewFileSource(cfg.Catalog.DataDir)
	}
	catalogSvc := catalog.NewService(catalogSource)
	if err := catalogSvc.Refresh(ctx); err != nil {
		lg.Warn("Initial catalog load failed", zap.Error(err))
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Order submission sink.
	orderSink, closeSink, err := buildSink(ctx, cfg, healthSvc)
	if err != nil {
		return errors.Wrap(err, "create order sink")
	}
	defer closeSink()

	carts := cart.NewStore(store)
	assembler := order.NewAssembler(carts, catalogSvc, store, orderSink, cfg.OrderPrefix)

	healthSvc.SetReady(true)

	// Routes.
	h := handler.New(catalogSvc, carts, assembler, store)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	var apiHandler http.Handler = otelhttp.NewHandler(mux, "storefront",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(apiHandler,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildSink constructs the configured order sink. The returned close
// function releases sink resources (the postgres pool); for the other
// sinks it is a no-op.
func buildSink(ctx context.Context, cfg *Config, healthSvc *health.Health) (order.Sink, func(), error) {
	noop := func() {}

	switch cfg.Sink.Kind {
	case "webhook":
		return sink.NewWebhook(cfg.Sink.WebhookURL, nil), noop, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Sink.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return postgres.NewOrderSink(pool), pool.Close, nil
	default:
		return sink.NewFileDrop(cfg.Sink.DropDir), noop, nil
	}
}
