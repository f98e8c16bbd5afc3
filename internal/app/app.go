package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/lifestyle/storefront/internal/catalog"
	"github.com/lifestyle/storefront/internal/checkout"
	"github.com/lifestyle/storefront/internal/config"
	"github.com/lifestyle/storefront/internal/event"
	handler "github.com/lifestyle/storefront/internal/handler/http"
	"github.com/lifestyle/storefront/internal/service"
	"github.com/lifestyle/storefront/internal/session"
	"github.com/lifestyle/storefront/internal/storage"
	pgstore "github.com/lifestyle/storefront/internal/storage/postgres"
	redisstore "github.com/lifestyle/storefront/internal/storage/redis"
	"github.com/lifestyle/storefront/internal/store"
	"github.com/lifestyle/storefront/pkg/database"
	"github.com/lifestyle/storefront/pkg/health"
	"github.com/lifestyle/storefront/pkg/httpclient"
	pkgkafka "github.com/lifestyle/storefront/pkg/kafka"
	"github.com/lifestyle/storefront/pkg/middleware"
	"github.com/lifestyle/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	persister      *store.Persister
	registry       *session.Registry
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	proxies, err := middleware.ParseCIDRs(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Initialize tracing.
	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	shutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	// Initialize persistence.
	st, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		a.closeResources(ctx)
		return nil, err
	}
	a.persister = store.NewPersister(st, logger, cfg.PersistTimeout())

	opts := session.Options{IdleTimeout: cfg.SessionIdleTimeout()}
	if purger, ok := st.(storage.Purger); ok {
		opts.Purger = purger
	}
	a.registry = session.NewRegistry(a.persister, logger, opts)

	// Initialize the product catalog.
	source, err := a.productSource(healthHandler)
	if err != nil {
		a.persister.Close()
		a.closeResources(ctx)
		return nil, err
	}
	products := catalog.New(source, logger, catalog.Options{
		TTL:        cfg.CatalogTTL(),
		FetchLimit: cfg.ProductsFetchLimit,
	})
	healthHandler.RegisterNonCritical("catalog", func(ctx context.Context) error {
		_, err := products.Products(ctx)
		return err
	})

	// Initialize event publishing.
	var publisher event.Publisher = event.Noop{}
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, events disabled")
	}

	// Build the dependency graph.
	svcs := handler.Services{
		Wishlist: service.NewWishlistService(products, publisher, logger),
		Cart:     service.NewCartService(products, publisher, logger),
		Checkout: service.NewCheckoutService(checkout.New(), publisher, logger),
		Catalog:  products,
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	routerOpts := handler.RouterOptions{
		CORS:       corsCfg,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
	}
	if cfg.RateLimitEnabled() {
		routerOpts.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute).
			TrustProxies(proxies)
	}

	// HTTP router.
	router := handler.NewRouter(svcs, a.registry, healthHandler, logger, routerOpts)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured storage driver and registers its
// health check.
func (a *App) openStorage(ctx context.Context, healthHandler *health.Handler) (storage.Storage, error) {
	ttl := a.cfg.StorageTTLDuration()

	switch a.cfg.StorageDriver {
	case storage.DriverRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPass,
			DB:       a.cfg.RedisDB,
			PoolSize: database.DefaultRedisConfig().PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)

		st := redisstore.New(rdb, ttl)
		healthHandler.RegisterCritical("redis", st.Ping)
		return st, nil

	case storage.DriverPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = a.cfg.PostgresHost
		pgCfg.Port = a.cfg.PostgresPort
		pgCfg.User = a.cfg.PostgresUser
		pgCfg.Password = a.cfg.PostgresPass
		pgCfg.DBName = a.cfg.PostgresDB
		pgCfg.SSLMode = a.cfg.PostgresSSL

		pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool

		if err := pgstore.Migrate(ctx, pool, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			a.logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)

		st := pgstore.New(pool, ttl)
		healthHandler.RegisterCritical("postgres", st.Ping)
		return st, nil

	default:
		a.logger.Warn("using in-memory storage, snapshots are lost on restart")
		return storage.NewMemory(ttl), nil
	}
}

// productSource returns the upstream product API client, or the bundled
// sample catalog when no URL is configured.
func (a *App) productSource(healthHandler *health.Handler) (catalog.Source, error) {
	if a.cfg.ProductsAPIURL == "" {
		a.logger.Info("no products API configured, serving the sample catalog")
		src, err := catalog.NewStaticSource()
		if err != nil {
			return nil, fmt.Errorf("load sample catalog: %w", err)
		}
		return src, nil
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("product-api"),
		a.logger,
	)
	healthHandler.RegisterNonCritical("product-api", client.Check)
	a.logger.Info("fetching products from upstream API", slog.String("url", a.cfg.ProductsAPIURL))
	return catalog.NewHTTPSource(a.cfg.ProductsAPIURL, client), nil
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the session sweeper and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.registry.Run(sweepCtx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		stopSweep()
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Write out pending snapshots before the backends close.
	if err := a.persister.Flush(shutdownCtx); err != nil {
		a.logger.Error("persister flush error", slog.String("error", err.Error()))
	}
	a.persister.Close()

	a.closeResources(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return nil
}

// closeResources releases the backends opened by NewApp.
func (a *App) closeResources(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
