package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/catalog-admin/internal/backend"
	"github.com/utafrali/catalog-admin/internal/config"
	"github.com/utafrali/catalog-admin/internal/event"
	handler "github.com/utafrali/catalog-admin/internal/handler/http"
	"github.com/utafrali/catalog-admin/internal/productform"
	"github.com/utafrali/catalog-admin/internal/refdata"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/internal/session"
	"github.com/utafrali/catalog-admin/internal/upload"
	"github.com/utafrali/catalog-admin/pkg/database"
	"github.com/utafrali/catalog-admin/pkg/health"
	"github.com/utafrali/catalog-admin/pkg/httpclient"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
	"github.com/utafrali/catalog-admin/pkg/tracing"
)

const (
	serviceName   = "catalog-admin"
	sweepInterval = time.Minute
)

// App wires together all dependencies and runs the catalog admin service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server

	// background bounds the rate limiter and session sweepers.
	background context.Context
	stop       context.CancelFunc
	sweepers   []func(ctx context.Context)

	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	a.background, a.stop = context.WithCancel(context.Background())

	// Tracing.
	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	shutdownTracer, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	healthHandler := health.NewHandler()

	// Redis is optional: it backs the reference cache and, with the redis
	// driver, the draft sessions.
	if cfg.RedisEnabled {
		rcfg := database.DefaultRedisConfig()
		rcfg.Addr = cfg.RedisAddr
		rcfg.Password = cfg.RedisPass
		rcfg.DB = cfg.RedisDB
		a.rdb, err = database.NewRedisClient(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		healthHandler.Register("redis", database.RedisChecker(a.rdb))
	}

	// Kafka is optional. The event producer must see an untyped nil when it
	// is off, otherwise it would try to publish through a nil *Producer.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Catalog backend client: retries for reads, circuit breaker around all.
	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = cfg.BackendTimeout
	hcfg.MaxRetries = cfg.BackendMaxRetries
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(hcfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-backend"),
		logger,
	)
	healthHandler.Register("catalog-backend", func(context.Context) error {
		if breaker.State() == gobreaker.StateOpen {
			return errors.New("circuit breaker open")
		}
		return nil
	})
	catalog := backend.NewClient(breaker, cfg.BackendURL, logger)

	// Reference data.
	var cache refdata.Cache
	if a.rdb != nil {
		cache = refdata.NewRedisCache(a.rdb)
	}
	refs := refdata.NewService(catalog, cache, cfg.RefCacheTTL, logger)

	// Draft sessions.
	productDrafts, err := newStore[productform.Form](a, "product draft")
	if err != nil {
		return nil, err
	}
	categoryDrafts, err := newStore[service.CategoryDraft](a, "category draft")
	if err != nil {
		return nil, err
	}

	// Image storage.
	images, err := upload.New(upload.Config{
		Driver:           cfg.UploadDriver,
		CloudinaryURL:    cfg.CloudinaryURL,
		CloudinaryFolder: cfg.CloudinaryFolder,
		MemoryBaseURL:    cfg.UploadMemoryPublicBase,
	}, catalog)
	if err != nil {
		return nil, fmt.Errorf("init upload store: %w", err)
	}
	uploadOpts := upload.DefaultOptions()
	uploadOpts.Concurrency = cfg.UploadConcurrency
	uploadOpts.MaxSize = cfg.UploadMaxBytes

	formOpts := productform.DefaultOptions()
	formOpts.ProtectManualSlug = cfg.ProtectManualSlug
	formOpts.CommaAddsTag = cfg.CommaAddsTag
	formOpts.SubmitTimeout = cfg.SubmitTimeout

	// Build the dependency graph.
	svcs := handler.Services{
		ProductDrafts: service.NewProductDraftService(service.ProductDraftDeps{
			Drafts:        productDrafts,
			Refs:          refs,
			Products:      catalog,
			Images:        images,
			UploadOptions: uploadOpts,
			Producer:      eventProducer,
			FormOptions:   formOpts,
		}, logger),
		Categories: service.NewCategoryBuilderService(categoryDrafts, refs, catalog, eventProducer, logger),
		Catalog:    service.NewCatalogService(refs, catalog, logger),
	}

	// HTTP router.
	router := handler.NewRouter(a.background, svcs, healthHandler, handler.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   float64(cfg.RateLimitRPS),
		RateLimitBurst: cfg.RateLimitBurst,
		UploadMaxBytes: cfg.UploadMaxBytes,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Image batches stream large multipart bodies.
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("catalog admin wired",
		slog.String("backend_url", cfg.BackendURL),
		slog.String("session_driver", cfg.SessionDriver),
		slog.String("upload_driver", cfg.UploadDriver),
		slog.Bool("refdata_cache", cache != nil),
	)
	return a, nil
}

// newStore builds a draft session store for the configured driver. Memory
// stores get a sweeper that runs for the lifetime of the app.
func newStore[T any](a *App, kind string) (session.Store[T], error) {
	switch a.cfg.SessionDriver {
	case session.DriverRedis:
		if a.rdb == nil {
			return nil, errors.New("redis session driver requires REDIS_ENABLED")
		}
		return session.NewRedisStore[T](a.rdb, kind, a.cfg.SessionTTL), nil
	case session.DriverMemory, "":
		s := session.NewMemoryStore[T](kind, a.cfg.SessionTTL)
		a.sweepers = append(a.sweepers, func(ctx context.Context) {
			s.RunSweeper(ctx, sweepInterval, a.logger)
		})
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", a.cfg.SessionDriver)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	for _, sweep := range a.sweepers {
		go sweep(a.background)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.stop()

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

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
