package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"

	appledger "github.com/Erickgiber/debts-my-clients/internal/application/ledger"
	appoffline "github.com/Erickgiber/debts-my-clients/internal/application/offline"
	reportapp "github.com/Erickgiber/debts-my-clients/internal/application/report"
	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/cachestore"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/event"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/logger"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/persistence"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/printing"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/telemetry"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/version"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/handler"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/middleware"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Ventas API
//	@version		1.0
//	@description	Sales ledger with debtor balances, pending reports and the offline shell gateway.

//	@BasePath	/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(baseLog)
	}()

	appVersion := offline.VersionTag(cfg.Offline.Version)
	if appVersion.IsZero() {
		appVersion = version.Current()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry; the bridged logger also exports to OpenTelemetry when enabled
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, appVersion.String(), baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.Logs.Bridge(baseLog, cfg.Telemetry.ServiceName, zapcore.InfoLevel)

	log.Info("Starting ventas",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", appVersion.String()),
	)

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: dbSystem(cfg.Database.Driver),
	}, log); err != nil {
		log.Warn("Database tracing not installed", zap.Error(err))
	}
	if err := db.AutoMigrate(ctx); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	// Redis is shared by the redis cache backend and the message relay
	var rdb *redis.Client
	if cfg.Offline.CacheBackend == cachestore.BackendRedis || cfg.Offline.Relay == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = rdb.Close()
		}()
	}

	// Offline cache storage and worker registry
	factoryOpts := []cachestore.FactoryOption{
		cachestore.WithLogger(log),
		cachestore.WithDatabase(db.DB),
		cachestore.WithInMemoryFallback(!cfg.IsProduction()),
	}
	if rdb != nil {
		factoryOpts = append(factoryOpts, cachestore.WithRedisClient(rdb))
	}
	storage, err := cachestore.NewFactory(cfg.Offline, cfg.Storage, factoryOpts...).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create offline cache storage", zap.Error(err))
	}

	upstream, gatewayEnabled := upstreamURL(cfg)
	if !gatewayEnabled {
		log.Warn("offline.upstream_url not set, offline gateway disabled")
	}
	manifest := offline.Manifest(cfg.Offline.Manifest)
	if len(manifest) == 0 {
		manifest = nil
	}
	registry, err := appoffline.NewRegistry(storage, appoffline.RegistryConfig{
		Prefix:   cfg.Offline.CachePrefix,
		Manifest: manifest,
		Policy:   offline.UpdatePolicy(cfg.Offline.UpdatePolicy),
		Fetcher:  appoffline.NewTransportFetcher(upstream, http.DefaultTransport),
		Network:  http.DefaultTransport,
		InterceptorOptions: []appoffline.InterceptorOption{
			appoffline.WithInterceptorLogger(log),
			appoffline.WithBackgroundTimeout(cfg.Offline.BackgroundTimeout),
			appoffline.WithMaxCacheableBytes(cfg.Offline.MaxCacheableBytes),
			appoffline.WithMeterProvider(providers.MeterProvider()),
		},
	}, appoffline.WithRegistryLogger(log))
	if err != nil {
		log.Fatal("Failed to create worker registry", zap.Error(err))
	}

	if cfg.Offline.Relay == "redis" {
		relay := event.NewRedisMessageRelay(rdb,
			event.WithChannel(cfg.Offline.RelayChannel),
			event.WithLogger(log))
		registry.Connect(relay)
		go func() {
			if err := relay.Subscribe(ctx, registry.Clients()); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Message relay stopped", zap.Error(err))
			}
		}()
		log.Info("Message relay started", zap.String("channel", cfg.Offline.RelayChannel))
	}

	// Ledger and reports
	loc, _ := cfg.Ledger.Location()
	ledgerService := appledger.NewService(
		persistence.NewGormDebtorRepository(db.DB),
		persistence.NewGormSaleRepository(db.DB),
		appledger.Config{ResetPaidOnRevert: cfg.Ledger.ResetPaidOnRevert},
		appledger.WithLogger(log),
	)
	formatter, err := reportapp.NewFormatter(cfg.Ledger.CurrencyLocale, loc)
	if err != nil {
		log.Fatal("Invalid currency locale", zap.Error(err))
	}
	htmlRenderer, err := reportapp.NewHTMLRenderer(formatter)
	if err != nil {
		log.Fatal("Failed to load report templates", zap.Error(err))
	}
	reportOpts := []reportapp.ServiceOption{reportapp.WithLogger(log)}
	if cfg.Printing.Enabled {
		pdf := printing.NewChromedpRenderer(printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.RemoteURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		defer func() {
			_ = pdf.Close()
		}()
		reportOpts = append(reportOpts, reportapp.WithPDFRenderer(pdf))
	}
	reportService := reportapp.NewService(ledgerService, htmlRenderer, reportOpts...)

	// HTTP handlers and engine
	events := handler.NewWorkerEventsHandler(registry,
		handler.WithEventsLogger(log),
		handler.WithEventsHeartbeat(cfg.HTTP.HeartbeatInterval),
		handler.WithEventsMaxClients(cfg.HTTP.MaxStreams))
	handlers := router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, appVersion.String(), map[string]handler.Pinger{"database": db}),
		Worker: handler.NewWorkerHandler(registry, log),
		Events: events,
		Ledger: handler.NewLedgerHandler(ledgerService),
		Report: handler.NewReportHandler(reportService),
	}
	if gatewayEnabled {
		handlers.Gateway = handler.NewGatewayHandler(upstream, registry, log, router.ReservedPrefixes()...)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.MessageRatePerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.MessageRatePerMinute, cfg.HTTP.MessageRateBurst)
		go limiter.Run(ctx)
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Production:     cfg.IsProduction(),
		HTTP:           cfg.HTTP,
		TracingEnabled: cfg.Telemetry.Enabled,
		MeterProvider:  providers.MeterProvider(),
		MessageLimiter: limiter,
		Logger:         log,
	}, handlers)

	// Install this build's worker so the shell is cached before the first
	// offline navigation
	if gatewayEnabled {
		if _, err := registry.Register(ctx, appVersion); err != nil {
			log.Warn("Worker for this build not installed", zap.String("version", appVersion.String()), zap.Error(err))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("Failed to start server", zap.Error(err))
	}
	log.Info("Shutting down server...")

	// Event streams never finish on their own
	events.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	registry.Wait()

	if err := providers.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// upstreamURL returns the shell origin. Without one the fetcher points at
// this server so precache misses are logged instead of failing startup.
func upstreamURL(cfg *config.Config) (*url.URL, bool) {
	if cfg.Offline.UpstreamURL != "" {
		if u, err := url.Parse(cfg.Offline.UpstreamURL); err == nil {
			return u, true
		}
	}
	return &url.URL{Scheme: "http", Host: "127.0.0.1:" + cfg.App.Port}, false
}

func dbSystem(driver string) string {
	if driver == "postgres" {
		return "postgresql"
	}
	return driver
}
