package router

import (
	_ "github.com/Erickgiber/debts-my-clients/docs"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/logger"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/handler"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Paths with special treatment in the middleware chain
const (
	PathHealth  = "/health"
	PathEvents  = "/sw/events"
	PathSwagger = "/swagger"
)

// EngineConfig configures the middleware chain
type EngineConfig struct {
	ServiceName    string
	Production     bool
	HTTP           config.HTTPConfig
	TracingEnabled bool
	MeterProvider  metric.MeterProvider
	// MessageLimiter throttles worker message posts per client IP; nil
	// disables it.
	MessageLimiter *middleware.RateLimiter
	Logger         *zap.Logger
}

// Handlers are the route targets. Gateway is optional; without it unknown
// routes answer 404.
type Handlers struct {
	System  *handler.SystemHandler
	Worker  *handler.WorkerHandler
	Events  *handler.WorkerEventsHandler
	Ledger  *handler.LedgerHandler
	Report  *handler.ReportHandler
	Gateway *handler.GatewayHandler
}

// NewEngine builds the gin engine with the full middleware chain and every
// route mounted.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		cfg.Logger.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.Production

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
			SkipPaths:   []string{PathEvents, PathHealth},
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Enabled:       cfg.MeterProvider != nil,
			SkipPaths:     []string{PathEvents},
		}),
		logger.GinMiddleware(cfg.Logger, logger.WithQuietPaths(PathHealth, PathEvents)),
		middleware.CORSWithConfig(cors),
		middleware.SecureWithConfig(security),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	r := NewRouter(engine)
	if h.System != nil {
		r.RegisterRoot(systemRoutes(h.System))
	}
	if h.Worker != nil {
		r.RegisterRoot(workerRoutes(h.Worker, h.Events, cfg.MessageLimiter))
	}
	if h.Ledger != nil {
		r.Register(ledgerRoutes(h.Ledger))
	}
	if h.Report != nil {
		r.Register(reportRoutes(h.Report))
	}
	r.Setup()

	// Mounted even when disabled so the gateway never proxies /swagger
	engine.GET(PathSwagger+"/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.HTTP.SwaggerEnabled,
			AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	if h.Gateway != nil {
		engine.NoRoute(h.Gateway.Serve)
	} else {
		engine.NoRoute(func(c *gin.Context) {
			c.JSON(dto.GetHTTPStatus(dto.ErrCodeNotFound),
				dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
		})
	}
	return engine
}

// ReservedPrefixes are never handed to the gateway
func ReservedPrefixes() []string {
	return []string{"/api/", "/sw/", PathSwagger + "/"}
}

func systemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "").
		GET(PathHealth, h.Health).
		GET("/ping", h.Ping).
		GET("/info", h.GetSystemInfo)
}

func workerRoutes(h *handler.WorkerHandler, events *handler.WorkerEventsHandler, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("worker", "")
	g.GET("/sw.js", h.Script)

	sw := g.Group("worker-admin", "/sw")
	sw.GET("/status", h.Status).
		POST("/promote", h.Promote).
		DELETE("/registrations", h.Unregister).
		GET("/caches", h.ListCaches).
		DELETE("/caches", h.PurgeCaches)

	if limiter != nil {
		sw.POST("/messages", middleware.RateLimit(limiter), h.PostMessage)
	} else {
		sw.POST("/messages", h.PostMessage)
	}
	if events != nil {
		sw.GET("/events", events.Stream)
	}
	return g
}

func ledgerRoutes(h *handler.LedgerHandler) *DomainGroup {
	g := NewDomainGroup("ledger", "")
	g.GET("/debtors", h.SearchDebtors).
		GET("/balances", h.Balances)

	g.Group("sales", "/sales").
		POST("", h.RecordSale).
		GET("", h.ListSales).
		GET("/:id", h.GetSale).
		DELETE("/:id", h.DeleteSale).
		POST("/:id/payments", h.RegisterPayment).
		POST("/:id/deliver", h.MarkDelivered).
		POST("/:id/pending", h.MarkPending)
	return g
}

func reportRoutes(h *handler.ReportHandler) *DomainGroup {
	return NewDomainGroup("reports", "/reports").
		GET("/pending.html", h.PendingHTML).
		GET("/pending.pdf", h.PendingPDF)
}
