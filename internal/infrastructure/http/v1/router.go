// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"sequencer/internal/domain/auth"
	"sequencer/internal/domain/sequence"
	"sequencer/internal/infrastructure/http/v1/handlers"
	"sequencer/internal/infrastructure/http/v1/middleware"
	"sequencer/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Sequences allocates numbers
	Sequences *sequence.Service

	// Configs manages per-type configuration
	Configs *sequence.ConfigService

	// Store backs the readiness probe
	Store handlers.Pinger

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation. Nil runs the API without
	// authentication; every caller is then recorded as the system user.
	JWTValidator middleware.JWTValidator

	// Metrics records HTTP metrics. Optional.
	Metrics middleware.HTTPObserver

	// MetricsHandler serves /metrics. Optional.
	MetricsHandler http.Handler

	// Location reads date-only request values. Nil means UTC.
	Location *time.Location

	// Version is reported by /health/info.
	Version string
}

// NewHandler returns the router wrapped with gzip response compression.
// Small bodies such as single allocation results stay uncompressed.
func NewHandler(cfg RouterConfig) http.Handler {
	return gzhttp.GzipHandler(NewRouter(cfg))
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Tenant()) // 1. Resolve tenant code

		perm := func(string) gin.HandlerFunc { return middleware.Allow() }
		if cfg.JWTValidator != nil {
			protected.Use(middleware.Auth(cfg.JWTValidator)) // 2. Validate JWT
			perm = middleware.RequirePermission
		}

		base := handlers.NewBaseHandler(cfg.Location)

		RegisterSequenceRoutes(
			protected.Group("/sequences"),
			handlers.NewSequenceHandler(base, cfg.Sequences),
			perm, auth.PermSequenceGenerate, auth.PermSequenceRead,
		)

		if cfg.Configs != nil {
			RegisterConfigRoutes(
				protected.Group("/sequence-configs"),
				handlers.NewSequenceConfigHandler(base, cfg.Configs),
				perm, auth.PermConfigRead, auth.PermConfigWrite,
			)
		}
	}

	return router
}
