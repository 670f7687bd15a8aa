// Package main is the entry point for the sequencer API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sequencer/internal/app"
	"sequencer/internal/config"
	"sequencer/internal/domain/auth"
	v1 "sequencer/internal/infrastructure/http/v1"
	"sequencer/internal/infrastructure/telemetry"
	"sequencer/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.IsDevelopment(),
		Service:     cfg.Telemetry.ServiceName,
		Version:     version,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting sequencer server", "version", version, "driver", cfg.Store.Driver)

	// --- Tracing ---
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.App.Env,
		Exporter:       cfg.Telemetry.Exporter,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Fatalw("failed to set up tracing", "error", err)
	}

	// --- Store and services ---
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize sequence store", "error", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Warnw("failed to close sequence store", "error", err)
		}
	}()
	application.StartConfigListener(ctx)

	// --- JWT ---
	var validator *auth.JWTService
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtConfig.Issuer = cfg.Auth.JWTIssuer
	jwtConfig.AccessTokenTTL = cfg.Auth.TokenTTL
	if jwtService := auth.NewJWTService(jwtConfig); jwtService.Enabled() {
		validator = jwtService
	} else {
		log.Warn("JWT_SECRET is not set, API runs without authentication")
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Sequences:      application.Sequences,
		Configs:        application.Configs,
		Store:          application.Backend,
		Logger:         log,
		Metrics:        application.Metrics,
		MetricsHandler: application.Metrics.Handler(),
		Location:       application.Location,
		Version:        version,
	}
	if validator != nil {
		routerCfg.JWTValidator = validator
	}
	handler := v1.NewHandler(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful shutdown ---
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("failed to flush traces", "error", err)
	}

	log.Info("server stopped")
}
