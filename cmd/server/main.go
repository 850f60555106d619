package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/buscacep/internal"
	"github.com/dukerupert/buscacep/internal/address"
	"github.com/dukerupert/buscacep/internal/handler"
	"github.com/dukerupert/buscacep/internal/middleware"
	"github.com/dukerupert/buscacep/internal/router"
	"github.com/dukerupert/buscacep/internal/routes"
	"github.com/dukerupert/buscacep/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	release := cfg.Sentry.Release
	if release == "" {
		release = version
	}
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Initialize Prometheus metrics
	var (
		httpMetrics   *middleware.Metrics
		lookupMetrics *telemetry.LookupMetrics
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		httpMetrics = middleware.NewMetrics(cfg.Metrics.Namespace, reg)
		lookupMetrics = telemetry.NewLookupMetrics(cfg.Metrics.Namespace, reg)
	}

	// Initialize registry client
	viacep := address.NewViaCEPClient(address.ViaCEPConfig{
		BaseURL: cfg.ViaCEP.BaseURL,
		Timeout: cfg.ViaCEP.Timeout,
		Metrics: lookupMetrics,
	})
	logger.Info("Registry client initialized", "base_url", cfg.ViaCEP.BaseURL, "timeout", cfg.ViaCEP.Timeout)

	renderer, err := handler.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	lookupHandler := handler.NewLookupHandler(handler.LookupConfig{
		Lookuper: viacep,
		Renderer: renderer,
		Metrics:  lookupMetrics,
		Reporter: telemetry.CaptureError,
	})

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	chain := []router.Middleware{
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		middleware.RequestID,
	}
	if httpMetrics != nil {
		chain = append(chain, httpMetrics.Middleware)
	}
	chain = append(chain,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	r := router.New(chain...)

	ops := routes.OpsDeps{Health: handler.NewHealthHandler(version)}
	if httpMetrics != nil {
		ops.Metrics = httpMetrics.Handler()
	}
	routes.RegisterOpsRoutes(r, ops)
	routes.RegisterLookupRoutes(r, routes.LookupDeps{Handler: lookupHandler})
	routes.RegisterAPIRoutes(r, routes.APIDeps{Handler: lookupHandler, AllowedOrigins: cfg.AllowedOrigins})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      middleware.DefaultTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
