// Package main runs the pricing service: an HTTP API over stored runs,
// a websocket run feed and a scheduler that reruns the pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"price-elasticity-lab/internal/api"
	"price-elasticity-lab/internal/app"
	"price-elasticity-lab/internal/config"
	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	// Flags (env vars as defaults); empty values keep the config file setting
	configPath := flag.String("config", os.Getenv("PRICING_CONFIG"), "YAML config file (optional)")
	input := flag.String("input", os.Getenv("PRICING_INPUT"), "Sales observations file (.csv or .xlsx)")
	competitors := flag.String("competitors", os.Getenv("PRICING_COMPETITORS"), "Competitor price file (optional)")
	source := flag.String("source", os.Getenv("PRICING_SOURCE"), "Observation source: file | postgres")
	backend := flag.String("backend", os.Getenv("PRICING_BACKEND"), "Result storage: memory | sql")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	addr := flag.String("addr", os.Getenv("PRICING_ADDR"), "HTTP listen address")
	interval := flag.Duration("run-interval", 0, "Scheduled run interval (0 = config value)")
	origins := flag.String("allowed-origins", os.Getenv("PRICING_ALLOWED_ORIGINS"), "Comma-separated CORS origins (empty = all)")
	runOnStart := flag.Bool("run-on-start", true, "Run the pipeline once at startup")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	setIf(&cfg.Input.ObservationsPath, *input)
	setIf(&cfg.Input.CompetitorPath, *competitors)
	setIf(&cfg.Input.Source, *source)
	setIf(&cfg.Storage.Backend, *backend)
	setIf(&cfg.Database.PostgresDSN, *postgresDSN)
	setIf(&cfg.Database.ClickhouseDSN, *clickhouseDSN)
	setIf(&cfg.Server.Addr, *addr)
	if *interval > 0 {
		cfg.Server.RunInterval = *interval
	}

	logger, err := logging.New(cfg.Log.Environment, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals; a second signal forces exit
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig = <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
		case <-time.After(30 * time.Second):
			logger.Warn("shutdown timed out, forcing exit")
		}
		os.Exit(1)
	}()

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create stores", zap.Error(err))
	}
	defer cleanup()

	p, err := app.NewPipeline(cfg, stores, logger, observability.DefaultMetrics)
	if err != nil {
		logger.Fatal("failed to create pipeline", zap.Error(err))
	}

	srv, err := api.New(api.Options{
		Sink:           stores.Sink,
		Runner:         p,
		AllowedOrigins: splitList(*origins),
		Logger:         logger,
		Metrics:        observability.DefaultMetrics,
	})
	if err != nil {
		logger.Fatal("failed to create api server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	runScheduler(ctx, srv, cfg.Server.RunInterval, *runOnStart, logger)

	logger.Info("shutting down")
	srv.Hub().Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// runScheduler triggers a run every interval until ctx is done.
func runScheduler(ctx context.Context, srv *api.Server, interval time.Duration, runOnStart bool, logger *zap.Logger) {
	logger.Info("scheduler started", zap.Duration("interval", interval))
	if runOnStart {
		trigger(ctx, srv, logger)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trigger(ctx, srv, logger)
		}
	}
}

func trigger(ctx context.Context, srv *api.Server, logger *zap.Logger) {
	_, err := srv.TriggerRun(ctx)
	switch {
	case err == nil:
	case errors.Is(err, api.ErrRunInFlight):
		logger.Info("skipping scheduled run, previous run still in progress")
	case errors.Is(err, pipeline.ErrNoObservations):
		logger.Warn("scheduled run found no observations")
	case ctx.Err() != nil:
	default:
		logger.Error("scheduled run failed", zap.Error(err))
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
