// Package main runs one pricing cycle: load sales observations, estimate
// per-SKU elasticity, simulate price changes, persist and write reports.
// With -import it loads a file into the Postgres observation store instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"price-elasticity-lab/internal/app"
	"price-elasticity-lab/internal/config"
	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/pipeline"
	"price-elasticity-lab/internal/storage/migrations"
	pgstore "price-elasticity-lab/internal/storage/postgres"
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
	outputDir := flag.String("output-dir", os.Getenv("PRICING_OUTPUT_DIR"), "Output directory for artifacts")
	xlsx := flag.Bool("xlsx", envBool("PRICING_XLSX"), "Also write pricing_results.xlsx")
	source := flag.String("source", os.Getenv("PRICING_SOURCE"), "Observation source: file | postgres")
	backend := flag.String("backend", os.Getenv("PRICING_BACKEND"), "Result storage: memory | sql")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	workers := flag.Int("workers", 0, "Worker count (0 = config value or GOMAXPROCS)")
	importPath := flag.String("import", "", "Import this file into the Postgres observation store and exit")
	batchSize := flag.Int("batch-size", 1000, "Rows per insert batch for -import")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	setIf(&cfg.Input.ObservationsPath, *input)
	setIf(&cfg.Input.CompetitorPath, *competitors)
	setIf(&cfg.Output.Dir, *outputDir)
	setIf(&cfg.Input.Source, *source)
	setIf(&cfg.Storage.Backend, *backend)
	setIf(&cfg.Database.PostgresDSN, *postgresDSN)
	setIf(&cfg.Database.ClickhouseDSN, *clickhouseDSN)
	if *xlsx {
		cfg.Output.XLSX = true
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	logger, err := logging.New(cfg.Log.Environment, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling", zap.String("signal", sig.String()))
		cancel()
	}()

	if *importPath != "" {
		if err := runImport(ctx, cfg, *importPath, *batchSize, logger); err != nil {
			logger.Fatal("import failed", zap.Error(err))
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create stores", zap.Error(err))
	}
	defer cleanup()

	p, err := app.NewPipeline(cfg, stores, logger, observability.DefaultMetrics)
	if err != nil {
		logger.Fatal("failed to create pipeline", zap.Error(err))
	}

	result, err := p.Run(ctx)
	if errors.Is(err, pipeline.ErrNoObservations) {
		logger.Warn("nothing to estimate", zap.Error(err))
		return
	}
	if err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}

	s := result.Summary
	fmt.Printf("Run %s completed in %dms\n", s.RunID, s.DurationMs())
	fmt.Printf("  SKUs: %d total, %d estimated, %d skipped (%d elastic)\n",
		s.SkusTotal, s.SkusEstimated, s.SkusSkipped, s.ElasticSkus)
	fmt.Printf("  Scenarios: %d simulated, %d skipped\n", s.ScenariosSimulated, s.ScenariosSkipped)
	for _, a := range result.Artifacts {
		fmt.Printf("  - %s\n", a)
	}
}

// runImport copies a sales file into the Postgres observation store.
func runImport(ctx context.Context, cfg *config.Config, path string, batchSize int, logger *zap.Logger) error {
	if cfg.Database.PostgresDSN == "" {
		return errors.New("-postgres-dsn is required for -import")
	}
	pool, err := pgstore.NewPool(ctx, cfg.Database.PostgresDSN, pgstore.PoolOptions{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}

	n, err := pipeline.ImportFile(ctx, path, pgstore.NewObservationStore(pool), batchSize)
	if err != nil {
		return err
	}
	logger.Info("import complete", zap.String("path", path), zap.Int("rows", n))
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
