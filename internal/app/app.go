// Package app wires configuration into stores and a runnable pipeline.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"price-elasticity-lab/internal/config"
	"price-elasticity-lab/internal/elasticity"
	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/orchestrator"
	"price-elasticity-lab/internal/pipeline"
	"price-elasticity-lab/internal/simulation"
	"price-elasticity-lab/internal/storage"
	chstore "price-elasticity-lab/internal/storage/clickhouse"
	"price-elasticity-lab/internal/storage/memory"
	"price-elasticity-lab/internal/storage/migrations"
	"price-elasticity-lab/internal/storage/postgres"
)

// Stores holds every store the binaries use.
type Stores struct {
	// Observations is nil unless a Postgres connection is configured.
	Observations storage.ObservationStore
	Sink         storage.ResultSink
}

// OpenStores creates stores for the configured backend and runs migrations.
// The returned cleanup closes every connection and is never nil.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, func(), error) {
	logger = logging.OrNop(logger)
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := &Stores{}
	needPostgres := cfg.Storage.Backend == config.BackendSQL || cfg.Input.Source == config.SourcePostgres

	var pool *postgres.Pool
	if needPostgres {
		var err error
		pool, err = postgres.NewPool(ctx, cfg.Database.PostgresDSN, postgres.PoolOptions{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Info("postgres ready", zap.Strings("migrations", applied))
		stores.Observations = postgres.NewObservationStore(pool)
	}

	switch cfg.Storage.Backend {
	case config.BackendSQL:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Database.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() {
			if err := conn.Close(); err != nil {
				logger.Warn("close clickhouse", zap.Error(err))
			}
		})
		logger.Info("clickhouse ready")

		stores.Sink = storage.ResultSink{
			Elasticity:     postgres.NewElasticityResultStore(pool),
			Simulation:     chstore.NewSimulationResultStore(conn),
			Runs:           postgres.NewRunSummaryStore(pool),
			ElasticityCopy: chstore.NewElasticityResultStore(conn),
		}
	default:
		stores.Sink = MemorySink()
	}

	return stores, cleanup, nil
}

// MemorySink returns a result sink backed by in-memory stores.
func MemorySink() storage.ResultSink {
	return storage.ResultSink{
		Elasticity: memory.NewElasticityResultStore(),
		Simulation: memory.NewSimulationResultStore(),
		Runs:       memory.NewRunSummaryStore(),
	}
}

// NewSource selects the observation source for cfg.
func NewSource(cfg *config.Config, stores *Stores) (pipeline.Source, error) {
	switch cfg.Input.Source {
	case config.SourcePostgres:
		if stores.Observations == nil {
			return nil, fmt.Errorf("source %q requires an observation store", cfg.Input.Source)
		}
		return pipeline.StoreSource{Store: stores.Observations}, nil
	case config.SourceFile:
		return pipeline.FileSource{Path: cfg.Input.ObservationsPath}, nil
	default:
		return nil, fmt.Errorf("unknown input source %q", cfg.Input.Source)
	}
}

// NewPipeline builds the estimator, simulator, orchestrator and pipeline for cfg.
func NewPipeline(cfg *config.Config, stores *Stores, logger *zap.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, error) {
	sim, err := simulation.NewSimulator(cfg.Simulation.PriceChanges)
	if err != nil {
		return nil, fmt.Errorf("create simulator: %w", err)
	}
	orch, err := orchestrator.New(orchestrator.Options{
		Estimator: elasticity.NewEstimator(cfg.EstimatorOptions()),
		Simulator: sim,
		Workers:   cfg.Workers,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}
	source, err := NewSource(cfg, stores)
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Options{
		Source:          source,
		Orchestrator:    orch,
		CompetitorPath:  cfg.Input.CompetitorPath,
		Sink:            stores.Sink,
		OutputDir:       cfg.Output.Dir,
		XLSX:            cfg.Output.XLSX,
		MinObservations: cfg.Elasticity.MinObservations,
		Logger:          logger,
		Metrics:         metrics,
	})
}
