package storage

import (
	"context"

	"price-elasticity-lab/internal/domain"
)

// ObservationStore provides access to sales_observations storage.
// Observations carry no natural key; every inserted row is kept.
type ObservationStore interface {
	// InsertBulk appends observations atomically. Rejects empty sku_id with ErrInvalidInput.
	InsertBulk(ctx context.Context, observations []*domain.SalesObservation) error

	// GetAll retrieves all observations, ordered by sku_id ASC, date ASC, insertion order.
	GetAll(ctx context.Context) ([]*domain.SalesObservation, error)

	// GetBySKU retrieves observations of one SKU, ordered by date ASC, insertion order.
	GetBySKU(ctx context.Context, skuID string) ([]*domain.SalesObservation, error)

	// ListSKUs returns distinct sku_ids in ascending order.
	ListSKUs(ctx context.Context) ([]string, error)
}

// ElasticityResultStore provides access to sku_elasticity storage.
type ElasticityResultStore interface {
	// InsertBulk adds the results of one run. Fails entire batch on duplicate (run_id, sku_id).
	InsertBulk(ctx context.Context, runID string, results []*domain.SkuElasticityResult) error

	// GetByRun retrieves all results for a run, ordered by sku_id ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.SkuElasticityResult, error)

	// GetBySKU retrieves one SKU's result for a run. Returns ErrNotFound if not exists.
	GetBySKU(ctx context.Context, runID, skuID string) (*domain.SkuElasticityResult, error)
}

// SimulationResultStore provides access to revenue_simulation storage.
type SimulationResultStore interface {
	// InsertBulk adds the scenarios of one run. Fails entire batch on duplicate (run_id, sku_id, scenario_index).
	InsertBulk(ctx context.Context, runID string, scenarios []*domain.SimulationScenario) error

	// GetByRun retrieves all scenarios for a run, ordered by sku_id ASC, scenario_index ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.SimulationScenario, error)
}

// RunSummaryStore provides access to run_summaries storage.
type RunSummaryStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, s *domain.RunSummary) error

	// GetByID retrieves a summary by run_id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// GetLatest retrieves the most recently finished run. Returns ErrNotFound if no runs exist.
	GetLatest(ctx context.Context) (*domain.RunSummary, error)

	// List retrieves up to limit summaries, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}

// ResultSink groups the stores a run persists into.
type ResultSink struct {
	Elasticity ElasticityResultStore
	Simulation SimulationResultStore
	Runs       RunSummaryStore

	// ElasticityCopy optionally receives a second copy of elasticity results
	// (the ClickHouse analytics table). Never read back.
	ElasticityCopy ElasticityResultStore
}
