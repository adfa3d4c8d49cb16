// Package orchestrator runs per-SKU estimation and simulation.
// It coordinates: partition → estimate → simulate → barrier → merge
package orchestrator

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/elasticity"
	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/metrics"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/simulation"
)

// Orchestrator fans SKUs out over a bounded worker pool and joins the
// results behind a barrier.
type Orchestrator struct {
	estimator *elasticity.Estimator
	simulator *simulation.Simulator
	workers   int
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Estimator *elasticity.Estimator
	Simulator *simulation.Simulator

	// Workers bounds the pool; <= 0 means runtime.GOMAXPROCS(0).
	Workers int

	// Optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Estimator == nil {
		return nil, fmt.Errorf("orchestrator: estimator is required")
	}
	if opts.Simulator == nil {
		return nil, fmt.Errorf("orchestrator: simulator is required")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	m := opts.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}
	return &Orchestrator{
		estimator: opts.Estimator,
		simulator: opts.Simulator,
		workers:   workers,
		logger:    logging.OrNop(opts.Logger).Named("orchestrator"),
		metrics:   m,
	}, nil
}

// Workers returns the pool size.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// PriceChanges returns the simulated price-change grid in configured order.
func (o *Orchestrator) PriceChanges() []float64 {
	return o.simulator.PriceChanges()
}

// RunResult contains the merged output of one run. Every slice is ordered
// by sku_id; scenarios follow configured price-change order within a SKU.
type RunResult struct {
	SkusTotal  int
	Aggregates []domain.SkuAggregateMetrics
	Results    []*domain.SkuElasticityResult
	Scenarios  []*domain.SimulationScenario
	Failures   []domain.SkuFailure
	Totals     metrics.RunTotals
}

// skuOutcome is written by exactly one worker.
type skuOutcome struct {
	aggregate domain.SkuAggregateMetrics
	result    *domain.SkuElasticityResult
	scenarios []*domain.SimulationScenario
	failures  []domain.SkuFailure
}

// Run estimates and simulates every SKU in observations.
// Per-SKU failures are recorded in RunResult.Failures and never abort the
// run; only context cancellation does.
func (o *Orchestrator) Run(ctx context.Context, observations []*domain.SalesObservation) (*RunResult, error) {
	parts := metrics.Partition(observations)
	outcomes := make([]skuOutcome, len(parts))

	o.logger.Info("run started",
		zap.Int("observations", len(observations)),
		zap.Int("skus", len(parts)),
		zap.Int("workers", o.workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = o.processSKU(parts[i])
			return nil
		})
	}

	// barrier: totals need the complete result set
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	res := &RunResult{
		SkusTotal:  len(parts),
		Aggregates: make([]domain.SkuAggregateMetrics, 0, len(parts)),
	}
	for i := range outcomes {
		out := &outcomes[i]
		res.Aggregates = append(res.Aggregates, out.aggregate)
		if out.result != nil {
			res.Results = append(res.Results, out.result)
			o.metrics.RecordEstimated(out.result.PValue)
		}
		res.Scenarios = append(res.Scenarios, out.scenarios...)
		for _, f := range out.failures {
			o.logger.Warn("sku excluded",
				zap.String("sku_id", f.SkuID),
				zap.String("stage", f.Stage),
				zap.String("scenario", f.Scenario),
				zap.String("kind", f.Kind),
				zap.String("error", f.Reason),
			)
			o.metrics.RecordSkipped(f.Stage, f.Kind)
		}
		res.Failures = append(res.Failures, out.failures...)
	}

	res.Totals = metrics.ComputeTotals(res.SkusTotal, res.Results, res.Scenarios, res.Failures)
	o.metrics.RecordRunTotals(res.Totals.ScenariosSimulated, res.Totals.ElasticSkus, res.Totals.AverageElasticity)

	o.logger.Info("run completed",
		zap.Int("skus_estimated", res.Totals.SkusEstimated),
		zap.Int("skus_skipped", res.Totals.SkusSkipped),
		zap.Int("scenarios", res.Totals.ScenariosSimulated),
		zap.Int("scenarios_skipped", res.Totals.ScenariosSkipped),
		zap.Int("elastic_skus", res.Totals.ElasticSkus),
	)
	return res, nil
}

// processSKU is pure over its partition.
func (o *Orchestrator) processSKU(p metrics.SkuPartition) skuOutcome {
	out := skuOutcome{aggregate: metrics.ComputeAggregate(p.SkuID, p.Observations)}

	result, err := o.estimator.Estimate(p.Observations)
	if err != nil {
		out.failures = []domain.SkuFailure{domain.NewSkuFailure(p.SkuID, domain.StageEstimate, "", err)}
		return out
	}
	out.result = result
	out.scenarios, out.failures = o.simulator.Simulate(out.aggregate, result.Elasticity)
	return out
}
