// Package pipeline runs one complete pricing cycle: load observations,
// estimate and simulate per SKU, persist, and write report artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/idhash"
	"price-elasticity-lab/internal/loader"
	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/orchestrator"
	"price-elasticity-lab/internal/reporting"
	"price-elasticity-lab/internal/storage"
)

// ErrNoObservations is returned when the source yields nothing to estimate.
var ErrNoObservations = errors.New("no observations loaded")

// Options for creating Pipeline.
type Options struct {
	// Required
	Source       Source
	Orchestrator *orchestrator.Orchestrator

	// Optional
	CompetitorPath  string             // competitor price file; empty disables the section
	Sink            storage.ResultSink // nil stores are skipped
	OutputDir       string             // empty disables artifact files
	XLSX            bool               // also write pricing_results.xlsx
	MinObservations int                // for sufficiency checks
	Logger          *zap.Logger
	Metrics         *observability.Metrics
}

// Result is the outcome of one pipeline run.
type Result struct {
	Summary   *domain.RunSummary
	Run       *orchestrator.RunResult
	Report    *reporting.Report
	Artifacts []string
}

// Pipeline runs pricing cycles. A Pipeline is safe for sequential reuse;
// callers serialize concurrent runs.
type Pipeline struct {
	opts      Options
	reportGen *reporting.Generator
	checker   *SufficiencyChecker
	clock     func() time.Time
	newRunID  func() string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// New creates a new pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: source is required")
	}
	if opts.Orchestrator == nil {
		return nil, fmt.Errorf("pipeline: orchestrator is required")
	}
	m := opts.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}
	return &Pipeline{
		opts:      opts,
		reportGen: reporting.NewGenerator(),
		checker:   NewSufficiencyChecker(opts.MinObservations),
		clock:     func() time.Time { return time.Now().UTC() },
		newRunID:  uuid.NewString,
		logger:    logging.OrNop(opts.Logger).Named("pipeline"),
		metrics:   m,
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithRunID sets a custom run ID generator.
func (p *Pipeline) WithRunID(newRunID func() string) *Pipeline {
	p.newRunID = newRunID
	return p
}

// Run executes one cycle. Per-SKU failures are part of the summary; only
// load, persistence and artifact I/O errors fail the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.clock()
	res, err := p.run(ctx, started)
	elapsed := p.clock().Sub(started).Seconds()
	if err != nil {
		p.metrics.RecordPipelineRun("run", "error", elapsed)
		p.logger.Error("run failed", zap.Error(err))
		return nil, err
	}
	p.metrics.RecordPipelineRun("run", "success", elapsed)
	p.metrics.LastSuccessfulRun.Set(float64(res.Summary.FinishedAt.Unix()))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, started time.Time) (*Result, error) {
	runID := p.newRunID()
	log := p.logger.With(zap.String("run_id", runID))

	// 1. Load
	observations, err := p.opts.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations from %s: %w", p.opts.Source.Name(), err)
	}
	if len(observations) == 0 {
		return nil, ErrNoObservations
	}
	p.metrics.ObservationsLoaded.Add(float64(len(observations)))

	var competitors []*domain.CompetitorPrice
	if p.opts.CompetitorPath != "" {
		if competitors, err = loader.LoadCompetitorPrices(p.opts.CompetitorPath); err != nil {
			return nil, fmt.Errorf("load competitor prices: %w", err)
		}
	}
	log.Info("input loaded",
		zap.String("source", p.opts.Source.Name()),
		zap.Int("observations", len(observations)),
		zap.Int("competitor_samples", len(competitors)),
	)

	// 2. Sufficiency (informational)
	sufficiency := p.checker.Check(observations)
	if !sufficiency.AllPass {
		log.Warn("data sufficiency checks failed", zap.Strings("errors", sufficiency.Errors))
	}

	// 3. Estimate + simulate
	run, err := p.opts.Orchestrator.Run(ctx, observations)
	if err != nil {
		return nil, err
	}

	priceChanges := p.opts.Orchestrator.PriceChanges()
	summary := &domain.RunSummary{
		RunID:        runID,
		DataVersion:  idhash.ComputeDataVersion(observations, priceChanges),
		StartedAt:    started,
		FinishedAt:   p.clock(),
		PriceChanges: priceChanges,
		Failures:     run.Failures,
	}
	run.Totals.Apply(summary)

	// 4. Persist; the summary goes last so a visible run is complete
	if err := p.persist(ctx, summary, run); err != nil {
		return nil, err
	}

	// 5. Report
	report := p.reportGen.Generate(reporting.Input{
		Summary:      *summary,
		Elasticity:   run.Results,
		Scenarios:    run.Scenarios,
		Failures:     run.Failures,
		Observations: observations,
		Competitors:  competitors,
	})
	report.DataQuality = convertToDataQuality(sufficiency)

	var artifacts []string
	if p.opts.OutputDir != "" {
		artifacts, err = reporting.WriteArtifacts(p.opts.OutputDir, report, reporting.WriteOptions{XLSX: p.opts.XLSX})
		if err != nil {
			return nil, fmt.Errorf("write artifacts: %w", err)
		}
		p.metrics.ArtifactsWritten.Add(float64(len(artifacts)))
	}

	log.Info("run finished",
		zap.String("data_version", summary.DataVersion),
		zap.Int("skus_estimated", summary.SkusEstimated),
		zap.Int("skus_skipped", summary.SkusSkipped),
		zap.Int("elastic_skus", summary.ElasticSkus),
		zap.Float64("average_elasticity", summary.AverageElasticity),
		zap.Int("artifacts", len(artifacts)),
	)

	return &Result{Summary: summary, Run: run, Report: report, Artifacts: artifacts}, nil
}

func (p *Pipeline) persist(ctx context.Context, summary *domain.RunSummary, run *orchestrator.RunResult) error {
	sink := p.opts.Sink
	if sink.Elasticity != nil && len(run.Results) > 0 {
		if err := sink.Elasticity.InsertBulk(ctx, summary.RunID, run.Results); err != nil {
			return fmt.Errorf("persist elasticity: %w", err)
		}
	}
	if sink.ElasticityCopy != nil && len(run.Results) > 0 {
		if err := sink.ElasticityCopy.InsertBulk(ctx, summary.RunID, run.Results); err != nil {
			return fmt.Errorf("persist elasticity copy: %w", err)
		}
	}
	if sink.Simulation != nil && len(run.Scenarios) > 0 {
		if err := sink.Simulation.InsertBulk(ctx, summary.RunID, run.Scenarios); err != nil {
			return fmt.Errorf("persist simulation: %w", err)
		}
	}
	if sink.Runs != nil {
		if err := sink.Runs.Insert(ctx, summary); err != nil {
			return fmt.Errorf("persist run summary: %w", err)
		}
	}
	return nil
}
