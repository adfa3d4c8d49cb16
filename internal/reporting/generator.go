package reporting

import (
	"context"
	"fmt"
	"time"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/market"
	"price-elasticity-lab/internal/metrics"
	"price-elasticity-lab/internal/segmentation"
	"price-elasticity-lab/internal/simulation"
	"price-elasticity-lab/internal/storage"
)

// Input is everything a report is built from.
type Input struct {
	Summary      domain.RunSummary
	Elasticity   []*domain.SkuElasticityResult
	Scenarios    []*domain.SimulationScenario
	Failures     []domain.SkuFailure
	Observations []*domain.SalesObservation // optional, enables segmentation and inventory
	Competitors  []*domain.CompetitorPrice  // optional, enables the competitor section
}

// Generator produces reports from run output.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from in-memory run output.
func (g *Generator) Generate(in Input) *Report {
	r := &Report{
		GeneratedAt:   g.now(),
		Summary:       in.Summary,
		Elasticity:    in.Elasticity,
		Scenarios:     in.Scenarios,
		Failures:      in.Failures,
		BestScenarios: metrics.BestScenarios(in.Scenarios),
	}
	r.ScenarioTotals = scenarioTotals(in.Summary.PriceChanges, in.Scenarios)

	if len(in.Observations) > 0 {
		r.Segments = segmentation.Segment(in.Observations)
		r.SegmentCounts = segmentation.Summarize(r.Segments)
		r.PriceBuckets = segmentation.PriceBuckets(in.Observations)
		r.Inventory = market.InventorySufficiency(in.Observations)
	}
	if len(in.Competitors) > 0 {
		gaps := market.CompareCompetitors(in.Observations, in.Competitors)
		r.Competitor = &CompetitorSection{
			Gaps:           gaps.Gaps,
			PositionCounts: gaps.PositionCounts(),
			InvalidPrices:  gaps.InvalidPrices,
			UnknownSkus:    gaps.UnknownSkus,
		}
	}
	return r
}

// GenerateFromStores rebuilds the core sections of a stored run.
func (g *Generator) GenerateFromStores(ctx context.Context, sink storage.ResultSink, runID string) (*Report, error) {
	summary, err := sink.Runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	results, err := sink.Elasticity.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load elasticity for %s: %w", runID, err)
	}
	scenarios, err := sink.Simulation.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load simulation for %s: %w", runID, err)
	}
	return g.Generate(Input{
		Summary:    *summary,
		Elasticity: results,
		Scenarios:  scenarios,
		Failures:   summary.Failures,
	}), nil
}

func scenarioTotals(priceChanges []float64, scenarios []*domain.SimulationScenario) []ScenarioTotalRow {
	rows := make([]ScenarioTotalRow, len(priceChanges))
	for i, c := range priceChanges {
		rows[i] = ScenarioTotalRow{Label: simulation.PriceChangeLabel(c), PriceChange: c}
	}
	for _, s := range scenarios {
		if s.ScenarioIndex < 0 || s.ScenarioIndex >= len(rows) {
			continue
		}
		row := &rows[s.ScenarioIndex]
		row.Skus++
		if s.RevenueDiff > 0 {
			row.Gainers++
		}
	}
	for i, total := range metrics.TotalRevenueDiff(scenarios, len(rows)) {
		rows[i].RevenueDiff = total
	}
	return rows
}
