package orchestrator

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/elasticity"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/simulation"
)

func newTestOrchestrator(t *testing.T, workers int) *Orchestrator {
	t.Helper()
	sim, err := simulation.NewSimulator(domain.DefaultPriceChanges)
	require.NoError(t, err)
	o, err := New(Options{
		Estimator: elasticity.NewEstimator(elasticity.DefaultOptions()),
		Simulator: sim,
		Workers:   workers,
		Logger:    zaptest.NewLogger(t),
		Metrics:   observability.NewMetrics("test", prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return o
}

// powerLaw builds observations with units = k * price^e - 1 so that the
// default +1 offset recovers e exactly.
func powerLaw(sku string, e float64, prices ...float64) []*domain.SalesObservation {
	out := make([]*domain.SalesObservation, 0, len(prices))
	for _, p := range prices {
		units := math.Round(1e6*math.Pow(p, e)) - 1
		out = append(out, &domain.SalesObservation{SkuID: sku, Price: p, UnitsSold: int64(units)})
	}
	return out
}

func mixedInput() []*domain.SalesObservation {
	var obs []*domain.SalesObservation
	obs = append(obs, powerLaw("SKU-C", -2, 5, 6, 8, 10)...)
	obs = append(obs, powerLaw("SKU-A", -0.5, 5, 6, 8, 10)...)
	// degenerate: one distinct price
	obs = append(obs,
		&domain.SalesObservation{SkuID: "SKU-B", Price: 9, UnitsSold: 10},
		&domain.SalesObservation{SkuID: "SKU-B", Price: 9, UnitsSold: 12},
	)
	// insufficient
	obs = append(obs, &domain.SalesObservation{SkuID: "SKU-D", Price: 3, UnitsSold: 1})
	// invalid price
	obs = append(obs,
		&domain.SalesObservation{SkuID: "SKU-E", Price: 0, UnitsSold: 1},
		&domain.SalesObservation{SkuID: "SKU-E", Price: 2, UnitsSold: 1},
	)
	return obs
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Estimator: elasticity.NewEstimator(elasticity.DefaultOptions())})
	assert.Error(t, err)
}

func TestNew_DefaultWorkers(t *testing.T) {
	o := newTestOrchestrator(t, 0)
	assert.GreaterOrEqual(t, o.Workers(), 1)
}

func TestOrchestrator_Run_Empty(t *testing.T) {
	o := newTestOrchestrator(t, 2)

	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, res.SkusTotal)
	assert.Empty(t, res.Results)
	assert.Empty(t, res.Scenarios)
	assert.Empty(t, res.Failures)
}

func TestOrchestrator_Run_MergesAndRecordsFailures(t *testing.T) {
	o := newTestOrchestrator(t, 3)

	res, err := o.Run(context.Background(), mixedInput())
	require.NoError(t, err)

	assert.Equal(t, 5, res.SkusTotal)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "SKU-A", res.Results[0].SkuID)
	assert.Equal(t, "SKU-C", res.Results[1].SkuID)
	assert.InDelta(t, -0.5, res.Results[0].Elasticity, 1e-3)
	assert.InDelta(t, -2.0, res.Results[1].Elasticity, 1e-3)
	assert.Equal(t, domain.ClassificationInelastic, res.Results[0].Classification)
	assert.Equal(t, domain.ClassificationElastic, res.Results[1].Classification)

	// 2 estimated SKUs x 4 scenarios, sku order then configured order
	require.Len(t, res.Scenarios, 8)
	for i, s := range res.Scenarios {
		wantSKU := "SKU-A"
		if i >= 4 {
			wantSKU = "SKU-C"
		}
		assert.Equal(t, wantSKU, s.SkuID)
		assert.Equal(t, i%4, s.ScenarioIndex)
		assert.Equal(t, domain.DefaultPriceChanges[i%4], s.PriceChange)
	}

	// failed SKUs are traced, not silently dropped
	require.Len(t, res.Failures, 3)
	assert.Equal(t, "SKU-B", res.Failures[0].SkuID)
	assert.Equal(t, "DegenerateRegression", res.Failures[0].Kind)
	assert.Equal(t, "SKU-D", res.Failures[1].SkuID)
	assert.Equal(t, "InsufficientData", res.Failures[1].Kind)
	assert.Equal(t, "SKU-E", res.Failures[2].SkuID)
	assert.Equal(t, "InvalidObservation", res.Failures[2].Kind)
	for _, f := range res.Failures {
		assert.Equal(t, domain.StageEstimate, f.Stage)
	}

	// aggregates exist for every SKU, including failed ones
	require.Len(t, res.Aggregates, 5)
	assert.Equal(t, "SKU-B", res.Aggregates[1].SkuID)
	assert.Equal(t, int64(22), res.Aggregates[1].CurrentUnits)

	assert.Equal(t, 2, res.Totals.SkusEstimated)
	assert.Equal(t, 3, res.Totals.SkusSkipped)
	assert.Equal(t, 1, res.Totals.ElasticSkus)
	assert.Equal(t, 8, res.Totals.ScenariosSimulated)
}

func TestOrchestrator_Run_DeterministicAcrossWorkerCounts(t *testing.T) {
	input := mixedInput()
	reversed := make([]*domain.SalesObservation, len(input))
	for i, o := range input {
		reversed[len(input)-1-i] = o
	}

	base, err := newTestOrchestrator(t, 1).Run(context.Background(), input)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		got, err := newTestOrchestrator(t, workers).Run(context.Background(), reversed)
		require.NoError(t, err)

		require.Equal(t, len(base.Results), len(got.Results))
		for i := range base.Results {
			if *base.Results[i] != *got.Results[i] {
				t.Errorf("workers=%d: result %d differs: %+v vs %+v", workers, i, base.Results[i], got.Results[i])
			}
		}
		require.Equal(t, len(base.Scenarios), len(got.Scenarios))
		for i := range base.Scenarios {
			if *base.Scenarios[i] != *got.Scenarios[i] {
				t.Errorf("workers=%d: scenario %d differs", workers, i)
			}
		}
		assert.Equal(t, base.Failures, got.Failures)
		assert.Equal(t, base.Totals, got.Totals)
	}
}

func TestOrchestrator_Run_ScenarioFailureKeepsOthers(t *testing.T) {
	sim, err := simulation.NewSimulator([]float64{0.05, -0.99})
	require.NoError(t, err)
	o, err := New(Options{
		Estimator: elasticity.NewEstimator(elasticity.Options{LogOffset: 0, ZeroDemand: elasticity.ZeroDemandOffset}),
		Simulator: sim,
		Workers:   2,
		Logger:    zaptest.NewLogger(t),
		Metrics:   observability.NewMetrics("test", prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	// extremely elastic demand overflows at -99%
	obs := []*domain.SalesObservation{
		{SkuID: "SKU-X", Price: 1, UnitsSold: 1_000_000},
		{SkuID: "SKU-X", Price: 2, UnitsSold: 1},
	}

	res, err := o.Run(context.Background(), obs)
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, 0, res.Scenarios[0].ScenarioIndex)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, domain.StageSimulate, res.Failures[0].Stage)
	assert.Equal(t, "-99%", res.Failures[0].Scenario)
	assert.Equal(t, 0, res.Totals.SkusSkipped)
	assert.Equal(t, 1, res.Totals.ScenariosSkipped)
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	o := newTestOrchestrator(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, mixedInput())
	assert.True(t, errors.Is(err, context.Canceled))
}
