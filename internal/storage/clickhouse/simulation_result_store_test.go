package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

func TestSimulationResultStore_InsertAndGetByRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSimulationResultStore(conn)

	scenarios := []*domain.SimulationScenario{
		{SkuID: "SKU-B", ScenarioIndex: 0, PriceChange: 0.05, PriceChangeLabel: "5%", PredictedUnits: 95, NewPrice: 10.5, PredictedRevenue: 997.5, RevenueDiff: -2.5},
		{SkuID: "SKU-A", ScenarioIndex: 1, PriceChange: 0.10, PriceChangeLabel: "10%", PredictedUnits: 83, NewPrice: 11, PredictedRevenue: 913, RevenueDiff: -87},
		{SkuID: "SKU-A", ScenarioIndex: 0, PriceChange: 0.05, PriceChangeLabel: "5%", PredictedUnits: 91, NewPrice: 10.5, PredictedRevenue: 955.5, RevenueDiff: -44.5},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", scenarios))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "SKU-A", got[0].SkuID)
	assert.Equal(t, 0, got[0].ScenarioIndex)
	assert.Equal(t, "SKU-A", got[1].SkuID)
	assert.Equal(t, 1, got[1].ScenarioIndex)
	assert.Equal(t, int64(83), got[1].PredictedUnits)
	assert.InDelta(t, 913.0, got[1].PredictedRevenue, 1e-9)
	assert.Equal(t, "10%", got[1].PriceChangeLabel)
	assert.Equal(t, "SKU-B", got[2].SkuID)

	empty, err := store.GetByRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSimulationResultStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSimulationResultStore(conn)

	sc := &domain.SimulationScenario{SkuID: "SKU-A", ScenarioIndex: 0, PriceChangeLabel: "5%"}
	require.NoError(t, store.InsertBulk(ctx, "run-1", []*domain.SimulationScenario{sc}))

	err := store.InsertBulk(ctx, "run-1", []*domain.SimulationScenario{sc})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// intra-batch duplicate
	err = store.InsertBulk(ctx, "run-2", []*domain.SimulationScenario{sc, sc})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestElasticityResultStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewElasticityResultStore(conn)

	results := []*domain.SkuElasticityResult{
		{SkuID: "SKU-B", Elasticity: -0.7, PValue: 0.03, Classification: domain.ClassificationInelastic, Observations: 30},
		{SkuID: "SKU-A", Elasticity: -1.9, PValue: 0.0001, Classification: domain.ClassificationElastic, Observations: 365},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", results))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SKU-A", got[0].SkuID)
	assert.Equal(t, 365, got[0].Observations)

	one, err := store.GetBySKU(ctx, "run-1", "SKU-B")
	require.NoError(t, err)
	assert.InDelta(t, -0.7, one.Elasticity, 1e-12)

	_, err = store.GetBySKU(ctx, "run-1", "SKU-Z")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.InsertBulk(ctx, "run-1", results[:1])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
