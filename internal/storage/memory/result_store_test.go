package memory

import (
	"context"
	"errors"
	"testing"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

func TestElasticityResultStore_InsertAndGet(t *testing.T) {
	store := NewElasticityResultStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, "run-1", []*domain.SkuElasticityResult{
		{SkuID: "B", Elasticity: -0.4, PValue: 0.2, Classification: domain.ClassificationInelastic},
		{SkuID: "A", Elasticity: -1.8, PValue: 0.01, Classification: domain.ClassificationElastic},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 2 || got[0].SkuID != "A" || got[1].SkuID != "B" {
		t.Fatalf("expected results ordered A,B, got %+v", got)
	}

	a, err := store.GetBySKU(ctx, "run-1", "A")
	if err != nil {
		t.Fatalf("GetBySKU failed: %v", err)
	}
	if a.Elasticity != -1.8 {
		t.Errorf("Elasticity mismatch: got %f, want %f", a.Elasticity, -1.8)
	}

	other, _ := store.GetByRun(ctx, "run-2")
	if len(other) != 0 {
		t.Errorf("expected no results for other run, got %d", len(other))
	}
}

func TestElasticityResultStore_DuplicateKey(t *testing.T) {
	store := NewElasticityResultStore()
	ctx := context.Background()

	r := &domain.SkuElasticityResult{SkuID: "A"}
	if err := store.InsertBulk(ctx, "run-1", []*domain.SkuElasticityResult{r}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, "run-1", []*domain.SkuElasticityResult{{SkuID: "B"}, r})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetBySKU(ctx, "run-1", "B"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed batch must not be partially applied, got %v", err)
	}

	// same SKU under another run is fine
	if err := store.InsertBulk(ctx, "run-2", []*domain.SkuElasticityResult{r}); err != nil {
		t.Errorf("insert under new run failed: %v", err)
	}

	// intra-batch duplicate
	err = store.InsertBulk(ctx, "run-3", []*domain.SkuElasticityResult{{SkuID: "X"}, {SkuID: "X"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestElasticityResultStore_InvalidInput(t *testing.T) {
	store := NewElasticityResultStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "", []*domain.SkuElasticityResult{{SkuID: "A"}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty run, got %v", err)
	}
	if err := store.InsertBulk(ctx, "run", []*domain.SkuElasticityResult{nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil result, got %v", err)
	}
}

func TestSimulationResultStore_InsertAndGet(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, "run-1", []*domain.SimulationScenario{
		{SkuID: "B", ScenarioIndex: 0, PriceChangeLabel: "5%"},
		{SkuID: "A", ScenarioIndex: 1, PriceChangeLabel: "10%"},
		{SkuID: "A", ScenarioIndex: 0, PriceChangeLabel: "5%", PredictedRevenue: 12.5},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(got))
	}
	if got[0].SkuID != "A" || got[0].ScenarioIndex != 0 || got[0].PredictedRevenue != 12.5 {
		t.Errorf("unexpected first scenario: %+v", got[0])
	}
	if got[1].SkuID != "A" || got[1].ScenarioIndex != 1 {
		t.Errorf("unexpected second scenario: %+v", got[1])
	}
	if got[2].SkuID != "B" {
		t.Errorf("unexpected third scenario: %+v", got[2])
	}
}

func TestSimulationResultStore_DuplicateKey(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	sc := &domain.SimulationScenario{SkuID: "A", ScenarioIndex: 2}
	if err := store.InsertBulk(ctx, "run-1", []*domain.SimulationScenario{sc}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := store.InsertBulk(ctx, "run-1", []*domain.SimulationScenario{sc})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
