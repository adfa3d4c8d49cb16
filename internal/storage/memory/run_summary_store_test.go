package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

func TestRunSummaryStore_InsertAndGet(t *testing.T) {
	store := NewRunSummaryStore()
	ctx := context.Background()

	s := &domain.RunSummary{
		RunID:        "run-1",
		FinishedAt:   time.Unix(100, 0),
		SkusTotal:    3,
		PriceChanges: []float64{0.05},
		Failures:     []domain.SkuFailure{{SkuID: "X", Stage: domain.StageEstimate}},
	}
	require.NoError(t, store.Insert(ctx, s))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SkusTotal)
	assert.Equal(t, []float64{0.05}, got.PriceChanges)

	// mutation of the returned copy does not leak
	got.Failures[0].SkuID = "changed"
	again, _ := store.GetByID(ctx, "run-1")
	assert.Equal(t, "X", again.Failures[0].SkuID)

	err = store.Insert(ctx, s)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}

func TestRunSummaryStore_LatestAndList(t *testing.T) {
	store := NewRunSummaryStore()
	ctx := context.Background()

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, &domain.RunSummary{RunID: "a", FinishedAt: time.Unix(10, 0)}))
	require.NoError(t, store.Insert(ctx, &domain.RunSummary{RunID: "c", FinishedAt: time.Unix(30, 0)}))
	require.NoError(t, store.Insert(ctx, &domain.RunSummary{RunID: "b", FinishedAt: time.Unix(20, 0)}))

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", latest.RunID)

	list, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].RunID)
	assert.Equal(t, "b", list[1].RunID)

	all, _ := store.List(ctx, 0)
	assert.Len(t, all, 3)
}

func TestRunSummaryStore_NotFound(t *testing.T) {
	store := NewRunSummaryStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
