package memory

import (
	"context"
	"sort"
	"sync"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// RunSummaryStore is an in-memory implementation of storage.RunSummaryStore.
type RunSummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunSummary // keyed by run_id
}

// NewRunSummaryStore creates a new in-memory run summary store.
func NewRunSummaryStore() *RunSummaryStore {
	return &RunSummaryStore{
		data: make(map[string]*domain.RunSummary),
	}
}

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunSummaryStore) Insert(_ context.Context, summary *domain.RunSummary) error {
	if summary == nil || summary.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[summary.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[summary.RunID] = copySummary(summary)
	return nil
}

// GetByID retrieves a summary by run_id. Returns ErrNotFound if not exists.
func (s *RunSummaryStore) GetByID(_ context.Context, runID string) (*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySummary(summary), nil
}

// GetLatest retrieves the most recently finished run.
func (s *RunSummaryStore) GetLatest(ctx context.Context) (*domain.RunSummary, error) {
	list, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

// List retrieves up to limit summaries, newest first (finished_at DESC, run_id DESC).
func (s *RunSummaryStore) List(_ context.Context, limit int) ([]*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunSummary, 0, len(s.data))
	for _, summary := range s.data {
		result = append(result, copySummary(summary))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].FinishedAt.Equal(result[j].FinishedAt) {
			return result[i].FinishedAt.After(result[j].FinishedAt)
		}
		return result[i].RunID > result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copySummary(s *domain.RunSummary) *domain.RunSummary {
	c := *s
	c.PriceChanges = append([]float64(nil), s.PriceChanges...)
	c.Failures = append([]domain.SkuFailure(nil), s.Failures...)
	return &c
}

var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)
