package memory

import (
	"context"
	"sort"
	"sync"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// ElasticityResultStore is an in-memory implementation of storage.ElasticityResultStore.
type ElasticityResultStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.SkuElasticityResult // run_id -> sku_id
}

// NewElasticityResultStore creates a new in-memory elasticity result store.
func NewElasticityResultStore() *ElasticityResultStore {
	return &ElasticityResultStore{
		data: make(map[string]map[string]*domain.SkuElasticityResult),
	}
}

// InsertBulk adds the results of one run. Fails entire batch on any duplicate.
func (s *ElasticityResultStore) InsertBulk(_ context.Context, runID string, results []*domain.SkuElasticityResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	batchKeys := make(map[string]struct{}, len(results))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range results {
		if r == nil || r.SkuID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[r.SkuID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.SkuID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.SkuID] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[string]*domain.SkuElasticityResult, len(results))
		s.data[runID] = existing
	}
	for _, r := range results {
		rCopy := *r
		existing[r.SkuID] = &rCopy
	}
	return nil
}

// GetByRun retrieves all results for a run ordered by sku_id.
func (s *ElasticityResultStore) GetByRun(_ context.Context, runID string) ([]*domain.SkuElasticityResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SkuElasticityResult, 0, len(s.data[runID]))
	for _, r := range s.data[runID] {
		rCopy := *r
		result = append(result, &rCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SkuID < result[j].SkuID
	})
	return result, nil
}

// GetBySKU retrieves one SKU's result for a run. Returns ErrNotFound if not exists.
func (s *ElasticityResultStore) GetBySKU(_ context.Context, runID, skuID string) (*domain.SkuElasticityResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID][skuID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	rCopy := *r
	return &rCopy, nil
}

var _ storage.ElasticityResultStore = (*ElasticityResultStore)(nil)
