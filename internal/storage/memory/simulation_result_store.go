package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// SimulationResultStore is an in-memory implementation of storage.SimulationResultStore.
type SimulationResultStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.SimulationScenario // run_id -> composite key
}

// NewSimulationResultStore creates a new in-memory simulation result store.
func NewSimulationResultStore() *SimulationResultStore {
	return &SimulationResultStore{
		data: make(map[string]map[string]*domain.SimulationScenario),
	}
}

func scenarioKey(skuID string, index int) string {
	return fmt.Sprintf("%s|%d", skuID, index)
}

// InsertBulk adds the scenarios of one run. Fails entire batch on any duplicate.
func (s *SimulationResultStore) InsertBulk(_ context.Context, runID string, scenarios []*domain.SimulationScenario) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(scenarios) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	batchKeys := make(map[string]struct{}, len(scenarios))

	for _, sc := range scenarios {
		if sc == nil || sc.SkuID == "" {
			return storage.ErrInvalidInput
		}
		key := scenarioKey(sc.SkuID, sc.ScenarioIndex)
		if _, exists := existing[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	if existing == nil {
		existing = make(map[string]*domain.SimulationScenario, len(scenarios))
		s.data[runID] = existing
	}
	for _, sc := range scenarios {
		scCopy := *sc
		existing[scenarioKey(sc.SkuID, sc.ScenarioIndex)] = &scCopy
	}
	return nil
}

// GetByRun retrieves all scenarios for a run ordered by sku_id, scenario_index.
func (s *SimulationResultStore) GetByRun(_ context.Context, runID string) ([]*domain.SimulationScenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SimulationScenario, 0, len(s.data[runID]))
	for _, sc := range s.data[runID] {
		scCopy := *sc
		result = append(result, &scCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SkuID != result[j].SkuID {
			return result[i].SkuID < result[j].SkuID
		}
		return result[i].ScenarioIndex < result[j].ScenarioIndex
	})
	return result, nil
}

var _ storage.SimulationResultStore = (*SimulationResultStore)(nil)
