package memory

import (
	"context"
	"sort"
	"sync"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

type storedObservation struct {
	seq int
	obs domain.SalesObservation
}

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string][]storedObservation // keyed by sku_id
	seq  int
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string][]storedObservation),
	}
}

// InsertBulk appends observations atomically.
func (s *ObservationStore) InsertBulk(_ context.Context, observations []*domain.SalesObservation) error {
	if len(observations) == 0 {
		return nil
	}
	for _, o := range observations {
		if o == nil || o.SkuID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range observations {
		s.seq++
		s.data[o.SkuID] = append(s.data[o.SkuID], storedObservation{seq: s.seq, obs: copyObservation(o)})
	}
	return nil
}

// GetAll retrieves all observations ordered by sku_id, date, insertion order.
func (s *ObservationStore) GetAll(_ context.Context) ([]*domain.SalesObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skus := s.sortedSKUs()
	var result []*domain.SalesObservation
	for _, sku := range skus {
		result = append(result, s.skuRows(sku)...)
	}
	return result, nil
}

// GetBySKU retrieves observations of one SKU ordered by date, insertion order.
func (s *ObservationStore) GetBySKU(_ context.Context, skuID string) ([]*domain.SalesObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.skuRows(skuID), nil
}

// ListSKUs returns distinct sku_ids in ascending order.
func (s *ObservationStore) ListSKUs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedSKUs(), nil
}

func (s *ObservationStore) sortedSKUs() []string {
	skus := make([]string, 0, len(s.data))
	for sku := range s.data {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// skuRows returns copies; caller holds the read lock.
func (s *ObservationStore) skuRows(skuID string) []*domain.SalesObservation {
	rows := make([]storedObservation, len(s.data[skuID]))
	copy(rows, s.data[skuID])

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].obs.Date.Equal(rows[j].obs.Date) {
			return rows[i].obs.Date.Before(rows[j].obs.Date)
		}
		return rows[i].seq < rows[j].seq
	})

	result := make([]*domain.SalesObservation, len(rows))
	for i := range rows {
		o := copyObservation(&rows[i].obs)
		result[i] = &o
	}
	return result
}

func copyObservation(o *domain.SalesObservation) domain.SalesObservation {
	c := *o
	if o.Revenue != nil {
		v := *o.Revenue
		c.Revenue = &v
	}
	if o.Cost != nil {
		v := *o.Cost
		c.Cost = &v
	}
	if o.InventoryOnHand != nil {
		v := *o.InventoryOnHand
		c.InventoryOnHand = &v
	}
	return c
}

var _ storage.ObservationStore = (*ObservationStore)(nil)
