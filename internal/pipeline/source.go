package pipeline

import (
	"context"
	"fmt"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/loader"
	"price-elasticity-lab/internal/storage"
)

// Source supplies the observations of one run.
type Source interface {
	Load(ctx context.Context) ([]*domain.SalesObservation, error)
	Name() string
}

// FileSource reads a .csv / .xlsx file on every run.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(_ context.Context) ([]*domain.SalesObservation, error) {
	return loader.LoadObservations(s.Path)
}

// Name implements Source.
func (s FileSource) Name() string { return "file:" + s.Path }

// StoreSource reads every observation from an ObservationStore.
type StoreSource struct {
	Store storage.ObservationStore
}

// Load implements Source.
func (s StoreSource) Load(ctx context.Context) ([]*domain.SalesObservation, error) {
	return s.Store.GetAll(ctx)
}

// Name implements Source.
func (s StoreSource) Name() string { return "store" }

// StaticSource serves a fixed slice; used by tests and the generator.
type StaticSource []*domain.SalesObservation

// Load implements Source.
func (s StaticSource) Load(_ context.Context) ([]*domain.SalesObservation, error) {
	return s, nil
}

// Name implements Source.
func (s StaticSource) Name() string { return "static" }

// ImportFile loads a file into an ObservationStore in batches and returns
// the number of rows written.
func ImportFile(ctx context.Context, path string, store storage.ObservationStore, batchSize int) (int, error) {
	observations, err := loader.LoadObservations(path)
	if err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		batchSize = len(observations)
	}
	written := 0
	for start := 0; start < len(observations); start += batchSize {
		end := start + batchSize
		if end > len(observations) {
			end = len(observations)
		}
		if err := store.InsertBulk(ctx, observations[start:end]); err != nil {
			return written, fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
		written = end
	}
	return written, nil
}
