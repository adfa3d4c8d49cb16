package clickhouse

import (
	"context"
	"fmt"
	"time"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// ElasticityResultStore implements storage.ElasticityResultStore using ClickHouse.
type ElasticityResultStore struct {
	conn *Conn
}

// NewElasticityResultStore creates a new ElasticityResultStore.
func NewElasticityResultStore(conn *Conn) *ElasticityResultStore {
	return &ElasticityResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ElasticityResultStore = (*ElasticityResultStore)(nil)

const elasticitySelect = `
	SELECT sku_id, elasticity, p_value, classification, intercept, std_err, observations
	FROM sku_elasticity
`

// InsertBulk adds the results of one run. Fails entire batch on any duplicate.
func (s *ElasticityResultStore) InsertBulk(ctx context.Context, runID string, results []*domain.SkuElasticityResult) (err error) {
	defer observeQuery("insert_elasticity", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(results) == 0 {
		return nil
	}

	existing, err := s.GetByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(results))
	for _, r := range existing {
		seen[r.SkuID] = struct{}{}
	}
	for _, r := range results {
		if r == nil || r.SkuID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.SkuID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.SkuID] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sku_elasticity (
			run_id, sku_id, elasticity, p_value, classification, intercept, std_err, observations
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, r := range results {
		err = batch.Append(
			runID, r.SkuID, r.Elasticity, r.PValue, r.Classification,
			r.Intercept, r.StdErr, uint32(r.Observations),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves all results for a run ordered by sku_id.
func (s *ElasticityResultStore) GetByRun(ctx context.Context, runID string) ([]*domain.SkuElasticityResult, error) {
	return s.query(ctx, elasticitySelect+` WHERE run_id = ? ORDER BY sku_id ASC`, runID)
}

// GetBySKU retrieves one SKU's result for a run. Returns ErrNotFound if not exists.
func (s *ElasticityResultStore) GetBySKU(ctx context.Context, runID, skuID string) (*domain.SkuElasticityResult, error) {
	results, err := s.query(ctx, elasticitySelect+` WHERE run_id = ? AND sku_id = ? LIMIT 1`, runID, skuID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return results[0], nil
}

func (s *ElasticityResultStore) query(ctx context.Context, query string, args ...any) ([]*domain.SkuElasticityResult, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sku elasticity: %w", err)
	}
	defer rows.Close()

	var result []*domain.SkuElasticityResult
	for rows.Next() {
		var (
			r   domain.SkuElasticityResult
			obs uint32
		)
		if err := rows.Scan(&r.SkuID, &r.Elasticity, &r.PValue, &r.Classification, &r.Intercept, &r.StdErr, &obs); err != nil {
			return nil, fmt.Errorf("scan sku elasticity: %w", err)
		}
		r.Observations = int(obs)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sku elasticity: %w", err)
	}
	return result, nil
}
