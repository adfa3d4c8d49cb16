package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// ElasticityResultStore implements storage.ElasticityResultStore using PostgreSQL.
type ElasticityResultStore struct {
	pool *Pool
}

// NewElasticityResultStore creates a new ElasticityResultStore.
func NewElasticityResultStore(pool *Pool) *ElasticityResultStore {
	return &ElasticityResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ElasticityResultStore = (*ElasticityResultStore)(nil)

// InsertBulk adds the results of one run atomically. Fails entire batch on any duplicate.
func (s *ElasticityResultStore) InsertBulk(ctx context.Context, runID string, results []*domain.SkuElasticityResult) (err error) {
	defer observeQuery("insert_elasticity", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO sku_elasticity (
			run_id, sku_id, elasticity, p_value, classification,
			intercept, std_err, observations
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, r := range results {
		if r == nil || r.SkuID == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(query,
			runID, r.SkuID, r.Elasticity, r.PValue, r.Classification,
			r.Intercept, r.StdErr, r.Observations,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range results {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert elasticity result: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all results for a run ordered by sku_id.
func (s *ElasticityResultStore) GetByRun(ctx context.Context, runID string) ([]*domain.SkuElasticityResult, error) {
	query := `
		SELECT sku_id, elasticity, p_value, classification, intercept, std_err, observations
		FROM sku_elasticity
		WHERE run_id = $1
		ORDER BY sku_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query elasticity results: %w", err)
	}
	defer rows.Close()

	var result []*domain.SkuElasticityResult
	for rows.Next() {
		r, err := scanElasticity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elasticity results: %w", err)
	}
	return result, nil
}

// GetBySKU retrieves one SKU's result for a run. Returns ErrNotFound if not exists.
func (s *ElasticityResultStore) GetBySKU(ctx context.Context, runID, skuID string) (*domain.SkuElasticityResult, error) {
	query := `
		SELECT sku_id, elasticity, p_value, classification, intercept, std_err, observations
		FROM sku_elasticity
		WHERE run_id = $1 AND sku_id = $2
	`

	r, err := scanElasticity(s.pool.QueryRow(ctx, query, runID, skuID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func scanElasticity(row pgx.Row) (*domain.SkuElasticityResult, error) {
	var r domain.SkuElasticityResult
	err := row.Scan(&r.SkuID, &r.Elasticity, &r.PValue, &r.Classification, &r.Intercept, &r.StdErr, &r.Observations)
	if err != nil {
		if isNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan elasticity result: %w", err)
	}
	return &r, nil
}
