package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// RunSummaryStore implements storage.RunSummaryStore using PostgreSQL.
type RunSummaryStore struct {
	pool *Pool
}

// NewRunSummaryStore creates a new RunSummaryStore.
func NewRunSummaryStore(pool *Pool) *RunSummaryStore {
	return &RunSummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)

const runSummaryColumns = `
	run_id, data_version, started_at, finished_at,
	skus_total, skus_estimated, skus_skipped, scenarios_simulated, scenarios_skipped,
	elastic_skus, average_elasticity, price_changes, failures
`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunSummaryStore) Insert(ctx context.Context, r *domain.RunSummary) (err error) {
	defer observeQuery("insert_run_summary", time.Now(), &err)

	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	failures := r.Failures
	if failures == nil {
		failures = []domain.SkuFailure{}
	}
	priceChanges := r.PriceChanges
	if priceChanges == nil {
		priceChanges = []float64{}
	}

	query := `INSERT INTO run_summaries (` + runSummaryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.DataVersion, r.StartedAt, r.FinishedAt,
		r.SkusTotal, r.SkusEstimated, r.SkusSkipped, r.ScenariosSimulated, r.ScenariosSkipped,
		r.ElasticSkus, r.AverageElasticity, priceChanges, failures,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// GetByID retrieves a summary by run_id. Returns ErrNotFound if not exists.
func (s *RunSummaryStore) GetByID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	query := `SELECT ` + runSummaryColumns + ` FROM run_summaries WHERE run_id = $1`

	r, err := scanRunSummary(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return r, nil
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

// List retrieves up to limit summaries, newest first.
func (s *RunSummaryStore) List(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	query := `SELECT ` + runSummaryColumns + ` FROM run_summaries ORDER BY finished_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var result []*domain.RunSummary
	for rows.Next() {
		r, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}
	return result, nil
}

func scanRunSummary(row pgx.Row) (*domain.RunSummary, error) {
	var r domain.RunSummary
	err := row.Scan(
		&r.RunID, &r.DataVersion, &r.StartedAt, &r.FinishedAt,
		&r.SkusTotal, &r.SkusEstimated, &r.SkusSkipped, &r.ScenariosSimulated, &r.ScenariosSkipped,
		&r.ElasticSkus, &r.AverageElasticity, &r.PriceChanges, &r.Failures,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run summary: %w", err)
	}
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	return &r, nil
}
