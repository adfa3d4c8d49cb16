package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

var observationColumns = []string{
	"sku_id", "obs_date", "price", "units_sold",
	"product_name", "category", "revenue", "cost", "inventory_on_hand",
}

// InsertBulk appends observations atomically using COPY.
func (s *ObservationStore) InsertBulk(ctx context.Context, observations []*domain.SalesObservation) (err error) {
	defer observeQuery("insert_observations", time.Now(), &err)

	if len(observations) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		if o == nil || o.SkuID == "" {
			return storage.ErrInvalidInput
		}
		rows = append(rows, []any{
			o.SkuID, nullableDate(o.Date), o.Price, o.UnitsSold,
			o.ProductName, o.Category, o.Revenue, o.Cost, o.InventoryOnHand,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"sales_observations"}, observationColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy sales observations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all observations ordered by sku_id, date, insertion order.
func (s *ObservationStore) GetAll(ctx context.Context) ([]*domain.SalesObservation, error) {
	query := `
		SELECT sku_id, obs_date, price, units_sold, product_name, category, revenue, cost, inventory_on_hand
		FROM sales_observations
		ORDER BY sku_id ASC, obs_date ASC NULLS FIRST, id ASC
	`
	return s.query(ctx, query)
}

// GetBySKU retrieves observations of one SKU ordered by date, insertion order.
func (s *ObservationStore) GetBySKU(ctx context.Context, skuID string) ([]*domain.SalesObservation, error) {
	query := `
		SELECT sku_id, obs_date, price, units_sold, product_name, category, revenue, cost, inventory_on_hand
		FROM sales_observations
		WHERE sku_id = $1
		ORDER BY obs_date ASC NULLS FIRST, id ASC
	`
	return s.query(ctx, query, skuID)
}

// ListSKUs returns distinct sku_ids in ascending order.
func (s *ObservationStore) ListSKUs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT sku_id FROM sales_observations ORDER BY sku_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query skus: %w", err)
	}
	skus, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect skus: %w", err)
	}
	return skus, nil
}

func (s *ObservationStore) query(ctx context.Context, query string, args ...any) ([]*domain.SalesObservation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales observations: %w", err)
	}
	defer rows.Close()

	var result []*domain.SalesObservation
	for rows.Next() {
		var (
			o    domain.SalesObservation
			date *time.Time
		)
		if err := rows.Scan(
			&o.SkuID, &date, &o.Price, &o.UnitsSold,
			&o.ProductName, &o.Category, &o.Revenue, &o.Cost, &o.InventoryOnHand,
		); err != nil {
			return nil, fmt.Errorf("scan sales observation: %w", err)
		}
		if date != nil {
			o.Date = date.UTC()
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales observations: %w", err)
	}
	return result, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
