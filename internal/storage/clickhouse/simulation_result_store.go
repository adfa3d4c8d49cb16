package clickhouse

import (
	"context"
	"fmt"
	"time"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/storage"
)

// SimulationResultStore implements storage.SimulationResultStore using ClickHouse.
// MergeTree does not enforce keys, so duplicates are checked before insert.
type SimulationResultStore struct {
	conn *Conn
}

// NewSimulationResultStore creates a new SimulationResultStore.
func NewSimulationResultStore(conn *Conn) *SimulationResultStore {
	return &SimulationResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationResultStore = (*SimulationResultStore)(nil)

type scenarioRowKey struct {
	sku   string
	index uint16
}

// InsertBulk adds the scenarios of one run. Fails entire batch on any duplicate.
func (s *SimulationResultStore) InsertBulk(ctx context.Context, runID string, scenarios []*domain.SimulationScenario) (err error) {
	defer observeQuery("insert_simulation", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(scenarios) == 0 {
		return nil
	}

	existing, err := s.existingKeys(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, sc := range scenarios {
		if sc == nil || sc.SkuID == "" || sc.ScenarioIndex < 0 {
			return storage.ErrInvalidInput
		}
		key := scenarioRowKey{sku: sc.SkuID, index: uint16(sc.ScenarioIndex)}
		if _, exists := existing[key]; exists {
			return storage.ErrDuplicateKey
		}
		existing[key] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO revenue_simulation (
			run_id, sku_id, scenario_index, price_change, price_change_pct,
			predicted_units, new_price, predicted_revenue, revenue_diff
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sc := range scenarios {
		err = batch.Append(
			runID, sc.SkuID, uint16(sc.ScenarioIndex), sc.PriceChange, sc.PriceChangeLabel,
			sc.PredictedUnits, sc.NewPrice, sc.PredictedRevenue, sc.RevenueDiff,
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

// GetByRun retrieves all scenarios for a run ordered by sku_id, scenario_index.
func (s *SimulationResultStore) GetByRun(ctx context.Context, runID string) ([]*domain.SimulationScenario, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT sku_id, scenario_index, price_change, price_change_pct,
			predicted_units, new_price, predicted_revenue, revenue_diff
		FROM revenue_simulation
		WHERE run_id = ?
		ORDER BY sku_id ASC, scenario_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query revenue simulation: %w", err)
	}
	defer rows.Close()

	var result []*domain.SimulationScenario
	for rows.Next() {
		var (
			sc    domain.SimulationScenario
			index uint16
		)
		if err := rows.Scan(
			&sc.SkuID, &index, &sc.PriceChange, &sc.PriceChangeLabel,
			&sc.PredictedUnits, &sc.NewPrice, &sc.PredictedRevenue, &sc.RevenueDiff,
		); err != nil {
			return nil, fmt.Errorf("scan revenue simulation: %w", err)
		}
		sc.ScenarioIndex = int(index)
		result = append(result, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue simulation: %w", err)
	}
	return result, nil
}

func (s *SimulationResultStore) existingKeys(ctx context.Context, runID string) (map[scenarioRowKey]struct{}, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT sku_id, scenario_index FROM revenue_simulation WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[scenarioRowKey]struct{})
	for rows.Next() {
		var k scenarioRowKey
		if err := rows.Scan(&k.sku, &k.index); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}
