// Package simulation projects SKU revenue under price changes with a
// constant-elasticity demand model.
package simulation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"price-elasticity-lab/internal/domain"
)

// maxUnits bounds projected units to what fits in an int64.
const maxUnits = float64(1 << 62)

// ValidatePriceChanges checks a configured price-change set once, before
// any per-SKU work. Every value must be finite, > -1 and unique.
func ValidatePriceChanges(changes []float64) error {
	if len(changes) == 0 {
		return fmt.Errorf("%w: no price changes configured", domain.ErrInvalidScenario)
	}
	seen := make(map[float64]struct{}, len(changes))
	for i, c := range changes {
		if err := validateChange(c); err != nil {
			return fmt.Errorf("price change %d: %w", i, err)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: price change %v configured twice", domain.ErrInvalidScenario, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

func validateChange(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return fmt.Errorf("%w: price change %v is not finite", domain.ErrInvalidScenario, c)
	}
	if c <= -1 {
		return fmt.Errorf("%w: price change %v must be greater than -1", domain.ErrInvalidScenario, c)
	}
	return nil
}

// PriceChangeLabel formats a fraction as a percentage, e.g. 0.1 -> "10%",
// -0.05 -> "-5%", 0.025 -> "2.5%".
func PriceChangeLabel(c float64) string {
	if !finite(c) {
		return strconv.FormatFloat(c, 'f', -1, 64) + "%"
	}
	return decimal.NewFromFloat(c).Shift(2).Round(4).String() + "%"
}

// Simulator projects every configured price change for a SKU.
// It is immutable after construction and safe for concurrent use.
type Simulator struct {
	priceChanges []float64
	labels       []string
}

// NewSimulator validates the price-change set and returns a Simulator.
func NewSimulator(priceChanges []float64) (*Simulator, error) {
	if err := ValidatePriceChanges(priceChanges); err != nil {
		return nil, err
	}
	changes := make([]float64, len(priceChanges))
	copy(changes, priceChanges)

	labels := make([]string, len(changes))
	for i, c := range changes {
		labels[i] = PriceChangeLabel(c)
	}
	return &Simulator{priceChanges: changes, labels: labels}, nil
}

// PriceChanges returns a copy of the configured set in configured order.
func (s *Simulator) PriceChanges() []float64 {
	out := make([]float64, len(s.priceChanges))
	copy(out, s.priceChanges)
	return out
}

// Labels returns the price-change labels in configured order.
func (s *Simulator) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Simulate projects every configured scenario for one SKU, in configured
// order. A failing scenario is reported and excluded; the rest still run.
func (s *Simulator) Simulate(m domain.SkuAggregateMetrics, elasticity float64) ([]*domain.SimulationScenario, []domain.SkuFailure) {
	scenarios := make([]*domain.SimulationScenario, 0, len(s.priceChanges))
	var failures []domain.SkuFailure

	for i, c := range s.priceChanges {
		sc, err := SimulateOne(m, elasticity, c)
		if err != nil {
			failures = append(failures, domain.NewSkuFailure(m.SkuID, domain.StageSimulate, s.labels[i], err))
			continue
		}
		sc.ScenarioIndex = i
		scenarios = append(scenarios, sc)
	}
	return scenarios, failures
}

// SimulateOne projects a single price change c:
//
//	new_units   = current_units * (1 + c) ^ elasticity
//	new_price   = avg_price * (1 + c)
//	new_revenue = round(new_units) * new_price
//
// Units are rounded to the nearest non-negative integer; monetary outputs
// to 2 decimals. Returns domain.ErrInvalidScenario for c <= -1 or a
// projection that is not finite.
func SimulateOne(m domain.SkuAggregateMetrics, elasticity, c float64) (*domain.SimulationScenario, error) {
	if err := validateChange(c); err != nil {
		return nil, err
	}
	if !finite(elasticity) {
		return nil, fmt.Errorf("%w: elasticity %v is not finite", domain.ErrInvalidScenario, elasticity)
	}

	factor := 1 + c
	newUnits := float64(m.CurrentUnits) * math.Pow(factor, elasticity)
	if math.IsNaN(newUnits) || newUnits > maxUnits {
		return nil, fmt.Errorf("%w: projected units %v out of range for change %v",
			domain.ErrInvalidScenario, newUnits, c)
	}

	units := int64(math.Round(newUnits))
	if units < 0 {
		units = 0
	}
	newPrice := m.AvgPrice * factor
	if !finite(newPrice) || !finite(m.CurrentRevenue) {
		return nil, fmt.Errorf("%w: price %v or current revenue %v not finite for change %v",
			domain.ErrInvalidScenario, newPrice, m.CurrentRevenue, c)
	}

	revenue := decimal.NewFromInt(units).Mul(decimal.NewFromFloat(newPrice)).Round(2)
	diff := revenue.Sub(decimal.NewFromFloat(m.CurrentRevenue)).Round(2)

	return &domain.SimulationScenario{
		SkuID:            m.SkuID,
		PriceChange:      c,
		PriceChangeLabel: PriceChangeLabel(c),
		PredictedUnits:   units,
		NewPrice:         newPrice,
		PredictedRevenue: revenue.InexactFloat64(),
		RevenueDiff:      diff.InexactFloat64(),
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
