// Package elasticity fits per-SKU log-log demand regressions.
package elasticity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/stats"
)

// Zero-demand handling modes.
const (
	// ZeroDemandOffset keeps every observation and fits ln(units + LogOffset).
	ZeroDemandOffset = "offset"
	// ZeroDemandExclude drops zero-unit observations before fitting.
	ZeroDemandExclude = "exclude"
)

// DefaultLogOffset biases sparse-demand SKUs toward zero elasticity
// magnitude in exchange for a defined log at zero demand.
const DefaultLogOffset = 1.0

// MinObservations is the smallest sample that determines a slope.
const MinObservations = 2

// Options configures an Estimator.
type Options struct {
	LogOffset       float64 // added to units before the log transform
	ZeroDemand      string  // ZeroDemandOffset | ZeroDemandExclude
	MinObservations int     // values below MinObservations are raised to it
}

// DefaultOptions returns the standard +1 offset configuration.
func DefaultOptions() Options {
	return Options{
		LogOffset:       DefaultLogOffset,
		ZeroDemand:      ZeroDemandOffset,
		MinObservations: MinObservations,
	}
}

// Estimator fits y = a + b*x with x = ln(price), y = ln(units + offset).
// It holds no mutable state and is safe for concurrent use.
type Estimator struct {
	opts Options
}

// NewEstimator creates an Estimator.
func NewEstimator(opts Options) *Estimator {
	if opts.ZeroDemand == "" {
		opts.ZeroDemand = ZeroDemandOffset
	}
	if opts.MinObservations < MinObservations {
		opts.MinObservations = MinObservations
	}
	return &Estimator{opts: opts}
}

// Options returns the effective options.
func (e *Estimator) Options() Options {
	return e.opts
}

// Estimate fits the elasticity of one SKU. All observations must share
// the same SkuID. The result does not depend on observation order.
//
// Errors: domain.ErrInvalidObservation, domain.ErrInsufficientData,
// domain.ErrDegenerateRegression.
func (e *Estimator) Estimate(observations []*domain.SalesObservation) (*domain.SkuElasticityResult, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: no observations", domain.ErrInsufficientData)
	}
	skuID := observations[0].SkuID

	if err := e.validate(skuID, observations); err != nil {
		return nil, err
	}

	points := e.fitPoints(observations)
	if len(points) < e.opts.MinObservations {
		return nil, fmt.Errorf("%w: sku %s has %d usable observations, need %d",
			domain.ErrInsufficientData, skuID, len(points), e.opts.MinObservations)
	}

	// Sorting makes the floating-point sums independent of input order.
	sort.Slice(points, func(i, j int) bool {
		if points[i].price != points[j].price {
			return points[i].price < points[j].price
		}
		return points[i].units < points[j].units
	})

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = math.Log(p.price)
		y[i] = math.Log(float64(p.units) + e.opts.LogOffset)
	}

	fit, err := stats.SimpleOLS(x, y)
	if err != nil {
		if errors.Is(err, stats.ErrSingular) {
			return nil, fmt.Errorf("%w: sku %s has a single distinct price", domain.ErrDegenerateRegression, skuID)
		}
		return nil, fmt.Errorf("sku %s: %w", skuID, err)
	}
	if math.IsNaN(fit.Slope) || math.IsInf(fit.Slope, 0) {
		return nil, fmt.Errorf("%w: sku %s slope is not finite", domain.ErrDegenerateRegression, skuID)
	}

	return &domain.SkuElasticityResult{
		SkuID:          skuID,
		Elasticity:     fit.Slope,
		PValue:         fit.PValue,
		Classification: domain.Classify(fit.Slope),
		Intercept:      fit.Intercept,
		StdErr:         fit.StdErr,
		Observations:   fit.N,
	}, nil
}

type point struct {
	price float64
	units int64
}

func (e *Estimator) fitPoints(observations []*domain.SalesObservation) []point {
	points := make([]point, 0, len(observations))
	for _, o := range observations {
		if e.opts.ZeroDemand == ZeroDemandExclude && o.UnitsSold == 0 {
			continue
		}
		points = append(points, point{price: o.Price, units: o.UnitsSold})
	}
	return points
}

// validate rejects the whole SKU on the first corrupt record.
func (e *Estimator) validate(skuID string, observations []*domain.SalesObservation) error {
	if skuID == "" {
		return fmt.Errorf("%w: empty sku_id", domain.ErrInvalidObservation)
	}
	for i, o := range observations {
		if o == nil {
			return fmt.Errorf("%w: sku %s observation %d is nil", domain.ErrInvalidObservation, skuID, i)
		}
		if o.SkuID != skuID {
			return fmt.Errorf("%w: mixed sku_id %q and %q", domain.ErrInvalidObservation, skuID, o.SkuID)
		}
		if !(o.Price > 0) || math.IsInf(o.Price, 0) {
			return fmt.Errorf("%w: sku %s price %v must be positive", domain.ErrInvalidObservation, skuID, o.Price)
		}
		if o.UnitsSold < 0 {
			return fmt.Errorf("%w: sku %s units_sold %d is negative", domain.ErrInvalidObservation, skuID, o.UnitsSold)
		}
		if e.opts.ZeroDemand == ZeroDemandOffset && float64(o.UnitsSold)+e.opts.LogOffset <= 0 {
			return fmt.Errorf("%w: sku %s units_sold %d + offset %v is not positive",
				domain.ErrInvalidObservation, skuID, o.UnitsSold, e.opts.LogOffset)
		}
	}
	return nil
}
