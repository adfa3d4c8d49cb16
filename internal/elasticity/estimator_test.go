package elasticity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-elasticity-lab/internal/domain"
)

func obs(sku string, price float64, units int64) *domain.SalesObservation {
	return &domain.SalesObservation{SkuID: sku, Price: price, UnitsSold: units}
}

// powerLaw builds noiseless observations units = k * price^e.
func powerLaw(sku string, k, e float64, prices []float64) []*domain.SalesObservation {
	out := make([]*domain.SalesObservation, 0, len(prices))
	for _, p := range prices {
		out = append(out, obs(sku, p, int64(math.Round(k*math.Pow(p, e)))))
	}
	return out
}

func TestEstimate_RecoversPowerLawElasticity(t *testing.T) {
	prices := []float64{5, 6, 7, 8, 9, 10, 11, 12}

	for _, e := range []float64{-2.5, -1.4, -0.6, 0.3} {
		observations := powerLaw("SKU-1", 1e7, e, prices)

		res, err := NewEstimator(DefaultOptions()).Estimate(observations)
		require.NoError(t, err)

		assert.InDelta(t, e, res.Elasticity, 1e-3, "elasticity %v", e)
		assert.Less(t, res.PValue, 0.05)
		assert.Equal(t, "SKU-1", res.SkuID)
		assert.Equal(t, len(prices), res.Observations)
	}
}

func TestEstimate_ThreeDistinctPricesNoOffset(t *testing.T) {
	opts := DefaultOptions()
	opts.LogOffset = 0
	observations := []*domain.SalesObservation{
		obs("A", 1, 1600), obs("A", 2, 400), obs("A", 4, 100), // e = -2
	}

	res, err := NewEstimator(opts).Estimate(observations)
	require.NoError(t, err)

	assert.InDelta(t, -2.0, res.Elasticity, 1e-3)
	assert.Less(t, res.PValue, 0.05)
	assert.Equal(t, domain.ClassificationElastic, res.Classification)
}

func TestEstimate_SinglePriceIsDegenerate(t *testing.T) {
	observations := []*domain.SalesObservation{
		obs("A", 9.99, 10), obs("A", 9.99, 12), obs("A", 9.99, 7),
	}

	_, err := NewEstimator(DefaultOptions()).Estimate(observations)
	if !errors.Is(err, domain.ErrDegenerateRegression) {
		t.Errorf("expected ErrDegenerateRegression, got %v", err)
	}
}

func TestEstimate_SingleObservationIsInsufficient(t *testing.T) {
	_, err := NewEstimator(DefaultOptions()).Estimate([]*domain.SalesObservation{obs("A", 10, 5)})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	_, err = NewEstimator(DefaultOptions()).Estimate(nil)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for empty input, got %v", err)
	}
}

func TestEstimate_InvalidObservations(t *testing.T) {
	tests := []struct {
		name string
		obs  []*domain.SalesObservation
	}{
		{"zero price", []*domain.SalesObservation{obs("A", 0, 5), obs("A", 2, 3)}},
		{"negative price", []*domain.SalesObservation{obs("A", -1, 5), obs("A", 2, 3)}},
		{"NaN price", []*domain.SalesObservation{obs("A", math.NaN(), 5), obs("A", 2, 3)}},
		{"negative units", []*domain.SalesObservation{obs("A", 1, -1), obs("A", 2, 3)}},
		{"mixed sku", []*domain.SalesObservation{obs("A", 1, 5), obs("B", 2, 3)}},
		{"empty sku", []*domain.SalesObservation{obs("", 1, 5), obs("", 2, 3)}},
	}

	est := NewEstimator(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := est.Estimate(tt.obs)
			if !errors.Is(err, domain.ErrInvalidObservation) {
				t.Errorf("expected ErrInvalidObservation, got %v", err)
			}
		})
	}
}

func TestEstimate_ZeroOffsetRejectsZeroDemand(t *testing.T) {
	opts := DefaultOptions()
	opts.LogOffset = 0

	_, err := NewEstimator(opts).Estimate([]*domain.SalesObservation{obs("A", 1, 0), obs("A", 2, 3)})
	assert.ErrorIs(t, err, domain.ErrInvalidObservation)
}

func TestEstimate_ExcludeZeroDemand(t *testing.T) {
	opts := DefaultOptions()
	opts.ZeroDemand = ZeroDemandExclude
	opts.LogOffset = 0
	observations := []*domain.SalesObservation{
		obs("A", 1, 1600), obs("A", 2, 0), obs("A", 2, 400), obs("A", 4, 100), obs("A", 8, 0),
	}

	res, err := NewEstimator(opts).Estimate(observations)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Observations)
	assert.InDelta(t, -2.0, res.Elasticity, 1e-3)

	// Only one non-zero day left.
	_, err = NewEstimator(opts).Estimate([]*domain.SalesObservation{obs("A", 1, 0), obs("A", 2, 4)})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestEstimate_MinObservations(t *testing.T) {
	opts := DefaultOptions()
	opts.MinObservations = 4

	_, err := NewEstimator(opts).Estimate([]*domain.SalesObservation{
		obs("A", 1, 10), obs("A", 2, 6), obs("A", 3, 4),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestEstimate_OrderIndependent(t *testing.T) {
	a := []*domain.SalesObservation{
		obs("A", 10, 40), obs("A", 12, 31), obs("A", 9, 47), obs("A", 11, 30), obs("A", 10, 44),
	}
	b := []*domain.SalesObservation{a[3], a[1], a[4], a[0], a[2]}

	est := NewEstimator(DefaultOptions())
	ra, err := est.Estimate(a)
	require.NoError(t, err)
	rb, err := est.Estimate(b)
	require.NoError(t, err)

	// bit-identical, not merely close
	assert.Equal(t, ra.Elasticity, rb.Elasticity)
	assert.Equal(t, ra.PValue, rb.PValue)
}

func TestEstimate_TwoObservations(t *testing.T) {
	res, err := NewEstimator(DefaultOptions()).Estimate([]*domain.SalesObservation{
		obs("A", 10, 99), obs("A", 20, 24),
	})
	require.NoError(t, err)

	// ln(25/100) / ln(2) = -2
	assert.InDelta(t, -2.0, res.Elasticity, 1e-12)
	assert.Equal(t, 1.0, res.PValue)
}

func TestClassify_Boundary(t *testing.T) {
	if got := domain.Classify(-1.0000); got != domain.ClassificationInelastic {
		t.Errorf("expected -1.0000 to be Inelastic, got %s", got)
	}
	if got := domain.Classify(-1.0001); got != domain.ClassificationElastic {
		t.Errorf("expected -1.0001 to be Elastic, got %s", got)
	}
	if got := domain.Classify(0.4); got != domain.ClassificationInelastic {
		t.Errorf("expected 0.4 to be Inelastic, got %s", got)
	}
}
