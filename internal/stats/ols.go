// Package stats implements the small amount of inference the estimator
// needs: a simple linear regression with coefficient standard errors and
// the Student-t tail probability of its slope.
package stats

import (
	"errors"
	"math"
)

var (
	// ErrTooFewPoints is returned when fewer than two points are supplied.
	ErrTooFewPoints = errors.New("regression needs at least 2 points")

	// ErrSingular is returned when x has zero variance.
	ErrSingular = errors.New("singular design: zero variance in x")

	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("x and y length mismatch")
)

// LinearFit is the OLS fit of y = Intercept + Slope*x.
type LinearFit struct {
	Slope     float64
	Intercept float64
	StdErr    float64 // standard error of the slope
	TStat     float64
	PValue    float64 // two-tailed, H0: slope = 0
	RSS       float64
	N         int
	DF        int // residual degrees of freedom, N-2
}

// SimpleOLS fits y = a + b*x by ordinary least squares.
//
// The slope variance is s^2 / Sxx with s^2 = RSS/(n-2), which is the
// slope diagonal of s^2 (X'X)^-1 for the two-column design [1 x].
// With n = 2 there are no residual degrees of freedom and the p-value is 1.
func SimpleOLS(x, y []float64) (LinearFit, error) {
	if len(x) != len(y) {
		return LinearFit{}, ErrLengthMismatch
	}
	n := len(x)
	if n < 2 {
		return LinearFit{}, ErrTooFewPoints
	}
	if allEqual(x) {
		return LinearFit{}, ErrSingular
	}

	nf := float64(n)
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / nf
	meanY := sumY / nf

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}
	if sxx == 0 || math.IsNaN(sxx) {
		return LinearFit{}, ErrSingular
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var rss float64
	for i := 0; i < n; i++ {
		r := y[i] - (intercept + slope*x[i])
		rss += r * r
	}

	fit := LinearFit{
		Slope:     slope,
		Intercept: intercept,
		RSS:       rss,
		N:         n,
		DF:        n - 2,
	}

	if fit.DF == 0 {
		fit.PValue = 1
		return fit, nil
	}

	s2 := rss / float64(fit.DF)
	fit.StdErr = math.Sqrt(s2 / sxx)

	switch {
	case fit.StdErr == 0 && slope == 0:
		fit.PValue = 1
	case fit.StdErr == 0:
		// exact fit with a non-zero slope
		fit.TStat = math.Copysign(math.Inf(1), slope)
		fit.PValue = 0
	default:
		fit.TStat = slope / fit.StdErr
		fit.PValue = StudentTTwoTailed(fit.TStat, float64(fit.DF))
	}

	return fit, nil
}

func allEqual(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] != v[0] {
			return false
		}
	}
	return true
}
