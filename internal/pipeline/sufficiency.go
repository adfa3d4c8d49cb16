package pipeline

import (
	"fmt"
	"sort"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/metrics"
	"price-elasticity-lab/internal/reporting"
)

// Sufficiency thresholds.
const (
	MinFittableShare     = 0.80 // share of SKUs with >= 2 distinct prices
	MinPriceVariationPct = 1.0  // median (max-min)/min price spread per SKU, percent
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks. Checks are informational: a
// failing check never blocks the run, it is surfaced in the report.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates that the input can support per-SKU fits.
type SufficiencyChecker struct {
	minObservations int
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(minObservations int) *SufficiencyChecker {
	if minObservations < 2 {
		minObservations = 2
	}
	return &SufficiencyChecker{minObservations: minObservations}
}

// Check performs all sufficiency checks.
func (c *SufficiencyChecker) Check(observations []*domain.SalesObservation) *SufficiencyResult {
	result := &SufficiencyResult{AllPass: true, Errors: []string{}}
	parts := metrics.Partition(observations)

	add := func(check SufficiencyCheck, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	add(c.checkFittableShare(parts), nil)
	add(c.checkPriceVariation(parts), nil)
	add(c.checkInvalidRows(observations))
	add(c.checkDuplicateDays(parts))

	return result
}

// checkFittableShare: SKUs with enough rows and >= 2 distinct prices.
func (c *SufficiencyChecker) checkFittableShare(parts []metrics.SkuPartition) SufficiencyCheck {
	fittable := 0
	for _, p := range parts {
		if len(p.Observations) >= c.minObservations && distinctPrices(p.Observations) >= 2 {
			fittable++
		}
	}
	share := 0.0
	if len(parts) > 0 {
		share = float64(fittable) / float64(len(parts))
	}
	return SufficiencyCheck{
		Name:      "Fittable SKUs",
		Threshold: fmt.Sprintf(">= %.0f%%", MinFittableShare*100),
		Actual:    fmt.Sprintf("%.1f%% (%d/%d)", share*100, fittable, len(parts)),
		Pass:      len(parts) > 0 && share >= MinFittableShare,
	}
}

// checkPriceVariation: median per-SKU price spread.
func (c *SufficiencyChecker) checkPriceVariation(parts []metrics.SkuPartition) SufficiencyCheck {
	var spreads []float64
	for _, p := range parts {
		lo, hi := 0.0, 0.0
		for i, o := range p.Observations {
			if i == 0 || o.Price < lo {
				lo = o.Price
			}
			if i == 0 || o.Price > hi {
				hi = o.Price
			}
		}
		if lo > 0 {
			spreads = append(spreads, (hi-lo)/lo*100)
		}
	}
	median := 0.0
	if len(spreads) > 0 {
		sort.Float64s(spreads)
		mid := len(spreads) / 2
		median = spreads[mid]
		if len(spreads)%2 == 0 {
			median = (spreads[mid-1] + spreads[mid]) / 2
		}
	}
	return SufficiencyCheck{
		Name:      "Median price spread",
		Threshold: fmt.Sprintf(">= %.1f%%", MinPriceVariationPct),
		Actual:    fmt.Sprintf("%.2f%%", median),
		Pass:      median >= MinPriceVariationPct,
	}
}

// checkInvalidRows: rows with price <= 0 or negative units.
func (c *SufficiencyChecker) checkInvalidRows(observations []*domain.SalesObservation) (SufficiencyCheck, []string) {
	bad := make(map[string]int)
	for _, o := range observations {
		if o != nil && !o.Valid() {
			bad[o.SkuID]++
		}
	}
	skus := sortedKeys(bad)
	errs := make([]string, 0, len(skus))
	total := 0
	for _, sku := range skus {
		total += bad[sku]
		errs = append(errs, fmt.Sprintf("sku %s: %d invalid row(s)", sku, bad[sku]))
	}
	return SufficiencyCheck{
		Name:      "Invalid rows",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", total),
		Pass:      total == 0,
	}, errs
}

// checkDuplicateDays: more than one dated row per (sku, date).
func (c *SufficiencyChecker) checkDuplicateDays(parts []metrics.SkuPartition) (SufficiencyCheck, []string) {
	var errs []string
	for _, p := range parts {
		seen := make(map[string]int)
		for _, o := range p.Observations {
			if o.Date.IsZero() {
				continue
			}
			seen[o.Date.Format("2006-01-02")]++
		}
		for _, day := range sortedKeys(seen) {
			if seen[day] > 1 {
				errs = append(errs, fmt.Sprintf("sku %s: %d rows on %s", p.SkuID, seen[day], day))
			}
		}
	}
	return SufficiencyCheck{
		Name:      "Duplicate SKU days",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}

func distinctPrices(observations []*domain.SalesObservation) int {
	seen := make(map[float64]struct{})
	for _, o := range observations {
		seen[o.Price] = struct{}{}
	}
	return len(seen)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// convertToDataQuality maps a sufficiency result onto the report section.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	dq := reporting.DataQualitySection{
		AllChecksPassed: result.AllPass,
		IntegrityErrors: result.Errors,
	}
	for _, c := range result.Checks {
		dq.SufficiencyChecks = append(dq.SufficiencyChecks, reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return dq
}
