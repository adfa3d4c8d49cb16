package metrics

import (
	"math"
	"sort"

	"price-elasticity-lab/internal/domain"
)

// RunTotals are the counts that need the complete set of per-SKU results.
type RunTotals struct {
	SkusTotal          int
	SkusEstimated      int
	SkusSkipped        int
	ScenariosSimulated int
	ScenariosSkipped   int
	ElasticSkus        int
	AverageElasticity  float64
}

// ComputeTotals summarizes one run. Elasticities are averaged in sku_id
// order, so the mean is stable across runs on the same input.
func ComputeTotals(skusTotal int, results []*domain.SkuElasticityResult, scenarios []*domain.SimulationScenario, failures []domain.SkuFailure) RunTotals {
	totals := RunTotals{
		SkusTotal:          skusTotal,
		SkusEstimated:      len(results),
		ScenariosSimulated: len(scenarios),
	}

	sorted := make([]*domain.SkuElasticityResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SkuID < sorted[j].SkuID })

	values := make([]float64, 0, len(sorted))
	for _, r := range sorted {
		if r.IsElastic() {
			totals.ElasticSkus++
		}
		values = append(values, r.Elasticity)
	}
	totals.AverageElasticity = computeMean(values)

	skipped := make(map[string]struct{})
	for _, f := range failures {
		switch f.Stage {
		case domain.StageEstimate:
			skipped[f.SkuID] = struct{}{}
		case domain.StageSimulate:
			totals.ScenariosSkipped++
		}
	}
	totals.SkusSkipped = len(skipped)

	return totals
}

// Apply copies the totals onto a run summary.
func (t RunTotals) Apply(s *domain.RunSummary) {
	s.SkusTotal = t.SkusTotal
	s.SkusEstimated = t.SkusEstimated
	s.SkusSkipped = t.SkusSkipped
	s.ScenariosSimulated = t.ScenariosSimulated
	s.ScenariosSkipped = t.ScenariosSkipped
	s.ElasticSkus = t.ElasticSkus
	s.AverageElasticity = t.AverageElasticity
}

// BestScenarios returns, per SKU, the scenario with the highest revenue_diff.
// Ties keep the earlier configured scenario. Output is ordered by sku_id.
func BestScenarios(scenarios []*domain.SimulationScenario) []*domain.SimulationScenario {
	best := make(map[string]*domain.SimulationScenario)
	for _, s := range scenarios {
		cur, ok := best[s.SkuID]
		if !ok || s.RevenueDiff > cur.RevenueDiff ||
			(s.RevenueDiff == cur.RevenueDiff && s.ScenarioIndex < cur.ScenarioIndex) {
			best[s.SkuID] = s
		}
	}

	out := make([]*domain.SimulationScenario, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkuID < out[j].SkuID })
	return out
}

// TotalRevenueDiff sums revenue_diff per configured scenario index.
func TotalRevenueDiff(scenarios []*domain.SimulationScenario, scenarioCount int) []float64 {
	totals := make([]float64, scenarioCount)
	for _, s := range scenarios {
		if s.ScenarioIndex >= 0 && s.ScenarioIndex < scenarioCount {
			totals[s.ScenarioIndex] += s.RevenueDiff
		}
	}
	for i := range totals {
		totals[i] = math.Round(totals[i]*100) / 100
	}
	return totals
}
