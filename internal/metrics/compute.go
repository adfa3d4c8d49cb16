package metrics

import (
	"math"
	"sort"

	"price-elasticity-lab/internal/domain"
)

// SkuPartition is the immutable observation slice of one SKU.
type SkuPartition struct {
	SkuID        string
	Observations []*domain.SalesObservation
}

// Partition groups observations by sku_id. Partitions are ordered by
// sku_id ASC; observations keep their input order within a partition.
func Partition(observations []*domain.SalesObservation) []SkuPartition {
	index := make(map[string]int)
	var parts []SkuPartition

	for _, o := range observations {
		if o == nil {
			continue
		}
		i, ok := index[o.SkuID]
		if !ok {
			i = len(parts)
			index[o.SkuID] = i
			parts = append(parts, SkuPartition{SkuID: o.SkuID})
		}
		parts[i].Observations = append(parts[i].Observations, o)
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].SkuID < parts[j].SkuID
	})
	return parts
}

// ComputeAggregate derives current units, revenue and mean price for a SKU.
// Observations are summed in (price, units) order so the float totals do
// not depend on input order.
func ComputeAggregate(skuID string, observations []*domain.SalesObservation) domain.SkuAggregateMetrics {
	agg := domain.SkuAggregateMetrics{SkuID: skuID, Observations: len(observations)}
	if len(observations) == 0 {
		return agg
	}

	sorted := make([]*domain.SalesObservation, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].UnitsSold < sorted[j].UnitsSold
	})

	var priceSum float64
	for _, o := range sorted {
		agg.CurrentUnits += o.UnitsSold
		agg.CurrentRevenue += o.ObservationRevenue()
		priceSum += o.Price
	}
	agg.AvgPrice = priceSum / float64(len(sorted))

	return agg
}

// ReportableObservations keeps the observations of SKUs whose records are
// all valid and whose aggregate revenue and mean price are finite, in input
// order. A SKU rejected here is the same SKU the estimator rejects as
// invalid, so supplementary tables never see corrupt input.
func ReportableObservations(observations []*domain.SalesObservation) []*domain.SalesObservation {
	out := make([]*domain.SalesObservation, 0, len(observations))
	for _, p := range Partition(observations) {
		ok := true
		for _, o := range p.Observations {
			if !o.Valid() {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		agg := ComputeAggregate(p.SkuID, p.Observations)
		if !isFinite(agg.CurrentRevenue) || !isFinite(agg.AvgPrice) {
			continue
		}
		out = append(out, p.Observations...)
	}
	if len(out) == len(observations) {
		return observations
	}
	// restore input order across SKUs
	keep := make(map[*domain.SalesObservation]struct{}, len(out))
	for _, o := range out {
		keep[o] = struct{}{}
	}
	ordered := make([]*domain.SalesObservation, 0, len(out))
	for _, o := range observations {
		if _, ok := keep[o]; ok {
			ordered = append(ordered, o)
		}
	}
	return ordered
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// computeMean returns the arithmetic mean, 0 for an empty slice.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
