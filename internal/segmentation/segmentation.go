// Package segmentation ranks SKUs by revenue contribution.
package segmentation

import (
	"math"
	"sort"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/metrics"
)

// Pareto cut-offs on cumulative revenue share.
const (
	TopShare  = 0.20
	CoreShare = 0.80
)

// Price bucket labels.
const (
	BucketLow    = "Low"
	BucketMedium = "Medium"
	BucketHigh   = "High"
)

// SegmentOf maps a cumulative revenue share onto a Pareto segment.
func SegmentOf(cumShare float64) string {
	switch {
	case cumShare <= TopShare:
		return domain.SegmentTop
	case cumShare <= CoreShare:
		return domain.SegmentCore
	default:
		return domain.SegmentTail
	}
}

// Segment ranks SKUs by revenue (descending, ties by sku_id) and assigns
// Top / Core / Tail from the cumulative revenue share. When total revenue
// is zero every SKU is Tail. SKUs with invalid observations are left out.
func Segment(observations []*domain.SalesObservation) []domain.SkuSegment {
	parts := metrics.Partition(metrics.ReportableObservations(observations))
	segs := make([]domain.SkuSegment, 0, len(parts))

	for _, p := range parts {
		agg := metrics.ComputeAggregate(p.SkuID, p.Observations)
		seg := domain.SkuSegment{
			SkuID:        p.SkuID,
			TotalRevenue: agg.CurrentRevenue,
			TotalUnits:   agg.CurrentUnits,
			AvgPrice:     agg.AvgPrice,
		}
		// first non-empty descriptor in input order
		for _, o := range p.Observations {
			if seg.ProductName == "" {
				seg.ProductName = o.ProductName
			}
			if seg.Category == "" {
				seg.Category = o.Category
			}
		}
		segs = append(segs, seg)
	}

	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].TotalRevenue != segs[j].TotalRevenue {
			return segs[i].TotalRevenue > segs[j].TotalRevenue
		}
		return segs[i].SkuID < segs[j].SkuID
	})

	var total float64
	for _, s := range segs {
		total += s.TotalRevenue
	}

	var cum float64
	for i := range segs {
		if total <= 0 {
			segs[i].Segment = domain.SegmentTail
			continue
		}
		cum += segs[i].TotalRevenue
		segs[i].CumulativeShare = cum / total
		segs[i].Segment = SegmentOf(segs[i].CumulativeShare)
	}
	return segs
}

// SegmentCounts tallies SKUs and revenue per segment.
type SegmentCounts struct {
	Segment string
	Skus    int
	Revenue float64
}

// Summarize returns Top, Core, Tail counts in that order.
func Summarize(segs []domain.SkuSegment) []SegmentCounts {
	out := []SegmentCounts{
		{Segment: domain.SegmentTop},
		{Segment: domain.SegmentCore},
		{Segment: domain.SegmentTail},
	}
	for _, s := range segs {
		for i := range out {
			if out[i].Segment == s.Segment {
				out[i].Skus++
				out[i].Revenue += s.TotalRevenue
			}
		}
	}
	return out
}

// PriceBucket aggregates observations whose price falls in one tertile.
type PriceBucket struct {
	Bucket   string
	MinPrice float64 // exclusive, except for Low
	MaxPrice float64 // inclusive
	Skus     int     // distinct SKUs
	Revenue  float64
	Units    int64
}

// PriceBuckets splits observations into Low / Medium / High price
// tertiles. Edges are the 1/3 and 2/3 quantiles with linear interpolation;
// intervals are right-closed. SKUs with invalid observations are left out.
// Returns nil for no usable observations.
func PriceBuckets(observations []*domain.SalesObservation) []PriceBucket {
	observations = metrics.ReportableObservations(observations)
	prices := make([]float64, 0, len(observations))
	for _, o := range observations {
		if o.Valid() {
			prices = append(prices, o.Price)
		}
	}
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)

	edges := []float64{prices[0], quantile(prices, 1, 3), quantile(prices, 2, 3), prices[len(prices)-1]}
	buckets := []PriceBucket{
		{Bucket: BucketLow, MinPrice: edges[0], MaxPrice: edges[1]},
		{Bucket: BucketMedium, MinPrice: edges[1], MaxPrice: edges[2]},
		{Bucket: BucketHigh, MinPrice: edges[2], MaxPrice: edges[3]},
	}
	skus := make([]map[string]struct{}, len(buckets))
	for i := range skus {
		skus[i] = make(map[string]struct{})
	}

	for _, o := range observations {
		if !o.Valid() {
			continue
		}
		i := bucketIndex(o.Price, edges)
		buckets[i].Revenue += o.ObservationRevenue()
		buckets[i].Units += o.UnitsSold
		skus[i][o.SkuID] = struct{}{}
	}
	for i := range buckets {
		buckets[i].Skus = len(skus[i])
	}
	return buckets
}

func bucketIndex(price float64, edges []float64) int {
	switch {
	case price <= edges[1]:
		return 0
	case price <= edges[2]:
		return 1
	default:
		return 2
	}
}

// quantile returns the num/den quantile of sorted values, interpolating
// linearly between closest ranks.
func quantile(sorted []float64, num, den int) float64 {
	pos := float64(num*(len(sorted)-1)) / float64(den)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
