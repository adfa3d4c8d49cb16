// Package market compares our prices with competitor samples and checks
// inventory cover against recent demand.
package market

import (
	"math"
	"sort"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/metrics"
)

// Classification thresholds.
const (
	PremiumGapPct  = 5.0
	DiscountGapPct = -5.0

	HighRiskDays   = 7.0
	MediumRiskDays = 14.0
	OverstockDays  = 60.0
)

// PositionOf classifies a price gap percentage.
func PositionOf(gapPct float64) string {
	switch {
	case gapPct > PremiumGapPct:
		return domain.PositionPremium
	case gapPct < DiscountGapPct:
		return domain.PositionDiscount
	default:
		return domain.PositionParity
	}
}

// GapReport is the result of CompareCompetitors.
type GapReport struct {
	Gaps []domain.CompetitorGap

	// Samples excluded from Gaps.
	InvalidPrices int // competitor_price <= 0
	UnknownSkus   int // no sales observations for the SKU
}

// PositionCounts tallies gaps per position label.
func (r *GapReport) PositionCounts() map[string]int {
	out := map[string]int{
		domain.PositionPremium:  0,
		domain.PositionParity:   0,
		domain.PositionDiscount: 0,
	}
	for _, g := range r.Gaps {
		out[g.Position]++
	}
	return out
}

// CompareCompetitors computes gap_pct = (ours - theirs) / theirs * 100 for
// every competitor sample, where ours is the SKU's mean observed price.
// Gaps are ordered by sku_id, date, competitor name. SKUs with invalid
// observations count as unknown; non-finite or non-positive competitor
// prices count as invalid.
func CompareCompetitors(observations []*domain.SalesObservation, competitors []*domain.CompetitorPrice) *GapReport {
	ours := make(map[string]float64)
	for _, p := range metrics.Partition(metrics.ReportableObservations(observations)) {
		ours[p.SkuID] = metrics.ComputeAggregate(p.SkuID, p.Observations).AvgPrice
	}

	samples := make([]*domain.CompetitorPrice, 0, len(competitors))
	for _, c := range competitors {
		if c != nil {
			samples = append(samples, c)
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.SkuID != b.SkuID {
			return a.SkuID < b.SkuID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.CompetitorName < b.CompetitorName
	})

	report := &GapReport{}
	for _, c := range samples {
		if !(c.CompetitorPrice > 0) || math.IsInf(c.CompetitorPrice, 0) {
			report.InvalidPrices++
			continue
		}
		our, ok := ours[c.SkuID]
		if !ok {
			report.UnknownSkus++
			continue
		}
		gap := (our - c.CompetitorPrice) / c.CompetitorPrice * 100
		report.Gaps = append(report.Gaps, domain.CompetitorGap{
			SkuID:           c.SkuID,
			CompetitorName:  c.CompetitorName,
			OurPrice:        our,
			CompetitorPrice: c.CompetitorPrice,
			GapPct:          gap,
			Position:        PositionOf(gap),
		})
	}
	return report
}

// RiskOf classifies days of cover. A nil cover means zero demand: any
// stock on hand is then Overstock.
func RiskOf(daysOfCover *float64, inventoryOnHand int64) string {
	if daysOfCover == nil {
		if inventoryOnHand > 0 {
			return domain.RiskOverstock
		}
		return domain.RiskHealthy
	}
	d := *daysOfCover
	switch {
	case d < HighRiskDays:
		return domain.RiskHighStockout
	case d < MediumRiskDays:
		return domain.RiskMediumStockout
	case d > OverstockDays:
		return domain.RiskOverstock
	default:
		return domain.RiskHealthy
	}
}

// InventorySufficiency computes days of cover per SKU as the latest
// inventory_on_hand (by date, then input order) divided by mean daily
// units sold. SKUs without any inventory reading, or with invalid
// observations, are omitted.
// Output is ordered by sku_id.
func InventorySufficiency(observations []*domain.SalesObservation) []domain.InventoryCover {
	var out []domain.InventoryCover

	for _, p := range metrics.Partition(metrics.ReportableObservations(observations)) {
		var latest *domain.SalesObservation
		var units int64
		for _, o := range p.Observations {
			units += o.UnitsSold
			if o.InventoryOnHand == nil {
				continue
			}
			if latest == nil || !o.Date.Before(latest.Date) {
				latest = o
			}
		}
		if latest == nil {
			continue
		}

		cover := domain.InventoryCover{
			SkuID:           p.SkuID,
			InventoryOnHand: *latest.InventoryOnHand,
			AvgDailySales:   float64(units) / float64(len(p.Observations)),
		}
		if cover.AvgDailySales > 0 {
			days := float64(cover.InventoryOnHand) / cover.AvgDailySales
			cover.DaysOfCover = &days
		}
		cover.Risk = RiskOf(cover.DaysOfCover, cover.InventoryOnHand)
		out = append(out, cover)
	}
	return out
}

// RiskCounts tallies SKUs per inventory risk label.
func RiskCounts(covers []domain.InventoryCover) map[string]int {
	out := map[string]int{
		domain.RiskHighStockout:   0,
		domain.RiskMediumStockout: 0,
		domain.RiskOverstock:      0,
		domain.RiskHealthy:        0,
	}
	for _, c := range covers {
		out[c.Risk]++
	}
	return out
}
