package reporting

import (
	"time"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/segmentation"
)

// Report represents one run's pricing report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Summary     domain.RunSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Core tables (sorted by sku_id; scenarios in configured order within a SKU)
	Elasticity []*domain.SkuElasticityResult
	Scenarios  []*domain.SimulationScenario
	Failures   []domain.SkuFailure

	// Simulation summaries
	ScenarioTotals []ScenarioTotalRow           // one row per configured price change
	BestScenarios  []*domain.SimulationScenario // highest revenue_diff per SKU

	// Segmentation (empty when observations are not available)
	Segments      []domain.SkuSegment
	SegmentCounts []segmentation.SegmentCounts
	PriceBuckets  []segmentation.PriceBucket

	// Market and inventory (nil when the inputs are absent)
	Competitor *CompetitorSection
	Inventory  []domain.InventoryCover
}

// ScenarioTotalRow sums one price change across SKUs.
type ScenarioTotalRow struct {
	Label       string
	PriceChange float64
	Skus        int
	Gainers     int // SKUs with revenue_diff > 0
	RevenueDiff float64
}

// CompetitorSection holds competitor gap rows and exclusion counts.
type CompetitorSection struct {
	Gaps           []domain.CompetitorGap
	PositionCounts map[string]int
	InvalidPrices  int
	UnknownSkus    int
}

// HasInventory reports whether any SKU carried inventory readings.
func (r *Report) HasInventory() bool {
	return len(r.Inventory) > 0
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}
