package domain

// SkuAggregateMetrics holds per-SKU totals derived from observations.
type SkuAggregateMetrics struct {
	SkuID          string
	CurrentUnits   int64   // sum of units_sold
	CurrentRevenue float64 // sum of price * units_sold
	AvgPrice       float64 // mean price over observations
	Observations   int
}
