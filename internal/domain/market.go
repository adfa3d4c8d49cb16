package domain

// Competitor positioning labels.
const (
	PositionPremium  = "Premium"
	PositionDiscount = "Discount"
	PositionParity   = "Market Parity"
)

// Inventory risk labels.
const (
	RiskHighStockout   = "High Stockout Risk"
	RiskMediumStockout = "Medium Stockout Risk"
	RiskOverstock      = "Overstock Risk"
	RiskHealthy        = "Healthy Stock"
)

// CompetitorGap compares our mean price to one competitor sample.
type CompetitorGap struct {
	SkuID           string
	CompetitorName  string
	OurPrice        float64
	CompetitorPrice float64
	GapPct          float64
	Position        string
}

// InventoryCover is the days-of-cover estimate for a SKU.
type InventoryCover struct {
	SkuID           string
	InventoryOnHand int64
	AvgDailySales   float64
	DaysOfCover     *float64 // nil when demand is zero
	Risk            string
}
