package domain

// DefaultPriceChanges is the default set of simulated price-change fractions.
var DefaultPriceChanges = []float64{0.05, 0.10, -0.05, -0.10}

// SimulationScenario is one projected (SKU, price change) outcome.
// Corresponds to the simulation table (revenue_simulation.csv).
type SimulationScenario struct {
	SkuID            string  `json:"sku_id"`
	PriceChange      float64 `json:"price_change"`       // signed fraction, e.g. 0.10
	PriceChangeLabel string  `json:"price_change_label"` // e.g. "10%", "-5%"
	ScenarioIndex    int     `json:"scenario_index"`     // position in the configured price-change list

	PredictedUnits   int64   `json:"predicted_units"`
	NewPrice         float64 `json:"new_price"`
	PredictedRevenue float64 `json:"predicted_revenue"` // 2-decimal
	RevenueDiff      float64 `json:"revenue_diff"`      // 2-decimal, predicted_revenue - current_revenue
}
