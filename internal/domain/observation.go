package domain

import (
	"math"
	"time"
)

// SalesObservation is one historical (price, units) record for a SKU.
// Only SkuID, Price and UnitsSold feed the estimator; the remaining
// fields are carried for segmentation, market and inventory reports.
type SalesObservation struct {
	SkuID     string  // product identifier, non-empty
	Price     float64 // unit price, must be > 0
	UnitsSold int64   // units sold, must be >= 0

	Date            time.Time // zero when the source has no date column
	ProductName     string
	Category        string
	Revenue         *float64 // nullable
	Cost            *float64 // nullable
	InventoryOnHand *int64   // nullable
}

// Valid reports whether the record can enter any aggregate: a finite
// positive price and non-negative units.
func (o *SalesObservation) Valid() bool {
	return o != nil && o.Price > 0 && !math.IsInf(o.Price, 0) && o.UnitsSold >= 0
}

// ObservationRevenue returns price x units for the observation.
func (o *SalesObservation) ObservationRevenue() float64 {
	return o.Price * float64(o.UnitsSold)
}

// CompetitorPrice is one competitor price sample for a SKU.
type CompetitorPrice struct {
	SkuID           string
	CompetitorName  string
	CompetitorPrice float64
	Date            time.Time
}
