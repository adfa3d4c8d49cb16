// Package synth generates reproducible synthetic sales and competitor
// data with known per-SKU elasticities.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"price-elasticity-lab/internal/domain"
)

// Defaults mirror a year of daily data for a mid-sized catalogue.
var (
	DefaultCategories  = []string{"Electronics", "Home & Kitchen", "Sports", "Books", "Toys"}
	DefaultCompetitors = []string{"MarketLeader", "DiscountPlace", "PremiumHub"}
	DefaultStartDate   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

const (
	DefaultSkusPerCategory = 20
	DefaultDays            = 365
	DefaultFirstSKU        = 1001

	fluctuationChance = 0.10
	weekendBoost      = 1.3
	restockBelow      = 200
)

// Options configures the generator. Zero fields take defaults.
type Options struct {
	Seed            uint64
	Categories      []string
	SkusPerCategory int
	Days            int
	StartDate       time.Time
	Competitors     []string
}

func (o *Options) applyDefaults() {
	if len(o.Categories) == 0 {
		o.Categories = DefaultCategories
	}
	if o.SkusPerCategory <= 0 {
		o.SkusPerCategory = DefaultSkusPerCategory
	}
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.StartDate.IsZero() {
		o.StartDate = DefaultStartDate
	}
	if o.Competitors == nil {
		o.Competitors = DefaultCompetitors
	}
}

// Product is one generated SKU with its hidden demand parameters.
type Product struct {
	SkuID          string
	ProductName    string
	Category       string
	BasePrice      float64
	Cost           float64
	TrueElasticity float64 // in [-3.0, -0.2)
}

// Dataset is the generator output.
type Dataset struct {
	Products    []Product
	Sales       []*domain.SalesObservation // ordered by product, then date
	Competitors []*domain.CompetitorPrice
}

// Generate builds a dataset. The same Options always yield the same data.
//
// Per SKU and day: on 10% of days the price moves uniformly within +/-10%
// of base; demand is U(10, 50) * (price/base)^e, boosted 1.3x on weekends,
// plus N(0, 2) noise and floored at 0. Inventory starts in [500, 2000) and
// restocks by [500, 1000) when it falls below 200. Every Monday each
// competitor quotes base * U(0.85, 1.15).
func Generate(opts Options) *Dataset {
	opts.applyDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	ds := &Dataset{}
	sku := DefaultFirstSKU
	for _, cat := range opts.Categories {
		for i := 0; i < opts.SkusPerCategory; i++ {
			base := uniform(rng, 10, 500)
			ds.Products = append(ds.Products, Product{
				SkuID:       fmt.Sprintf("SKU_%d", sku),
				ProductName: fmt.Sprintf("%s Product %d", cat, i+1),
				Category:    cat,
				BasePrice:   base,
				Cost:        base * uniform(rng, 0.5, 0.7),
			})
			sku++
		}
	}

	for i := range ds.Products {
		p := &ds.Products[i]
		p.TrueElasticity = uniform(rng, -3.0, -0.2)
		inventory := int64(500 + rng.IntN(1500))
		cost := round2(p.Cost)

		for d := 0; d < opts.Days; d++ {
			date := opts.StartDate.AddDate(0, 0, d)

			fluctuation := 1.0
			if rng.Float64() < fluctuationChance {
				fluctuation = uniform(rng, 0.9, 1.1)
			}
			price := p.BasePrice * fluctuation

			demand := uniform(rng, 10, 50) * math.Pow(price/p.BasePrice, p.TrueElasticity)
			boost := 1.0
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				boost = weekendBoost
			}
			units := int64(math.Max(0, demand*boost+rng.NormFloat64()*2))

			inventory -= units
			if inventory < restockBelow {
				inventory += int64(500 + rng.IntN(500))
			}

			revenue := round2(float64(units) * price)
			inv := inventory
			ds.Sales = append(ds.Sales, &domain.SalesObservation{
				SkuID:           p.SkuID,
				Price:           round2(price),
				UnitsSold:       units,
				Date:            date,
				ProductName:     p.ProductName,
				Category:        p.Category,
				Revenue:         &revenue,
				Cost:            &cost,
				InventoryOnHand: &inv,
			})

			if date.Weekday() == time.Monday {
				for _, comp := range opts.Competitors {
					ds.Competitors = append(ds.Competitors, &domain.CompetitorPrice{
						SkuID:           p.SkuID,
						CompetitorName:  comp,
						CompetitorPrice: round2(p.BasePrice * uniform(rng, 0.85, 1.15)),
						Date:            date,
					})
				}
			}
		}
	}
	return ds
}

// TrueElasticities maps sku_id to the elasticity used to generate it.
func (d *Dataset) TrueElasticities() map[string]float64 {
	out := make(map[string]float64, len(d.Products))
	for _, p := range d.Products {
		out[p.SkuID] = p.TrueElasticity
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
