package domain

// Classification labels for elasticity results.
const (
	ClassificationElastic   = "Elastic"
	ClassificationInelastic = "Inelastic"
)

// ElasticThreshold is the slope below which demand is classified Elastic.
const ElasticThreshold = -1.0

// SkuElasticityResult is the fitted log-log slope for one SKU.
// Corresponds to the elasticity table (sku_elasticity.csv).
type SkuElasticityResult struct {
	SkuID          string  `json:"sku_id"`
	Elasticity     float64 `json:"elasticity"`     // raw slope, unrounded
	PValue         float64 `json:"p_value"`        // two-tailed, in [0, 1]
	Classification string  `json:"classification"` // ClassificationElastic | ClassificationInelastic

	// Fit diagnostics
	Intercept    float64 `json:"intercept"`
	StdErr       float64 `json:"std_err"`
	Observations int     `json:"observations"` // points used in the fit
}

// IsElastic reports whether the result is classified Elastic.
func (r *SkuElasticityResult) IsElastic() bool {
	return r.Classification == ClassificationElastic
}

// Classify maps an elasticity onto its label. The comparison is strict:
// exactly -1 is Inelastic.
func Classify(elasticity float64) string {
	if elasticity < ElasticThreshold {
		return ClassificationElastic
	}
	return ClassificationInelastic
}
