package domain

import "time"

// RunSummary describes one completed estimation + simulation run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	DataVersion string    `json:"data_version"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	SkusTotal          int `json:"skus_total"`
	SkusEstimated      int `json:"skus_estimated"`
	SkusSkipped        int `json:"skus_skipped"`
	ScenariosSimulated int `json:"scenarios_simulated"`
	ScenariosSkipped   int `json:"scenarios_skipped"`

	ElasticSkus       int     `json:"elastic_skus"`
	AverageElasticity float64 `json:"average_elasticity"`

	PriceChanges []float64    `json:"price_changes"`
	Failures     []SkuFailure `json:"failures"`
}

// DurationMs returns the run wall time in milliseconds.
func (s *RunSummary) DurationMs() int64 {
	return s.FinishedAt.Sub(s.StartedAt).Milliseconds()
}
