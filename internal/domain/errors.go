package domain

import (
	"errors"
	"fmt"
)

// Per-SKU and per-scenario failure kinds.
var (
	// ErrInsufficientData is returned when a SKU has too few observations to fit.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateRegression is returned when log-price has zero variance.
	ErrDegenerateRegression = errors.New("degenerate regression")

	// ErrInvalidObservation is returned for non-positive prices or negative units.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrInvalidScenario is returned for a price change <= -1.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// Failure stages.
const (
	StageEstimate = "estimate"
	StageSimulate = "simulate"
)

// SkuFailure records why a SKU or a (SKU, scenario) pair was excluded from output.
type SkuFailure struct {
	SkuID    string `json:"sku_id"`
	Stage    string `json:"stage"`              // StageEstimate | StageSimulate
	Scenario string `json:"scenario,omitempty"` // price-change label, simulate stage only
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// NewSkuFailure builds a failure record from an error.
func NewSkuFailure(skuID, stage, scenario string, err error) SkuFailure {
	return SkuFailure{
		SkuID:    skuID,
		Stage:    stage,
		Scenario: scenario,
		Kind:     FailureKind(err),
		Reason:   err.Error(),
	}
}

// String formats the failure for logs and summaries.
func (f SkuFailure) String() string {
	if f.Scenario != "" {
		return fmt.Sprintf("sku %s [%s %s]: %s", f.SkuID, f.Stage, f.Scenario, f.Reason)
	}
	return fmt.Sprintf("sku %s [%s]: %s", f.SkuID, f.Stage, f.Reason)
}

// FailureKind maps an error onto its taxonomy name.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "InsufficientData"
	case errors.Is(err, ErrDegenerateRegression):
		return "DegenerateRegression"
	case errors.Is(err, ErrInvalidObservation):
		return "InvalidObservation"
	case errors.Is(err, ErrInvalidScenario):
		return "InvalidScenario"
	default:
		return "Unknown"
	}
}
