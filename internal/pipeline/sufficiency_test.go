package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-elasticity-lab/internal/domain"
)

func TestSufficiencyChecker_AllPass(t *testing.T) {
	result := NewSufficiencyChecker(2).Check(testObservations()[:10])

	require.Len(t, result.Checks, 4)
	assert.True(t, result.AllPass, "%+v", result.Checks)
	assert.Empty(t, result.Errors)
}

func TestSufficiencyChecker_Failures(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := []*domain.SalesObservation{
		{SkuID: "A", Price: 10, UnitsSold: 1, Date: day},
		{SkuID: "A", Price: 10, UnitsSold: 2, Date: day},
		{SkuID: "B", Price: 0, UnitsSold: 1},
		{SkuID: "B", Price: 5, UnitsSold: -1},
	}
	result := NewSufficiencyChecker(2).Check(obs)
	assert.False(t, result.AllPass)

	byName := make(map[string]SufficiencyCheck)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}
	assert.False(t, byName["Fittable SKUs"].Pass)
	assert.Equal(t, "50.0% (1/2)", byName["Fittable SKUs"].Actual)
	assert.False(t, byName["Invalid rows"].Pass)
	assert.Equal(t, "2", byName["Invalid rows"].Actual)
	assert.False(t, byName["Duplicate SKU days"].Pass)
	assert.False(t, byName["Median price spread"].Pass)

	assert.Contains(t, result.Errors, "sku B: 2 invalid row(s)")
	assert.Contains(t, result.Errors, "sku A: 2 rows on 2025-01-01")
}

func TestConvertToDataQuality(t *testing.T) {
	dq := convertToDataQuality(&SufficiencyResult{
		Checks:  []SufficiencyCheck{{Name: "x", Threshold: ">= 1", Actual: "0", Pass: false}},
		AllPass: false,
		Errors:  []string{"boom"},
	})
	require.Len(t, dq.SufficiencyChecks, 1)
	assert.False(t, dq.AllChecksPassed)
	assert.Equal(t, []string{"boom"}, dq.IntegrityErrors)
}
