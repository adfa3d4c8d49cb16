package reporting

import (
	"fmt"
	"strings"
	"time"

	"price-elasticity-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Summary

	// Header
	sb.WriteString("# Price Elasticity Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Data version: %s\n\n", s.RunID, s.DataVersion))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| SKUs | %d |\n", s.SkusTotal))
	sb.WriteString(fmt.Sprintf("| SKUs Estimated | %d |\n", s.SkusEstimated))
	sb.WriteString(fmt.Sprintf("| SKUs Skipped | %d |\n", s.SkusSkipped))
	sb.WriteString(fmt.Sprintf("| Elastic SKUs | %d |\n", s.ElasticSkus))
	sb.WriteString(fmt.Sprintf("| Average Elasticity | %.2f |\n", s.AverageElasticity))
	sb.WriteString(fmt.Sprintf("| Scenarios Simulated | %d |\n", s.ScenariosSimulated))
	sb.WriteString(fmt.Sprintf("| Scenarios Skipped | %d |\n", s.ScenariosSkipped))
	sb.WriteString(fmt.Sprintf("| Duration (ms) | %d |\n", s.DurationMs()))
	sb.WriteString("\n")

	// Data Quality
	if len(r.DataQuality.SufficiencyChecks) > 0 || len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("## Data Quality\n\n")
		if len(r.DataQuality.SufficiencyChecks) > 0 {
			sb.WriteString("| Check | Threshold | Actual | Status |\n")
			sb.WriteString("|-------|-----------|--------|--------|\n")
			for _, check := range r.DataQuality.SufficiencyChecks {
				status := "FAIL"
				if check.Pass {
					status = "PASS"
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
					check.Name, check.Threshold, check.Actual, status))
			}
			sb.WriteString("\n")
			if r.DataQuality.AllChecksPassed {
				sb.WriteString("**All checks passed.**\n\n")
			} else {
				sb.WriteString("**Some checks failed.** Treat estimates for affected SKUs with caution.\n\n")
			}
		}
		if len(r.DataQuality.IntegrityErrors) > 0 {
			sb.WriteString("### Integrity Errors\n\n")
			for _, e := range r.DataQuality.IntegrityErrors {
				sb.WriteString(fmt.Sprintf("- %s\n", e))
			}
			sb.WriteString("\n")
		}
	}

	// Scenario Totals
	sb.WriteString("## Revenue Impact by Price Change\n\n")
	if len(r.ScenarioTotals) > 0 {
		sb.WriteString("| Price Change | SKUs | Revenue Gainers | Total Revenue Diff |\n")
		sb.WriteString("|--------------|------|-----------------|--------------------|\n")
		for _, t := range r.ScenarioTotals {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s |\n", t.Label, t.Skus, t.Gainers, money(t.RevenueDiff)))
		}
	} else {
		sb.WriteString("No scenarios configured.\n")
	}
	sb.WriteString("\n")

	// Best scenario per SKU
	sb.WriteString("## Best Scenario per SKU\n\n")
	if len(r.BestScenarios) > 0 {
		byChange := make(map[string]int)
		for _, b := range r.BestScenarios {
			byChange[b.PriceChangeLabel]++
		}
		for _, t := range r.ScenarioTotals {
			if n := byChange[t.Label]; n > 0 {
				sb.WriteString(fmt.Sprintf("- %s maximizes revenue for %d SKU(s)\n", t.Label, n))
			}
		}
		sb.WriteString("\n")
		sb.WriteString("| SKU | Price Change | Predicted Units | Predicted Revenue | Revenue Diff |\n")
		sb.WriteString("|-----|--------------|-----------------|-------------------|--------------|\n")
		for _, b := range r.BestScenarios {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
				b.SkuID, b.PriceChangeLabel, b.PredictedUnits, money(b.PredictedRevenue), money(b.RevenueDiff)))
		}
	} else {
		sb.WriteString("No simulated scenarios available.\n")
	}
	sb.WriteString("\n")

	// Skipped
	sb.WriteString("## Skipped SKUs and Scenarios\n\n")
	if len(r.Failures) > 0 {
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s\n", f.String()))
		}
	} else {
		sb.WriteString("None.\n")
	}
	sb.WriteString("\n")

	// Segmentation
	if len(r.Segments) > 0 {
		sb.WriteString("## SKU Segmentation\n\n")
		sb.WriteString("| Segment | SKUs | Revenue |\n")
		sb.WriteString("|---------|------|---------|\n")
		for _, c := range r.SegmentCounts {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", c.Segment, c.Skus, money(c.Revenue)))
		}
		sb.WriteString("\n")

		if len(r.PriceBuckets) > 0 {
			sb.WriteString("### Price Buckets\n\n")
			sb.WriteString("| Bucket | Price Range | SKUs | Units | Revenue |\n")
			sb.WriteString("|--------|-------------|------|-------|---------|\n")
			for _, b := range r.PriceBuckets {
				sb.WriteString(fmt.Sprintf("| %s | %s - %s | %d | %d | %s |\n",
					b.Bucket, money(b.MinPrice), money(b.MaxPrice), b.Skus, b.Units, money(b.Revenue)))
			}
			sb.WriteString("\n")
		}
	}

	// Competitor
	if r.Competitor != nil {
		sb.WriteString("## Competitor Positioning\n\n")
		sb.WriteString("| Position | Samples |\n")
		sb.WriteString("|----------|---------|\n")
		for _, p := range []string{domain.PositionPremium, domain.PositionParity, domain.PositionDiscount} {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", p, r.Competitor.PositionCounts[p]))
		}
		sb.WriteString("\n")
		if r.Competitor.InvalidPrices > 0 || r.Competitor.UnknownSkus > 0 {
			sb.WriteString(fmt.Sprintf("Excluded samples: %d non-positive prices, %d unknown SKUs.\n\n",
				r.Competitor.InvalidPrices, r.Competitor.UnknownSkus))
		}
	}

	// Inventory
	if r.HasInventory() {
		sb.WriteString("## Inventory Sufficiency\n\n")
		counts := make(map[string]int)
		for _, c := range r.Inventory {
			counts[c.Risk]++
		}
		sb.WriteString("| Risk | SKUs |\n")
		sb.WriteString("|------|------|\n")
		for _, risk := range []string{domain.RiskHighStockout, domain.RiskMediumStockout, domain.RiskHealthy, domain.RiskOverstock} {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", risk, counts[risk]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
