package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"price-elasticity-lab/internal/domain"
)

// Column headers of the CSV artifacts.
var (
	ElasticityHeader   = []string{"sku_id", "elasticity", "p_value", "is_elastic"}
	SimulationHeader   = []string{"sku_id", "price_change_pct", "predicted_units", "predicted_revenue", "revenue_diff"}
	SkippedHeader      = []string{"sku_id", "stage", "price_change_pct", "kind", "reason"}
	SegmentationHeader = []string{"sku_id", "product_name", "category", "revenue", "units_sold", "avg_price", "cum_revenue_pct", "sku_segment"}
	CompetitorHeader   = []string{"sku_id", "competitor_name", "our_avg_price", "competitor_price", "price_gap_pct", "price_position"}
	InventoryHeader    = []string{"sku_id", "inventory_on_hand", "avg_daily_sales", "inventory_cover_days", "inventory_risk"}
)

// fixed formats v with exactly places decimals, rounding half away from zero.
// Non-finite values render as NaN, +Inf or -Inf.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func coef(v float64) string  { return fixed(v, 4) }
func money(v float64) string { return fixed(v, 2) }

// WriteCSV writes header and rows to w and reports any write error.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func renderRows(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, header, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ElasticityRows formats the elasticity table: elasticity and p_value at
// 4 decimals.
func ElasticityRows(results []*domain.SkuElasticityResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.SkuID, coef(r.Elasticity), coef(r.PValue), r.Classification})
	}
	return rows
}

// RenderElasticityCSV renders sku_elasticity.csv.
func RenderElasticityCSV(results []*domain.SkuElasticityResult) (string, error) {
	return renderRows(ElasticityHeader, ElasticityRows(results))
}

// SimulationRows formats the simulation table: money at 2 decimals.
func SimulationRows(scenarios []*domain.SimulationScenario) [][]string {
	rows := make([][]string, 0, len(scenarios))
	for _, s := range scenarios {
		rows = append(rows, []string{
			s.SkuID,
			s.PriceChangeLabel,
			strconv.FormatInt(s.PredictedUnits, 10),
			money(s.PredictedRevenue),
			money(s.RevenueDiff),
		})
	}
	return rows
}

// RenderSimulationCSV renders revenue_simulation.csv.
func RenderSimulationCSV(scenarios []*domain.SimulationScenario) (string, error) {
	return renderRows(SimulationHeader, SimulationRows(scenarios))
}

// SkippedRows formats the error summary.
func SkippedRows(failures []domain.SkuFailure) [][]string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.SkuID, f.Stage, f.Scenario, f.Kind, f.Reason})
	}
	return rows
}

// RenderSkippedCSV renders skipped_skus.csv.
func RenderSkippedCSV(failures []domain.SkuFailure) (string, error) {
	return renderRows(SkippedHeader, SkippedRows(failures))
}

// SegmentationRows formats the Pareto table.
func SegmentationRows(segs []domain.SkuSegment) [][]string {
	rows := make([][]string, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, []string{
			s.SkuID,
			s.ProductName,
			s.Category,
			money(s.TotalRevenue),
			strconv.FormatInt(s.TotalUnits, 10),
			money(s.AvgPrice),
			coef(s.CumulativeShare),
			s.Segment,
		})
	}
	return rows
}

// RenderSegmentationCSV renders sku_segmentation.csv.
func RenderSegmentationCSV(segs []domain.SkuSegment) (string, error) {
	return renderRows(SegmentationHeader, SegmentationRows(segs))
}

// CompetitorRows formats competitor gaps.
func CompetitorRows(gaps []domain.CompetitorGap) [][]string {
	rows := make([][]string, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, []string{
			g.SkuID,
			g.CompetitorName,
			money(g.OurPrice),
			money(g.CompetitorPrice),
			money(g.GapPct),
			g.Position,
		})
	}
	return rows
}

// RenderCompetitorCSV renders competitor_analysis.csv.
func RenderCompetitorCSV(gaps []domain.CompetitorGap) (string, error) {
	return renderRows(CompetitorHeader, CompetitorRows(gaps))
}

// InventoryRows formats inventory cover; an undefined cover is left blank.
func InventoryRows(covers []domain.InventoryCover) [][]string {
	rows := make([][]string, 0, len(covers))
	for _, c := range covers {
		days := ""
		if c.DaysOfCover != nil {
			days = money(*c.DaysOfCover)
		}
		rows = append(rows, []string{
			c.SkuID,
			strconv.FormatInt(c.InventoryOnHand, 10),
			money(c.AvgDailySales),
			days,
			c.Risk,
		})
	}
	return rows
}

// RenderInventoryCSV renders inventory_sufficiency.csv.
func RenderInventoryCSV(covers []domain.InventoryCover) (string, error) {
	return renderRows(InventoryHeader, InventoryRows(covers))
}
