package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type sheet struct {
	name   string
	header []string
	rows   [][]string
}

func (r *Report) sheets() []sheet {
	out := []sheet{
		{"Elasticity", ElasticityHeader, ElasticityRows(r.Elasticity)},
		{"Simulation", SimulationHeader, SimulationRows(r.Scenarios)},
		{"Skipped", SkippedHeader, SkippedRows(r.Failures)},
	}
	if len(r.Segments) > 0 {
		out = append(out, sheet{"Segmentation", SegmentationHeader, SegmentationRows(r.Segments)})
	}
	if r.Competitor != nil {
		out = append(out, sheet{"Competitors", CompetitorHeader, CompetitorRows(r.Competitor.Gaps)})
	}
	if r.HasInventory() {
		out = append(out, sheet{"Inventory", InventoryHeader, InventoryRows(r.Inventory)})
	}
	return out
}

// WriteXLSX writes the report tables as a workbook, one sheet per table.
// Cells hold the same formatted strings as the CSV artifacts.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range r.sheets() {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheetRow(f, s.name, 1, s.header); err != nil {
			return err
		}
		for j, row := range s.rows {
			if err := writeSheetRow(f, s.name, j+2, row); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheetName string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheetName, rowNum, err)
	}
	return nil
}
