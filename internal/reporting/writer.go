package reporting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names.
const (
	ElasticityFile   = "sku_elasticity.csv"
	SimulationFile   = "revenue_simulation.csv"
	SkippedFile      = "skipped_skus.csv"
	SegmentationFile = "sku_segmentation.csv"
	CompetitorFile   = "competitor_analysis.csv"
	InventoryFile    = "inventory_sufficiency.csv"
	MarkdownFile     = "REPORT.md"
	WorkbookFile     = "pricing_results.xlsx"
)

// WriteOptions controls which optional artifacts are written.
type WriteOptions struct {
	XLSX bool
}

// WriteArtifacts writes the report files into dir and returns their paths
// in write order. Optional tables are written only when populated.
func WriteArtifacts(dir string, r *Report, opts WriteOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name    string
		header  []string
		rows    [][]string
		enabled bool
	}{
		{ElasticityFile, ElasticityHeader, ElasticityRows(r.Elasticity), true},
		{SimulationFile, SimulationHeader, SimulationRows(r.Scenarios), true},
		{SkippedFile, SkippedHeader, SkippedRows(r.Failures), true},
		{SegmentationFile, SegmentationHeader, SegmentationRows(r.Segments), len(r.Segments) > 0},
		{CompetitorFile, CompetitorHeader, competitorRows(r), r.Competitor != nil},
		{InventoryFile, InventoryHeader, InventoryRows(r.Inventory), r.HasInventory()},
	}

	var written []string
	for _, f := range files {
		if !f.enabled {
			continue
		}
		path := filepath.Join(dir, f.name)
		if err := writeCSVFile(path, f.header, f.rows); err != nil {
			return written, fmt.Errorf("write %s: %w", f.name, err)
		}
		written = append(written, path)
	}

	mdPath := filepath.Join(dir, MarkdownFile)
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return written, fmt.Errorf("write %s: %w", MarkdownFile, err)
	}
	written = append(written, mdPath)

	if opts.XLSX {
		var buf bytes.Buffer
		if err := WriteXLSX(&buf, r); err != nil {
			return written, err
		}
		path := filepath.Join(dir, WorkbookFile)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", WorkbookFile, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func competitorRows(r *Report) [][]string {
	if r.Competitor == nil {
		return nil
	}
	return CompetitorRows(r.Competitor.Gaps)
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, header, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
