// Package main writes a reproducible synthetic dataset: daily sales per SKU
// with known elasticities, and weekly competitor prices.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/synth"
)

func main() {
	outputDir := flag.String("output-dir", "data", "Directory for sales_data.csv and competitor_data.csv")
	seed := flag.Uint64("seed", 42, "Random seed")
	skus := flag.Int("skus-per-category", 20, "SKUs per category")
	days := flag.Int("days", 365, "Days of history")
	start := flag.String("start", "2025-01-01", "First date (YYYY-MM-DD)")
	verbose := flag.Bool("verbose", false, "Print true elasticities")
	flag.Parse()

	logger, err := logging.New("development", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		logger.Fatal("invalid -start", zap.Error(err))
	}

	ds := synth.Generate(synth.Options{
		Seed:            *seed,
		SkusPerCategory: *skus,
		Days:            *days,
		StartDate:       startDate,
	})

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal("create output dir", zap.Error(err))
	}
	salesPath := filepath.Join(*outputDir, "sales_data.csv")
	if err := writeFile(salesPath, func(f *os.File) error { return synth.WriteSalesCSV(f, ds.Sales) }); err != nil {
		logger.Fatal("write sales", zap.Error(err))
	}
	competitorPath := filepath.Join(*outputDir, "competitor_data.csv")
	if err := writeFile(competitorPath, func(f *os.File) error { return synth.WriteCompetitorCSV(f, ds.Competitors) }); err != nil {
		logger.Fatal("write competitors", zap.Error(err))
	}

	logger.Info("dataset written",
		zap.Int("products", len(ds.Products)),
		zap.Int("sales_rows", len(ds.Sales)),
		zap.Int("competitor_rows", len(ds.Competitors)),
		zap.String("sales", salesPath),
		zap.String("competitors", competitorPath))

	if *verbose {
		truth := ds.TrueElasticities()
		ids := make([]string, 0, len(truth))
		for id := range truth {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%s\t%.4f\n", id, truth[id])
		}
	}
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
