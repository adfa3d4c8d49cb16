package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"price-elasticity-lab/internal/config"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/pipeline"
	"price-elasticity-lab/internal/reporting"
	"price-elasticity-lab/internal/synth"
)

func writeDataset(t *testing.T, dir string) (salesPath, competitorPath string) {
	t.Helper()
	ds := synth.Generate(synth.Options{Seed: 7, Categories: []string{"Toys", "Books"}, SkusPerCategory: 3, Days: 120})

	salesPath = filepath.Join(dir, "sales_data.csv")
	f, err := os.Create(salesPath)
	require.NoError(t, err)
	require.NoError(t, synth.WriteSalesCSV(f, ds.Sales))
	require.NoError(t, f.Close())

	competitorPath = filepath.Join(dir, "competitor_data.csv")
	f, err = os.Create(competitorPath)
	require.NoError(t, err)
	require.NoError(t, synth.WriteCompetitorCSV(f, ds.Competitors))
	require.NoError(t, f.Close())
	return salesPath, competitorPath
}

func TestOpenStores_Memory(t *testing.T) {
	cfg := config.Default()
	stores, cleanup, err := OpenStores(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, stores.Observations)
	assert.NotNil(t, stores.Sink.Elasticity)
	assert.NotNil(t, stores.Sink.Simulation)
	assert.NotNil(t, stores.Sink.Runs)
	assert.Nil(t, stores.Sink.ElasticityCopy)
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()
	cfg.Input.ObservationsPath = "sales.csv"

	src, err := NewSource(cfg, &Stores{})
	require.NoError(t, err)
	assert.Equal(t, pipeline.FileSource{Path: "sales.csv"}, src)

	cfg.Input.Source = config.SourcePostgres
	_, err = NewSource(cfg, &Stores{})
	assert.Error(t, err)

	cfg.Input.Source = "ftp"
	_, err = NewSource(cfg, &Stores{})
	assert.Error(t, err)
}

func TestNewPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	salesPath, competitorPath := writeDataset(t, dir)

	cfg := config.Default()
	cfg.Input.ObservationsPath = salesPath
	cfg.Input.CompetitorPath = competitorPath
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.XLSX = true
	cfg.Workers = 3
	require.NoError(t, cfg.Validate())

	stores, cleanup, err := OpenStores(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	m := observability.NewMetrics("test", prometheus.NewRegistry())
	p, err := NewPipeline(cfg, stores, zaptest.NewLogger(t), m)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, res.Summary.SkusTotal)
	assert.Equal(t, 6, res.Summary.SkusEstimated)
	assert.Equal(t, 24, res.Summary.ScenariosSimulated)
	require.NotNil(t, res.Report.Competitor)
	assert.NotEmpty(t, res.Report.Competitor.Gaps)

	for _, f := range []string{reporting.CompetitorFile, reporting.InventoryFile, reporting.WorkbookFile} {
		_, err := os.Stat(filepath.Join(cfg.Output.Dir, f))
		assert.NoError(t, err, f)
	}

	latest, err := stores.Sink.Runs.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.Summary.RunID, latest.RunID)
}

func TestNewPipeline_BadPriceChanges(t *testing.T) {
	cfg := config.Default()
	cfg.Input.ObservationsPath = "sales.csv"
	cfg.Simulation.PriceChanges = []float64{0.1, 0.1}

	_, err := NewPipeline(cfg, &Stores{Sink: MemorySink()}, nil, nil)
	assert.Error(t, err)
}
