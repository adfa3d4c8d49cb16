package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/elasticity"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/orchestrator"
	"price-elasticity-lab/internal/pipeline"
	"price-elasticity-lab/internal/simulation"
	"price-elasticity-lab/internal/storage"
	"price-elasticity-lab/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func observations() []*domain.SalesObservation {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []*domain.SalesObservation
	for i, p := range []float64{10, 20, 40} {
		out = append(out,
			&domain.SalesObservation{SkuID: "SKU_A", Price: p, UnitsSold: int64(8000/(p*p)) - 1, Date: day.AddDate(0, 0, i)},
			&domain.SalesObservation{SkuID: "SKU_B", Price: 5, UnitsSold: 10, Date: day.AddDate(0, 0, i)},
		)
	}
	return out
}

type fixture struct {
	server  *Server
	sink    storage.ResultSink
	metrics *observability.Metrics
	router  *gin.Engine
}

func newFixture(t *testing.T, runner Runner) *fixture {
	t.Helper()
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	sink := storage.ResultSink{
		Elasticity: memory.NewElasticityResultStore(),
		Simulation: memory.NewSimulationResultStore(),
		Runs:       memory.NewRunSummaryStore(),
	}
	if runner == nil {
		sim, err := simulation.NewSimulator(domain.DefaultPriceChanges)
		require.NoError(t, err)
		orch, err := orchestrator.New(orchestrator.Options{
			Estimator: elasticity.NewEstimator(elasticity.DefaultOptions()),
			Simulator: sim,
			Workers:   2,
			Metrics:   m,
		})
		require.NoError(t, err)
		p, err := pipeline.New(pipeline.Options{
			Source:       pipeline.StaticSource(observations()),
			Orchestrator: orch,
			Sink:         sink,
			Metrics:      m,
		})
		require.NoError(t, err)
		n := 0
		runner = p.WithClock(func() time.Time { return fixedTime }).WithRunID(func() string {
			n++
			return "run-" + string(rune('0'+n))
		})
	}

	s, err := New(Options{Sink: sink, Runner: runner, Logger: zaptest.NewLogger(t), Metrics: m})
	require.NoError(t, err)
	return &fixture{server: s, sink: sink, metrics: m, router: s.Router()}
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestNew_RequiresRunnerAndSink(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Runner: blockingRunner{}})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestTriggerRunAndQuery(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/runs")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "run-1", created["run_id"])
	assert.EqualValues(t, 2, created["skus_total"])
	assert.EqualValues(t, 1, created["skus_estimated"])
	assert.EqualValues(t, 1, created["skus_skipped"])

	w = f.do(t, http.MethodGet, "/api/v1/runs/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run-1", decode[map[string]any](t, w)["run_id"])

	w = f.do(t, http.MethodGet, "/api/v1/runs/run-1/elasticity")
	require.Equal(t, http.StatusOK, w.Code)
	var el struct {
		RunID   string                        `json:"run_id"`
		Results []*domain.SkuElasticityResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &el))
	require.Len(t, el.Results, 1)
	assert.Equal(t, "SKU_A", el.Results[0].SkuID)
	assert.InDelta(t, -2.0, el.Results[0].Elasticity, 0.05)
	assert.Equal(t, domain.ClassificationElastic, el.Results[0].Classification)

	w = f.do(t, http.MethodGet, "/api/v1/runs/run-1/simulation?sku=SKU_A")
	require.Equal(t, http.StatusOK, w.Code)
	var sim struct {
		Scenarios []*domain.SimulationScenario `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.Len(t, sim.Scenarios, len(domain.DefaultPriceChanges))

	w = f.do(t, http.MethodGet, "/api/v1/runs/run-1/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Price Elasticity Report"))

	w = f.do(t, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[StatusResponse](t, w)
	assert.Equal(t, 1, status.Runs)
	assert.Equal(t, "run-1", status.LastRunID)
	assert.False(t, status.Running)
}

func TestListRuns(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/runs").Code)
	}

	w := f.do(t, http.MethodGet, "/api/v1/runs?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []RunResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Runs, 2)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/runs?limit=x").Code)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{
		"/api/v1/runs/latest",
		"/api/v1/runs/missing",
		"/api/v1/runs/missing/elasticity",
		"/api/v1/runs/missing/simulation",
		"/api/v1/runs/missing/report",
	} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path).Code)
		})
	}
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r blockingRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	close(r.started)
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &pipeline.Result{Summary: &domain.RunSummary{RunID: "slow", FinishedAt: fixedTime}}, nil
}

func TestTriggerRun_ConflictWhileInFlight(t *testing.T) {
	runner := blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, runner)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- f.do(t, http.MethodPost, "/api/v1/runs") }()
	<-runner.started

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunInFlight))
	w := f.do(t, http.MethodPost, "/api/v1/runs")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(runner.release)
	first := <-done
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RunInFlight))
}

func TestRunFeedBroadcastsSummary(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/runs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.server.Hub().Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WSClients))

	_, err = f.server.TriggerRun(context.Background())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.RunSummary
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 1, got.SkusEstimated)

	f.server.Hub().Close()
	assert.Equal(t, 0, f.server.Hub().Clients())
}
