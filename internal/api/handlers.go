package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/reporting"
	"price-elasticity-lab/internal/storage"
)

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status     string    `json:"status"`
	Uptime     string    `json:"uptime"`
	Running    bool      `json:"running"`
	Runs       int       `json:"runs"`
	FailedRuns int       `json:"failed_runs"`
	LastRun    time.Time `json:"last_run,omitempty"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	WSClients  int       `json:"ws_clients"`
}

// RunResponse is a run summary plus its wall time.
type RunResponse struct {
	*domain.RunSummary
	DurationMs int64 `json:"duration_ms"`
}

func newRunResponse(s *domain.RunSummary) RunResponse {
	return RunResponse{RunSummary: s, DurationMs: s.DurationMs()}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:     "running",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Running:    s.running,
		Runs:       s.runs,
		FailedRuns: s.failedRuns,
		LastRun:    s.lastRun,
		LastRunID:  s.lastRunID,
		LastError:  s.lastError,
	}
	s.mu.Unlock()
	resp.WSClients = s.hub.Clients()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := s.sink.Runs.List(c.Request.Context(), limit)
	if err != nil {
		s.storageError(c, err)
		return
	}
	out := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, newRunResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleTriggerRun(c *gin.Context) {
	summary, err := s.TriggerRun(c.Request.Context())
	if errors.Is(err, ErrRunInFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, newRunResponse(summary))
}

func (s *Server) handleLatestRun(c *gin.Context) {
	run, err := s.sink.Runs.GetLatest(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.sink.Runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

func (s *Server) handleElasticity(c *gin.Context) {
	runID := c.Param("id")
	if !s.runExists(c, runID) {
		return
	}
	results, err := s.sink.Elasticity.GetByRun(c.Request.Context(), runID)
	if err != nil {
		s.storageError(c, err)
		return
	}
	if results == nil {
		results = []*domain.SkuElasticityResult{}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "results": results})
}

func (s *Server) handleSimulation(c *gin.Context) {
	runID := c.Param("id")
	if !s.runExists(c, runID) {
		return
	}
	scenarios, err := s.sink.Simulation.GetByRun(c.Request.Context(), runID)
	if err != nil {
		s.storageError(c, err)
		return
	}
	if sku := c.Query("sku"); sku != "" {
		filtered := make([]*domain.SimulationScenario, 0, len(scenarios))
		for _, sc := range scenarios {
			if sc.SkuID == sku {
				filtered = append(filtered, sc)
			}
		}
		scenarios = filtered
	}
	if scenarios == nil {
		scenarios = []*domain.SimulationScenario{}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "scenarios": scenarios})
}

func (s *Server) handleReport(c *gin.Context) {
	report, err := s.reportGen.GenerateFromStores(c.Request.Context(), s.sink, c.Param("id"))
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(report)))
}

func (s *Server) runExists(c *gin.Context, runID string) bool {
	if _, err := s.sink.Runs.GetByID(c.Request.Context(), runID); err != nil {
		s.storageError(c, err)
		return false
	}
	return true
}

func (s *Server) storageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case errors.Is(err, storage.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("storage query failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
