// Package api exposes pipeline runs over HTTP and a websocket run feed.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/logging"
	"price-elasticity-lab/internal/observability"
	"price-elasticity-lab/internal/pipeline"
	"price-elasticity-lab/internal/reporting"
	"price-elasticity-lab/internal/storage"
)

// ErrRunInFlight is returned when a run is requested while another executes.
var ErrRunInFlight = errors.New("pipeline run already in progress")

// Runner executes one pipeline run. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Options for creating Server.
type Options struct {
	// Required
	Sink   storage.ResultSink
	Runner Runner

	// Optional
	AllowedOrigins []string // empty allows all origins
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Server serves run results and triggers runs. At most one run executes at a time.
type Server struct {
	sink      storage.ResultSink
	runner    Runner
	hub       *Hub
	reportGen *reporting.Generator
	origins   []string
	logger    *zap.Logger
	metrics   *observability.Metrics
	started   time.Time

	mu         sync.Mutex
	running    bool
	runs       int
	failedRuns int
	lastRun    time.Time
	lastRunID  string
	lastError  string
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if opts.Sink.Runs == nil || opts.Sink.Elasticity == nil || opts.Sink.Simulation == nil {
		return nil, errors.New("result sink requires runs, elasticity and simulation stores")
	}
	m := opts.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}
	logger := logging.OrNop(opts.Logger).Named("api")

	var checkOrigin func(*http.Request) bool
	if len(opts.AllowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
		for _, o := range opts.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		checkOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}

	return &Server{
		sink:      opts.Sink,
		runner:    opts.Runner,
		hub:       NewHub(logger, m, checkOrigin),
		reportGen: reporting.NewGenerator(),
		origins:   opts.AllowedOrigins,
		logger:    logger,
		metrics:   m,
		started:   time.Now(),
	}, nil
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// TriggerRun executes one pipeline run and broadcasts its summary.
// Returns ErrRunInFlight if a run is already executing.
func (s *Server) TriggerRun(ctx context.Context) (*domain.RunSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInFlight
	}
	s.running = true
	s.mu.Unlock()
	s.metrics.RunInFlight.Set(1)

	result, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.running = false
	s.runs++
	s.lastRun = time.Now()
	if err != nil {
		s.failedRuns++
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.lastRunID = result.Summary.RunID
	}
	s.mu.Unlock()
	s.metrics.RunInFlight.Set(0)

	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		return nil, fmt.Errorf("pipeline run: %w", err)
	}

	if err := s.hub.Broadcast(result.Summary); err != nil {
		s.logger.Warn("broadcast run summary failed", zap.Error(err))
	}
	s.logger.Info("pipeline run complete",
		zap.String("run_id", result.Summary.RunID),
		zap.Int("skus_estimated", result.Summary.SkusEstimated),
		zap.Int("skus_skipped", result.Summary.SkusSkipped))
	return result.Summary, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.handleHealth)
	r.GET("/status", s.handleStatus)
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	r.GET("/ws/runs", s.hub.ServeWS)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/runs", s.handleListRuns)
		v1.POST("/runs", s.handleTriggerRun)
		v1.GET("/runs/latest", s.handleLatestRun)
		v1.GET("/runs/:id", s.handleGetRun)
		v1.GET("/runs/:id/elasticity", s.handleElasticity)
		v1.GET("/runs/:id/simulation", s.handleSimulation)
		v1.GET("/runs/:id/report", s.handleReport)
	}
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
