package config

import (
	"time"

	"price-elasticity-lab/internal/domain"
	"price-elasticity-lab/internal/elasticity"
)

// Default values for optional configuration fields.
const (
	DefaultSource          = SourceFile
	DefaultOutputDir       = "output"
	DefaultLogOffset       = elasticity.DefaultLogOffset
	DefaultZeroDemand      = elasticity.ZeroDemandOffset
	DefaultMinObservations = elasticity.MinObservations
	DefaultBackend         = BackendMemory
	DefaultServerAddr      = ":8080"
	DefaultRunInterval     = 1 * time.Hour
	DefaultMaxConns        = 10
	DefaultLogLevel        = "info"
	DefaultEnvironment     = "production"
)

// Input sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
)

func (c *Config) applyDefaults() {
	if c.Input.Source == "" {
		c.Input.Source = DefaultSource
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}

	if c.Elasticity.LogOffset == nil {
		v := DefaultLogOffset
		c.Elasticity.LogOffset = &v
	}
	if c.Elasticity.ZeroDemand == "" {
		c.Elasticity.ZeroDemand = DefaultZeroDemand
	}
	if c.Elasticity.MinObservations == 0 {
		c.Elasticity.MinObservations = DefaultMinObservations
	}

	// nil means unset; an explicit empty list is left for Validate to reject
	if c.Simulation.PriceChanges == nil {
		c.Simulation.PriceChanges = append([]float64(nil), domain.DefaultPriceChanges...)
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.RunInterval == 0 {
		c.Server.RunInterval = DefaultRunInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Environment == "" {
		c.Log.Environment = DefaultEnvironment
	}
}
