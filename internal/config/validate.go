package config

import (
	"errors"
	"fmt"
	"math"

	"price-elasticity-lab/internal/elasticity"
	"price-elasticity-lab/internal/simulation"
)

// Validate checks the configuration once at startup. A bad price-change
// set fails here, before any SKU is processed.
func (c *Config) Validate() error {
	switch c.Input.Source {
	case SourceFile:
		if c.Input.ObservationsPath == "" {
			return errors.New("input.observations_path is required when input.source is file")
		}
	case SourcePostgres:
		if c.Database.PostgresDSN == "" {
			return errors.New("database.postgres_dsn is required when input.source is postgres")
		}
	default:
		return fmt.Errorf("input.source must be %q or %q, got %q", SourceFile, SourcePostgres, c.Input.Source)
	}

	if c.Elasticity.LogOffset != nil {
		v := *c.Elasticity.LogOffset
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("elasticity.log_offset must be a finite value >= 0, got %v", v)
		}
	}
	switch c.Elasticity.ZeroDemand {
	case elasticity.ZeroDemandOffset, elasticity.ZeroDemandExclude:
	default:
		return fmt.Errorf("elasticity.zero_demand must be %q or %q, got %q",
			elasticity.ZeroDemandOffset, elasticity.ZeroDemandExclude, c.Elasticity.ZeroDemand)
	}
	if c.Elasticity.MinObservations < elasticity.MinObservations {
		return fmt.Errorf("elasticity.min_observations must be >= %d, got %d",
			elasticity.MinObservations, c.Elasticity.MinObservations)
	}

	if err := simulation.ValidatePriceChanges(c.Simulation.PriceChanges); err != nil {
		return fmt.Errorf("simulation.price_changes: %w", err)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQL:
		if c.Database.PostgresDSN == "" {
			return errors.New("database.postgres_dsn is required when storage.backend is sql")
		}
		if c.Database.ClickhouseDSN == "" {
			return errors.New("database.clickhouse_dsn is required when storage.backend is sql")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendMemory, BackendSQL, c.Storage.Backend)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	if c.Server.RunInterval < 0 {
		return fmt.Errorf("server.run_interval must be >= 0, got %s", c.Server.RunInterval)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("log.environment must be development or production, got %q", c.Log.Environment)
	}

	return nil
}
