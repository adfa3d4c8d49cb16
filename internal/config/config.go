// Package config loads the pricing-lab configuration from YAML and .env files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"price-elasticity-lab/internal/elasticity"
)

// Config is the root configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Elasticity ElasticityConfig `yaml:"elasticity"`
	Simulation SimulationConfig `yaml:"simulation"`
	Workers    int              `yaml:"workers"` // 0 = GOMAXPROCS
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// InputConfig selects where observations come from.
type InputConfig struct {
	Source           string `yaml:"source"` // file | postgres
	ObservationsPath string `yaml:"observations_path"`
	CompetitorPath   string `yaml:"competitor_path"`
}

// OutputConfig controls artifact writing.
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	XLSX bool   `yaml:"xlsx"`
}

// ElasticityConfig tunes the log-log estimator.
type ElasticityConfig struct {
	LogOffset       *float64 `yaml:"log_offset"`  // nil = 1
	ZeroDemand      string   `yaml:"zero_demand"` // offset | exclude
	MinObservations int      `yaml:"min_observations"`
}

// SimulationConfig lists the price-change fractions to simulate.
type SimulationConfig struct {
	PriceChanges []float64 `yaml:"price_changes"`
}

// StorageConfig selects the result sink.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory | sql
}

// DatabaseConfig holds connection strings for the sql backend.
type DatabaseConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	MaxConns      int32  `yaml:"max_conns"`
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	RunInterval time.Duration `yaml:"run_interval"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"` // development | production
}

// Load reads a YAML config file, expands ${VAR} references and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, expands ${VAR} references and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadAndValidate loads a config file and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
// The result is not validated; callers apply overrides first.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are skipped; existing variables are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// EstimatorOptions converts the elasticity section into estimator options.
func (c *Config) EstimatorOptions() elasticity.Options {
	offset := DefaultLogOffset
	if c.Elasticity.LogOffset != nil {
		offset = *c.Elasticity.LogOffset
	}
	return elasticity.Options{
		LogOffset:       offset,
		ZeroDemand:      c.Elasticity.ZeroDemand,
		MinObservations: c.Elasticity.MinObservations,
	}
}
