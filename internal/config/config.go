// Package config provides hierarchical configuration loading for riskloom.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/joshharrison/riskloom/internal/engine"
	"github.com/joshharrison/riskloom/internal/optimizer"
	"github.com/joshharrison/riskloom/internal/simulator"
)

// Config holds all runtime configuration for the analysis engine and CLI.
type Config struct {
	Simulation Simulation         `yaml:"simulation"`
	Risk       simulator.Profiles `yaml:"risk"`
	Optimizer  Optimizer          `yaml:"optimizer"`
	Logging    Logging            `yaml:"logging"`
	Report     Report             `yaml:"report"`
}

// Simulation holds Monte-Carlo settings.
type Simulation struct {
	Iterations  int       `yaml:"iterations"`   // samples per run (default: 1000)
	Seed        uint64    `yaml:"seed"`         // base seed (default: 42)
	Workers     int       `yaml:"workers"`      // parallel workers (default: GOMAXPROCS)
	MinDuration float64   `yaml:"min_duration"` // floor for a sampled duration in days (default: 0.01)
	Percentiles []float64 `yaml:"percentiles"`  // reported on top of 50/75/90/95
}

// Optimizer holds resource optimizer limits.
type Optimizer struct {
	Timeout         time.Duration `yaml:"timeout"`
	DefaultCapacity int           `yaml:"default_capacity"`
	MaxNodes        int           `yaml:"max_nodes"`
}

// Logging holds structured logger settings.
type Logging struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Report holds narrative report settings.
type Report struct {
	Model string `yaml:"model"` // Claude model; empty uses the client default
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Simulation: Simulation{
			Iterations:  1000,
			Seed:        42,
			Workers:     runtime.GOMAXPROCS(0),
			MinDuration: simulator.DefaultMinDuration,
		},
		Risk: simulator.DefaultProfiles(),
		Optimizer: Optimizer{
			Timeout:         5 * time.Second,
			DefaultCapacity: 1,
			MaxNodes:        2_000_000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// SimulatorConfig converts the simulation settings for simulator.Simulate.
func (c Config) SimulatorConfig(log *slog.Logger) simulator.Config {
	return simulator.Config{
		Iterations:  c.Simulation.Iterations,
		Seed:        c.Simulation.Seed,
		Workers:     c.Simulation.Workers,
		MinDuration: c.Simulation.MinDuration,
		Profiles:    c.Risk,
		Percentiles: c.Simulation.Percentiles,
		Logger:      log,
	}
}

// OptimizerConfig converts the optimizer settings for optimizer.Optimize.
func (c Config) OptimizerConfig(log *slog.Logger) optimizer.Config {
	return optimizer.Config{
		Timeout:         c.Optimizer.Timeout,
		DefaultCapacity: c.Optimizer.DefaultCapacity,
		MaxNodes:        c.Optimizer.MaxNodes,
		Logger:          log,
	}
}

// EngineConfig assembles the engine configuration.
func (c Config) EngineConfig(log *slog.Logger) engine.Config {
	return engine.Config{
		Optimizer: c.OptimizerConfig(log),
		Simulator: c.SimulatorConfig(log),
		Logger:    log,
	}
}
