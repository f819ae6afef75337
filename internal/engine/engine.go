// Package engine runs the scheduler, optimizer and simulator for one request.
//
// An Engine holds only immutable configuration. Every call receives its task
// table in a Request and returns everything it computed in a Response, so
// concurrent requests share nothing.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/optimizer"
	"github.com/joshharrison/riskloom/internal/simulator"
)

// Config is the engine's fixed configuration.
type Config struct {
	Optimizer optimizer.Config
	Simulator simulator.Config
	Logger    *slog.Logger
}

// SimulationParams overrides the configured iteration count and seed.
// Zero values keep the configured ones.
type SimulationParams struct {
	Iterations int     `json:"iterations,omitempty"`
	Seed       *uint64 `json:"seed,omitempty"`
}

// Request is one analysis job.
type Request struct {
	ID           string               `json:"id"`
	Tasks        []graph.Task         `json:"tasks"`
	Roster       []optimizer.Resource `json:"roster,omitempty"`
	Simulation   SimulationParams     `json:"simulation"`
	SkipOptimize bool                 `json:"skip_optimize"`
	SkipSimulate bool                 `json:"skip_simulate"`
}

// Response carries every result computed for a Request. Optimization and
// Simulation are nil when skipped.
type Response struct {
	ID           string            `json:"id"`
	Graph        *graph.TaskGraph  `json:"-"`
	Schedule     *cpm.Schedule     `json:"schedule"`
	Optimization *optimizer.Result `json:"optimization,omitempty"`
	Simulation   *simulator.Result `json:"simulation,omitempty"`
	Elapsed      time.Duration     `json:"elapsed"`
}

// Engine wires the analysis stages together.
type Engine struct {
	cfg Config
	log *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Optimizer.Logger == nil {
		cfg.Optimizer.Logger = log
	}
	if cfg.Simulator.Logger == nil {
		cfg.Simulator.Logger = log
	}
	return &Engine{cfg: cfg, log: log}
}

// Run validates the task table, schedules it, then optimizes and simulates
// concurrently. Structural errors in the table abort the request; optimizer
// outcomes are reported in the Response.
func (e *Engine) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	log := e.log.With("request", req.ID)

	g, err := graph.Build(req.Tasks)
	if err != nil {
		return nil, fmt.Errorf("validate tasks: %w", err)
	}
	sched, err := cpm.Analyze(g)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	log.Debug("engine: scheduled", "tasks", g.TaskCount(), "duration", sched.ProjectDuration)

	resp := &Response{ID: req.ID, Graph: g, Schedule: sched}

	eg, egCtx := errgroup.WithContext(ctx)
	if !req.SkipOptimize {
		eg.Go(func() error {
			res, err := optimizer.Optimize(egCtx, g, sched, req.Roster, e.cfg.Optimizer)
			if err != nil {
				return fmt.Errorf("optimize: %w", err)
			}
			resp.Optimization = res
			return nil
		})
	}
	if !req.SkipSimulate {
		eg.Go(func() error {
			cfg := e.cfg.Simulator
			if req.Simulation.Iterations != 0 {
				cfg.Iterations = req.Simulation.Iterations
			}
			if req.Simulation.Seed != nil {
				cfg.Seed = *req.Simulation.Seed
			}
			res, err := simulator.Simulate(egCtx, g, cfg)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}
			resp.Simulation = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	resp.Elapsed = time.Since(start)
	log.Info("engine: request complete", "elapsed", resp.Elapsed)
	return resp, nil
}
