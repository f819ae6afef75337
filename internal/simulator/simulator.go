// Package simulator runs seeded Monte-Carlo simulations of project completion
// time under per-task duration risk.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
)

// ErrInvalidIterationCount is returned when fewer than one iteration is requested.
var ErrInvalidIterationCount = errors.New("iteration count must be at least 1")

// DefaultMinDuration is the floor applied to every sampled duration, in days.
const DefaultMinDuration = 0.01

// Config controls a simulation run.
type Config struct {
	Iterations  int
	Seed        uint64
	Workers     int       // 0 = GOMAXPROCS
	MinDuration float64   // 0 = DefaultMinDuration
	Profiles    Profiles  // zero value = DefaultProfiles()
	Percentiles []float64 // reported in addition to DefaultPercentiles
	Logger      *slog.Logger
}

// Result holds the raw samples in iteration order and their aggregates.
// Aggregates are NaN when Empty is set.
type Result struct {
	Iterations int       `json:"iterations"`
	Seed       uint64    `json:"seed"`
	Empty      bool      `json:"empty"`
	Samples    []float64 `json:"samples"`
	Costs      []float64 `json:"costs"`

	BaselineDuration float64      `json:"baseline_duration"`
	Mean             float64      `json:"mean"`
	StdDev           float64      `json:"std_dev"`
	Min              float64      `json:"min"`
	Max              float64      `json:"max"`
	Percentiles      []Percentile `json:"percentiles"`
	RiskProbability  float64      `json:"risk_probability"`

	BaselineCost float64 `json:"baseline_cost"`
	MeanCost     float64 `json:"mean_cost"`
	StdDevCost   float64 `json:"std_dev_cost"`

	ConfidenceLevel float64  `json:"confidence_level"`
	RiskCategory    Category `json:"risk_category"`
}

// Percentile returns the value at p (0-100), or NaN if p was not computed.
func (r *Result) Percentile(p float64) float64 {
	for _, pc := range r.Percentiles {
		if pc.P == p {
			return pc.Value
		}
	}
	return math.NaN()
}

// Simulate draws cfg.Iterations completion times for g. Iteration i uses its
// own generator seeded from (cfg.Seed, i), so the sample sequence does not
// depend on the number of workers.
func Simulate(ctx context.Context, g *graph.TaskGraph, cfg Config) (*Result, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidIterationCount, cfg.Iterations)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Profiles.isZero() {
		cfg.Profiles = DefaultProfiles()
	}
	if err := cfg.Profiles.Validate(); err != nil {
		return nil, err
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = DefaultMinDuration
	}
	for _, p := range cfg.Percentiles {
		if !(p > 0 && p < 100) {
			return nil, fmt.Errorf("percentile %v out of range (0, 100)", p)
		}
	}
	pcts := percentileSet(cfg.Percentiles)

	net, err := cpm.Compile(g)
	if err != nil {
		return nil, err
	}

	res := &Result{Iterations: cfg.Iterations, Seed: cfg.Seed}
	if net.Len() == 0 {
		s := summarize(nil, pcts)
		nan := math.NaN()
		res.Empty = true
		res.Samples, res.Costs = []float64{}, []float64{}
		res.Mean, res.StdDev, res.Min, res.Max = s.mean, s.stdDev, s.min, s.max
		res.Percentiles = s.percentiles
		res.RiskProbability, res.MeanCost, res.StdDevCost, res.ConfidenceLevel = nan, nan, nan, nan
		return res, nil
	}

	dists := make([]distuv.Triangle, net.Len())
	for i, r := range net.Risks {
		dists[i] = cfg.Profiles.For(r).dist()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, cfg.Iterations)

	res.Samples = make([]float64, cfg.Iterations)
	res.Costs = make([]float64, cfg.Iterations)

	log.Debug("simulator: starting", "tasks", net.Len(), "iterations", cfg.Iterations, "workers", workers, "seed", cfg.Seed)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			durs := make([]float64, net.Len())
			scratch := make([]float64, net.Len())
			for i := w; i < cfg.Iterations; i += workers {
				if (i/workers)%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
				cost := 0.0
				for j := range durs {
					m := dists[j].Quantile(rng.Float64())
					durs[j] = math.Max(cfg.MinDuration, net.Durations[j]*m)
					cost += durs[j] * net.CostRates[j]
				}
				res.Samples[i] = net.Finish(durs, scratch)
				res.Costs[i] = cost
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}

	res.BaselineDuration = net.Baseline()
	for j, d := range net.Durations {
		res.BaselineCost += d * net.CostRates[j]
	}

	s := summarize(res.Samples, pcts)
	res.Mean, res.StdDev, res.Min, res.Max = s.mean, s.stdDev, s.min, s.max
	res.Percentiles = s.percentiles

	over := 0
	for _, v := range res.Samples {
		if v > res.BaselineDuration {
			over++
		}
	}
	res.RiskProbability = float64(over) / float64(len(res.Samples))

	res.MeanCost = stat.Mean(res.Costs, nil)
	if len(res.Costs) > 1 {
		res.StdDevCost = stat.StdDev(res.Costs, nil)
	}

	res.ConfidenceLevel = confidenceLevel(cfg.Iterations, res.Mean, res.StdDev)
	res.RiskCategory = categorize(res.RiskProbability)

	log.Debug("simulator: finished", "mean", res.Mean, "p90", res.Percentile(90), "risk_probability", res.RiskProbability)
	return res, nil
}
