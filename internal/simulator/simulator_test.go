package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/joshharrison/riskloom/internal/graph"
)

func buildGraph(t *testing.T, tasks []graph.Task) *graph.TaskGraph {
	t.Helper()
	g, err := graph.Build(tasks)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

// project is a small fork/join network with every task at the given risk.
func project(risk graph.RiskLevel) []graph.Task {
	return []graph.Task{
		{ID: "design", Duration: 5, CostRate: 800, Risk: risk},
		{ID: "backend", Duration: 8, CostRate: 900, Risk: risk, Predecessors: []string{"design"}},
		{ID: "frontend", Duration: 6, CostRate: 850, Risk: risk, Predecessors: []string{"design"}},
		{ID: "qa", Duration: 3, CostRate: 600, Risk: risk, Predecessors: []string{"backend", "frontend"}},
		{ID: "docs", Duration: 2, CostRate: 400, Risk: risk, Predecessors: []string{"design"}},
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	g := buildGraph(t, project(graph.RiskMedium))
	cfg := Config{Iterations: 500, Seed: 7, Workers: 1}

	a, err := Simulate(context.Background(), g, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Workers = 4
	b, err := Simulate(context.Background(), g, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Samples) != 500 || len(b.Samples) != 500 {
		t.Fatalf("expected 500 samples, got %d and %d", len(a.Samples), len(b.Samples))
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a.Samples[i], b.Samples[i])
		}
	}
	if a.Mean != b.Mean || a.Percentile(90) != b.Percentile(90) || a.RiskProbability != b.RiskProbability {
		t.Errorf("aggregates differ between runs: %+v vs %+v", a.Percentiles, b.Percentiles)
	}
}

func TestSimulate_SeedChangesSamples(t *testing.T) {
	g := buildGraph(t, project(graph.RiskHigh))
	a, err := Simulate(context.Background(), g, Config{Iterations: 50, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Simulate(context.Background(), g, Config{Iterations: 50, Seed: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical sample sequences")
	}
}

func TestSimulate_RaisingRiskNeverShortens(t *testing.T) {
	low := buildGraph(t, project(graph.RiskLow))
	tasks := project(graph.RiskLow)
	tasks[1].Risk = graph.RiskHigh
	raised := buildGraph(t, tasks)

	cfg := Config{Iterations: 1000, Seed: 42}
	a, err := Simulate(context.Background(), low, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Simulate(context.Background(), raised, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range a.Samples {
		if b.Samples[i] < a.Samples[i] {
			t.Fatalf("iteration %d got shorter after raising risk: %v -> %v", i, a.Samples[i], b.Samples[i])
		}
	}
	if b.Mean < a.Mean {
		t.Errorf("mean decreased: %v -> %v", a.Mean, b.Mean)
	}
	if b.Percentile(90) < a.Percentile(90) {
		t.Errorf("p90 decreased: %v -> %v", a.Percentile(90), b.Percentile(90))
	}
}

func TestSimulate_LowRiskProbabilityBelowHigh(t *testing.T) {
	cfg := Config{Iterations: 1000, Seed: 42}
	low, err := Simulate(context.Background(), buildGraph(t, project(graph.RiskLow)), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high, err := Simulate(context.Background(), buildGraph(t, project(graph.RiskHigh)), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if low.RiskProbability > high.RiskProbability-0.3 {
		t.Errorf("expected low-risk probability well below high-risk: %v vs %v", low.RiskProbability, high.RiskProbability)
	}
	if high.RiskCategory != CategoryHigh {
		t.Errorf("expected HIGH category for all-high-risk project, got %s", high.RiskCategory)
	}
	if high.Mean <= high.BaselineDuration {
		t.Errorf("expected high-risk mean %v above baseline %v", high.Mean, high.BaselineDuration)
	}
	if high.MeanCost <= high.BaselineCost {
		t.Errorf("expected high-risk mean cost %v above baseline %v", high.MeanCost, high.BaselineCost)
	}
}

func TestSimulate_Aggregates(t *testing.T) {
	g := buildGraph(t, project(graph.RiskMedium))
	res, err := Simulate(context.Background(), g, Config{Iterations: 400, Seed: 3, Percentiles: []float64{99}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.BaselineDuration != 16 {
		t.Errorf("expected baseline 16, got %v", res.BaselineDuration)
	}
	want := []float64{50, 75, 90, 95, 99}
	if len(res.Percentiles) != len(want) {
		t.Fatalf("expected percentiles %v, got %+v", want, res.Percentiles)
	}
	prev := res.Min
	for i, p := range res.Percentiles {
		if p.P != want[i] {
			t.Errorf("percentile %d: expected p%v, got p%v", i, want[i], p.P)
		}
		if p.Value < prev {
			t.Errorf("percentiles not monotone at p%v: %v < %v", p.P, p.Value, prev)
		}
		prev = p.Value
	}
	if res.Max < prev {
		t.Errorf("max %v below p99 %v", res.Max, prev)
	}
	if res.Mean < res.Min || res.Mean > res.Max {
		t.Errorf("mean %v outside [%v, %v]", res.Mean, res.Min, res.Max)
	}
	if res.ConfidenceLevel < 50 || res.ConfidenceLevel > 90 {
		t.Errorf("confidence %v outside [50, 90]", res.ConfidenceLevel)
	}
	if !math.IsNaN(res.Percentile(80)) {
		t.Errorf("expected NaN for an uncomputed percentile, got %v", res.Percentile(80))
	}
}

func TestSimulate_MinDurationFloor(t *testing.T) {
	g := buildGraph(t, []graph.Task{{ID: "tiny", Duration: 0.001, Risk: graph.RiskHigh}})
	res, err := Simulate(context.Background(), g, Config{Iterations: 100, Seed: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range res.Samples {
		if v != DefaultMinDuration {
			t.Fatalf("sample %d: expected floor %v, got %v", i, DefaultMinDuration, v)
		}
	}
}

func TestSimulate_Empty(t *testing.T) {
	g := buildGraph(t, nil)
	res, err := Simulate(context.Background(), g, Config{Iterations: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Empty || len(res.Samples) != 0 {
		t.Errorf("expected empty result with zero samples, got %+v", res)
	}
	if !math.IsNaN(res.Mean) || !math.IsNaN(res.Percentile(90)) || !math.IsNaN(res.RiskProbability) {
		t.Errorf("expected NaN statistics, got mean=%v p90=%v prob=%v", res.Mean, res.Percentile(90), res.RiskProbability)
	}
}

func TestSimulate_InvalidIterationCount(t *testing.T) {
	for _, n := range []int{0, -5} {
		_, err := Simulate(context.Background(), buildGraph(t, nil), Config{Iterations: n})
		if !errors.Is(err, ErrInvalidIterationCount) {
			t.Errorf("N=%d: expected ErrInvalidIterationCount, got %v", n, err)
		}
	}
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, buildGraph(t, project(graph.RiskLow)), Config{Iterations: 100})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProfiles(t *testing.T) {
	ps := DefaultProfiles()
	if err := ps.Validate(); err != nil {
		t.Fatalf("default profiles invalid: %v", err)
	}
	if m := ps.Low.Mean(); math.Abs(m-1) > 1e-12 {
		t.Errorf("expected low mean 1, got %v", m)
	}
	if ps.Medium.Mean() < 1 || ps.High.Mean() < ps.Medium.Mean() {
		t.Errorf("expected 1 <= medium mean <= high mean, got %v, %v", ps.Medium.Mean(), ps.High.Mean())
	}
	if ps.For("Unknown") != ps.Low {
		t.Error("expected unknown tags to fall back to low")
	}

	bad := ps
	bad.High = Profile{Min: 0.9, Mode: 1.0, Max: 1.2}
	if err := bad.Validate(); err == nil {
		t.Error("expected error when high does not dominate medium")
	}
	bad = ps
	bad.Low = Profile{Min: 1, Mode: 1, Max: 1}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for a degenerate profile")
	}
}

func TestConfidenceAndCategory(t *testing.T) {
	if got := confidenceLevel(1000, 10, 0); got != 80 {
		t.Errorf("expected 80, got %v", got)
	}
	if got := confidenceLevel(5000, 10, 0); got != 90 {
		t.Errorf("expected cap of 90, got %v", got)
	}
	if got := confidenceLevel(1000, 10, 10); got != 60 {
		t.Errorf("expected 60, got %v", got)
	}
	if got := confidenceLevel(100, 1, 5); got != 50 {
		t.Errorf("expected floor of 50, got %v", got)
	}

	cases := map[float64]Category{0.1: CategoryLow, 0.4: CategoryLow, 0.5: CategoryMedium, 0.71: CategoryHigh}
	for p, want := range cases {
		if got := categorize(p); got != want {
			t.Errorf("categorize(%v) = %s, want %s", p, got, want)
		}
	}
}

func TestResult_MarshalJSONWritesNull(t *testing.T) {
	res, err := Simulate(context.Background(), buildGraph(t, nil), Config{Iterations: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	for _, want := range []string{`"mean":null`, `"risk_probability":null`, `"value":null`, `"empty":true`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in %s", want, got)
		}
	}
}
