package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Simulation.Iterations != 1000 {
		t.Errorf("expected 1000 iterations, got %d", cfg.Simulation.Iterations)
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Simulation.Seed)
	}
	if cfg.Simulation.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Simulation.Workers)
	}
	if cfg.Optimizer.Timeout != 5*time.Second {
		t.Errorf("expected optimizer timeout 5s, got %v", cfg.Optimizer.Timeout)
	}
	if cfg.Risk.High.Max != 1.75 {
		t.Errorf("expected default high profile max 1.75, got %v", cfg.Risk.High.Max)
	}
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "riskloom.yaml")

	content := `
simulation:
  iterations: 5000
  seed: 7
  percentiles: [97.5]
optimizer:
  timeout: 2s
risk:
  high:
    min: 1.0
    mode: 1.3
    max: 2.0
logging:
  level: debug
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Simulation.Iterations != 5000 || cfg.Simulation.Seed != 7 {
		t.Errorf("expected iterations 5000 seed 7, got %d %d", cfg.Simulation.Iterations, cfg.Simulation.Seed)
	}
	if len(cfg.Simulation.Percentiles) != 1 || cfg.Simulation.Percentiles[0] != 97.5 {
		t.Errorf("expected percentiles [97.5], got %v", cfg.Simulation.Percentiles)
	}
	if cfg.Optimizer.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", cfg.Optimizer.Timeout)
	}
	if cfg.Risk.High.Mode != 1.3 {
		t.Errorf("expected high mode 1.3, got %v", cfg.Risk.High.Mode)
	}
	// Unchanged fields keep defaults
	if cfg.Risk.Low.Max != 1.05 {
		t.Errorf("expected default low profile, got %+v", cfg.Risk.Low)
	}
	if cfg.Optimizer.MaxNodes != 2_000_000 {
		t.Errorf("expected default max nodes, got %d", cfg.Optimizer.MaxNodes)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RISKLOOM_SIM_ITERATIONS", "250")
	t.Setenv("RISKLOOM_SIM_SEED", "99")
	t.Setenv("RISKLOOM_SIM_PERCENTILES", "97.5, 99")
	t.Setenv("RISKLOOM_OPT_TIMEOUT", "750ms")
	t.Setenv("RISKLOOM_LOG_FORMAT", "json")
	t.Setenv("RISKLOOM_REPORT_MODEL", "claude-test")

	cfg := Defaults()
	if err := loadEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Simulation.Iterations != 250 || cfg.Simulation.Seed != 99 {
		t.Errorf("expected iterations 250 seed 99, got %d %d", cfg.Simulation.Iterations, cfg.Simulation.Seed)
	}
	if len(cfg.Simulation.Percentiles) != 2 || cfg.Simulation.Percentiles[1] != 99 {
		t.Errorf("expected percentiles [97.5 99], got %v", cfg.Simulation.Percentiles)
	}
	if cfg.Optimizer.Timeout != 750*time.Millisecond {
		t.Errorf("expected timeout 750ms, got %v", cfg.Optimizer.Timeout)
	}
	if cfg.Logging.Format != "json" || cfg.Report.Model != "claude-test" {
		t.Errorf("unexpected string overrides: %+v %+v", cfg.Logging, cfg.Report)
	}
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("RISKLOOM_SIM_ITERATIONS", "many")
	t.Setenv("RISKLOOM_OPT_TIMEOUT", "soon")

	cfg := Defaults()
	err := loadEnv(&cfg)
	if err == nil {
		t.Fatal("expected error for unparsable values")
	}
	for _, key := range []string{"RISKLOOM_SIM_ITERATIONS", "RISKLOOM_OPT_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error should name %s: %v", key, err)
		}
	}
	if cfg.Simulation.Iterations != 1000 {
		t.Errorf("failed override should keep default, got %d", cfg.Simulation.Iterations)
	}
}

func TestLoadFromPrecedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "riskloom.yaml")
	if err := os.WriteFile(yamlPath, []byte("simulation:\n  iterations: 300\n  seed: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RISKLOOM_SIM_SEED", "6")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulation.Iterations != 300 {
		t.Errorf("yaml should override defaults, got %d", cfg.Simulation.Iterations)
	}
	if cfg.Simulation.Seed != 6 {
		t.Errorf("env should override yaml, got %d", cfg.Simulation.Seed)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Simulation.Iterations = 0
	cfg.Simulation.Percentiles = []float64{100}
	cfg.Logging.Format = "xml"
	cfg.Risk.Medium = cfg.Risk.High
	cfg.Risk.High.Max = 1.5

	err := validate(&cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"simulation.iterations", "simulation.percentiles", "logging.format", "risk profiles"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Simulation.Seed = 11
	cfg.Optimizer.MaxNodes = 10

	ec := cfg.EngineConfig(nil)
	if ec.Simulator.Seed != 11 || ec.Simulator.Profiles != cfg.Risk {
		t.Errorf("simulator config not carried over: %+v", ec.Simulator)
	}
	if ec.Optimizer.MaxNodes != 10 || ec.Optimizer.Timeout != 5*time.Second {
		t.Errorf("optimizer config not carried over: %+v", ec.Optimizer)
	}
}
