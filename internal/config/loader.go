package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the default YAML path (riskloom.yaml) with
// environment overrides.
func Load() (*Config, error) {
	return LoadFrom("riskloom.yaml")
}

// LoadFrom reads configuration from the given YAML path with environment
// overrides. A missing file is not an error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	var err error
	err = multierr.Append(err, setInt(&cfg.Simulation.Iterations, "RISKLOOM_SIM_ITERATIONS"))
	err = multierr.Append(err, setUint64(&cfg.Simulation.Seed, "RISKLOOM_SIM_SEED"))
	err = multierr.Append(err, setInt(&cfg.Simulation.Workers, "RISKLOOM_SIM_WORKERS"))
	err = multierr.Append(err, setFloat64(&cfg.Simulation.MinDuration, "RISKLOOM_SIM_MIN_DURATION"))
	err = multierr.Append(err, setFloat64List(&cfg.Simulation.Percentiles, "RISKLOOM_SIM_PERCENTILES"))

	err = multierr.Append(err, setDuration(&cfg.Optimizer.Timeout, "RISKLOOM_OPT_TIMEOUT"))
	err = multierr.Append(err, setInt(&cfg.Optimizer.DefaultCapacity, "RISKLOOM_OPT_DEFAULT_CAPACITY"))
	err = multierr.Append(err, setInt(&cfg.Optimizer.MaxNodes, "RISKLOOM_OPT_MAX_NODES"))

	setString(&cfg.Logging.Level, "RISKLOOM_LOG_LEVEL")
	setString(&cfg.Logging.Format, "RISKLOOM_LOG_FORMAT")
	setString(&cfg.Report.Model, "RISKLOOM_REPORT_MODEL")
	return err
}

func validate(cfg *Config) error {
	var err error
	if cfg.Simulation.Iterations < 1 {
		err = multierr.Append(err, errors.New("simulation.iterations must be >= 1"))
	}
	if cfg.Simulation.Workers < 1 {
		err = multierr.Append(err, errors.New("simulation.workers must be >= 1"))
	}
	if !(cfg.Simulation.MinDuration > 0) {
		err = multierr.Append(err, errors.New("simulation.min_duration must be > 0"))
	}
	for _, p := range cfg.Simulation.Percentiles {
		if !(p > 0 && p < 100) {
			err = multierr.Append(err, fmt.Errorf("simulation.percentiles: %v is outside (0, 100)", p))
		}
	}
	if cfg.Optimizer.Timeout < 0 {
		err = multierr.Append(err, errors.New("optimizer.timeout must be >= 0"))
	}
	if cfg.Optimizer.DefaultCapacity < 1 {
		err = multierr.Append(err, errors.New("optimizer.default_capacity must be >= 1"))
	}
	if cfg.Optimizer.MaxNodes < 0 {
		err = multierr.Append(err, errors.New("optimizer.max_nodes must be >= 0"))
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format %q must be text or json", cfg.Logging.Format))
	}
	if e := cfg.Risk.Validate(); e != nil {
		err = multierr.Append(err, e)
	}
	return err
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setUint64(dst *uint64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := cast.ToUint64E(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat64(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// setFloat64List parses a comma separated list such as "97.5,99".
func setFloat64List(dst *[]float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []float64
	for _, part := range strings.Split(v, ",") {
		f, err := cast.ToFloat64E(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, f)
	}
	*dst = out
	return nil
}
