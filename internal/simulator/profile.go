package simulator

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/joshharrison/riskloom/internal/graph"
)

// Profile is a triangular distribution over the multiplier applied to a
// task's nominal duration.
type Profile struct {
	Min  float64 `yaml:"min" json:"min"`
	Mode float64 `yaml:"mode" json:"mode"`
	Max  float64 `yaml:"max" json:"max"`
}

// Mean is the expected multiplier.
func (p Profile) Mean() float64 { return (p.Min + p.Mode + p.Max) / 3 }

func (p Profile) validate() error {
	if !(p.Min > 0) || p.Mode < p.Min || p.Max < p.Mode || !(p.Min < p.Max) {
		return fmt.Errorf("want 0 < min <= mode <= max and min < max, got %+v", p)
	}
	return nil
}

func (p Profile) dominates(q Profile) bool {
	return p.Min >= q.Min && p.Mode >= q.Mode && p.Max >= q.Max
}

func (p Profile) dist() distuv.Triangle {
	return distuv.NewTriangle(p.Min, p.Max, p.Mode, nil)
}

// Profiles maps each risk tag to its multiplier distribution.
type Profiles struct {
	Low    Profile `yaml:"low" json:"low"`
	Medium Profile `yaml:"medium" json:"medium"`
	High   Profile `yaml:"high" json:"high"`
}

// DefaultProfiles returns the stock mapping. Low is symmetric around the
// nominal duration; Medium and High are right-skewed with means of 1.10 and
// about 1.28.
func DefaultProfiles() Profiles {
	return Profiles{
		Low:    Profile{Min: 0.95, Mode: 1.00, Max: 1.05},
		Medium: Profile{Min: 0.95, Mode: 1.05, Max: 1.30},
		High:   Profile{Min: 0.95, Mode: 1.15, Max: 1.75},
	}
}

// For returns the profile for a risk tag. Unknown tags use Low.
func (ps Profiles) For(r graph.RiskLevel) Profile {
	switch r {
	case graph.RiskMedium:
		return ps.Medium
	case graph.RiskHigh:
		return ps.High
	}
	return ps.Low
}

// Validate checks every profile and that they are ordered Low <= Medium <=
// High component-wise. The ordering makes raising a task's risk tag never
// shorten any simulated completion time for the same seed.
func (ps Profiles) Validate() error {
	for _, c := range []struct {
		name string
		p    Profile
	}{{"low", ps.Low}, {"medium", ps.Medium}, {"high", ps.High}} {
		if err := c.p.validate(); err != nil {
			return fmt.Errorf("risk profile %s: %w", c.name, err)
		}
	}
	if !ps.Medium.dominates(ps.Low) || !ps.High.dominates(ps.Medium) {
		return fmt.Errorf("risk profiles must not decrease from low to medium to high")
	}
	for _, c := range []struct {
		name string
		p    Profile
	}{{"medium", ps.Medium}, {"high", ps.High}} {
		if c.p.Mean() < 1 {
			return fmt.Errorf("risk profile %s: mean multiplier %.3f is below 1", c.name, c.p.Mean())
		}
	}
	return nil
}

func (ps Profiles) isZero() bool { return ps == Profiles{} }
