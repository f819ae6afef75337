package simulator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultPercentiles are always reported.
var DefaultPercentiles = []float64{50, 75, 90, 95}

// Percentile is one point of the completion-time distribution.
type Percentile struct {
	P     float64 `json:"p"` // 0-100
	Value float64 `json:"value"`
}

type summary struct {
	mean, stdDev, min, max float64
	percentiles            []Percentile
}

// summarize computes aggregate statistics without reordering samples.
// Quantiles interpolate linearly on the empirical CDF.
func summarize(samples []float64, ps []float64) summary {
	s := summary{percentiles: make([]Percentile, len(ps))}
	if len(samples) == 0 {
		nan := math.NaN()
		s.mean, s.stdDev, s.min, s.max = nan, nan, nan, nan
		for i, p := range ps {
			s.percentiles[i] = Percentile{P: p, Value: nan}
		}
		return s
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	s.mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.stdDev = stat.StdDev(sorted, nil)
	}
	s.min = sorted[0]
	s.max = sorted[len(sorted)-1]
	for i, p := range ps {
		s.percentiles[i] = Percentile{P: p, Value: stat.Quantile(p/100, stat.LinInterp, sorted, nil)}
	}
	return s
}

// percentileSet merges extra with the defaults, sorted and deduplicated.
func percentileSet(extra []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, p := range append(append([]float64(nil), DefaultPercentiles...), extra...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Float64s(out)
	return out
}

// confidenceLevel scores how much the sample can be trusted: more iterations
// raise it up to 90, a wide spread (coefficient of variation) lowers it, and it
// never drops below 50.
func confidenceLevel(n int, mean, stdDev float64) float64 {
	base := math.Min(90, 70+float64(n)/100)
	cv := 0.0
	if mean > 0 {
		cv = stdDev / mean
	}
	c := math.Max(50, base-20*cv)
	return math.Round(c*10) / 10
}

// Category buckets a risk probability.
type Category string

const (
	CategoryLow    Category = "LOW"
	CategoryMedium Category = "MEDIUM"
	CategoryHigh   Category = "HIGH"
)

func categorize(prob float64) Category {
	switch {
	case prob > 0.7:
		return CategoryHigh
	case prob > 0.4:
		return CategoryMedium
	}
	return CategoryLow
}
