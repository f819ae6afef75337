package simulator

import (
	"encoding/json"
	"math"
)

// MarshalJSON writes undefined statistics as null; encoding/json rejects NaN.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	type percentile struct {
		P     float64  `json:"p"`
		Value *float64 `json:"value"`
	}

	pcts := make([]percentile, len(r.Percentiles))
	for i, p := range r.Percentiles {
		pcts[i] = percentile{P: p.P, Value: num(p.Value)}
	}

	return json.Marshal(struct {
		alias
		Mean            *float64     `json:"mean"`
		StdDev          *float64     `json:"std_dev"`
		Min             *float64     `json:"min"`
		Max             *float64     `json:"max"`
		Percentiles     []percentile `json:"percentiles"`
		RiskProbability *float64     `json:"risk_probability"`
		MeanCost        *float64     `json:"mean_cost"`
		StdDevCost      *float64     `json:"std_dev_cost"`
		ConfidenceLevel *float64     `json:"confidence_level"`
	}{
		alias:           alias(r),
		Mean:            num(r.Mean),
		StdDev:          num(r.StdDev),
		Min:             num(r.Min),
		Max:             num(r.Max),
		Percentiles:     pcts,
		RiskProbability: num(r.RiskProbability),
		MeanCost:        num(r.MeanCost),
		StdDevCost:      num(r.StdDevCost),
		ConfidenceLevel: num(r.ConfidenceLevel),
	})
}

func num(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
