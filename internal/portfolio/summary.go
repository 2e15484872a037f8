package portfolio

import "time"

// Summary is the condensed view the daily report is built from
type Summary struct {
	AsOf            time.Time `json:"as_of"`
	CurrentValue    float64   `json:"current_value"`
	PreviousValue   float64   `json:"previous_value"`
	DailyChange     float64   `json:"daily_change"`
	Volatility      float64   `json:"volatility"`
	Diversification float64   `json:"diversification"`
	AssetCount      int       `json:"asset_count"`
}

// Summarize extracts the report values from a simulation and its metrics.
func Summarize(sim *SimulationResult, metrics MetricsResult) Summary {
	s := Summary{
		Volatility:      metrics.Volatility,
		Diversification: metrics.Diversification,
	}
	if sim == nil {
		return s
	}
	s.AssetCount = len(sim.Assets)

	n := len(sim.Portfolio)
	if n == 0 {
		return s
	}
	last := sim.Portfolio[n-1]
	s.AsOf = last.Date
	s.CurrentValue = last.Value
	if n >= 2 {
		s.PreviousValue = sim.Portfolio[n-2].Value
		if s.PreviousValue != 0 {
			s.DailyChange = (s.CurrentValue - s.PreviousValue) / s.PreviousValue
		}
	}
	return s
}
