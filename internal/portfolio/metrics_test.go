package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alternating(n int, start, step float64) []float64 {
	out := make([]float64, n)
	out[0] = start
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			out[i] = out[i-1] * (1 + step)
		} else {
			out[i] = out[i-1] * (1 - step)
		}
	}
	return out
}

func TestMetricsSingleAssetTotalReturn(t *testing.T) {
	dates := []time.Time{day(2024, 2, 1), day(2024, 2, 2), day(2024, 2, 5)}
	store := newTestStore(t, dates, map[string][]float64{"X": {100, 105, 99}})
	engine := newTestEngine()
	weights := Weights{"X": 1}

	sim, err := engine.Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	metrics := engine.Metrics(store, weights, sim.Portfolio)

	assert.InDelta(t, -0.01, metrics.TotalReturn, 1e-12)
	assert.InDelta(t, 0, metrics.Diversification, 1e-12)
	assert.InDelta(t, metrics.Volatility, metrics.AssetVolatility["X"], 1e-12)
	assert.InDelta(t, (105.0-99.0)/105.0, metrics.MaxDrawdown, 1e-12)
	assert.Equal(t, 3, metrics.TradingDays)
}

func TestMetricsDiversificationAnticorrelated(t *testing.T) {
	dates := businessDays(day(2024, 1, 2), 60)
	a := alternating(len(dates), 100, 0.01)
	b := make([]float64, len(dates))
	b[0] = 100
	for i := 1; i < len(b); i++ {
		if i%2 == 1 {
			b[i] = b[i-1] * 0.99
		} else {
			b[i] = b[i-1] * 1.01
		}
	}
	store := newTestStore(t, dates, map[string][]float64{"A": a, "B": b})
	engine := newTestEngine()
	weights := Weights{"A": 0.5, "B": 0.5}

	sim, err := engine.Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	metrics := engine.Metrics(store, weights, sim.Portfolio)

	assert.Greater(t, metrics.Diversification, 0.1)
	assert.Less(t, metrics.Volatility, metrics.WeightedAssetVol)

	corr := engine.Correlation(store)
	ab, ok := corr.Get("A", "B")
	require.True(t, ok)
	assert.InDelta(t, -1, ab, 1e-9)
}

func TestMetricsDiversificationPerfectCorrelation(t *testing.T) {
	dates := businessDays(day(2024, 1, 2), 40)
	a := alternating(len(dates), 100, 0.02)
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = 2 * v
	}
	store := newTestStore(t, dates, map[string][]float64{"A": a, "B": b})
	engine := newTestEngine()
	weights := Weights{"A": 0.5, "B": 0.5}

	sim, err := engine.Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	metrics := engine.Metrics(store, weights, sim.Portfolio)

	assert.InDelta(t, 0, metrics.Diversification, 1e-9)
}

func TestMetricsDiversificationNonNegative(t *testing.T) {
	dates := businessDays(day(2023, 6, 1), 90)
	columns := map[string][]float64{
		"A": make([]float64, len(dates)),
		"B": make([]float64, len(dates)),
		"C": make([]float64, len(dates)),
	}
	for i := range dates {
		x := float64(i)
		columns["A"][i] = 100 + 5*math.Sin(x/3)
		columns["B"][i] = 80 + 4*math.Cos(x/5)
		columns["C"][i] = 50 + 0.2*x + 2*math.Sin(x)
	}
	store := newTestStore(t, dates, columns)
	engine := newTestEngine()
	weights := Weights{"A": 0.4, "B": 0.4, "C": 0.2}

	for _, policy := range []RebalancePolicy{RebalanceNone, RebalanceMonthly} {
		sim, err := engine.Simulate(store, weights, policy)
		require.NoError(t, err)
		metrics := engine.Metrics(store, weights, sim.Portfolio)
		assert.GreaterOrEqual(t, metrics.Diversification, 0.0, policy.String())
	}
}

func TestMetricsUnmatchedWeightsIgnored(t *testing.T) {
	dates := businessDays(day(2024, 1, 2), 10)
	store := newTestStore(t, dates, map[string][]float64{"A": alternating(len(dates), 10, 0.03)})
	engine := newTestEngine()
	weights := Weights{"A": 1, "GHOST": 1}

	sim, err := engine.Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	metrics := engine.Metrics(store, weights, sim.Portfolio)
	assert.InDelta(t, metrics.AssetVolatility["A"], metrics.WeightedAssetVol, 1e-12)
	assert.NotContains(t, metrics.AssetVolatility, "GHOST")
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.05}))
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0, 0, 0}))

	// sample std of {0.01, -0.01} is sqrt(0.0002)
	expected := math.Sqrt(0.0002) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility([]float64{0.01, -0.01}), 1e-12)
}

func TestTotalReturn(t *testing.T) {
	assert.Equal(t, 0.0, TotalReturn(nil))
	assert.Equal(t, 0.0, TotalReturn([]float64{0, 10}))
	assert.InDelta(t, 0.2, TotalReturn([]float64{100, 90, 120}), 1e-12)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, sharpeRatio([]float64{0, 0, 0}, 0.02))
	assert.Greater(t, sharpeRatio([]float64{0.01, 0.02, -0.01, 0.03}, 0), 0.0)
}

func TestSummarize(t *testing.T) {
	dates := []time.Time{day(2024, 3, 4), day(2024, 3, 5), day(2024, 3, 6)}
	store := newTestStore(t, dates, map[string][]float64{
		"A": {100, 110, 121},
		"B": {50, 50, 55},
	})
	engine := newTestEngine()
	weights := Weights{"A": 0.5, "B": 0.5}
	sim, err := engine.Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	metrics := engine.Metrics(store, weights, sim.Portfolio)

	summary := Summarize(sim, metrics)
	assert.Equal(t, day(2024, 3, 6), summary.AsOf)
	assert.InDelta(t, 115.5, summary.CurrentValue, 1e-9)
	assert.InDelta(t, 105, summary.PreviousValue, 1e-9)
	assert.InDelta(t, 0.1, summary.DailyChange, 1e-9)
	assert.Equal(t, 2, summary.AssetCount)
	assert.Equal(t, metrics.Volatility, summary.Volatility)
}

func TestSummarizeSingleDay(t *testing.T) {
	store := newTestStore(t, []time.Time{day(2024, 3, 4)}, map[string][]float64{"A": {42}})
	engine := newTestEngine()
	sim, err := engine.Simulate(store, Weights{"A": 1}, RebalanceNone)
	require.NoError(t, err)

	summary := Summarize(sim, engine.Metrics(store, Weights{"A": 1}, sim.Portfolio))
	assert.Equal(t, Base, summary.CurrentValue)
	assert.Equal(t, 0.0, summary.PreviousValue)
	assert.Equal(t, 0.0, summary.DailyChange)
	assert.Equal(t, 0.0, summary.Volatility)
}
