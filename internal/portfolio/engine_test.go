package portfolio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/pricestore"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func businessDays(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for d := start; len(dates) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func newTestStore(t *testing.T, dates []time.Time, columns map[string][]float64) *pricestore.Store {
	t.Helper()
	store, err := pricestore.FromColumns(dates, columns)
	require.NoError(t, err)
	return store
}

func newTestEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewEngine(Config{}, logger)
}

func TestSimulateStartsAtBase(t *testing.T) {
	dates := businessDays(day(2024, 1, 2), 60)
	a := make([]float64, len(dates))
	b := make([]float64, len(dates))
	for i := range dates {
		a[i] = 37 + float64(i)*0.3
		b[i] = 412 - float64(i%7)
	}
	store := newTestStore(t, dates, map[string][]float64{"A": a, "B": b})
	engine := newTestEngine()

	policies := []RebalancePolicy{RebalanceNone, RebalanceMonthly, RebalanceQuarterly, RebalanceYearly}
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			sim, err := engine.Simulate(store, Weights{"A": 0.3, "B": 0.7}, policy)
			require.NoError(t, err)
			require.Len(t, sim.Portfolio, len(dates))
			assert.InDelta(t, Base, sim.Portfolio[0].Value, 1e-9)
			for _, asset := range sim.Assets {
				assert.InDelta(t, Base, sim.Normalized[asset][0].Value, 1e-9)
			}
		})
	}
}

func TestSimulateBuyAndHold(t *testing.T) {
	dates := []time.Time{day(2024, 3, 4), day(2024, 3, 5), day(2024, 3, 6)}
	store := newTestStore(t, dates, map[string][]float64{
		"A": {100, 110, 121},
		"B": {50, 50, 55},
	})

	sim, err := newTestEngine().Simulate(store, Weights{"A": 0.5, "B": 0.5}, RebalanceNone)
	require.NoError(t, err)

	expected := []float64{100, 105, 115.5}
	require.Len(t, sim.Portfolio, len(expected))
	for i, v := range expected {
		assert.InDelta(t, v, sim.Portfolio[i].Value, 1e-9, "day %d", i)
		assert.Equal(t, dates[i], sim.Portfolio[i].Date)
	}
	assert.Empty(t, sim.Rebalances)
	assert.InDelta(t, 110.0, sim.Normalized["B"][2].Value, 1e-9)
}

func TestSimulateMonthlyWithinOneMonthMatchesCompounding(t *testing.T) {
	dates := businessDays(day(2024, 1, 2), 20)
	require.Equal(t, time.January, dates[len(dates)-1].Month())

	a := make([]float64, len(dates))
	b := make([]float64, len(dates))
	for i := range dates {
		a[i] = 80 * (1 + 0.01*float64(i%5))
		b[i] = 20 + float64(i)
	}
	store := newTestStore(t, dates, map[string][]float64{"A": a, "B": b})
	weights := Weights{"A": 0.6, "B": 0.4}

	sim, err := newTestEngine().Simulate(store, weights, RebalanceMonthly)
	require.NoError(t, err)
	assert.Empty(t, sim.Rebalances)

	posA, posB := Base*0.6, Base*0.4
	for i := range dates {
		if i > 0 {
			posA *= 1 + (a[i]/a[i-1] - 1)
			posB *= 1 + (b[i]/b[i-1] - 1)
		}
		assert.InDelta(t, posA+posB, sim.Portfolio[i].Value, 1e-12, "day %d", i)
	}
}

func TestSimulateMonthlyRebalancesOnFirstDayOfMonth(t *testing.T) {
	dates := []time.Time{day(2024, 1, 30), day(2024, 1, 31), day(2024, 2, 1)}
	store := newTestStore(t, dates, map[string][]float64{
		"A": {100, 200, 100},
		"B": {100, 100, 100},
	})
	engine := newTestEngine()
	weights := Weights{"A": 0.5, "B": 0.5}

	monthly, err := engine.Simulate(store, weights, RebalanceMonthly)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 150, 112.5}, monthly.Portfolio.Values())
	assert.Equal(t, []time.Time{day(2024, 2, 1)}, monthly.Rebalances)

	none, err := engine.Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 150, 100}, none.Portfolio.Values())
}

func TestSimulateRebalanceSchedule(t *testing.T) {
	dates := []time.Time{
		day(2023, 12, 28), day(2023, 12, 29), day(2024, 1, 2),
		day(2024, 3, 28), day(2024, 4, 1), day(2024, 4, 2),
	}
	prices := []float64{10, 11, 12, 13, 14, 15}
	store := newTestStore(t, dates, map[string][]float64{"A": prices, "B": prices})
	engine := newTestEngine()

	tests := []struct {
		policy   RebalancePolicy
		expected []time.Time
	}{
		{RebalanceNone, nil},
		{RebalanceMonthly, []time.Time{day(2024, 1, 2), day(2024, 3, 28), day(2024, 4, 1)}},
		{RebalanceQuarterly, []time.Time{day(2024, 1, 2), day(2024, 4, 1)}},
		{RebalanceYearly, []time.Time{day(2024, 1, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			sim, err := engine.Simulate(store, Weights{"A": 0.5, "B": 0.5}, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sim.Rebalances)
		})
	}
}

func TestSimulateUnmatchedWeights(t *testing.T) {
	dates := []time.Time{day(2024, 5, 1), day(2024, 5, 2)}
	store := newTestStore(t, dates, map[string][]float64{"A": {10, 20}})
	weights := Weights{"A": 0.5, "ZZZ": 0.5}

	sim, err := newTestEngine().Simulate(store, weights, RebalanceNone)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZZZ"}, sim.Ignored)
	assert.Equal(t, []float64{50, 100}, sim.Portfolio.Values())

	strict := NewEngine(Config{StrictWeights: true}, nil)
	_, err = strict.Simulate(store, weights, RebalanceNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownAsset))
}

func TestSimulateEmptyStore(t *testing.T) {
	_, err := newTestEngine().Simulate(nil, Weights{"A": 1}, RebalanceNone)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestSimulateInvalidPolicy(t *testing.T) {
	store := newTestStore(t, []time.Time{day(2024, 5, 1)}, map[string][]float64{"A": {10}})
	_, err := newTestEngine().Simulate(store, Weights{"A": 1}, RebalancePolicy(42))
	assert.Error(t, err)
}

func TestSimulateIsDeterministic(t *testing.T) {
	dates := businessDays(day(2023, 11, 1), 120)
	columns := map[string][]float64{}
	for k, asset := range []string{"A", "B", "C", "D"} {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = 50 + float64((i*(k+3))%17) + float64(k)
		}
		columns[asset] = col
	}
	store := newTestStore(t, dates, columns)
	engine := newTestEngine()
	weights := Weights{"A": 0.1, "B": 0.2, "C": 0.3, "D": 0.4}

	first, err := engine.Simulate(store, weights, RebalanceQuarterly)
	require.NoError(t, err)
	second, err := engine.Simulate(store, weights, RebalanceQuarterly)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateConcurrentCallsShareStore(t *testing.T) {
	dates := businessDays(day(2024, 1, 2), 80)
	a := make([]float64, len(dates))
	b := make([]float64, len(dates))
	for i := range dates {
		a[i] = 100 + float64(i%9)
		b[i] = 60 - float64(i%4)
	}
	store := newTestStore(t, dates, map[string][]float64{"A": a, "B": b})
	engine := newTestEngine()
	weights := Weights{"A": 0.5, "B": 0.5}

	expected, err := engine.Simulate(store, weights, RebalanceMonthly)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*SimulationResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = engine.Simulate(store, weights, RebalanceMonthly)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, expected.Portfolio, r.Portfolio)
	}
}
