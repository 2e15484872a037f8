package portfolio

import "time"

// holdings is the dollar value held in each asset, in store column order.
type holdings []float64

func initialHoldings(target []float64) holdings {
	h := make(holdings, len(target))
	for i, w := range target {
		h[i] = Base * w
	}
	return h
}

func (h holdings) total() float64 {
	sum := 0.0
	for _, v := range h {
		sum += v
	}
	return sum
}

// rebalance resets every position to its target share of the current total.
func (h holdings) rebalance(target []float64) holdings {
	total := h.total()
	next := make(holdings, len(h))
	for i, w := range target {
		next[i] = total * w
	}
	return next
}

// grow applies the return between rows t-1 and t to each position.
func (h holdings) grow(columns [][]float64, t int) holdings {
	next := make(holdings, len(h))
	for i, v := range h {
		r := columns[i][t]/columns[i][t-1] - 1
		next[i] = v * (1 + r)
	}
	return next
}

// rebalanced folds over the dates carrying the holdings forward. The
// holdings on day t depend on day t-1, so the loop is strictly sequential.
func rebalanced(dates []time.Time, columns [][]float64, target []float64, policy RebalancePolicy) ([]float64, []time.Time) {
	values := make([]float64, len(dates))
	var rebalances []time.Time

	positions := initialHoldings(target)
	values[0] = positions.total()
	for t := 1; t < len(dates); t++ {
		if policy.crosses(dates[t-1], dates[t]) {
			positions = positions.rebalance(target)
			rebalances = append(rebalances, dates[t])
		}
		positions = positions.grow(columns, t)
		values[t] = positions.total()
	}
	return values, rebalances
}
