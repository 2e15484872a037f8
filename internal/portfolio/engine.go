// Package portfolio simulates multi-asset portfolios over a price store and
// derives risk and diversification metrics from the result.
package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/pricestore"
)

// Base is the value every normalized series starts from
const Base = 100.0

// SimulationResult holds the value paths produced by Simulate
type SimulationResult struct {
	Policy     RebalancePolicy        `json:"policy"`
	Assets     []string               `json:"assets"`
	Normalized map[string]ValueSeries `json:"normalized"`
	Portfolio  ValueSeries            `json:"portfolio"`
	Rebalances []time.Time            `json:"rebalances,omitempty"`
	Ignored    []string               `json:"ignored,omitempty"`
}

// Engine runs portfolio simulations. It keeps no state between calls, so one
// Engine and one Store can serve concurrent simulations.
type Engine struct {
	config Config
	logger *logrus.Logger
}

// NewEngine creates a new portfolio engine
func NewEngine(cfg Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: cfg, logger: logger}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// Simulate computes the base-100 portfolio value path for weights under policy.
//
// With RebalanceNone each asset is normalized to 100 on the first date and the
// portfolio is the weighted sum of the normalized series, i.e. a buy-and-hold
// whose weights drift with returns. Periodic policies track dollar positions
// and reset them to target weights on the first trading day of each new period.
func (e *Engine) Simulate(store *pricestore.Store, weights Weights, policy RebalancePolicy) (*SimulationResult, error) {
	if store.Empty() {
		return nil, fmt.Errorf("simulate: %w", models.ErrDataUnavailable)
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("simulate: unknown rebalance policy %d", int(policy))
	}

	ignored := weights.Unmatched(store)
	if len(ignored) > 0 {
		if e.config.StrictWeights {
			return nil, fmt.Errorf("simulate: %w: %s", models.ErrUnknownAsset, strings.Join(ignored, ", "))
		}
		e.logger.WithField("assets", ignored).Debug("Ignoring weights without price data")
	}

	assets := store.Assets()
	dates := store.Dates()
	columns := make([][]float64, len(assets))
	normalized := make(map[string]ValueSeries, len(assets))
	normColumns := make([][]float64, len(assets))
	for i, asset := range assets {
		columns[i], _ = store.Column(asset)
		normColumns[i] = normalize(columns[i])
		normalized[asset] = newSeries(dates, normColumns[i])
	}
	target := weights.targets(assets)

	var values []float64
	var rebalances []time.Time
	if policy == RebalanceNone {
		values = buyAndHold(normColumns, target)
	} else {
		values, rebalances = rebalanced(dates, columns, target, policy)
	}

	e.logger.WithFields(logrus.Fields{
		"policy":     policy.String(),
		"assets":     len(assets),
		"days":       len(dates),
		"rebalances": len(rebalances),
	}).Debug("Simulation completed")

	return &SimulationResult{
		Policy:     policy,
		Assets:     assets,
		Normalized: normalized,
		Portfolio:  newSeries(dates, values),
		Rebalances: rebalances,
		Ignored:    ignored,
	}, nil
}

// normalize rescales prices so the first value equals Base.
func normalize(prices []float64) []float64 {
	out := make([]float64, len(prices))
	first := prices[0]
	for i, p := range prices {
		out[i] = p / first * Base
	}
	return out
}

// buyAndHold weights the normalized series without ever trading.
func buyAndHold(normalized [][]float64, target []float64) []float64 {
	if len(normalized) == 0 {
		return nil
	}
	values := make([]float64, len(normalized[0]))
	for t := range values {
		total := 0.0
		for i := range normalized {
			total += target[i] * normalized[i][t]
		}
		values[t] = total
	}
	return values
}
