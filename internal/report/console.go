package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yourusername/portfolio-lab/internal/portfolio"
)

// Analysis bundles what the console report shows
type Analysis struct {
	Simulation  *portfolio.SimulationResult
	Metrics     portfolio.MetricsResult
	Correlation *portfolio.CorrelationMatrix
	Weights     portfolio.Weights
	Warnings    []string
}

// GenerateConsoleReport formats an analysis for terminal output
func GenerateConsoleReport(a Analysis) string {
	var b strings.Builder
	b.WriteString("Portfolio Report\n")
	b.WriteString("================\n")

	if sim := a.Simulation; sim != nil && len(sim.Portfolio) > 0 {
		first, last := sim.Portfolio[0], sim.Portfolio.Last()
		b.WriteString(fmt.Sprintf("Period: %s to %s (%d trading days)\n",
			first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(sim.Portfolio)))
		b.WriteString(fmt.Sprintf("Rebalancing: %s (%d rebalances)\n", sim.Policy, len(sim.Rebalances)))
		b.WriteString(fmt.Sprintf("Final Value: %.2f (Base 100)\n", last.Value))
	}

	m := a.Metrics
	b.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", m.TotalReturn*100))
	b.WriteString(fmt.Sprintf("Annualized Volatility: %.2f%%\n", m.Volatility*100))
	b.WriteString(fmt.Sprintf("Weighted Asset Volatility: %.2f%%\n", m.WeightedAssetVol*100))
	b.WriteString(fmt.Sprintf("Diversification Effect: %.4f\n", m.Diversification))
	b.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", m.SharpeRatio))
	b.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown*100))

	if len(m.AssetVolatility) > 0 {
		b.WriteString("\nAssets\n------\n")
		assets := make([]string, 0, len(m.AssetVolatility))
		for asset := range m.AssetVolatility {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			b.WriteString(fmt.Sprintf("%-10s weight %6.2f%%  vol %6.2f%%\n",
				asset, a.Weights.Of(asset)*100, m.AssetVolatility[asset]*100))
		}
	}

	if a.Correlation != nil && a.Correlation.Size() > 0 {
		b.WriteString("\nCorrelation Matrix\n------------------\n")
		b.WriteString(FormatCorrelation(a.Correlation))
	}

	if len(a.Warnings) > 0 {
		b.WriteString("\nWarnings\n--------\n")
		for _, w := range a.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

// FormatCorrelation renders the matrix as an aligned table; undefined
// entries print as n/a.
func FormatCorrelation(c *portfolio.CorrelationMatrix) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-10s", ""))
	for _, asset := range c.Assets {
		b.WriteString(fmt.Sprintf("%10s", asset))
	}
	b.WriteString("\n")
	for i, asset := range c.Assets {
		b.WriteString(fmt.Sprintf("%-10s", asset))
		for j := range c.Assets {
			v := c.At(i, j)
			if math.IsNaN(v) {
				b.WriteString(fmt.Sprintf("%10s", "n/a"))
				continue
			}
			b.WriteString(fmt.Sprintf("%10.2f", v))
		}
		b.WriteString("\n")
	}
	return b.String()
}
