package portfolio

import (
	"math"

	"github.com/yourusername/portfolio-lab/internal/pricestore"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics
const TradingDaysPerYear = 252

// MetricsResult represents portfolio performance and risk metrics
type MetricsResult struct {
	TotalReturn      float64            `json:"total_return"`
	Volatility       float64            `json:"volatility"`
	Diversification  float64            `json:"diversification"`
	WeightedAssetVol float64            `json:"weighted_asset_volatility"`
	AssetVolatility  map[string]float64 `json:"asset_volatility"`
	SharpeRatio      float64            `json:"sharpe_ratio"`
	MaxDrawdown      float64            `json:"max_drawdown"`
	TradingDays      int                `json:"trading_days"`
}

// Metrics derives scalar statistics from a simulated portfolio series.
//
// Per-asset volatilities come from each store asset's own daily returns over
// the full window. Weights for assets absent from the store are ignored.
func (e *Engine) Metrics(store *pricestore.Store, weights Weights, portfolio ValueSeries) MetricsResult {
	returns := portfolio.Returns()
	result := MetricsResult{
		TotalReturn:     TotalReturn(portfolio.Values()),
		Volatility:      AnnualizedVolatility(returns),
		AssetVolatility: make(map[string]float64),
		SharpeRatio:     sharpeRatio(returns, e.config.RiskFreeRate),
		MaxDrawdown:     portfolio.MaxDrawdown(),
		TradingDays:     len(portfolio),
	}

	for _, asset := range store.Assets() {
		vol := AnnualizedVolatility(store.Returns(asset))
		result.AssetVolatility[asset] = vol
		result.WeightedAssetVol += weights.Of(asset) * vol
	}
	result.Diversification = result.WeightedAssetVol - result.Volatility

	return result
}

// TotalReturn returns (last-first)/first, zero when undefined.
func TotalReturn(values []float64) float64 {
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	return (values[len(values)-1] - values[0]) / values[0]
}

// AnnualizedVolatility is the sample standard deviation of daily returns
// scaled by the square root of TradingDaysPerYear.
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
}

func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/TradingDaysPerYear) / std * math.Sqrt(TradingDaysPerYear)
}
