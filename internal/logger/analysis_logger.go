package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisLogger provides dedicated logging for portfolio analysis runs.
type AnalysisLogger struct {
	*logrus.Entry
}

// NewAnalysisLogger creates a new analysis logger.
func NewAnalysisLogger(baseLogger *logrus.Logger) *AnalysisLogger {
	return &AnalysisLogger{
		Entry: baseLogger.WithField("component", "analysis"),
	}
}

// LogFetch logs the outcome of fetching one asset's history.
func (al *AnalysisLogger) LogFetch(source, symbol, lookback string, points int, duration time.Duration, err error) {
	entry := al.WithFields(logrus.Fields{
		"source":      source,
		"symbol":      symbol,
		"lookback":    lookback,
		"points":      points,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("Price history fetch failed")
		return
	}
	entry.Debug("Price history fetched")
}

// LogSimulation logs a completed simulation with its headline metrics.
func (al *AnalysisLogger) LogSimulation(policy string, assets, days int, totalReturn, volatility, diversification float64) {
	al.WithFields(logrus.Fields{
		"policy":          policy,
		"assets":          assets,
		"days":            days,
		"total_return":    totalReturn,
		"volatility":      volatility,
		"diversification": diversification,
	}).Info("Portfolio simulation completed")
}

// LogWarning logs a non-blocking analysis warning.
func (al *AnalysisLogger) LogWarning(kind, message string) {
	al.WithFields(logrus.Fields{
		"warning": kind,
	}).Warn(message)
}
