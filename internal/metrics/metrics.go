// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio_lab"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SimulationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulations_total",
		Help:      "Total number of portfolio simulations by rebalance policy and status",
	}, []string{"policy", "status"})
	AnalysisWarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_warnings_total",
		Help:      "Total number of non-blocking analysis warnings by kind",
	}, []string{"kind"})
	ReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_reports_total",
		Help:      "Total number of daily report runs by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	PortfolioValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "portfolio_value",
		Help:      "Latest base-100 portfolio value from the daily report",
	})
	PortfolioVolatility = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "portfolio_volatility",
		Help:      "Latest annualized portfolio volatility",
	})
	DiversificationEffect = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "diversification_effect",
		Help:      "Latest diversification effect (weighted asset volatility minus portfolio volatility)",
	})
	LastReportTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_report_timestamp_seconds",
		Help:      "Unix time of the last successful daily report",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_duration_seconds",
		Help:      "Duration of simulation plus metrics computation in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(AnalysisWarningsTotal)
		registry.MustRegister(ReportsTotal)

		registry.MustRegister(PortfolioValue)
		registry.MustRegister(PortfolioVolatility)
		registry.MustRegister(DiversificationEffect)
		registry.MustRegister(LastReportTimestamp)

		registry.MustRegister(SimulationDuration)

		registry.MustRegister(PriceFetchesTotal)
		registry.MustRegister(PriceFetchDuration)
		registry.MustRegister(PriceCacheLookupsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSimulation records a simulation run.
func RecordSimulation(policy string, ok bool, durationSeconds float64) {
	SimulationsTotal.WithLabelValues(policy, status(ok)).Inc()
	if ok {
		SimulationDuration.Observe(durationSeconds)
	}
}

// RecordWarning records an analysis warning.
func RecordWarning(kind string) {
	AnalysisWarningsTotal.WithLabelValues(kind).Inc()
}

// RecordReport records a daily report run and, on success, its headline figures.
func RecordReport(ok bool, unixTime, value, volatility, diversification float64) {
	ReportsTotal.WithLabelValues(status(ok)).Inc()
	if !ok {
		return
	}
	LastReportTimestamp.Set(unixTime)
	PortfolioValue.Set(value)
	PortfolioVolatility.Set(volatility)
	DiversificationEffect.Set(diversification)
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
