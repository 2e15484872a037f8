// Package service orchestrates price fetching, simulation and reporting.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/portfolio-lab/internal/allocation"
	"github.com/yourusername/portfolio-lab/internal/datasource"
	"github.com/yourusername/portfolio-lab/internal/logger"
	"github.com/yourusername/portfolio-lab/internal/metrics"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
	"github.com/yourusername/portfolio-lab/internal/pricestore"
)

// DefaultConcurrency bounds parallel history fetches
const DefaultConcurrency = 4

// Warning kinds
const (
	WarnFetchFailed      = "fetch_failed"
	WarnDroppedAssets    = "dropped_assets"
	WarnBackfilled       = "backfilled"
	WarnMinAssets        = "min_assets"
	WarnWeightSum        = "weight_sum"
	WarnUnmatchedWeights = "unmatched_weights"
)

// Warning is a non-blocking finding surfaced alongside a result
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// AnalysisRequest describes one portfolio analysis
type AnalysisRequest struct {
	Tickers   []string
	Weights   portfolio.Weights
	Policy    portfolio.RebalancePolicy
	Lookback  string
	MinAssets int
	Tolerance float64
}

// AnalysisResult bundles everything computed for a request
type AnalysisResult struct {
	Store       *pricestore.Store
	Simulation  *portfolio.SimulationResult
	Metrics     portfolio.MetricsResult
	Correlation *portfolio.CorrelationMatrix
	Summary     portfolio.Summary
	Warnings    []Warning
}

// WarningMessages returns the warning texts
func (r *AnalysisResult) WarningMessages() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Message
	}
	return out
}

// AnalysisService fetches prices and runs the portfolio engine
type AnalysisService struct {
	source      datasource.PriceSource
	engine      *portfolio.Engine
	logger      *logger.AnalysisLogger
	concurrency int
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(source datasource.PriceSource, engine *portfolio.Engine, baseLogger *logrus.Logger, concurrency int) *AnalysisService {
	if baseLogger == nil {
		baseLogger = logrus.New()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &AnalysisService{
		source:      source,
		engine:      engine,
		logger:      logger.NewAnalysisLogger(baseLogger),
		concurrency: concurrency,
	}
}

// FetchHistories fetches every ticker concurrently. A failed ticker maps to a
// nil history and a warning; only context cancellation aborts the whole call.
func (s *AnalysisService) FetchHistories(ctx context.Context, tickers []string, lookback string) (map[string][]models.PricePoint, []Warning, error) {
	histories := make([][]models.PricePoint, len(tickers))
	errs := make([]error, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, symbol := range tickers {
		i, symbol := i, symbol
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			points, err := s.source.FetchHistory(gctx, symbol, lookback)
			elapsed := time.Since(start)
			metrics.RecordFetch(s.source.Name(), err == nil, elapsed.Seconds())
			s.logger.LogFetch(s.source.Name(), symbol, lookback, len(points), elapsed, err)
			histories[i], errs[i] = points, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("fetch histories: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("fetch histories: %w", err)
	}

	out := make(map[string][]models.PricePoint, len(tickers))
	var warnings []Warning
	for i, symbol := range tickers {
		out[symbol] = histories[i]
		if errs[i] != nil {
			warnings = append(warnings, Warning{
				Kind:    WarnFetchFailed,
				Message: fmt.Sprintf("could not fetch %s: %v", symbol, errs[i]),
			})
		}
	}
	return out, warnings, nil
}

// BuildStore fetches tickers and aligns them into a price store.
func (s *AnalysisService) BuildStore(ctx context.Context, tickers []string, lookback string) (*pricestore.Store, []Warning, error) {
	if err := datasource.ValidateLookback(lookback); err != nil {
		return nil, nil, err
	}
	histories, warnings, err := s.FetchHistories(ctx, tickers, lookback)
	if err != nil {
		return nil, nil, err
	}

	store, err := pricestore.New(histories)
	if err != nil {
		return nil, warnings, err
	}

	if dropped := store.Dropped(); len(dropped) > 0 {
		warnings = append(warnings, Warning{
			Kind:    WarnDroppedAssets,
			Message: fmt.Sprintf("no price data for %s, excluded from the analysis", strings.Join(dropped, ", ")),
		})
	}
	for _, asset := range store.Assets() {
		if n := store.LeadingFill(asset); n > 0 {
			warnings = append(warnings, Warning{
				Kind:    WarnBackfilled,
				Message: fmt.Sprintf("%s has no data for its first %d days, backfilled with its first price", asset, n),
			})
		}
	}
	return store, warnings, nil
}

// Analyze runs the full pipeline for req. Weight and universe problems are
// reported as warnings and never block the simulation.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("analyze: at least one ticker is required")
	}

	var warnings []Warning
	if req.MinAssets > 0 && len(req.Tickers) < req.MinAssets {
		warnings = append(warnings, Warning{
			Kind:    WarnMinAssets,
			Message: fmt.Sprintf("%d assets selected, at least %d recommended for diversification", len(req.Tickers), req.MinAssets),
		})
	}
	if err := allocation.CheckSum(req.Weights, req.Tolerance); err != nil {
		warnings = append(warnings, Warning{Kind: WarnWeightSum, Message: err.Error()})
	}

	store, fetchWarnings, err := s.BuildStore(ctx, req.Tickers, req.Lookback)
	warnings = append(warnings, fetchWarnings...)
	if err != nil {
		s.report(warnings)
		metrics.RecordSimulation(req.Policy.String(), false, 0)
		return nil, fmt.Errorf("analyze: %w", err)
	}

	start := time.Now()
	sim, err := s.engine.Simulate(store, req.Weights, req.Policy)
	if err != nil {
		s.report(warnings)
		metrics.RecordSimulation(req.Policy.String(), false, 0)
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if len(sim.Ignored) > 0 {
		ignored := append([]string(nil), sim.Ignored...)
		sort.Strings(ignored)
		warnings = append(warnings, Warning{
			Kind:    WarnUnmatchedWeights,
			Message: fmt.Sprintf("weights for %s have no price data and were ignored", strings.Join(ignored, ", ")),
		})
	}
	m := s.engine.Metrics(store, req.Weights, sim.Portfolio)
	corr := s.engine.Correlation(store)
	metrics.RecordSimulation(req.Policy.String(), true, time.Since(start).Seconds())

	s.report(warnings)
	s.logger.LogSimulation(req.Policy.String(), len(sim.Assets), len(sim.Portfolio), m.TotalReturn, m.Volatility, m.Diversification)

	return &AnalysisResult{
		Store:       store,
		Simulation:  sim,
		Metrics:     m,
		Correlation: corr,
		Summary:     portfolio.Summarize(sim, m),
		Warnings:    warnings,
	}, nil
}

func (s *AnalysisService) report(warnings []Warning) {
	for _, w := range warnings {
		s.logger.LogWarning(w.Kind, w.Message)
		metrics.RecordWarning(w.Kind)
	}
}
