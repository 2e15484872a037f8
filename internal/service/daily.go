package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/portfolio-lab/internal/allocation"
	"github.com/yourusername/portfolio-lab/internal/config"
	"github.com/yourusername/portfolio-lab/internal/logger"
	"github.com/yourusername/portfolio-lab/internal/metrics"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
	"github.com/yourusername/portfolio-lab/internal/report"
	"github.com/yourusername/portfolio-lab/internal/repository"
)

// DefaultReportLookback is the daily report price window
const DefaultReportLookback = "3mo"

// DailyReportService builds and records the automated daily report
type DailyReportService struct {
	analysis  *AnalysisService
	snapshots repository.SnapshotRepository
	reports   repository.ReportRepository
	writer    *report.LogWriter
	audit     *logger.AuditLogger
	logger    *logrus.Logger
	lookback  string
	now       func() time.Time
}

// DailyReportConfig wires a DailyReportService. Reports may be nil.
type DailyReportConfig struct {
	Analysis  *AnalysisService
	Snapshots repository.SnapshotRepository
	Reports   repository.ReportRepository
	Writer    *report.LogWriter
	Logger    *logrus.Logger
	Lookback  string
}

// NewDailyReportService creates a new daily report service
func NewDailyReportService(cfg DailyReportConfig) *DailyReportService {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	lookback := cfg.Lookback
	if lookback == "" {
		lookback = DefaultReportLookback
	}
	return &DailyReportService{
		analysis:  cfg.Analysis,
		snapshots: cfg.Snapshots,
		reports:   cfg.Reports,
		writer:    cfg.Writer,
		audit:     logger.NewAuditLogger(log),
		logger:    log,
		lookback:  lookback,
		now:       time.Now,
	}
}

// Run generates one report; it satisfies scheduler.Job.
func (s *DailyReportService) Run(ctx context.Context) error {
	_, err := s.Generate(ctx)
	return err
}

// Generate loads the saved allocation (or the default one), analyzes it
// without rebalancing and appends the entry to the report log.
func (s *DailyReportService) Generate(ctx context.Context) (*models.DailyReport, error) {
	tickers, weights, snapshotID := s.allocation(ctx)

	result, err := s.analysis.Analyze(ctx, AnalysisRequest{
		Tickers:  tickers,
		Weights:  weights,
		Policy:   portfolio.RebalanceNone,
		Lookback: s.lookback,
	})
	if err != nil {
		metrics.RecordReport(false, 0, 0, 0, 0)
		return nil, fmt.Errorf("daily report: %w", err)
	}

	entry := report.NewDailyReport(s.now(), result.Summary, snapshotID)
	entry.RequestedCount = len(tickers)
	if err := s.writer.Append(report.FormatDailyEntry(entry)); err != nil {
		metrics.RecordReport(false, 0, 0, 0, 0)
		return nil, fmt.Errorf("daily report: %w", err)
	}
	value, _ := entry.PortfolioValue.Float64()
	s.audit.LogReportAppended(entry.ID.String(), s.writer.Path(), entry.AsOf, value)

	if s.reports != nil {
		if err := s.reports.Create(ctx, entry); err != nil {
			s.logger.WithError(err).Warn("Failed to store daily report in database")
		}
	}

	metrics.RecordReport(true, float64(entry.RunAt.Unix()),
		result.Summary.CurrentValue, result.Summary.Volatility, result.Summary.Diversification)
	return entry, nil
}

// allocation returns the latest snapshot's allocation, or the default tickers
// equally weighted when none is stored or it cannot be read.
func (s *DailyReportService) allocation(ctx context.Context) ([]string, portfolio.Weights, *uuid.UUID) {
	snapshot, err := s.snapshots.Latest(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		s.logger.Info("No saved allocation found, using default portfolio")
	case err != nil:
		s.logger.WithError(err).Warn("Failed to read saved allocation, using default portfolio")
	case len(snapshot.Tickers) == 0 || len(snapshot.Weights) == 0:
		s.logger.Warn("Saved allocation is incomplete, using default portfolio")
	default:
		s.logger.WithField("tickers", snapshot.Tickers).Info("Loaded saved allocation")
		var id *uuid.UUID
		if snapshot.ID != uuid.Nil {
			snapID := snapshot.ID
			id = &snapID
		}
		return snapshot.Tickers, portfolio.Weights(snapshot.Weights), id
	}

	tickers := append([]string(nil), config.DefaultTickers...)
	return tickers, allocation.EqualWeight(tickers), nil
}
