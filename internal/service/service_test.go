package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/portfolio-lab/internal/config"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
	"github.com/yourusername/portfolio-lab/internal/report"
	"github.com/yourusername/portfolio-lab/internal/repository"
)

type fakeSource struct {
	mu        sync.Mutex
	histories map[string][]models.PricePoint
	failures  map[string]error
	requested []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchHistory(ctx context.Context, symbol, lookback string) ([]models.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, symbol+"|"+lookback)
	if err, ok := f.failures[symbol]; ok {
		return nil, err
	}
	return f.histories[symbol], nil
}

func points(first time.Time, closes ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{Date: first.AddDate(0, 0, i), Close: c}
	}
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newFakeSource() *fakeSource {
	return &fakeSource{
		histories: map[string][]models.PricePoint{
			"AIR.PA": points(day0, 100, 110, 121),
			"MC.PA":  points(day0, 50, 50, 55),
			"SAN.PA": points(day0, 80, 79, 81),
			"TTE.PA": points(day0, 60, 62, 61),
		},
		failures: map[string]error{},
	}
}

func newService(source *fakeSource) *AnalysisService {
	logger := quietLogger()
	return NewAnalysisService(source, portfolio.NewEngine(portfolio.Config{}, logger), logger, 2)
}

func kinds(warnings []Warning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.Kind
	}
	sort.Strings(out)
	return out
}

func TestAnalyze(t *testing.T) {
	svc := newService(newFakeSource())

	result, err := svc.Analyze(context.Background(), AnalysisRequest{
		Tickers:   []string{"AIR.PA", "MC.PA"},
		Weights:   portfolio.Weights{"AIR.PA": 0.5, "MC.PA": 0.5},
		Policy:    portfolio.RebalanceNone,
		Lookback:  "3mo",
		MinAssets: 2,
	})
	require.NoError(t, err)

	require.Len(t, result.Simulation.Portfolio, 3)
	assert.InDelta(t, 115.5, result.Summary.CurrentValue, 1e-9)
	assert.InDelta(t, 105.0, result.Summary.PreviousValue, 1e-9)
	assert.InDelta(t, 0.1, result.Summary.DailyChange, 1e-9)
	assert.Equal(t, 2, result.Summary.AssetCount)
	assert.Equal(t, 2, result.Correlation.Size())
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeWarnings(t *testing.T) {
	source := newFakeSource()
	source.failures["BAD.PA"] = errors.New("not found")
	source.histories["LATE.PA"] = points(day0.AddDate(0, 0, 1), 20, 21)
	svc := newService(source)

	result, err := svc.Analyze(context.Background(), AnalysisRequest{
		Tickers:   []string{"AIR.PA", "BAD.PA", "LATE.PA"},
		Weights:   portfolio.Weights{"AIR.PA": 0.5, "BAD.PA": 0.3, "LATE.PA": 0.1},
		Policy:    portfolio.RebalanceMonthly,
		Lookback:  "1y",
		MinAssets: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		WarnBackfilled,
		WarnDroppedAssets,
		WarnFetchFailed,
		WarnMinAssets,
		WarnUnmatchedWeights,
		WarnWeightSum,
	}, kinds(result.Warnings))
	assert.Equal(t, []string{"AIR.PA", "LATE.PA"}, result.Simulation.Assets)
	assert.Equal(t, []string{"BAD.PA"}, result.Simulation.Ignored)
	assert.Len(t, result.WarningMessages(), len(result.Warnings))
}

func TestAnalyzeNoData(t *testing.T) {
	source := newFakeSource()
	source.failures["X"] = errors.New("boom")
	svc := newService(source)

	_, err := svc.Analyze(context.Background(), AnalysisRequest{
		Tickers:  []string{"X"},
		Weights:  portfolio.Weights{"X": 1},
		Lookback: "3mo",
	})
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	svc := newService(newFakeSource())

	_, err := svc.Analyze(context.Background(), AnalysisRequest{Lookback: "3mo"})
	require.Error(t, err)

	_, err = svc.Analyze(context.Background(), AnalysisRequest{
		Tickers:  []string{"AIR.PA"},
		Weights:  portfolio.Weights{"AIR.PA": 1},
		Lookback: "7w",
	})
	require.Error(t, err)
}

func TestFetchHistoriesCancelled(t *testing.T) {
	svc := newService(newFakeSource())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.FetchHistories(ctx, []string{"AIR.PA", "MC.PA"}, "3mo")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchHistoriesRequestsEveryTicker(t *testing.T) {
	source := newFakeSource()
	svc := newService(source)
	tickers := []string{"AIR.PA", "MC.PA", "SAN.PA", "TTE.PA"}

	histories, warnings, err := svc.FetchHistories(context.Background(), tickers, "6mo")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Len(t, histories, 4)

	sort.Strings(source.requested)
	assert.Equal(t, []string{"AIR.PA|6mo", "MC.PA|6mo", "SAN.PA|6mo", "TTE.PA|6mo"}, source.requested)
}

type memoryReports struct {
	created []*models.DailyReport
	err     error
}

func (m *memoryReports) Create(ctx context.Context, r *models.DailyReport) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, r)
	return nil
}

func (m *memoryReports) GetRecent(ctx context.Context, limit int) ([]*models.DailyReport, error) {
	return m.created, nil
}

func newDailyService(t *testing.T, source *fakeSource, snapshots repository.SnapshotRepository, reports repository.ReportRepository) (*DailyReportService, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "daily_logs.txt")
	svc := NewDailyReportService(DailyReportConfig{
		Analysis:  newService(source),
		Snapshots: snapshots,
		Reports:   reports,
		Writer:    report.NewLogWriter(logPath),
		Logger:    quietLogger(),
	})
	svc.now = func() time.Time { return time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC) }
	return svc, logPath
}

func TestDailyReportFallsBackToDefaults(t *testing.T) {
	source := newFakeSource()
	snapshots := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "missing.json"))
	svc, logPath := newDailyService(t, source, snapshots, nil)

	entry, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(config.DefaultTickers), entry.AssetCount)
	assert.Nil(t, entry.SnapshotID)

	for _, r := range source.requested {
		assert.True(t, strings.HasSuffix(r, "|"+DefaultReportLookback))
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[2024-03-06 18:00:00] AUTOMATED REPORT\n"))
	assert.Contains(t, string(data), "Assets count         : 4\n")
}

func TestDailyReportUsesSavedSnapshot(t *testing.T) {
	source := newFakeSource()
	snapshots := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "portfolio_config.json"))
	saved, err := NewSnapshotService(snapshots, "file", quietLogger()).
		Save(context.Background(), []string{"AIR.PA", "MC.PA"}, portfolio.Weights{"AIR.PA": 0.5, "MC.PA": 0.5}, []string{"CAC40"})
	require.NoError(t, err)

	reports := &memoryReports{}
	svc, logPath := newDailyService(t, source, snapshots, reports)

	require.NoError(t, svc.Run(context.Background()))
	_, err = svc.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, reports.created, 2)
	entry := reports.created[0]
	assert.Equal(t, 2, entry.AssetCount)
	assert.Equal(t, "115.5", entry.PortfolioValue.String())
	require.NotNil(t, entry.SnapshotID)
	assert.Equal(t, saved.ID, *entry.SnapshotID)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "AUTOMATED REPORT"))
	assert.Contains(t, string(data), "24h Performance      : +10.00%\n")
}

func TestDailyReportCountsAssetsWithoutData(t *testing.T) {
	source := newFakeSource()
	source.failures["SAN.PA"] = errors.New("delisted")
	snapshots := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "missing.json"))
	svc, logPath := newDailyService(t, source, snapshots, nil)

	entry, err := svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, entry.AssetCount)
	assert.Equal(t, 4, entry.RequestedCount)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Assets count         : 3 (4 requested, 1 without data)\n")
}

func TestDailyReportDatabaseFailureIsNotFatal(t *testing.T) {
	snapshots := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "missing.json"))
	svc, _ := newDailyService(t, newFakeSource(), snapshots, &memoryReports{err: errors.New("db down")})

	_, err := svc.Generate(context.Background())
	require.NoError(t, err)
}

func TestDailyReportNoData(t *testing.T) {
	source := &fakeSource{failures: map[string]error{}}
	for _, ticker := range config.DefaultTickers {
		source.failures[ticker] = errors.New("offline")
	}
	snapshots := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "missing.json"))
	svc, logPath := newDailyService(t, source, snapshots, nil)

	_, err := svc.Generate(context.Background())
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	_, statErr := os.Stat(logPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSnapshotServiceRejectsEmpty(t *testing.T) {
	snapshots := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "s.json"))
	_, err := NewSnapshotService(snapshots, "file", nil).Save(context.Background(), nil, nil, nil)
	require.Error(t, err)
}
