// Package report renders analysis results for people and files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
)

const separator = "----------------------------------------"

var hundred = decimal.NewFromInt(100)

// NewDailyReport rounds a summary into a persistable report entry. The
// requested count defaults to the assets that returned data.
func NewDailyReport(runAt time.Time, summary portfolio.Summary, snapshotID *uuid.UUID) *models.DailyReport {
	return &models.DailyReport{
		ID:              uuid.New(),
		RunAt:           runAt,
		AsOf:            summary.AsOf,
		AssetCount:      summary.AssetCount,
		RequestedCount:  summary.AssetCount,
		PortfolioValue:  decimal.NewFromFloat(summary.CurrentValue).Round(4),
		DailyChange:     decimal.NewFromFloat(summary.DailyChange).Round(6),
		Volatility:      decimal.NewFromFloat(summary.Volatility).Round(6),
		Diversification: decimal.NewFromFloat(summary.Diversification).Round(6),
		SnapshotID:      snapshotID,
	}
}

// FormatDailyEntry renders the text block appended to the daily log.
func FormatDailyEntry(r *models.DailyReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] AUTOMATED REPORT\n", r.RunAt.Format("2006-01-02 15:04:05")))
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("Assets count         : %d%s\n", r.AssetCount, missingNote(r)))
	b.WriteString(fmt.Sprintf("Portfolio Value      : %s (Base 100)\n", r.PortfolioValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("24h Performance      : %s\n", signedPercent(r.DailyChange)))
	b.WriteString(fmt.Sprintf("Annualized Volatility: %s%%\n", r.Volatility.Mul(hundred).StringFixed(2)))
	b.WriteString(fmt.Sprintf("Diversification Gain : %s\n", r.Diversification.StringFixed(4)))
	b.WriteString(separator + "\n\n")
	return b.String()
}

// missingNote flags requested assets that returned no prices.
func missingNote(r *models.DailyReport) string {
	missing := r.RequestedCount - r.AssetCount
	if missing <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d requested, %d without data)", r.RequestedCount, missing)
}

func signedPercent(v decimal.Decimal) string {
	s := v.Mul(hundred).StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// LogWriter appends report entries to a text file.
type LogWriter struct {
	path string
	mu   sync.Mutex
}

// NewLogWriter creates a writer for path
func NewLogWriter(path string) *LogWriter {
	return &LogWriter{path: path}
}

// Path returns the log file path
func (w *LogWriter) Path() string {
	return w.path
}

// Append writes entry at the end of the log, creating it when missing.
func (w *LogWriter) Append(entry string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report log: %w", err)
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return fmt.Errorf("failed to append report: %w", err)
	}
	return f.Close()
}
