package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yourusername/portfolio-lab/internal/portfolio"
)

// ExportSeriesCSV writes one row per date with each normalized asset series
// and the portfolio value.
func ExportSeriesCSV(sim *portfolio.SimulationResult, outputPath string) error {
	if sim == nil {
		return fmt.Errorf("no simulation to export")
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"date"}, sim.Assets...)
	header = append(header, "portfolio", "drawdown")
	if err := w.Write(header); err != nil {
		return err
	}
	for i, point := range sim.Portfolio {
		row := make([]string, 0, len(header))
		row = append(row, point.Date.Format("2006-01-02"))
		for _, asset := range sim.Assets {
			row = append(row, formatValue(sim.Normalized[asset][i].Value))
		}
		row = append(row, formatValue(point.Value), formatValue(point.Drawdown))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return f.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
