package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/portfolio-lab/internal/models"
)

// CSVSource reads histories from <dir>/<SYMBOL>.csv files with a header row
// containing Date and Close (or Adj Close) columns.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a CSV directory source
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Name returns the name of the data source
func (c *CSVSource) Name() string {
	return "csv"
}

// FetchHistory reads symbol's file and keeps the rows inside lookback,
// measured back from the latest row.
func (c *CSVSource) FetchHistory(ctx context.Context, symbol, lookback string) ([]models.PricePoint, error) {
	if err := ValidateLookback(lookback); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidRequest, symbol, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ContainsAny(symbol, `/\`) || symbol == "" {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidRequest, fmt.Sprintf("invalid symbol %q", symbol), ErrInvalidData)
	}

	f, err := os.Open(filepath.Join(c.dir, symbol+".csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewDataSourceError(c.Name(), ErrCodeNotFound, symbol, ErrNotFound)
		}
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, symbol, err)
	}
	defer f.Close()

	points, err := readPriceCSV(f)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, symbol, err)
	}
	if len(points) == 0 {
		return points, nil
	}

	start, err := LookbackStart(lookback, points[len(points)-1].Date)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(points), func(i int) bool { return !points[i].Date.Before(start) })
	return points[i:], nil
}

// readPriceCSV parses Date/Close rows, skipping empty or "null" closes, and
// returns them sorted by date.
func readPriceCSV(r io.Reader) ([]models.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "adj close", "adj_close", "adjclose":
			closeCol = i
		case "close":
			if closeCol < 0 {
				closeCol = i
			}
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("%w: header must contain Date and Close", ErrInvalidData)
	}

	var points []models.PricePoint
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		raw := strings.TrimSpace(record[closeCol])
		if raw == "" || strings.EqualFold(raw, "null") {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, models.PricePoint{Date: date, Close: price})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
