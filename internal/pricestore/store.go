// Package pricestore aligns raw per-asset price histories into a gap-free,
// date-indexed price matrix.
package pricestore

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yourusername/portfolio-lab/internal/models"
)

// Store is an immutable, date-aligned matrix of adjusted close prices.
// Every asset has a price on every date once construction succeeds.
type Store struct {
	dates       []time.Time
	assets      []string
	index       map[string]int
	prices      [][]float64 // prices[asset][row]
	leadingFill []int
	dropped     []string
}

// New builds a Store from raw histories keyed by asset id.
//
// Dates are the union of every asset's observation dates. Gaps are filled
// forward (last known price) and then backward, so an asset listed after the
// window start is priced from day one at its first available price. That
// backward fill is an approximation; LeadingFill reports how many rows were
// synthesised for each asset.
//
// Assets without a single usable observation are dropped and reported by
// Dropped. When no asset has data, New returns models.ErrDataUnavailable.
func New(histories map[string][]models.PricePoint) (*Store, error) {
	symbols := make([]string, 0, len(histories))
	for symbol := range histories {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	observed := make(map[string]map[time.Time]float64, len(symbols))
	dateSet := make(map[time.Time]struct{})
	var dropped []string

	for _, symbol := range symbols {
		byDate := make(map[time.Time]float64)
		for _, p := range histories[symbol] {
			if !usablePrice(p.Close) {
				continue
			}
			day := Day(p.Date)
			byDate[day] = p.Close
			dateSet[day] = struct{}{}
		}
		if len(byDate) == 0 {
			dropped = append(dropped, symbol)
			continue
		}
		observed[symbol] = byDate
	}

	if len(observed) == 0 {
		return nil, fmt.Errorf("%w: %d assets requested, none returned prices", models.ErrDataUnavailable, len(symbols))
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	s := &Store{
		dates:   dates,
		index:   make(map[string]int, len(observed)),
		dropped: dropped,
	}
	for _, symbol := range symbols {
		byDate, ok := observed[symbol]
		if !ok {
			continue
		}
		column, leading := fill(dates, byDate)
		s.index[symbol] = len(s.assets)
		s.assets = append(s.assets, symbol)
		s.prices = append(s.prices, column)
		s.leadingFill = append(s.leadingFill, leading)
	}
	return s, nil
}

// fill lays observations on the shared date index, forward then backward.
func fill(dates []time.Time, byDate map[time.Time]float64) ([]float64, int) {
	column := make([]float64, len(dates))
	first := -1
	last := math.NaN()
	for i, d := range dates {
		if v, ok := byDate[d]; ok {
			last = v
			if first < 0 {
				first = i
			}
		}
		column[i] = last
	}
	for i := 0; i < first; i++ {
		column[i] = column[first]
	}
	return column, first
}

func usablePrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Empty reports whether the store holds no rows.
func (s *Store) Empty() bool {
	return s == nil || len(s.dates) == 0 || len(s.assets) == 0
}

// Len returns the number of trading dates.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dates)
}

// Dates returns a copy of the date index.
func (s *Store) Dates() []time.Time {
	if s == nil {
		return nil
	}
	return append([]time.Time(nil), s.dates...)
}

// Date returns the date at row i, zero when out of range.
func (s *Store) Date(i int) time.Time {
	if s == nil || i < 0 || i >= len(s.dates) {
		return time.Time{}
	}
	return s.dates[i]
}

// Assets returns the asset ids in column order (sorted).
func (s *Store) Assets() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.assets...)
}

// Has reports whether asset is a column of the store.
func (s *Store) Has(asset string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[asset]
	return ok
}

// Column returns a copy of an asset's aligned price series.
func (s *Store) Column(asset string) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[asset]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), s.prices[i]...), true
}

// Price returns the price of asset at row.
func (s *Store) Price(row int, asset string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[asset]
	if !ok || row < 0 || row >= len(s.dates) {
		return 0, false
	}
	return s.prices[i][row], true
}

// Returns computes daily percentage returns for asset.
// The result has Len()-1 entries.
func (s *Store) Returns(asset string) []float64 {
	if s == nil {
		return []float64{}
	}
	i, ok := s.index[asset]
	if !ok || len(s.dates) < 2 {
		return []float64{}
	}
	prices := s.prices[i]
	returns := make([]float64, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		returns[t-1] = prices[t]/prices[t-1] - 1
	}
	return returns
}

// LeadingFill returns how many leading rows of asset were backfilled.
func (s *Store) LeadingFill(asset string) int {
	if s == nil {
		return 0
	}
	i, ok := s.index[asset]
	if !ok {
		return 0
	}
	return s.leadingFill[i]
}

// Dropped lists requested assets that had no usable observation.
func (s *Store) Dropped() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.dropped...)
}

// FromColumns builds a Store from columns that already share one date index.
func FromColumns(dates []time.Time, columns map[string][]float64) (*Store, error) {
	histories := make(map[string][]models.PricePoint, len(columns))
	for asset, values := range columns {
		if len(values) != len(dates) {
			return nil, fmt.Errorf("column %s has %d values for %d dates", asset, len(values), len(dates))
		}
		points := make([]models.PricePoint, len(values))
		for i, v := range values {
			points[i] = models.PricePoint{Date: dates[i], Close: v}
		}
		histories[asset] = points
	}
	return New(histories)
}
