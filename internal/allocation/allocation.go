// Package allocation builds and checks target weight allocations.
package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/portfolio-lab/internal/config"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
)

// DefaultTolerance is the accepted deviation of a weight sum from 1
const DefaultTolerance = 0.001

// EqualWeight assigns 1/n to each distinct ticker.
func EqualWeight(tickers []string) portfolio.Weights {
	unique := dedupe(tickers)
	weights := make(portfolio.Weights, len(unique))
	if len(unique) == 0 {
		return weights
	}
	w := 1.0 / float64(len(unique))
	for _, t := range unique {
		weights[t] = w
	}
	return weights
}

// Manual normalizes raw per-ticker values by their total. Tickers without a
// raw value count as zero. A zero total falls back to EqualWeight.
func Manual(tickers []string, raw map[string]float64) (portfolio.Weights, error) {
	unique := dedupe(tickers)
	total := 0.0
	for _, t := range unique {
		v := raw[t]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("weight for %s must be a non-negative number, got %v", t, v)
		}
		total += v
	}
	if total == 0 {
		return EqualWeight(unique), nil
	}

	weights := make(portfolio.Weights, len(unique))
	for _, t := range unique {
		weights[t] = raw[t] / total
	}
	return weights, nil
}

// SumWarning reports a weight total outside tolerance. It never blocks a
// simulation.
type SumWarning struct {
	Total     float64
	Tolerance float64
}

func (w *SumWarning) Error() string {
	return fmt.Sprintf("weights sum to %.4f, expected 1 ± %g", w.Total, w.Tolerance)
}

// CheckSum returns a *SumWarning when the weights do not sum to 1 within
// tolerance. A non-positive tolerance uses DefaultTolerance.
func CheckSum(weights portfolio.Weights, tolerance float64) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := 0.0
	for _, k := range keys {
		total += weights[k]
	}
	if math.Abs(total-1) > tolerance {
		return &SumWarning{Total: total, Tolerance: tolerance}
	}
	return nil
}

// Universe is the ticker selection offered for a set of asset classes
type Universe struct {
	Classes   []string
	Available []string
	Defaults  []string
}

// ResolveUniverse merges the universes of the requested classes. Unknown
// classes are reported as an error; Available is sorted and de-duplicated,
// Defaults keeps configuration order.
func ResolveUniverse(classes []string, universes map[string]config.UniverseConfig) (Universe, error) {
	var unknown []string
	var available, defaults []string
	var known []string
	for _, class := range dedupe(classes) {
		u, ok := universes[class]
		if !ok {
			unknown = append(unknown, class)
			continue
		}
		known = append(known, class)
		available = append(available, u.Tickers...)
		defaults = append(defaults, u.Defaults...)
	}
	if len(unknown) > 0 {
		return Universe{}, fmt.Errorf("unknown asset classes: %v", unknown)
	}

	available = dedupe(available)
	sort.Strings(available)
	return Universe{
		Classes:   known,
		Available: available,
		Defaults:  dedupe(defaults),
	}, nil
}

// Classes returns the configured asset class names, sorted.
func Classes(universes map[string]config.UniverseConfig) []string {
	out := make([]string, 0, len(universes))
	for class := range universes {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
