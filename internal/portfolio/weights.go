package portfolio

import (
	"sort"

	"github.com/yourusername/portfolio-lab/internal/pricestore"
)

// Weights maps asset ids to target weights. The engine consumes them as
// given: no normalisation, assets missing from the map weigh zero.
type Weights map[string]float64

// Of returns the weight of asset, zero when absent.
func (w Weights) Of(asset string) float64 {
	return w[asset]
}

// Unmatched lists weight keys that have no column in store, sorted.
func (w Weights) Unmatched(store *pricestore.Store) []string {
	var out []string
	for asset := range w {
		if !store.Has(asset) {
			out = append(out, asset)
		}
	}
	sort.Strings(out)
	return out
}

// targets lays weights out in the store's column order.
func (w Weights) targets(assets []string) []float64 {
	out := make([]float64, len(assets))
	for i, asset := range assets {
		out[i] = w[asset]
	}
	return out
}
