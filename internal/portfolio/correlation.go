package portfolio

import (
	"encoding/json"
	"math"

	"github.com/yourusername/portfolio-lab/internal/pricestore"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds pairwise Pearson correlations of daily returns.
// Entries involving an asset with constant or undefined returns are NaN.
type CorrelationMatrix struct {
	Assets []string
	index  map[string]int
	values *mat.SymDense
}

// Correlation computes the return correlation matrix of every store asset.
func (e *Engine) Correlation(store *pricestore.Store) *CorrelationMatrix {
	assets := store.Assets()
	cm := &CorrelationMatrix{Assets: assets, index: make(map[string]int, len(assets))}
	for i, asset := range assets {
		cm.index[asset] = i
	}
	if len(assets) == 0 {
		return cm
	}

	returns := make([][]float64, len(assets))
	defined := make([]bool, len(assets))
	for i, asset := range assets {
		returns[i] = store.Returns(asset)
		finite, _ := finitePairs(returns[i], returns[i])
		defined[i] = varies(finite)
	}

	cm.values = mat.NewSymDense(len(assets), nil)
	for i := range assets {
		for j := i; j < len(assets); j++ {
			switch {
			case !defined[i] || !defined[j]:
				cm.values.SetSym(i, j, math.NaN())
			case i == j:
				cm.values.SetSym(i, j, 1)
			default:
				cm.values.SetSym(i, j, pairwiseCorrelation(returns[i], returns[j]))
			}
		}
	}
	return cm
}

// pairwiseCorrelation correlates x and y over the dates where both returns
// are finite. It is NaN when fewer than two such dates remain or either side
// is constant over them.
func pairwiseCorrelation(x, y []float64) float64 {
	xs, ys := finitePairs(x, y)
	if !varies(xs) || !varies(ys) {
		return math.NaN()
	}
	return clamp(stat.Correlation(xs, ys, nil))
}

func finitePairs(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for t := range x {
		if t >= len(y) || !finite(x[t]) || !finite(y[t]) {
			continue
		}
		xs = append(xs, x[t])
		ys = append(ys, y[t])
	}
	return xs, ys
}

func varies(values []float64) bool {
	return len(values) >= 2 && stat.Variance(values, nil) > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Size returns the number of assets.
func (c *CorrelationMatrix) Size() int {
	return len(c.Assets)
}

// At returns the correlation at row i, column j.
func (c *CorrelationMatrix) At(i, j int) float64 {
	return c.values.At(i, j)
}

// Get returns the correlation between two assets by id.
func (c *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, ok := c.index[a]
	if !ok {
		return 0, false
	}
	j, ok := c.index[b]
	if !ok {
		return 0, false
	}
	return c.values.At(i, j), true
}

// MarshalJSON encodes the matrix with NaN entries as null.
func (c *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, len(c.Assets))
	for i := range c.Assets {
		rows[i] = make([]*float64, len(c.Assets))
		for j := range c.Assets {
			v := c.values.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			rows[i][j] = &v
		}
	}
	return json.Marshal(struct {
		Assets []string     `json:"assets"`
		Matrix [][]*float64 `json:"matrix"`
	}{Assets: c.Assets, Matrix: rows})
}
