package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// AllocationSnapshot represents a persisted portfolio configuration
type AllocationSnapshot struct {
	ID           uuid.UUID          `db:"id" json:"id,omitempty"`
	Tickers      []string           `db:"tickers" json:"tickers" validate:"required,min=1,dive,required"`
	Weights      map[string]float64 `db:"weights" json:"weights" validate:"required,dive,gte=0"`
	AssetClasses []string           `db:"asset_class" json:"asset_class"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at,omitempty"`
}

// SortedTickers returns a sorted copy of the snapshot tickers
func (s *AllocationSnapshot) SortedTickers() []string {
	out := append([]string(nil), s.Tickers...)
	sort.Strings(out)
	return out
}

// TotalWeight sums all weights in the snapshot
func (s *AllocationSnapshot) TotalWeight() float64 {
	keys := make([]string, 0, len(s.Weights))
	for k := range s.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := 0.0
	for _, k := range keys {
		total += s.Weights[k]
	}
	return total
}
