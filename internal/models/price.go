package models

import "time"

// PricePoint is a single adjusted close observation for one asset
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

