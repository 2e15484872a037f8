package models

import "errors"

// Custom errors
var (
	ErrDataUnavailable = errors.New("no price data available")
	ErrUnknownAsset    = errors.New("weight references an asset without price data")
	ErrNotFound        = errors.New("record not found")
)
