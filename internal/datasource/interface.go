// Package datasource fetches daily adjusted close histories from external
// price providers.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/portfolio-lab/internal/models"
)

// PriceSource defines the interface for fetching daily price histories
type PriceSource interface {
	// FetchHistory retrieves daily closes for symbol over lookback
	// (one of models.Lookbacks), oldest first
	FetchHistory(ctx context.Context, symbol, lookback string) ([]models.PricePoint, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

// Sentinel errors wrapped by DataSourceError
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotFound          = errors.New("data not found")
	ErrInvalidData       = errors.New("invalid data format")
	ErrInvalidLookback   = errors.New("invalid lookback")
	ErrServerError       = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidateLookback returns ErrInvalidLookback for unknown windows
func ValidateLookback(lookback string) error {
	if !models.ValidLookback(lookback) {
		return fmt.Errorf("%w: %q", ErrInvalidLookback, lookback)
	}
	return nil
}

// LookbackStart returns the first date included by lookback when the most
// recent observation is at anchor. "max" returns the zero time.
func LookbackStart(lookback string, anchor time.Time) (time.Time, error) {
	if err := ValidateLookback(lookback); err != nil {
		return time.Time{}, err
	}
	switch lookback {
	case "max":
		return time.Time{}, nil
	case "ytd":
		return time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location()), nil
	}

	if n, ok := lookbackCount(lookback, "mo"); ok {
		return anchor.AddDate(0, -n, 0), nil
	}
	if n, ok := lookbackCount(lookback, "y"); ok {
		return anchor.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidLookback, lookback)
}

// lookbackCount parses the leading count of lookback when it ends in unit.
func lookbackCount(lookback, unit string) (int, bool) {
	if !strings.HasSuffix(lookback, unit) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(lookback, unit))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
