package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/portfolio-lab/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// YahooSourceType is the Yahoo Finance chart API
	YahooSourceType SourceType = "yahoo"
	// CSVSourceType is a directory of CSV files
	CSVSourceType SourceType = "csv"
)

// Factory creates PriceSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{logger: logger}
}

// HTTPClientConfigFrom maps datasource config onto HTTP client settings
func HTTPClientConfigFrom(cfg config.DataSourceConfig) HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpCfg.MaxRetries = cfg.RetryAttempts
	if cfg.RateLimit > 0 {
		httpCfg.RateLimit = cfg.RateLimit
	}
	return httpCfg
}

// NewPriceSource creates the configured source, wrapped in a cache when
// cache_ttl_seconds is positive.
func (f *Factory) NewPriceSource(cfg config.DataSourceConfig) (PriceSource, error) {
	var source PriceSource
	switch SourceType(cfg.Name) {
	case YahooSourceType:
		client := NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg), f.logger)
		source = NewYahooSource(client, cfg.BaseURL, f.logger)
	case CSVSourceType:
		if cfg.CSVDir == "" {
			return nil, fmt.Errorf("csv source requires csv_dir")
		}
		source = NewCSVSource(cfg.CSVDir)
	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}

	f.logger.WithFields(logrus.Fields{
		"source":    source.Name(),
		"cache_ttl": cfg.CacheTTLSeconds,
	}).Debug("Created price source")

	if cfg.CacheTTLSeconds > 0 {
		return NewCachedSource(source, time.Duration(cfg.CacheTTLSeconds)*time.Second), nil
	}
	return source, nil
}

// ListAvailableSources returns the supported source types
func (f *Factory) ListAvailableSources() []SourceType {
	return []SourceType{YahooSourceType, CSVSourceType}
}
