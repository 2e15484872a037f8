// Package config provides configuration management for the portfolio lab.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig                 `mapstructure:"app" validate:"required"`
	Portfolio  PortfolioConfig           `mapstructure:"portfolio" validate:"required"`
	Universes  map[string]UniverseConfig `mapstructure:"universes" validate:"dive"`
	DataSource DataSourceConfig          `mapstructure:"datasource" validate:"required"`
	Database   DatabaseConfig            `mapstructure:"database"`
	Report     ReportConfig              `mapstructure:"report" validate:"required"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PortfolioConfig represents the default allocation and engine settings
type PortfolioConfig struct {
	Tickers         []string           `mapstructure:"tickers" validate:"omitempty,dive,required"`
	Weights         map[string]float64 `mapstructure:"weights" validate:"omitempty,dive,gte=0"`
	AssetClasses    []string           `mapstructure:"asset_class"`
	Rebalance       string             `mapstructure:"rebalance" validate:"rebalance"`
	Lookback        string             `mapstructure:"lookback" validate:"required,lookback"`
	MinAssets       int                `mapstructure:"min_assets" validate:"gte=1"`
	WeightTolerance float64            `mapstructure:"weight_tolerance" validate:"gt=0,lte=0.1"`
	StrictWeights   bool               `mapstructure:"strict_weights"`
	RiskFreeRate    float64            `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
}

// UniverseConfig lists the tickers offered for one asset class
type UniverseConfig struct {
	Tickers  []string `mapstructure:"tickers" validate:"required,min=1,dive,required"`
	Defaults []string `mapstructure:"defaults" validate:"dive,required"`
}

// DataSourceConfig represents price provider configuration
type DataSourceConfig struct {
	Name            string  `mapstructure:"name" validate:"required,oneof=yahoo csv"`
	BaseURL         string  `mapstructure:"base_url" validate:"omitempty,url"`
	CSVDir          string  `mapstructure:"csv_dir"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"gt=0"`
	RetryAttempts   int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"gt=0"`
	Concurrency     int     `mapstructure:"concurrency" validate:"gt=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
	SecretName         string `mapstructure:"secret_name"`
	SecretRegion       string `mapstructure:"secret_region"`
}

// ReportConfig represents the daily report job configuration
type ReportConfig struct {
	LogPath      string `mapstructure:"log_path" validate:"required"`
	SnapshotPath string `mapstructure:"snapshot_path" validate:"required"`
	Schedule     string `mapstructure:"schedule" validate:"omitempty,cronspec"`
	Lookback     string `mapstructure:"lookback" validate:"required,lookback"`
	CSVDir       string `mapstructure:"csv_dir"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		sslMode,
	)
}
