package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PORTFOLIO_LAB"

// DefaultPath is used when no config path is given
const DefaultPath = "config/config.yaml"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded reads a YAML file into v after expanding ${VAR} placeholders
func readExpanded(v *viper.Viper, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	v := newViper()
	if err := readExpanded(v, configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	v := newViper()
	setDefaults(v)

	if err := readExpanded(v, configPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "portfolio-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("portfolio.tickers", DefaultTickers)
	v.SetDefault("portfolio.rebalance", "none")
	v.SetDefault("portfolio.lookback", "1y")
	v.SetDefault("portfolio.min_assets", 3)
	v.SetDefault("portfolio.weight_tolerance", 0.001)
	v.SetDefault("portfolio.risk_free_rate", 0.0)

	v.SetDefault("datasource.name", "yahoo")
	v.SetDefault("datasource.timeout_seconds", 10)
	v.SetDefault("datasource.retry_attempts", 3)
	v.SetDefault("datasource.rate_limit", 2.0)
	v.SetDefault("datasource.concurrency", 4)
	v.SetDefault("datasource.cache_ttl_seconds", 900)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 5)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("report.log_path", "daily_logs.txt")
	v.SetDefault("report.snapshot_path", "portfolio_config.json")
	v.SetDefault("report.lookback", "3mo")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}

// DefaultTickers is the allocation the daily report falls back to
var DefaultTickers = []string{"MC.PA", "TTE.PA", "SAN.PA", "AIR.PA"}
