package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("rebalance", validateRebalance)
	_ = v.RegisterValidation("lookback", validateLookback)
	_ = v.RegisterValidation("cronspec", validateCron)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	}
	return false
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func validateRebalance(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "", "none", "monthly", "quarterly", "yearly", "annual":
		return true
	}
	return false
}

func validateLookback(fl validator.FieldLevel) bool {
	return models.ValidLookback(fl.Field().String())
}

func validateCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	tickers := make(map[string]bool, len(cfg.Portfolio.Tickers))
	for _, t := range cfg.Portfolio.Tickers {
		tickers[t] = true
	}
	var unknown []string
	for asset := range cfg.Portfolio.Weights {
		if !tickers[asset] {
			unknown = append(unknown, asset)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("portfolio weights reference tickers not listed in portfolio.tickers: %s", strings.Join(unknown, ", "))
	}
	for asset, w := range cfg.Portfolio.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("portfolio weight for %s must be finite", asset)
		}
	}

	for class, u := range cfg.Universes {
		available := make(map[string]bool, len(u.Tickers))
		for _, t := range u.Tickers {
			available[t] = true
		}
		for _, d := range u.Defaults {
			if !available[d] {
				return fmt.Errorf("universe %s default %s is not one of its tickers", class, d)
			}
		}
	}

	if cfg.DataSource.Name == "csv" && cfg.DataSource.CSVDir == "" {
		return fmt.Errorf("datasource.csv_dir is required for the csv source")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics.port is required when metrics are enabled")
	}

	if cfg.Database.Enabled {
		if cfg.Database.Port == 0 {
			return fmt.Errorf("database.port is required when the database is enabled")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "rebalance":
			fmt.Fprintf(&b, "- Field '%s' must be one of: none, monthly, quarterly, yearly\n", field)
		case "lookback":
			fmt.Fprintf(&b, "- Field '%s' must be one of: %s\n", field, strings.Join(models.Lookbacks, ", "))
		case "cronspec":
			fmt.Fprintf(&b, "- Field '%s' must be a standard cron expression, got '%v'\n", field, value)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
