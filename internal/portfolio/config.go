package portfolio

import (
	"fmt"
	"math"

	"github.com/yourusername/portfolio-lab/internal/config"
)

// Config holds engine settings
type Config struct {
	StrictWeights bool
	RiskFreeRate  float64
}

// FromConfig converts app config to engine config
func FromConfig(cfg *config.PortfolioConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("portfolio config is required")
	}
	c := Config{
		StrictWeights: cfg.StrictWeights,
		RiskFreeRate:  cfg.RiskFreeRate,
	}
	return c, c.Validate()
}

// Validate validates engine config parameters
func (c Config) Validate() error {
	if math.IsNaN(c.RiskFreeRate) || c.RiskFreeRate < 0 || c.RiskFreeRate > 1 {
		return fmt.Errorf("risk free rate must be between 0 and 1")
	}
	return nil
}
