package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyReport represents one automated report entry
type DailyReport struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	RunAt           time.Time       `db:"run_at" json:"run_at"`
	AsOf            time.Time       `db:"as_of" json:"as_of"`
	AssetCount      int             `db:"asset_count" json:"asset_count"`
	RequestedCount  int             `db:"requested_count" json:"requested_count"`
	PortfolioValue  decimal.Decimal `db:"portfolio_value" json:"portfolio_value"`
	DailyChange     decimal.Decimal `db:"daily_change" json:"daily_change"`
	Volatility      decimal.Decimal `db:"volatility" json:"volatility"`
	Diversification decimal.Decimal `db:"diversification" json:"diversification"`
	SnapshotID      *uuid.UUID      `db:"snapshot_id" json:"snapshot_id,omitempty"`
}
