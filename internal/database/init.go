package database

import (
	"context"
	"fmt"

	"github.com/yourusername/portfolio-lab/internal/config"
)

// schema creates the snapshot and report tables when missing
var schema = []string{
	`CREATE TABLE IF NOT EXISTS allocation_snapshots (
		id          UUID PRIMARY KEY,
		tickers     TEXT[] NOT NULL,
		weights     JSONB NOT NULL,
		asset_class TEXT[] NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS allocation_snapshots_created_at_idx ON allocation_snapshots (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS daily_reports (
		id              UUID PRIMARY KEY,
		run_at          TIMESTAMPTZ NOT NULL,
		as_of           DATE NOT NULL,
		asset_count     INTEGER NOT NULL,
		requested_count INTEGER NOT NULL DEFAULT 0,
		portfolio_value NUMERIC(18, 6) NOT NULL,
		daily_change    NUMERIC(18, 8) NOT NULL,
		volatility      NUMERIC(18, 8) NOT NULL,
		diversification NUMERIC(18, 8) NOT NULL,
		snapshot_id     UUID REFERENCES allocation_snapshots (id)
	)`,
	`ALTER TABLE daily_reports ADD COLUMN IF NOT EXISTS requested_count INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS daily_reports_run_at_idx ON daily_reports (run_at DESC)`,
}

// EnsureSchema creates the tables used by the repositories
func EnsureSchema(ctx context.Context, db *DB) error {
	return db.WithTransaction(ctx, func(q Querier) error {
		for _, stmt := range schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

// Initialize connects to the configured database and ensures the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
