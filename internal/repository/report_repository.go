package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/portfolio-lab/internal/database"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// PostgresReportRepository implements ReportRepository for PostgreSQL
type PostgresReportRepository struct {
	db database.Querier
}

// NewPostgresReportRepository creates a new report repository
func NewPostgresReportRepository(db database.Querier) ReportRepository {
	return &PostgresReportRepository{db: db}
}

// Create inserts a report entry
func (r *PostgresReportRepository) Create(ctx context.Context, report *models.DailyReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	query := `
		INSERT INTO daily_reports
			(id, run_at, as_of, asset_count, requested_count, portfolio_value, daily_change, volatility, diversification, snapshot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		report.ID, report.RunAt, report.AsOf, report.AssetCount, report.RequestedCount,
		report.PortfolioValue, report.DailyChange, report.Volatility, report.Diversification,
		report.SnapshotID,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetRecent retrieves the latest reports, newest first
func (r *PostgresReportRepository) GetRecent(ctx context.Context, limit int) ([]*models.DailyReport, error) {
	if limit <= 0 {
		limit = 30
	}
	query := `
		SELECT id, run_at, as_of, asset_count, requested_count, portfolio_value, daily_change, volatility, diversification, snapshot_id
		FROM daily_reports
		ORDER BY run_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.DailyReport
	for rows.Next() {
		report := &models.DailyReport{}
		if err := rows.Scan(
			&report.ID, &report.RunAt, &report.AsOf, &report.AssetCount, &report.RequestedCount,
			&report.PortfolioValue, &report.DailyChange, &report.Volatility, &report.Diversification,
			&report.SnapshotID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}
