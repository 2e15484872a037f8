package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// SnapshotRepository defines the interface for allocation snapshot access
type SnapshotRepository interface {
	// Save persists a snapshot, assigning ID and CreatedAt when unset
	Save(ctx context.Context, snapshot *models.AllocationSnapshot) error
	// Latest returns the most recent snapshot or models.ErrNotFound
	Latest(ctx context.Context) (*models.AllocationSnapshot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AllocationSnapshot, error)
}

// ReportRepository defines the interface for daily report history
type ReportRepository interface {
	Create(ctx context.Context, report *models.DailyReport) error
	GetRecent(ctx context.Context, limit int) ([]*models.DailyReport, error)
}
