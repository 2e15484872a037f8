package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/portfolio-lab/internal/database"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db database.Querier
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db database.Querier) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Save inserts a new snapshot
func (r *PostgresSnapshotRepository) Save(ctx context.Context, snapshot *models.AllocationSnapshot) error {
	if snapshot == nil || len(snapshot.Tickers) == 0 {
		return fmt.Errorf("snapshot requires at least one ticker")
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	weights, err := json.Marshal(snapshot.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	classes := snapshot.AssetClasses
	if classes == nil {
		classes = []string{}
	}

	query := `
		INSERT INTO allocation_snapshots (id, tickers, weights, asset_class, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, snapshot.ID, snapshot.Tickers, weights, classes, snapshot.CreatedAt); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest retrieves the most recently created snapshot
func (r *PostgresSnapshotRepository) Latest(ctx context.Context) (*models.AllocationSnapshot, error) {
	query := `
		SELECT id, tickers, weights, asset_class, created_at
		FROM allocation_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanSnapshot(r.db.QueryRow(ctx, query))
}

// GetByID retrieves a snapshot by ID
func (r *PostgresSnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AllocationSnapshot, error) {
	query := `
		SELECT id, tickers, weights, asset_class, created_at
		FROM allocation_snapshots WHERE id = $1
	`
	return scanSnapshot(r.db.QueryRow(ctx, query, id))
}

func scanSnapshot(row pgx.Row) (*models.AllocationSnapshot, error) {
	snapshot := &models.AllocationSnapshot{}
	var weights []byte
	err := row.Scan(&snapshot.ID, &snapshot.Tickers, &weights, &snapshot.AssetClasses, &snapshot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if err := json.Unmarshal(weights, &snapshot.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	return snapshot, nil
}
