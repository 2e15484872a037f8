package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// FileSnapshotRepository keeps the single latest snapshot in a JSON file
// ({"tickers": [...], "weights": {...}, "asset_class": [...]})
type FileSnapshotRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileSnapshotRepository creates a repository backed by path
func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

// Save overwrites the file with snapshot, writing through a temp file
func (r *FileSnapshotRepository) Save(ctx context.Context, snapshot *models.AllocationSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Latest reads the snapshot file
func (r *FileSnapshotRepository) Latest(ctx context.Context) (*models.AllocationSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snapshot := &models.AllocationSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", r.path, err)
	}
	return snapshot, nil
}

// GetByID returns the stored snapshot when its ID matches
func (r *FileSnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AllocationSnapshot, error) {
	snapshot, err := r.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot.ID != id {
		return nil, models.ErrNotFound
	}
	return snapshot, nil
}
