package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/portfolio-lab/internal/logger"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
	"github.com/yourusername/portfolio-lab/internal/repository"
)

// SnapshotService persists allocations for the daily report to pick up
type SnapshotService struct {
	repo  repository.SnapshotRepository
	store string
	audit *logger.AuditLogger
}

// NewSnapshotService creates a snapshot service; store names the backend in
// audit logs.
func NewSnapshotService(repo repository.SnapshotRepository, store string, baseLogger *logrus.Logger) *SnapshotService {
	if baseLogger == nil {
		baseLogger = logrus.New()
	}
	return &SnapshotService{repo: repo, store: store, audit: logger.NewAuditLogger(baseLogger)}
}

// Save stores tickers, weights and asset classes as the latest allocation
func (s *SnapshotService) Save(ctx context.Context, tickers []string, weights portfolio.Weights, classes []string) (*models.AllocationSnapshot, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("save snapshot: no tickers")
	}
	snapshot := &models.AllocationSnapshot{
		Tickers:      append([]string(nil), tickers...),
		Weights:      make(map[string]float64, len(weights)),
		AssetClasses: append([]string(nil), classes...),
	}
	for k, v := range weights {
		snapshot.Weights[k] = v
	}
	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.audit.LogSnapshotSaved(snapshot.ID.String(), snapshot.Tickers, s.store)
	return snapshot, nil
}
