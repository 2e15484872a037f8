// Package repository persists allocation snapshots and daily reports.
package repository

import (
	"github.com/yourusername/portfolio-lab/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Snapshot SnapshotRepository
	Report   ReportRepository
}

// NewRepositories returns file-backed snapshots when db is nil, and Postgres
// snapshots plus report history otherwise. Report is nil without a database.
func NewRepositories(db *database.DB, snapshotPath string) *Repositories {
	if db == nil {
		return &Repositories{Snapshot: NewFileSnapshotRepository(snapshotPath)}
	}
	return &Repositories{
		Snapshot: NewPostgresSnapshotRepository(db.Pool()),
		Report:   NewPostgresReportRepository(db.Pool()),
	}
}
