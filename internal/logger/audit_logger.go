package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogSnapshotSaved logs that an allocation snapshot was persisted.
func (al *AuditLogger) LogSnapshotSaved(snapshotID string, tickers []string, store string) {
	al.WithFields(logrus.Fields{
		"snapshot_id": snapshotID,
		"tickers":     tickers,
		"store":       store,
	}).Info("Allocation snapshot saved")
}

// LogReportAppended logs that a daily report entry was written.
func (al *AuditLogger) LogReportAppended(reportID, path string, asOf time.Time, value float64) {
	al.WithFields(logrus.Fields{
		"report_id":       reportID,
		"path":            path,
		"as_of":           asOf.Format("2006-01-02"),
		"portfolio_value": value,
	}).Info("Daily report appended")
}
