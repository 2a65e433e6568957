package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	logrus.FieldLogger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(base logrus.FieldLogger) *AuditLogger {
	return &AuditLogger{FieldLogger: OrDiscard(base).WithField("component", "audit")}
}

// LogOverrideDecision records every request for a non-current run date.
func (al *AuditLogger) LogOverrideDecision(today, requested string, allowed bool, source string) {
	entry := al.WithFields(logrus.Fields{
		"today":          today,
		"requested_date": requested,
		"allowed":        allowed,
		"source":         source,
	})
	if allowed {
		entry.Warn("Manual date override used")
		return
	}
	entry.Warn("Manual date override rejected")
}

// LogReportPublished records where a final report was delivered.
func (al *AuditLogger) LogReportPublished(runDate, status, destination string, plays int, generatedAt time.Time) {
	al.WithFields(logrus.Fields{
		"run_date":     runDate,
		"status":       status,
		"destination":  destination,
		"plays":        plays,
		"generated_at": generatedAt.Unix(),
	}).Info("Report published")
}
