package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// AuditEventCleaner provides the ability to delete old audit events.
type AuditEventCleaner interface {
	DeleteOldEvents(olderThan time.Time) (int64, error)
}

// ImportSessionCleaner provides the ability to delete old import sessions.
type ImportSessionCleaner interface {
	DeleteOldSessions(olderThan time.Time) (int64, error)
}

// CleanupAuditEventsTask removes audit events older than the configured retention period.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for audit cleanup tasks.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEventsProcessor creates a processor function for CleanupAuditEventsTask.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("audit event cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}
		cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

		deleted, err := cleaner.DeleteOldEvents(cutoff)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d audit events older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupAuditEventsQueue creates a backlite queue for audit cleanup tasks.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}

// CleanupImportSessionsTask removes import sessions older than the retention period.
type CleanupImportSessionsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for import session cleanup tasks.
func (t CleanupImportSessionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_import_sessions",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupImportSessionsProcessor creates a processor function for CleanupImportSessionsTask.
func CleanupImportSessionsProcessor(cleaner ImportSessionCleaner) backlite.QueueProcessor[CleanupImportSessionsTask] {
	return func(ctx context.Context, task CleanupImportSessionsTask) error {
		if cleaner == nil {
			return fmt.Errorf("import session cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 90
		}
		cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

		deleted, err := cleaner.DeleteOldSessions(cutoff)
		if err != nil {
			return fmt.Errorf("cleanup import sessions: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d import sessions older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupImportSessionsQueue creates a backlite queue for import session cleanup tasks.
func NewCleanupImportSessionsQueue(cleaner ImportSessionCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupImportSessionsProcessor(cleaner))
}
