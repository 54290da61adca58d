// Package audit records notable user actions (imports, exports, deletions,
// enrichment runs) for later inspection. Logging is fire-and-forget; a
// failed audit write never fails the action it describes.
package audit

import (
	"encoding/json"
	"log"

	"github.com/lectorflow/server/internal/database/audit"
	"github.com/lectorflow/server/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogImport records a CSV import event.
func (s *Service) LogImport(userID uint, description string, rowsProcessed, recordsCreated int, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      "csv_import",
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"rows_processed":  rowsProcessed,
		"records_created": recordsCreated,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogExport records a CSV export event.
func (s *Service) LogExport(userID uint, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventExport,
		Action:      "csv_export",
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogDelete records a record deletion event.
func (s *Service) LogDelete(userID, recordID uint, title string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      "record_delete",
		Description: "Deleted record: " + title,
		EntityID:    &recordID,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogMetadataEnrich records a metadata enrichment event.
func (s *Service) LogMetadataEnrich(userID uint, description string, recordID uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventEnrich,
		Action:      "record_enrich",
		Description: description,
		EntityID:    &recordID,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
