package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/lectorflow/server/internal/metadata"
)

// EnrichRecordTask fills one record's missing metadata from the catalog.
type EnrichRecordTask struct {
	RecordID uint `json:"record_id"`
	UserID   uint `json:"user_id"`
}

// Config returns the queue configuration for record enrichment tasks.
func (t EnrichRecordTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_record",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichRecordProcessor creates a processor function for EnrichRecordTask.
func EnrichRecordProcessor(enricher *metadata.Enricher) backlite.QueueProcessor[EnrichRecordTask] {
	return func(ctx context.Context, task EnrichRecordTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		record, changed, err := enricher.EnrichRecordByID(ctx, task.RecordID, task.UserID)
		if err != nil {
			return fmt.Errorf("enrich record %d: %w", task.RecordID, err)
		}

		if changed {
			log.Printf("[TASK] Enriched record %d (%s)", task.RecordID, record.Title)
		} else {
			log.Printf("[TASK] Record %d (%s): no metadata updates needed", task.RecordID, record.Title)
		}

		return nil
	}
}

// NewEnrichRecordQueue creates a backlite queue for record enrichment tasks.
func NewEnrichRecordQueue(enricher *metadata.Enricher) backlite.Queue {
	return backlite.NewQueue(EnrichRecordProcessor(enricher))
}
