// Package scheduler runs periodic background jobs: the metadata
// enrichment sweep that queues lookups for records still missing covers,
// page counts or categories.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/tasks"
)

// enrichmentBatchSize caps how many records one sweep enqueues.
const enrichmentBatchSize = 50

// EnrichmentScheduler periodically queues enrichment tasks for records
// that are missing catalog metadata.
type EnrichmentScheduler struct {
	records    *records.Repository
	taskClient *tasks.Client
	schedule   string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewEnrichmentScheduler creates a new scheduler instance.
func NewEnrichmentScheduler(recordRepo *records.Repository, taskClient *tasks.Client, schedule string) *EnrichmentScheduler {
	return &EnrichmentScheduler{
		records:    recordRepo,
		taskClient: taskClient,
		schedule:   schedule,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the periodic sweep.
func (s *EnrichmentScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule enrichment sweep: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Enrichment scheduler: started with schedule '%s'", s.schedule)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *EnrichmentScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Enrichment scheduler: stopped")
}

// RunNow triggers an immediate sweep.
func (s *EnrichmentScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active.
func (s *EnrichmentScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sweep will occur.
func (s *EnrichmentScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSweep finds records missing metadata and queues an enrichment task
// for each.
func (s *EnrichmentScheduler) runSweep() {
	pending, err := s.records.ListMissingMetadata(enrichmentBatchSize)
	if err != nil {
		log.Printf("Enrichment sweep: failed to list records: %v", err)
		return
	}

	if len(pending) == 0 {
		log.Printf("Enrichment sweep: nothing to do")
		return
	}

	queued := 0
	for _, record := range pending {
		task := tasks.EnrichRecordTask{RecordID: record.ID, UserID: record.UserID}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Enrichment sweep: failed to queue record %d: %v", record.ID, err)
			continue
		}
		queued++
	}

	log.Printf("Enrichment sweep: queued %d of %d records", queued, len(pending))
}
