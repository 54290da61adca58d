package importer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/entities"
)

// CatalogLookup resolves an imported row against the external catalog.
type CatalogLookup interface {
	Lookup(ctx context.Context, isbn, title, author string) (*catalog.Volume, error)
}

// RecordStore is the subset of the records repository the importer needs.
type RecordStore interface {
	Create(record *entities.BookRecord) error
}

// SessionStore persists import session state.
type SessionStore interface {
	CreateSession(userID uint) (*entities.ImportSession, error)
	UpdateSession(session *entities.ImportSession) error
}

// Result summarises one import batch.
type Result struct {
	SessionID      uint     `json:"session_id"`
	RowsProcessed  int      `json:"rows_processed"`
	RecordsCreated int      `json:"records_created"`
	RowsFailed     int      `json:"rows_failed"`
	Errors         []string `json:"errors,omitempty"`
}

// Service runs CSV import batches: parse, enrich each row against the
// catalog, persist, and tally failures into the session.
type Service struct {
	records  RecordStore
	sessions SessionStore
	catalog  CatalogLookup
}

// NewService creates an import service. catalogClient may be nil, in which
// case rows are imported without enrichment.
func NewService(recordStore RecordStore, sessionStore SessionStore, catalogClient CatalogLookup) *Service {
	return &Service{
		records:  recordStore,
		sessions: sessionStore,
		catalog:  catalogClient,
	}
}

// ImportCSV ingests a CSV stream for the given user. Row failures never
// abort the batch; they are tallied into the result and the session.
func (s *Service) ImportCSV(ctx context.Context, userID uint, r io.Reader) (*Result, error) {
	session, err := s.sessions.CreateSession(userID)
	if err != nil {
		return nil, fmt.Errorf("create import session: %w", err)
	}

	rows, parseErrors, err := ParseCSV(r)
	if err != nil {
		s.closeSession(session, entities.ImportStatusFailed, 0, 0, 0, []string{err.Error()})
		return nil, err
	}

	result := &Result{
		SessionID: session.ID,
		Errors:    parseErrors,
	}
	result.RowsFailed = len(parseErrors)

	now := time.Now()
	for i, row := range rows {
		result.RowsProcessed++

		record := RowToRecord(row, userID, now)
		s.enrich(ctx, &record, row)

		// Rows without a catalog match still need a unique book
		// identifier, or they would collide on the (user, book) index.
		if record.BookID == "" {
			record.BookID = localBookID()
		}

		if err := s.records.Create(&record); err != nil {
			result.RowsFailed++
			if errors.Is(err, records.ErrDuplicateRecord) {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d (%s): already tracked", i+1, row.Title))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d (%s): %v", i+1, row.Title, err))
			}
			continue
		}
		result.RecordsCreated++
	}

	status := entities.ImportStatusCompleted
	s.closeSession(session, status, result.RowsProcessed, result.RecordsCreated, result.RowsFailed, result.Errors)

	log.Printf("[IMPORT] Session %d: %d rows, %d created, %d failed",
		session.ID, result.RowsProcessed, result.RecordsCreated, result.RowsFailed)

	return result, nil
}

// enrich fills catalog-derived fields on a best-effort basis. Lookup
// failures leave the record as parsed.
func (s *Service) enrich(ctx context.Context, record *entities.BookRecord, row Row) {
	if s.catalog == nil {
		return
	}

	volume, err := s.catalog.Lookup(ctx, row.ISBN, row.Title, row.Authors)
	if err != nil || volume == nil {
		return
	}

	record.BookID = volume.ID
	if record.Author == "" {
		record.Author = volume.PrimaryAuthor()
	}
	if record.CoverURL == "" {
		record.CoverURL = volume.ThumbnailURL
	}
	if record.Description == "" {
		record.Description = volume.Description
	}
	if record.TotalPages == nil && volume.PageCount > 0 {
		pages := volume.PageCount
		record.TotalPages = &pages
	}
	if len(record.Categories) == 0 {
		record.Categories = volume.Categories
	}
	if record.ISBN == "" {
		record.ISBN = volume.ISBN
	}
}

func localBookID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("local-%d", time.Now().UnixNano())
	}
	return "local-" + hex.EncodeToString(bytes)
}

func (s *Service) closeSession(session *entities.ImportSession, status entities.ImportStatus, processed, created, failed int, errs []string) {
	now := time.Now()
	session.Status = status
	session.RowsProcessed = processed
	session.RecordsCreated = created
	session.RowsFailed = failed
	session.CompletedAt = &now

	if len(errs) > 0 {
		if data, err := json.Marshal(errs); err == nil {
			session.Errors = string(data)
		}
	}

	if err := s.sessions.UpdateSession(session); err != nil {
		log.Printf("[IMPORT] Failed to update session %d: %v", session.ID, err)
	}
}
