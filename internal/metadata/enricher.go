// Package metadata fills gaps in stored book records from the external
// catalog: covers, page counts, categories and descriptions that an import
// or a manual add did not provide.
package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/entities"
)

// CatalogSource resolves records against the external catalog.
type CatalogSource interface {
	GetVolume(ctx context.Context, id string) (*catalog.Volume, error)
	Lookup(ctx context.Context, isbn, title, author string) (*catalog.Volume, error)
}

// RecordStore is the subset of the records repository the enricher needs.
type RecordStore interface {
	GetByID(id, userID uint) (*entities.BookRecord, error)
	Update(record *entities.BookRecord) error
	ListMissingMetadata(limit int) ([]entities.BookRecord, error)
}

// Enricher looks up missing record metadata in the catalog.
type Enricher struct {
	catalog CatalogSource
	records RecordStore
}

func NewEnricher(catalogSource CatalogSource, recordStore RecordStore) *Enricher {
	return &Enricher{catalog: catalogSource, records: recordStore}
}

// EnrichRecord fetches catalog data for one record and fills the fields
// that are still empty. Returns true when anything changed.
func (e *Enricher) EnrichRecord(ctx context.Context, record *entities.BookRecord) (bool, error) {
	volume, err := e.resolve(ctx, record)
	if err != nil {
		return false, err
	}
	if volume == nil {
		return false, nil
	}

	changed := false
	// Replace synthesized identifiers with the real catalog volume ID.
	if volume.ID != "" && (record.BookID == "" || strings.HasPrefix(record.BookID, "local-")) {
		record.BookID = volume.ID
		changed = true
	}
	if record.CoverURL == "" && volume.ThumbnailURL != "" {
		record.CoverURL = volume.ThumbnailURL
		changed = true
	}
	if record.TotalPages == nil && volume.PageCount > 0 {
		pages := volume.PageCount
		record.TotalPages = &pages
		changed = true
	}
	if len(record.Categories) == 0 && len(volume.Categories) > 0 {
		record.Categories = volume.Categories
		changed = true
	}
	if record.Description == "" && volume.Description != "" {
		record.Description = volume.Description
		changed = true
	}
	if record.ISBN == "" && volume.ISBN != "" {
		record.ISBN = volume.ISBN
		changed = true
	}

	if !changed {
		return false, nil
	}
	if err := e.records.Update(record); err != nil {
		return false, fmt.Errorf("save enriched record: %w", err)
	}
	return true, nil
}

// EnrichRecordByID loads a record and enriches it. Used by background
// tasks that only carry identifiers.
func (e *Enricher) EnrichRecordByID(ctx context.Context, recordID, userID uint) (*entities.BookRecord, bool, error) {
	record, err := e.records.GetByID(recordID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load record %d: %w", recordID, err)
	}
	changed, err := e.EnrichRecord(ctx, record)
	return record, changed, err
}

// EnrichBatch processes up to limit records that are missing metadata.
// Individual failures are logged and skipped.
func (e *Enricher) EnrichBatch(ctx context.Context, limit int) (int, error) {
	records, err := e.records.ListMissingMetadata(limit)
	if err != nil {
		return 0, fmt.Errorf("list records missing metadata: %w", err)
	}

	enriched := 0
	for i := range records {
		record := &records[i]
		changed, err := e.EnrichRecord(ctx, record)
		if err != nil {
			log.Printf("[METADATA] Failed to enrich record %d (%s): %v", record.ID, record.Title, err)
			continue
		}
		if changed {
			enriched++
		}
	}
	return enriched, nil
}

// resolve prefers the stored catalog ID; records imported without a match
// fall back to an ISBN or title search.
func (e *Enricher) resolve(ctx context.Context, record *entities.BookRecord) (*catalog.Volume, error) {
	if record.BookID != "" && !strings.HasPrefix(record.BookID, "local-") {
		volume, err := e.catalog.GetVolume(ctx, record.BookID)
		if err == nil {
			return volume, nil
		}
	}
	return e.catalog.Lookup(ctx, record.ISBN, record.Title, record.Author)
}
