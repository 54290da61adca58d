// Package records provides database operations for book record management.
//
// A book record ties one user to one catalog volume together with its list
// membership, page progress and the append-only activity log. The composite
// unique index on (user_id, book_id) turns duplicate inserts into
// ErrDuplicateRecord instead of relying on check-before-insert.
package records

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/lectorflow/server/internal/entities"
)

// ErrDuplicateRecord is returned when a user already tracks the given book.
var ErrDuplicateRecord = errors.New("book record already exists for this user")

// Repository handles all book record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new records repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new record. A second record for the same (user, book)
// pair violates the unique index and is reported as ErrDuplicateRecord.
func (r *Repository) Create(record *entities.BookRecord) error {
	err := r.db.Create(record).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateRecord
	}
	return err
}

// GetByID retrieves a record with its activity log, scoped to the owner.
func (r *Repository) GetByID(id, userID uint) (*entities.BookRecord, error) {
	var record entities.BookRecord
	err := r.db.Preload("Activity", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	}).Where("user_id = ?", userID).First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByUserAndBook retrieves a record by its catalog volume identifier.
func (r *Repository) GetByUserAndBook(userID uint, bookID string) (*entities.BookRecord, error) {
	var record entities.BookRecord
	err := r.db.Preload("Activity", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	}).Where("user_id = ? AND book_id = ?", userID, bookID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUserAndList returns the records on one list, newest additions first.
func (r *Repository) ListByUserAndList(userID uint, list entities.ListName) ([]entities.BookRecord, error) {
	var records []entities.BookRecord
	err := r.db.Preload("Activity", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	}).Where("user_id = ? AND list_name = ?", userID, list).
		Order("date_added DESC").Find(&records).Error
	return records, err
}

// ListByUser returns every record the user tracks across all lists.
func (r *Repository) ListByUser(userID uint) ([]entities.BookRecord, error) {
	var records []entities.BookRecord
	err := r.db.Preload("Activity", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	}).Where("user_id = ?", userID).
		Order("date_added DESC").Find(&records).Error
	return records, err
}

// Update persists record field changes. Activity rows are written through
// AppendActivity only, never via Save.
func (r *Repository) Update(record *entities.BookRecord) error {
	return r.db.Omit("Activity", "User").Save(record).Error
}

// UpdateWithActivity persists record field changes and appends activity
// entries in one transaction, so the counters never land without their
// matching log entries.
func (r *Repository) UpdateWithActivity(record *entities.BookRecord, entries []entities.ReadingActivity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Activity", "User").Save(record).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].RecordID = record.ID
		}
		return tx.Create(&entries).Error
	})
}

// Delete removes a record and its activity log, scoped to the owner.
func (r *Repository) Delete(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&entities.BookRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("record_id = ?", id).Delete(&entities.ReadingActivity{}).Error
	})
}

// AppendActivity inserts activity entries. The log is append-only; entries
// are never updated or removed while the record lives.
func (r *Repository) AppendActivity(recordID uint, entries []entities.ReadingActivity) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].RecordID = recordID
	}
	return r.db.Create(&entries).Error
}

// CountByUser returns how many records the user tracks.
func (r *Repository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListMissingMetadata returns records lacking a cover, page count or
// categories, for the background enrichment pass.
func (r *Repository) ListMissingMetadata(limit int) ([]entities.BookRecord, error) {
	var records []entities.BookRecord
	query := r.db.Where("cover_url = '' OR total_pages IS NULL OR categories = '[]' OR categories IS NULL")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// mattn/go-sqlite3 reports constraint failures as plain errors, so the
	// message is the only portable signal.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
