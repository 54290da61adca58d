package entities

import (
	"time"
)

// ListName identifies which reading list a record belongs to. The set is
// fixed; the list a record is in governs which progress fields are
// meaningful.
type ListName string

const (
	ListReading   ListName = "Leyendo"
	ListPending   ListName = "Pendientes"
	ListFinished  ListName = "Terminados"
	ListAbandoned ListName = "Abandonados"
)

// Valid reports whether l is one of the four known lists.
func (l ListName) Valid() bool {
	switch l {
	case ListReading, ListPending, ListFinished, ListAbandoned:
		return true
	}
	return false
}

// AllLists returns the fixed set of list names in display order.
func AllLists() []ListName {
	return []ListName{ListReading, ListPending, ListFinished, ListAbandoned}
}

// BookRecord represents one user's relationship to a catalog title: which
// list it is on, reading progress, rating and the accumulated activity log.
// At most one record exists per (user, catalog book) pair - enforced by a
// composite unique index rather than a check-before-insert.
type BookRecord struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex:idx_user_book;index" json:"user_id"`

	// BookID is the catalog volume identifier from the external search API.
	BookID string `gorm:"uniqueIndex:idx_user_book;size:64" json:"book_id"`

	ListName ListName `gorm:"size:20;index" json:"list_name"`

	// Descriptive metadata copied from the catalog at creation time.
	// Not re-synced afterwards.
	Title       string     `gorm:"size:512" json:"title"`
	Author      string     `gorm:"index;size:256" json:"author"`
	CoverURL    string     `gorm:"size:2048" json:"cover_url,omitempty"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Categories  StringList `gorm:"type:text" json:"categories,omitempty"`

	// Page progress. Nil when not applicable (e.g. a pending book that was
	// never started). When both are set, 0 <= CurrentPage <= TotalPages.
	CurrentPage *int `json:"current_page,omitempty"`
	TotalPages  *int `json:"total_pages,omitempty"`

	// Rating is 0-5 stars; 0 means unrated.
	Rating int `json:"rating"`

	DateAdded    time.Time  `json:"date_added"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	FinishDate   *time.Time `json:"finish_date,omitempty"`
	LastDateRead *time.Time `json:"last_date_read,omitempty"`

	// Fields carried over from tabular imports.
	ISBN            string     `gorm:"size:20" json:"isbn,omitempty"`
	Format          string     `gorm:"size:50" json:"format,omitempty"`
	ReadCount       int        `json:"read_count,omitempty"`
	Review          string     `gorm:"type:text" json:"review,omitempty"`
	ContentWarnings string     `gorm:"size:512" json:"content_warnings,omitempty"`
	Tags            StringList `gorm:"type:text" json:"tags,omitempty"`
	Owned           bool       `json:"owned"`

	// Activity is the append-only log of page advances. Entries are only
	// ever inserted, never updated or removed.
	Activity []ReadingActivity `gorm:"foreignKey:RecordID" json:"activity,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReadingActivity is a single entry in a record's activity log: how many
// pages were advanced on a given date.
type ReadingActivity struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RecordID      uint      `gorm:"index" json:"record_id"`
	Date          time.Time `gorm:"index" json:"date"`
	PagesAdvanced int       `json:"pages_advanced"`
}

func (BookRecord) TableName() string {
	return "book_records"
}

func (ReadingActivity) TableName() string {
	return "reading_activity"
}

// CurrentPageOrZero treats an unset current page as zero, matching how
// progress deltas are computed against never-started records.
func (r *BookRecord) CurrentPageOrZero() int {
	if r.CurrentPage == nil {
		return 0
	}
	return *r.CurrentPage
}

// TotalPagesOrZero treats an unset page count as zero.
func (r *BookRecord) TotalPagesOrZero() int {
	if r.TotalPages == nil {
		return 0
	}
	return *r.TotalPages
}

// ResolvedDate returns the first available of finish date, last date read
// and date added. ok is false when none of them is set.
func (r *BookRecord) ResolvedDate() (time.Time, bool) {
	if r.FinishDate != nil {
		return *r.FinishDate, true
	}
	if r.LastDateRead != nil {
		return *r.LastDateRead, true
	}
	if !r.DateAdded.IsZero() {
		return r.DateAdded, true
	}
	return time.Time{}, false
}
