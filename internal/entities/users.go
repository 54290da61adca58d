package entities

import (
	"time"

	"gorm.io/gorm"
)

// User is an account that owns book records. Accounts are created either
// locally (username/password) or on first Google sign-in; in both cases
// the record carries an opaque stable identifier the domain logic keys on.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:100" json:"username"`
	Email    string `gorm:"uniqueIndex;size:255" json:"email"`

	// DisplayName and PhotoURL come from the identity provider's profile.
	DisplayName string `gorm:"size:256" json:"display_name,omitempty"`
	PhotoURL    string `gorm:"size:2048" json:"photo_url,omitempty"`

	// GoogleSub is the provider's stable subject identifier. Empty for
	// local accounts.
	GoogleSub string `gorm:"index;size:64" json:"-"`

	// Local credential fields. Empty for OAuth-only accounts.
	PasswordHash string `gorm:"size:128" json:"-"`

	// API token (hash only; plaintext is shown to the user once).
	TokenHash      string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt *time.Time `json:"-"`

	// Login throttling state.
	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// ImportStatus tracks the lifecycle of a CSV import batch.
type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportSession records the outcome of one CSV import batch: how many rows
// were seen, how many records were created and how many rows failed. A
// batch always completes; per-row failures are tallied here instead of
// aborting the run.
type ImportSession struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"index" json:"user_id"`
	Status         ImportStatus `gorm:"size:20;default:'running'" json:"status"`
	RowsProcessed  int          `json:"rows_processed"`
	RecordsCreated int          `json:"records_created"`
	RowsFailed     int          `json:"rows_failed"`
	Errors         string       `gorm:"type:text" json:"errors,omitempty"` // JSON array of row errors
	StartedAt      time.Time    `json:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

func (ImportSession) TableName() string {
	return "import_sessions"
}
