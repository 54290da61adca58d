package imports

import (
	"time"

	"gorm.io/gorm"

	"github.com/lectorflow/server/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSession opens a new import session in the running state.
func (r *Repository) CreateSession(userID uint) (*entities.ImportSession, error) {
	session := &entities.ImportSession{
		UserID:    userID,
		Status:    entities.ImportStatusRunning,
		StartedAt: time.Now(),
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession persists session counter and status changes.
func (r *Repository) UpdateSession(session *entities.ImportSession) error {
	return r.db.Save(session).Error
}

// GetSession retrieves an import session by ID.
func (r *Repository) GetSession(id uint) (*entities.ImportSession, error) {
	var session entities.ImportSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionsForUser lists a user's import sessions, newest first.
func (r *Repository) GetSessionsForUser(userID uint) ([]entities.ImportSession, error) {
	var sessions []entities.ImportSession
	err := r.db.Where("user_id = ?", userID).Order("started_at DESC").Find(&sessions).Error
	return sessions, err
}

// DeleteOldSessions removes sessions older than the given time. Returns
// the number of deleted sessions.
func (r *Repository) DeleteOldSessions(olderThan time.Time) (int64, error) {
	result := r.db.Where("started_at < ?", olderThan).Delete(&entities.ImportSession{})
	return result.RowsAffected, result.Error
}
