// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByTokenHash(hash)
package users

import (
	"time"

	"gorm.io/gorm"

	"github.com/lectorflow/server/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser persists a new user row.
func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByTokenHash retrieves a user by the SHA-256 hash of their API token.
// Plaintext tokens are never stored.
func (r *Repository) GetUserByTokenHash(hash string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("token_hash = ?", hash).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByGoogleSub retrieves a user by the OAuth provider's subject
// identifier.
func (r *Repository) GetUserByGoogleSub(sub string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("google_sub = ?", sub).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists user field changes.
func (r *Repository) UpdateUser(user *entities.User) error {
	return r.db.Save(user).Error
}

// RecordFailedLogin increments the failure counter and applies a lockout
// once the threshold is crossed.
func (r *Repository) RecordFailedLogin(user *entities.User, maxAttempts int, lockout time.Duration) error {
	user.FailedLoginCount++
	if maxAttempts > 0 && user.FailedLoginCount >= maxAttempts {
		until := time.Now().Add(lockout)
		user.LockedUntil = &until
	}
	return r.db.Save(user).Error
}

// RecordSuccessfulLogin clears throttling state and stamps the login time.
func (r *Repository) RecordSuccessfulLogin(user *entities.User) error {
	now := time.Now()
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return r.db.Save(user).Error
}
