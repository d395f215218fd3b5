package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;default:USER"     json:"role"`
	IsActive     bool      `gorm:"not null;default:true"     json:"is_active"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is the durable ledger row for an issued refresh token.
// Liveness is decided by the session store, not by this table.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null"      json:"jti"`
	TokenHash string    `gorm:"uniqueIndex;not null"      json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                  json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
