package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user, including its storage accounting
// state. UsedStorageBytes tracks the sum of owned file sizes and is
// maintained incrementally by the file service.
type User struct {
	ID               uuid.UUID
	Email            string
	FirstName        *string
	LastName         *string
	IsAdmin          bool
	PasswordHash     string
	MaxStorageBytes  int64
	UsedStorageBytes int64
	MaxFileBytes     int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}

// TokenPair bundles access and refresh tokens.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}
