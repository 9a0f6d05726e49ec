package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user. Every user owns one bucket in the
// object store and a storage quota capping the declared bytes of their files.
type User struct {
	ID                uuid.UUID
	Email             string
	DisplayName       *string
	IsAdmin           bool
	PasswordHash      string
	BucketName        string
	StorageQuotaBytes int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
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
