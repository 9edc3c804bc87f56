package domain

import (
	"strings"
	"time"
)

type User struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Password      string    `json:"-" gorm:"not null"` // Never return password in JSON
	Name          string    `json:"name" gorm:"not null"`
	AvatarURL     string    `json:"avatar,omitempty"`
	EmailVerified bool      `json:"emailVerified" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Only SHA-256 hashes of the one-time tokens are stored.
	VerificationTokenHash *string    `json:"-" gorm:"index"`
	VerificationExpiresAt *time.Time `json:"-"`
	ResetTokenHash        *string    `json:"-" gorm:"index"`
	ResetExpiresAt        *time.Time `json:"-"`
}

// NormalizeEmail is the canonical form used for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RefreshToken is a persisted refresh token. A user may hold several, one per device.
type RefreshToken struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Token     string    `json:"-" gorm:"type:text;uniqueIndex;not null"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
}
