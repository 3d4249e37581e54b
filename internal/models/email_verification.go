package models

import "time"

// EmailVerification stores verification tokens for local registrations.
// Tokens are persisted as SHA-256 digests; the raw value only travels in the
// confirmation link handed to the user.
type EmailVerification struct {
	BaseModel

	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
