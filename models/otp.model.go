package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP stores a bcrypt-hashed password reset code with expiry
type OTP struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Email     string    `gorm:"size:100;index" json:"email,omitempty"`
	Code      string    `gorm:"size:100;not null" json:"-"` // bcrypt hash of the 6-digit code
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	IsDeleted bool      `gorm:"default:false" json:"-"`
}
