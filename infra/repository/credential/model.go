package credential

import (
	"time"

	"github.com/google/uuid"
)

// TwoFactorCode represents a second-factor code record in the database.
type TwoFactorCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Code      string    `gorm:"not null;size:10"`
	Used      bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName specifies the table name for the TwoFactorCode model.
func (TwoFactorCode) TableName() string {
	return "two_factor_codes"
}

// ResetToken represents a password reset token record in the database.
type ResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"uniqueIndex;not null;size:64"`
	Used      bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName specifies the table name for the ResetToken model.
func (ResetToken) TableName() string {
	return "password_reset_tokens"
}

// APIToken represents an API token record in the database.
type APIToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"not null;size:100"`
	Token      string    `gorm:"uniqueIndex;not null;size:64"`
	Active     bool      `gorm:"not null;default:true"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// TableName specifies the table name for the APIToken model.
func (APIToken) TableName() string {
	return "api_tokens"
}
