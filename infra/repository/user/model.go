package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user record in the database.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username         string     `gorm:"uniqueIndex;not null;size:50"`
	Email            string     `gorm:"uniqueIndex;not null;size:200"`
	PasswordHash     string     `gorm:"not null;size:255"`
	Role             string     `gorm:"not null;size:20;default:usuario;index"`
	TwoFactorEnabled bool       `gorm:"not null;default:false"`
	Photo            string     `gorm:"size:255"`
	LastLoginAt      *time.Time `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
