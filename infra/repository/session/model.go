package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a login session record in the database.
type Session struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Token      string    `gorm:"uniqueIndex;not null;size:64"`
	IP         string    `gorm:"size:45"`
	UserAgent  string    `gorm:"size:255"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// TableName specifies the table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}
