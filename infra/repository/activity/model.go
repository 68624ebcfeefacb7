package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents an activity log record in the database.
type Entry struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	Action    string     `gorm:"type:text;not null"`
	IP        string     `gorm:"size:45"`
	CreatedAt time.Time  `gorm:"index"`
}

// TableName specifies the table name for the Entry model.
func (Entry) TableName() string {
	return "activity_log"
}
