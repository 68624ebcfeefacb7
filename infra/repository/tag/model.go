package tag

import (
	"time"

	"github.com/google/uuid"
)

// Tag represents a tag record in the database.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null;size:50"`
	CreatedAt time.Time
}

// TableName specifies the table name for the Tag model.
func (Tag) TableName() string {
	return "tags"
}
