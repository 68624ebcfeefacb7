package movement

import (
	"time"

	"github.com/amirasaad/gastos/infra/repository/account"
	"github.com/google/uuid"
)

// Movement represents a movement record in the database.
type Movement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Account     account.Account `gorm:"constraint:OnDelete:RESTRICT"`
	Type        string          `gorm:"not null;size:10;index"`
	AmountCents int64           `gorm:"not null"`
	Note        string          `gorm:"type:text"`
	OccurredAt  time.Time       `gorm:"not null;index"`
	Attachment  string          `gorm:"size:255"`
	CreatedAt   time.Time
}

// TableName specifies the table name for the Movement model.
func (Movement) TableName() string {
	return "movements"
}

// movementRow is a movement joined with its account.
type movementRow struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	AccountName  string
	AccountColor string
	UserID       *uuid.UUID
	Type         string
	AmountCents  int64
	Note         string
	OccurredAt   time.Time
	Attachment   string
	CreatedAt    time.Time
}
