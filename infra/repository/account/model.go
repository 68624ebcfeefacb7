package account

import (
	"time"

	"github.com/amirasaad/gastos/infra/repository/tag"
	"github.com/amirasaad/gastos/infra/repository/user"
	"github.com/google/uuid"
)

// Account represents an account record in the database. Money columns hold
// integer cents.
type Account struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_name,priority:1"`
	User         user.User  `gorm:"constraint:OnDelete:CASCADE"`
	Name         string     `gorm:"not null;size:100;uniqueIndex:idx_accounts_user_name,priority:2"`
	Kind         string     `gorm:"not null;size:20"`
	BalanceCents int64      `gorm:"not null;default:0"`
	Currency     string     `gorm:"type:varchar(3);not null;default:'EUR'"`
	TagID        *uuid.UUID `gorm:"type:uuid;index"`
	Tag          *tag.Tag   `gorm:"constraint:OnDelete:RESTRICT"`
	Color        string     `gorm:"type:varchar(7);not null;default:'#808080'"`
	Description  string     `gorm:"size:500"`
	GoalCents    *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// accountRow is an account joined with its tag name.
type accountRow struct {
	Account
	TagName string
}
