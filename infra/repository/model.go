package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the persisted form of a directory account.
// Dependents reference their guardian through GuardianID only.
type Account struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Role       string     `gorm:"type:varchar(16);not null;index"`
	Username   string     `gorm:"size:32;not null;uniqueIndex"`
	Email      *string    `gorm:"size:255;uniqueIndex"`
	Password   string     `gorm:"not null"`
	Balance    int64      `gorm:"not null;check:accounts_balance_check,balance >= 0"`
	GuardianID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction is the persisted form of a ledger entry. Amount is in cents.
type Transaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind        string     `gorm:"type:varchar(16);not null;index"`
	Amount      int64      `gorm:"not null;check:amount > 0"`
	SenderID    *uuid.UUID `gorm:"type:uuid;index"`
	ReceiverID  *uuid.UUID `gorm:"type:uuid;index"`
	Description string     `gorm:"size:255;not null"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

// Models lists every persisted model, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{&Account{}, &Transaction{}}
}
