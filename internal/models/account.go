package models

import (
	"time"
)

type AccountStatus string

const (
	AccountStatusActive      AccountStatus = "ACTIVE"
	AccountStatusGracePeriod AccountStatus = "GRACE_PERIOD"
	AccountStatusSuspended   AccountStatus = "SUSPENDED"
	AccountStatusToDelete    AccountStatus = "TO_DELETE"
)

// Account owns one shared credit pool for all of its welcomebooks. Balance and
// LifetimeEarned are projections of the transaction log, updated in the same
// database transaction as every ledger write. Version backs the optimistic
// concurrency check on that write path.
type Account struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	Email             string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Balance           int64         `gorm:"not null;default:0" json:"balance"`
	LifetimeEarned    int64         `gorm:"not null;default:0" json:"lifetime_earned"`
	Status            AccountStatus `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	StatusSince       *time.Time    `json:"status_since,omitempty"`
	LastConsumptionAt *time.Time    `json:"last_consumption_at,omitempty"`
	Version           int64         `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// Welcomebook is a guest guide owned by an account. Balance and LifetimeEarned
// are read-only replicas of the owner's pool, refreshed by the ledger write
// path; readers never reconcile them.
type Welcomebook struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AccountID      uint      `gorm:"not null;index" json:"account_id"`
	Account        *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Slug           string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Balance        int64     `gorm:"not null;default:0" json:"balance"`
	LifetimeEarned int64     `gorm:"not null;default:0" json:"lifetime_earned"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Welcomebook) TableName() string {
	return "welcomebooks"
}
