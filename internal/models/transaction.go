package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, &j)
}

type TransactionType string

const (
	TxInitialBonus TransactionType = "initial_bonus"
	TxEarnSocial   TransactionType = "earn_social"
	TxEarnBlog     TransactionType = "earn_blog"
	TxPurchase     TransactionType = "purchase"
	TxSpendDaily   TransactionType = "spend_daily"
	TxRevoke       TransactionType = "revoke"
)

// CreditTransaction is a single immutable row in the append-only credit ledger.
// Corrections are compensating entries; rows are never updated or deleted.
// Invariant: BalanceAfter equals the account balance at the moment of the write
// plus Amount, and the ordered BalanceAfter sequence per account is the running
// fold of Amount.
type CreditTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AccountID    uint            `gorm:"not null;index" json:"account_id"`
	Account      *Account        `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Amount       int64           `gorm:"not null" json:"amount"`
	BalanceAfter int64           `gorm:"not null" json:"balance_after"`
	Type         TransactionType `gorm:"size:50;not null;index" json:"type"`
	Metadata     JSONB           `gorm:"type:jsonb" json:"metadata,omitempty"`
	RequestID    *uint           `gorm:"index" json:"request_id,omitempty"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
