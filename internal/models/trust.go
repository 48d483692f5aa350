package models

import (
	"time"
)

type TrustLevel string

const (
	TrustLevelStandard TrustLevel = "STANDARD"
	TrustLevelSilver   TrustLevel = "SILVER"
	TrustLevelGold     TrustLevel = "GOLD"
)

// TrustProfile tracks how much manual review an account has survived.
// ApprovedRequestsCount grows only through admin-approved credit requests.
type TrustProfile struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	AccountID             uint       `gorm:"uniqueIndex;not null" json:"account_id"`
	Account               *Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	TrustLevel            TrustLevel `gorm:"size:20;not null;default:STANDARD" json:"trust_level"`
	ApprovedRequestsCount int        `gorm:"not null;default:0" json:"approved_requests_count"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (TrustProfile) TableName() string {
	return "trust_profiles"
}
