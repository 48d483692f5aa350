package models

import (
	"time"
)

type ShareStatus string

const (
	ShareStatusPending  ShareStatus = "PENDING"
	ShareStatusCredited ShareStatus = "CREDITED"
	ShareStatusRevoked  ShareStatus = "REVOKED"
)

// OfficialPost is a pre-made promotional post accounts can share for a fixed
// reward.
type OfficialPost struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Platform      string    `gorm:"size:50;not null;index" json:"platform"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreditsReward int64     `gorm:"not null" json:"credits_reward"`
	Active        bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (OfficialPost) TableName() string {
	return "official_posts"
}

// SocialPostShare records one account sharing one official post. PENDING means
// no ledger entry exists yet and CreditsAwarded is a promise; CREDITED means
// exactly one ledger entry was written at the moment of crediting. REVOKED is
// reached from CREDITED through a compensating negative entry, never by
// deleting rows.
type SocialPostShare struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	AccountID      uint          `gorm:"not null;index" json:"account_id"`
	Account        *Account      `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	PostID         uint          `gorm:"not null;index" json:"post_id"`
	Post           *OfficialPost `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreditsAwarded int64         `gorm:"not null" json:"credits_awarded"`
	ProfileURL     *string       `gorm:"size:500" json:"profile_url,omitempty"`
	Status         ShareStatus   `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	CreditedAt     *time.Time    `json:"credited_at,omitempty"`
	RevokedAt      *time.Time    `json:"revoked_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (SocialPostShare) TableName() string {
	return "social_post_shares"
}
