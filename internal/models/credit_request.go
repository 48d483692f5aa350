package models

import (
	"time"
)

type CreditRequestStatus string

const (
	RequestStatusPending      CreditRequestStatus = "PENDING"
	RequestStatusApproved     CreditRequestStatus = "APPROVED"
	RequestStatusRejected     CreditRequestStatus = "REJECTED"
	RequestStatusAutoApproved CreditRequestStatus = "AUTO_APPROVED"
)

// PostTemplate is read-only reference content a custom post is scored against.
type PostTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Platform  string    `gorm:"size:50;not null;index" json:"platform"`
	PostType  string    `gorm:"size:50;not null" json:"post_type"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PostTemplate) TableName() string {
	return "post_templates"
}

// CreditRequest is a scored custom-post earning attempt. The status is decided
// exactly once: AUTO_APPROVED or PENDING at creation, then PENDING may move to
// APPROVED or REJECTED through a one-time admin decision.
type CreditRequest struct {
	ID                   uint                `gorm:"primaryKey" json:"id"`
	AccountID            uint                `gorm:"not null;index" json:"account_id"`
	Account              *Account            `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Platform             string              `gorm:"size:50;not null" json:"platform"`
	PostType             string              `gorm:"size:50;not null" json:"post_type"`
	TemplateID           uint                `gorm:"not null;index" json:"template_id"`
	Template             *PostTemplate       `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	CustomContent        string              `gorm:"type:text;not null" json:"custom_content"`
	ProofURL             *string             `gorm:"size:500" json:"proof_url,omitempty"`
	PersonalizationScore int                 `gorm:"not null" json:"personalization_score"`
	CreditsRequested     int64               `gorm:"not null" json:"credits_requested"`
	Status               CreditRequestStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	DecidedBy            *uint               `json:"decided_by,omitempty"`
	DecisionReason       *string             `gorm:"size:500" json:"decision_reason,omitempty"`
	DecidedAt            *time.Time          `json:"decided_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func (CreditRequest) TableName() string {
	return "credit_requests"
}
