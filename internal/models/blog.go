package models

import (
	"time"
)

type BlogSubmissionStatus string

const (
	BlogStatusPending  BlogSubmissionStatus = "PENDING"
	BlogStatusApproved BlogSubmissionStatus = "APPROVED"
	BlogStatusRejected BlogSubmissionStatus = "REJECTED"
)

// BlogSubmission is a blog-article earning attempt with a fixed reward. It
// stays PENDING until an admin decision; only an approval writes a ledger
// entry.
type BlogSubmission struct {
	ID               uint                 `gorm:"primaryKey" json:"id"`
	AccountID        uint                 `gorm:"not null;index:idx_blog_account_url,unique" json:"account_id"`
	Account          *Account             `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	ArticleURL       string               `gorm:"size:500;not null;index:idx_blog_account_url,unique" json:"article_url"`
	CreditsRequested int64                `gorm:"not null" json:"credits_requested"`
	Status           BlogSubmissionStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	DecidedBy        *uint                `json:"decided_by,omitempty"`
	DecisionReason   *string              `gorm:"size:500" json:"decision_reason,omitempty"`
	DecidedAt        *time.Time           `json:"decided_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func (BlogSubmission) TableName() string {
	return "blog_submissions"
}
