package models

import (
	"time"
)

// AdminUser marks an account as allowed to decide earning requests.
type AdminUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"uniqueIndex;not null" json:"account_id"`
	Account   *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Role      string    `gorm:"size:20;not null" json:"role"` // SUPER_ADMIN, MODERATOR
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// AdminLog records every admin decision for audit.
type AdminLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AdminID    uint       `gorm:"not null;index" json:"admin_id"`
	Admin      *AdminUser `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action     string     `gorm:"size:50;not null" json:"action"` // approve_request, reject_request, approve_blog, reject_blog, revoke_share
	TargetType string     `gorm:"size:50;not null" json:"target_type"`
	TargetID   uint       `gorm:"not null" json:"target_id"`
	Details    JSONB      `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
