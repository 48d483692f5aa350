package models

import (
	"time"
)

type EventType string

const (
	EventCredited           EventType = "credited"
	EventGracePeriodEntered EventType = "grace_period_entered"
	EventSuspended          EventType = "suspended"
	EventReactivated        EventType = "reactivated"
	EventDeletionRequested  EventType = "deletion_requested"
)

// CreditEvent is the persisted record of a state change the notification
// collaborator subscribes to. The engine only emits; it never sends messages.
type CreditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`
	Type      EventType `gorm:"size:50;not null;index" json:"type"`
	Payload   JSONB     `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (CreditEvent) TableName() string {
	return "credit_events"
}
