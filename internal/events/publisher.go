package events

import (
	"log"
	"sync"
	"time"

	"welcomebook-credits/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber receives every published credit event. The notification
// collaborator registers one; the engine itself never sends messages.
type Subscriber func(event models.CreditEvent)

// Publisher persists credit events and fans them out to in-process
// subscribers. Ledger writes persist their events through Append inside the
// same transaction as the balance change; fan-out always happens after
// commit and is best effort.
type Publisher struct {
	db          *gorm.DB
	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewPublisher(db *gorm.DB) *Publisher {
	return &Publisher{db: db}
}

// Subscribe registers a subscriber for all future events
func (p *Publisher) Subscribe(sub Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, sub)
}

// Append persists an event within the caller's transaction, so the event row
// commits or rolls back with the state change it records. The caller
// dispatches after commit.
func (p *Publisher) Append(tx *gorm.DB, accountID uint, eventType models.EventType, payload models.JSONB) (models.CreditEvent, error) {
	event := models.CreditEvent{
		EventID:   uuid.NewString(),
		AccountID: accountID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := tx.Create(&event).Error; err != nil {
		return event, err
	}
	return event, nil
}

// Dispatch notifies subscribers of an already-persisted event
func (p *Publisher) Dispatch(event models.CreditEvent) {
	p.mu.RLock()
	subs := make([]Subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.RUnlock()

	for _, sub := range subs {
		sub(event)
	}
}

// Publish records the event and notifies subscribers, for transitions made
// outside a ledger transaction.
func (p *Publisher) Publish(accountID uint, eventType models.EventType, payload models.JSONB) {
	event, err := p.Append(p.db, accountID, eventType, payload)
	if err != nil {
		log.Printf("[Events] Failed to persist %s event for account %d: %v", eventType, accountID, err)
	}
	p.Dispatch(event)
}

// ListByAccount returns the persisted events for an account, newest first
func (p *Publisher) ListByAccount(accountID uint, limit int) ([]models.CreditEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var events []models.CreditEvent
	if err := p.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
