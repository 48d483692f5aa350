package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/events"
	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

// EntryParams describes one signed balance movement.
type EntryParams struct {
	AccountID uint
	Amount    int64
	Type      models.TransactionType
	Metadata  models.JSONB
	RequestID *uint
	// Apply runs inside the same database transaction as the ledger write,
	// after the entry insert. Earning flows use it to flip request/share
	// status so crediting and the status transition commit or roll back
	// together.
	Apply func(tx *gorm.DB, entry *models.CreditTransaction) error
}

// LedgerService owns the append-only transaction log and the projected
// account balance. Every balance-affecting operation in the engine goes
// through Record.
type LedgerService struct {
	db        *gorm.DB
	cfg       config.CreditsConfig
	publisher *events.Publisher
}

func NewLedgerService(db *gorm.DB, cfg config.CreditsConfig, publisher *events.Publisher) *LedgerService {
	return &LedgerService{
		db:        db,
		cfg:       cfg,
		publisher: publisher,
	}
}

// Record appends a transaction and updates the account projection in one
// atomic unit. Concurrent writers on the same account are detected by a
// version CAS; the write is retried a bounded number of times before the
// conflict is surfaced to the caller.
func (s *LedgerService) Record(ctx context.Context, p EntryParams) (*models.CreditTransaction, error) {
	if p.Amount == 0 {
		return nil, fmt.Errorf("%w: transaction amount must be non-zero", models.ErrValidation)
	}

	retries := s.cfg.ConflictMaxRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		entry, emitted, err := s.tryRecord(ctx, p)
		if err == nil {
			for _, event := range emitted {
				s.publisher.Dispatch(event)
			}
			return entry, nil
		}
		if !errors.Is(err, models.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// tryRecord is a single CAS attempt; it returns ErrConcurrencyConflict when
// another writer won the race on the account row. Event rows are persisted
// inside the same transaction and returned for post-commit dispatch.
func (s *LedgerService) tryRecord(ctx context.Context, p EntryParams) (*models.CreditTransaction, []models.CreditEvent, error) {
	var entry *models.CreditTransaction
	var emitted []models.CreditEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("id = ?", p.AccountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %d", models.ErrNotFound, p.AccountID)
			}
			return fmt.Errorf("failed to load account: %w", err)
		}

		newBalance := account.Balance + p.Amount
		newLifetime := account.LifetimeEarned
		if p.Amount > 0 {
			newLifetime += p.Amount
		}

		if newLifetime < 0 {
			return fmt.Errorf("%w: negative lifetime earnings for account %d", models.ErrLedgerCorrupt, account.ID)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"balance":         newBalance,
			"lifetime_earned": newLifetime,
			"version":         account.Version + 1,
			"updated_at":      now,
		}

		var transition *models.AccountStatus
		if next, changed := NextStatusForBalance(account.Status, newBalance, p.Amount); changed {
			updates["status"] = next
			updates["status_since"] = now
			transition = &next
		}

		// CAS on the version column: a concurrent writer bumps the version
		// first and this update matches zero rows.
		result := tx.Model(&models.Account{}).
			Where("id = ? AND version = ?", account.ID, account.Version).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update balance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: lost update on account %d", models.ErrConcurrencyConflict, account.ID)
		}

		entry = &models.CreditTransaction{
			AccountID:    account.ID,
			Amount:       p.Amount,
			BalanceAfter: newBalance,
			Type:         p.Type,
			Metadata:     p.Metadata,
			RequestID:    p.RequestID,
			CreatedAt:    now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}

		// Replicate the projection onto every welcomebook row of the account
		// in the same transaction; readers never reconcile the copies.
		if err := tx.Model(&models.Welcomebook{}).
			Where("account_id = ?", account.ID).
			Updates(map[string]interface{}{
				"balance":         newBalance,
				"lifetime_earned": newLifetime,
				"updated_at":      now,
			}).Error; err != nil {
			return fmt.Errorf("failed to replicate balance to welcomebooks: %w", err)
		}

		if p.Apply != nil {
			if err := p.Apply(tx, entry); err != nil {
				return err
			}
		}

		// Event rows commit with the write they record; a crash after commit
		// can lose a notification but never the persisted event.
		if s.publisher != nil {
			emitted = emitted[:0]
			if entry.Amount > 0 && entry.Type != models.TxInitialBonus {
				event, err := s.publisher.Append(tx, account.ID, models.EventCredited, models.JSONB{
					"amount":        entry.Amount,
					"balance_after": entry.BalanceAfter,
					"type":          string(entry.Type),
				})
				if err != nil {
					return fmt.Errorf("failed to persist credited event: %w", err)
				}
				emitted = append(emitted, event)
			}

			if transition != nil {
				var eventType models.EventType
				switch *transition {
				case models.AccountStatusGracePeriod:
					eventType = models.EventGracePeriodEntered
				case models.AccountStatusActive:
					eventType = models.EventReactivated
				}
				if eventType != "" {
					event, err := s.publisher.Append(tx, account.ID, eventType, models.JSONB{
						"balance": newBalance,
					})
					if err != nil {
						return fmt.Errorf("failed to persist %s event: %w", eventType, err)
					}
					emitted = append(emitted, event)
				}
			}
		}

		return nil
	})

	if err != nil {
		return nil, nil, err
	}
	return entry, emitted, nil
}

// GetBalance returns the current balance projection
func (s *LedgerService) GetBalance(ctx context.Context, accountID uint) (int64, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Select("balance").Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: account %d", models.ErrNotFound, accountID)
		}
		return 0, err
	}
	return account.Balance, nil
}

// GetTransactions returns the account's ledger history, newest first
func (s *LedgerService) GetTransactions(ctx context.Context, accountID uint, limit, offset int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var transactions []models.CreditTransaction
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("id DESC").Limit(limit).Offset(offset).Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// VerifyAccount re-folds the transaction log and checks it against the
// projected balance. A mismatch is reported as ErrLedgerCorrupt and must be
// treated as fatal by the caller, never silently repaired.
func (s *LedgerService) VerifyAccount(ctx context.Context, accountID uint) error {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %d", models.ErrNotFound, accountID)
		}
		return err
	}

	var transactions []models.CreditTransaction
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("id ASC").Find(&transactions).Error; err != nil {
		return err
	}

	var running int64
	for _, t := range transactions {
		running += t.Amount
		if t.BalanceAfter != running {
			log.Printf("[Ledger] Account %d: transaction %d balance_after=%d, fold=%d",
				accountID, t.ID, t.BalanceAfter, running)
			return fmt.Errorf("%w: broken running total at transaction %d", models.ErrLedgerCorrupt, t.ID)
		}
	}

	if running != account.Balance {
		return fmt.Errorf("%w: account %d balance %d != fold %d",
			models.ErrLedgerCorrupt, accountID, account.Balance, running)
	}

	return nil
}
