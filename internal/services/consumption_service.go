package services

import (
	"context"
	"errors"
	"log"
	"time"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/events"
	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

// ConsumptionService implements the periodic drain: every owned welcomebook
// shortens the interval between one-credit debits, and grace-period accounts
// that run out the window are suspended.
type ConsumptionService struct {
	db        *gorm.DB
	ledger    *LedgerService
	cfg       config.CreditsConfig
	publisher *events.Publisher
}

func NewConsumptionService(db *gorm.DB, ledger *LedgerService, cfg config.CreditsConfig, publisher *events.Publisher) *ConsumptionService {
	return &ConsumptionService{
		db:        db,
		ledger:    ledger,
		cfg:       cfg,
		publisher: publisher,
	}
}

// IntervalForCount returns the debit interval for an account owning count
// welcomebooks. The base interval is divided by the count and floored so a
// large portfolio cannot drain faster than the configured minimum.
func (s *ConsumptionService) IntervalForCount(count int64) time.Duration {
	if count <= 0 {
		return s.cfg.BaseConsumption
	}
	interval := time.Duration(int64(s.cfg.BaseConsumption) / count)
	if interval < s.cfg.MinConsumption {
		return s.cfg.MinConsumption
	}
	return interval
}

// TickStats summarizes one sweep
type TickStats struct {
	Scanned   int
	Debited   int
	Suspended int
	Errors    int
}

// Tick runs one consumption sweep at the given instant. Accounts that are
// active or in grace are considered; suspended and to-delete accounts never
// consume. A stalled scheduler debits at most once per account per sweep, so
// downtime is never charged retroactively. Per-account failures are logged and
// skipped; the next sweep sees the unchanged state and retries naturally.
func (s *ConsumptionService) Tick(ctx context.Context, now time.Time) TickStats {
	var stats TickStats

	var accounts []models.Account
	if err := s.db.WithContext(ctx).
		Where("status IN ?", []models.AccountStatus{models.AccountStatusActive, models.AccountStatusGracePeriod}).
		Order("id ASC").Find(&accounts).Error; err != nil {
		log.Printf("[Consumption] Failed to load accounts: %v", err)
		stats.Errors++
		return stats
	}

	for _, account := range accounts {
		stats.Scanned++

		if err := s.processAccount(ctx, account, now, &stats); err != nil {
			stats.Errors++
			log.Printf("[Consumption] Account %d: sweep failed: %v", account.ID, err)
		}
	}

	if stats.Debited > 0 || stats.Suspended > 0 || stats.Errors > 0 {
		log.Printf("[Consumption] Sweep done: scanned=%d debited=%d suspended=%d errors=%d",
			stats.Scanned, stats.Debited, stats.Suspended, stats.Errors)
	}
	return stats
}

func (s *ConsumptionService) processAccount(ctx context.Context, account models.Account, now time.Time, stats *TickStats) error {
	var bookCount int64
	if err := s.db.WithContext(ctx).Model(&models.Welcomebook{}).
		Where("account_id = ?", account.ID).Count(&bookCount).Error; err != nil {
		return err
	}

	// An account with no welcomebooks has nothing draining its pool.
	if bookCount > 0 && s.due(account, bookCount, now) {
		_, err := s.ledger.Record(ctx, EntryParams{
			AccountID: account.ID,
			Amount:    -1,
			Type:      models.TxSpendDaily,
			Metadata: models.JSONB{
				"welcomebook_count": bookCount,
			},
			Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
				// Marking from now rather than the due instant means missed
				// intervals are forgiven, not stacked.
				return tx.Model(&models.Account{}).
					Where("id = ?", account.ID).
					Update("last_consumption_at", now).Error
			},
		})
		if err != nil {
			if errors.Is(err, models.ErrConcurrencyConflict) {
				// Another writer moved the balance; the next sweep re-reads.
				log.Printf("[Consumption] Account %d: debit skipped after conflict", account.ID)
				return nil
			}
			return err
		}
		stats.Debited++
	}

	// Re-read after the potential debit: this sweep may itself have opened
	// the grace window, and a seven-day-old window plus this sweep's debit
	// must not suspend in the same breath it entered grace.
	var current models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", account.ID).First(&current).Error; err != nil {
		return err
	}

	if GraceExpired(current.Status, current.Balance, current.StatusSince, s.cfg.GraceWindow, now) {
		if err := s.suspend(ctx, &current, now); err != nil {
			return err
		}
		stats.Suspended++
	}
	return nil
}

// due reports whether the account's drain interval has elapsed
func (s *ConsumptionService) due(account models.Account, bookCount int64, now time.Time) bool {
	if account.LastConsumptionAt == nil {
		return true
	}
	return now.Sub(*account.LastConsumptionAt) >= s.IntervalForCount(bookCount)
}

// suspend closes the grace window. Suspension is a pure status transition,
// never a ledger write; the CAS keeps it from clobbering a concurrent
// reactivating purchase.
func (s *ConsumptionService) suspend(ctx context.Context, account *models.Account, now time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND status = ? AND version = ?",
			account.ID, models.AccountStatusGracePeriod, account.Version).
		Updates(map[string]interface{}{
			"status":       models.AccountStatusSuspended,
			"status_since": now,
			"version":      account.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		log.Printf("[Consumption] Account %d: suspension skipped, state moved underneath", account.ID)
		return nil
	}

	if s.publisher != nil {
		s.publisher.Publish(account.ID, models.EventSuspended, models.JSONB{
			"balance": account.Balance,
		})
	}

	log.Printf("[Consumption] Account %d suspended after grace window", account.ID)
	return nil
}
