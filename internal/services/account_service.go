package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/events"
	"welcomebook-credits/internal/models"
	"welcomebook-credits/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountService handles account lifecycle and welcomebook ownership.
type AccountService struct {
	db        *gorm.DB
	ledger    *LedgerService
	cfg       config.CreditsConfig
	publisher *events.Publisher
}

func NewAccountService(db *gorm.DB, ledger *LedgerService, cfg config.CreditsConfig, publisher *events.Publisher) *AccountService {
	return &AccountService{
		db:        db,
		ledger:    ledger,
		cfg:       cfg,
		publisher: publisher,
	}
}

// FindOrCreateByEmail resolves the verified identity to an account, creating
// it with the initial bonus on first sight. The bool reports whether the
// account is new.
func (s *AccountService) FindOrCreateByEmail(ctx context.Context, email string) (*models.Account, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, fmt.Errorf("%w: invalid email", models.ErrValidation)
	}

	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err == nil {
		return &account, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now()
	account = models.Account{
		Email:             email,
		Status:            models.AccountStatusActive,
		StatusSince:       &now,
		LastConsumptionAt: &now,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	profile := models.TrustProfile{
		AccountID:  account.ID,
		TrustLevel: models.TrustLevelStandard,
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		log.Printf("[Account] Warning: failed to create trust profile for account %d: %v", account.ID, err)
	}

	if _, err := s.ledger.Record(ctx, EntryParams{
		AccountID: account.ID,
		Amount:    s.cfg.InitialBonus,
		Type:      models.TxInitialBonus,
	}); err != nil {
		return nil, false, fmt.Errorf("failed to grant initial bonus: %w", err)
	}

	log.Printf("[Account] New account %d (%s) created with %d bonus credits",
		account.ID, email, s.cfg.InitialBonus)
	return s.reload(ctx, account.ID, true)
}

// GetAccount returns an account by id
func (s *AccountService) GetAccount(ctx context.Context, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %d", models.ErrNotFound, accountID)
		}
		return nil, err
	}
	return &account, nil
}

// AddWelcomebook creates a sub-resource carrying the replicated balance
// snapshot. The account row is read under a row lock so a ledger write
// committing between the snapshot and the insert cannot leave the new row
// behind its siblings.
func (s *AccountService) AddWelcomebook(ctx context.Context, accountID uint, name string) (*models.Welcomebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: welcomebook name is required", models.ErrValidation)
	}

	slug, err := utils.GenerateSlug(name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	var book models.Welcomebook
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %d", models.ErrNotFound, accountID)
			}
			return err
		}

		book = models.Welcomebook{
			AccountID:      account.ID,
			Name:           name,
			Slug:           slug,
			Balance:        account.Balance,
			LifetimeEarned: account.LifetimeEarned,
		}
		return tx.Create(&book).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Account] Account %d: welcomebook %d (%s) created", accountID, book.ID, book.Slug)
	return &book, nil
}

// ListWelcomebooks returns the account's welcomebooks
func (s *AccountService) ListWelcomebooks(ctx context.Context, accountID uint) ([]models.Welcomebook, error) {
	var books []models.Welcomebook
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at ASC").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// RequestDeletion moves the account to TO_DELETE. The version bump
// invalidates in-flight balance writes so their status transitions cannot
// overwrite the terminal state.
func (s *AccountService) RequestDeletion(ctx context.Context, accountID uint) error {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status == models.AccountStatusToDelete {
		return fmt.Errorf("%w: account %d already marked for deletion", models.ErrInvalidState, accountID)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"status":       models.AccountStatusToDelete,
			"status_since": now,
			"version":      gorm.Expr("version + 1"),
		}).Error; err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.Publish(accountID, models.EventDeletionRequested, nil)
	}

	log.Printf("[Account] Account %d marked for deletion", accountID)
	return nil
}

func (s *AccountService) reload(ctx context.Context, accountID uint, created bool) (*models.Account, bool, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		return nil, created, err
	}
	return &account, created, nil
}
