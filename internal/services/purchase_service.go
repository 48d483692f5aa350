package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"welcomebook-credits/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseService credits confirmed payments from the billing collaborator.
// The webhook sender retries with at-least-once delivery, so every purchase
// is deduplicated by its external payment id.
type PurchaseService struct {
	db     *gorm.DB
	ledger *LedgerService
}

func NewPurchaseService(db *gorm.DB, ledger *LedgerService) *PurchaseService {
	return &PurchaseService{db: db, ledger: ledger}
}

// CreditPurchase applies one confirmed payment. Replays of the same external
// payment id return the original purchase without a second ledger entry.
// A suspended or grace-period account reactivates immediately on this write.
func (s *PurchaseService) CreditPurchase(ctx context.Context, accountID, packageID uint, externalPaymentID string, amountPaid decimal.Decimal) (*models.CreditPurchase, error) {
	externalPaymentID = strings.TrimSpace(externalPaymentID)
	if externalPaymentID == "" {
		return nil, fmt.Errorf("%w: external payment id is required", models.ErrValidation)
	}

	var existing models.CreditPurchase
	err := s.db.WithContext(ctx).Where("external_payment_id = ?", externalPaymentID).First(&existing).Error
	if err == nil {
		log.Printf("[Purchase] Replay of payment %s ignored (purchase %d)", externalPaymentID, existing.ID)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var pkg models.CreditPackage
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", packageID, true).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: credit package %d", models.ErrNotFound, packageID)
		}
		return nil, err
	}

	return s.record(ctx, accountID, &pkg, externalPaymentID, amountPaid)
}

// record credits one payment. The unique index on external_payment_id is the
// authority on duplicates: when a concurrent delivery slips past the replay
// pre-check, the losing write rolls back and resolves to the winner's
// purchase.
func (s *PurchaseService) record(ctx context.Context, accountID uint, pkg *models.CreditPackage, externalPaymentID string, amountPaid decimal.Decimal) (*models.CreditPurchase, error) {
	purchase := models.CreditPurchase{
		AccountID:         accountID,
		PackageID:         pkg.ID,
		ExternalPaymentID: externalPaymentID,
		AmountPaid:        amountPaid,
		Credits:           pkg.Credits,
	}

	_, err := s.ledger.Record(ctx, EntryParams{
		AccountID: accountID,
		Amount:    pkg.Credits,
		Type:      models.TxPurchase,
		Metadata: models.JSONB{
			"package_id":          pkg.ID,
			"external_payment_id": externalPaymentID,
			"amount_paid":         amountPaid.String(),
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			return tx.Create(&purchase).Error
		},
	})
	if err != nil {
		var raced models.CreditPurchase
		if lookupErr := s.db.WithContext(ctx).Where("external_payment_id = ?", externalPaymentID).
			First(&raced).Error; lookupErr == nil {
			log.Printf("[Purchase] Concurrent delivery of payment %s resolved to purchase %d",
				externalPaymentID, raced.ID)
			return &raced, nil
		}
		return nil, err
	}

	log.Printf("[Purchase] Account %d: +%d credits from package %d (payment %s)",
		accountID, pkg.Credits, pkg.ID, externalPaymentID)
	return &purchase, nil
}

// ListPackages returns the purchasable packages
func (s *PurchaseService) ListPackages(ctx context.Context) ([]models.CreditPackage, error) {
	var packages []models.CreditPackage
	if err := s.db.WithContext(ctx).Where("active = ?", true).
		Order("credits ASC").Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}
