package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

// TrustService tracks per-account trust state and decides auto-approval
// eligibility for earning requests.
type TrustService struct {
	db  *gorm.DB
	cfg config.CreditsConfig
}

func NewTrustService(db *gorm.DB, cfg config.CreditsConfig) *TrustService {
	return &TrustService{db: db, cfg: cfg}
}

// CanAutoApprove is pure: an elevated trust level plus enough surviving
// manual reviews unlocks automatic approval. The threshold is configuration.
func (s *TrustService) CanAutoApprove(level models.TrustLevel, approvedCount int) bool {
	return level != models.TrustLevelStandard && approvedCount >= s.cfg.TrustMinApprovals
}

// GetProfile returns the trust profile for an account, creating the default
// standard profile if none exists yet
func (s *TrustService) GetProfile(ctx context.Context, accountID uint) (*models.TrustProfile, error) {
	var profile models.TrustProfile
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.TrustProfile{
			AccountID:  accountID,
			TrustLevel: models.TrustLevelStandard,
		}
		if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("failed to create trust profile: %w", err)
		}
		return &profile, nil
	}

	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// RecordApproval increments the approval counter inside the decision's
// database transaction. Only the admin approve path calls this; auto-approved
// and rejected requests never touch the counter.
func (s *TrustService) RecordApproval(tx *gorm.DB, accountID uint) error {
	result := tx.Model(&models.TrustProfile{}).
		Where("account_id = ?", accountID).
		Update("approved_requests_count", gorm.Expr("approved_requests_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to record approval: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Profile missing for a pre-trust-engine account; create it at 1.
		profile := models.TrustProfile{
			AccountID:             accountID,
			TrustLevel:            models.TrustLevelStandard,
			ApprovedRequestsCount: 1,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to create trust profile: %w", err)
		}
	}

	return nil
}

// SetTrustLevel changes an account's trust level (admin operation)
func (s *TrustService) SetTrustLevel(ctx context.Context, accountID uint, level models.TrustLevel) error {
	switch level {
	case models.TrustLevelStandard, models.TrustLevelSilver, models.TrustLevelGold:
	default:
		return fmt.Errorf("%w: unknown trust level %q", models.ErrValidation, level)
	}

	if _, err := s.GetProfile(ctx, accountID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.TrustProfile{}).
		Where("account_id = ?", accountID).
		Update("trust_level", level).Error; err != nil {
		return err
	}

	log.Printf("[Trust] Account %d trust level set to %s", accountID, level)
	return nil
}
