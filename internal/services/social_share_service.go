package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

// SocialShareService handles sharing of official pre-made posts: immediate
// crediting when proof is attached, and the pending → credited completion
// flow when it is not.
type SocialShareService struct {
	db     *gorm.DB
	ledger *LedgerService
}

func NewSocialShareService(db *gorm.DB, ledger *LedgerService) *SocialShareService {
	return &SocialShareService{db: db, ledger: ledger}
}

// ShareOfficialPost records a share of an active official post. With a
// profile URL the share is credited immediately, share row and ledger entry
// committing together; without one the share stays pending and CreditsAwarded
// is a promise, not a fact.
func (s *SocialShareService) ShareOfficialPost(ctx context.Context, accountID, postID uint, profileURL string) (*models.SocialPostShare, error) {
	var post models.OfficialPost
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", postID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: official post %d", models.ErrNotFound, postID)
		}
		return nil, err
	}

	share := models.SocialPostShare{
		AccountID:      accountID,
		PostID:         post.ID,
		CreditsAwarded: post.CreditsReward,
		Status:         models.ShareStatusPending,
	}

	profileURL = strings.TrimSpace(profileURL)
	if profileURL == "" {
		if err := s.db.WithContext(ctx).Create(&share).Error; err != nil {
			return nil, fmt.Errorf("failed to create share: %w", err)
		}

		log.Printf("[SocialShare] Account %d: share %d of post %d pending proof",
			accountID, share.ID, post.ID)
		return &share, nil
	}

	now := time.Now()
	share.Status = models.ShareStatusCredited
	share.ProfileURL = &profileURL
	share.CreditedAt = &now

	_, err := s.ledger.Record(ctx, EntryParams{
		AccountID: accountID,
		Amount:    post.CreditsReward,
		Type:      models.TxEarnSocial,
		Metadata: models.JSONB{
			"post_id":  post.ID,
			"platform": post.Platform,
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			return tx.Create(&share).Error
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SocialShare] Account %d: share %d of post %d credited %d",
		accountID, share.ID, post.ID, post.CreditsReward)
	return &share, nil
}

// CompletePendingShare attaches the proof URL to a pending share and credits
// it. The transition is exactly-once: a conditional status update in the same
// database transaction as the ledger write guards against double crediting.
func (s *SocialShareService) CompletePendingShare(ctx context.Context, accountID, shareID uint, profileURL string) (*models.SocialPostShare, error) {
	profileURL = strings.TrimSpace(profileURL)
	if profileURL == "" {
		return nil, fmt.Errorf("%w: profile URL is required", models.ErrValidation)
	}

	var share models.SocialPostShare
	if err := s.db.WithContext(ctx).Where("id = ?", shareID).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: share %d", models.ErrNotFound, shareID)
		}
		return nil, err
	}

	if share.AccountID != accountID {
		return nil, fmt.Errorf("%w: share %d", models.ErrNotAuthorized, shareID)
	}
	if share.Status != models.ShareStatusPending {
		return nil, fmt.Errorf("%w: share %d already %s", models.ErrInvalidState, shareID, share.Status)
	}

	now := time.Now()
	_, err := s.ledger.Record(ctx, EntryParams{
		AccountID: accountID,
		Amount:    share.CreditsAwarded,
		Type:      models.TxEarnSocial,
		Metadata: models.JSONB{
			"share_id": share.ID,
			"post_id":  share.PostID,
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			result := tx.Model(&models.SocialPostShare{}).
				Where("id = ? AND status = ?", shareID, models.ShareStatusPending).
				Updates(map[string]interface{}{
					"status":      models.ShareStatusCredited,
					"profile_url": profileURL,
					"credited_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: share %d already credited", models.ErrInvalidState, shareID)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SocialShare] Account %d: share %d completed, credited %d",
		accountID, shareID, share.CreditsAwarded)
	return s.reload(ctx, shareID)
}

// RevokeShare compensates a credited share with a negative ledger entry. The
// share row and its transactions are kept; history is never edited or
// deleted.
func (s *SocialShareService) RevokeShare(ctx context.Context, shareID uint, reason string) (*models.SocialPostShare, error) {
	var share models.SocialPostShare
	if err := s.db.WithContext(ctx).Where("id = ?", shareID).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: share %d", models.ErrNotFound, shareID)
		}
		return nil, err
	}

	if share.Status != models.ShareStatusCredited {
		return nil, fmt.Errorf("%w: share %d is %s, only credited shares can be revoked",
			models.ErrInvalidState, shareID, share.Status)
	}

	now := time.Now()
	_, err := s.ledger.Record(ctx, EntryParams{
		AccountID: share.AccountID,
		Amount:    -share.CreditsAwarded,
		Type:      models.TxRevoke,
		Metadata: models.JSONB{
			"share_id": share.ID,
			"reason":   reason,
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			result := tx.Model(&models.SocialPostShare{}).
				Where("id = ? AND status = ?", shareID, models.ShareStatusCredited).
				Updates(map[string]interface{}{
					"status":     models.ShareStatusRevoked,
					"revoked_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: share %d already revoked", models.ErrInvalidState, shareID)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SocialShare] Share %d revoked: -%d credits for account %d",
		shareID, share.CreditsAwarded, share.AccountID)
	return s.reload(ctx, shareID)
}

// GetShare returns a share owned by the caller
func (s *SocialShareService) GetShare(ctx context.Context, accountID, shareID uint) (*models.SocialPostShare, error) {
	var share models.SocialPostShare
	if err := s.db.WithContext(ctx).Where("id = ?", shareID).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: share %d", models.ErrNotFound, shareID)
		}
		return nil, err
	}
	if share.AccountID != accountID {
		return nil, fmt.Errorf("%w: share %d", models.ErrNotAuthorized, shareID)
	}
	return &share, nil
}

// ListByAccount returns all shares for an account, newest first
func (s *SocialShareService) ListByAccount(ctx context.Context, accountID uint) ([]models.SocialPostShare, error) {
	var shares []models.SocialPostShare
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

// ListActivePosts returns the official posts currently open for sharing
func (s *SocialShareService) ListActivePosts(ctx context.Context) ([]models.OfficialPost, error) {
	var posts []models.OfficialPost
	if err := s.db.WithContext(ctx).Where("active = ?", true).
		Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *SocialShareService) reload(ctx context.Context, shareID uint) (*models.SocialPostShare, error) {
	var share models.SocialPostShare
	if err := s.db.WithContext(ctx).Where("id = ?", shareID).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}
