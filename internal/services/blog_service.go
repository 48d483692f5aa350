package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/models"

	"gorm.io/gorm"
)

// BlogService handles blog-article earning submissions. The reward is fixed;
// every submission waits for an admin decision before any ledger write.
type BlogService struct {
	db     *gorm.DB
	ledger *LedgerService
	cfg    config.CreditsConfig
}

func NewBlogService(db *gorm.DB, ledger *LedgerService, cfg config.CreditsConfig) *BlogService {
	return &BlogService{db: db, ledger: ledger, cfg: cfg}
}

// Submit registers a blog article for review. The same account cannot submit
// the same URL twice.
func (s *BlogService) Submit(ctx context.Context, accountID uint, articleURL string) (*models.BlogSubmission, error) {
	articleURL = strings.TrimSpace(articleURL)
	if articleURL == "" {
		return nil, fmt.Errorf("%w: article URL is required", models.ErrValidation)
	}
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid article URL", models.ErrValidation)
	}

	var existing models.BlogSubmission
	err = s.db.WithContext(ctx).
		Where("account_id = ? AND article_url = ?", accountID, articleURL).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: article already submitted", models.ErrValidation)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	submission := models.BlogSubmission{
		AccountID:        accountID,
		ArticleURL:       articleURL,
		CreditsRequested: s.cfg.BlogReward,
		Status:           models.BlogStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("failed to create blog submission: %w", err)
	}

	log.Printf("[Blog] Account %d: submission %d pending review (%s)", accountID, submission.ID, articleURL)
	return &submission, nil
}

// Decide applies the one-time admin decision. Approval writes the ledger
// entry in the same database transaction as the status flip. Blog approvals
// do not touch the trust counter; only credit-request approvals do.
func (s *BlogService) Decide(ctx context.Context, adminID, submissionID uint, approve bool, reason *string) (*models.BlogSubmission, error) {
	var submission models.BlogSubmission
	if err := s.db.WithContext(ctx).Where("id = ?", submissionID).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: blog submission %d", models.ErrNotFound, submissionID)
		}
		return nil, err
	}

	if submission.Status != models.BlogStatusPending {
		return nil, fmt.Errorf("%w: blog submission %d already %s", models.ErrInvalidState, submissionID, submission.Status)
	}

	now := time.Now()

	if !approve {
		result := s.db.WithContext(ctx).Model(&models.BlogSubmission{}).
			Where("id = ? AND status = ?", submissionID, models.BlogStatusPending).
			Updates(map[string]interface{}{
				"status":          models.BlogStatusRejected,
				"decided_by":      adminID,
				"decision_reason": reason,
				"decided_at":      now,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: blog submission %d already decided", models.ErrInvalidState, submissionID)
		}

		log.Printf("[Blog] Submission %d rejected by admin %d", submissionID, adminID)
		return s.reload(ctx, submissionID)
	}

	_, err := s.ledger.Record(ctx, EntryParams{
		AccountID: submission.AccountID,
		Amount:    submission.CreditsRequested,
		Type:      models.TxEarnBlog,
		Metadata: models.JSONB{
			"submission_id": submission.ID,
			"article_url":   submission.ArticleURL,
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			result := tx.Model(&models.BlogSubmission{}).
				Where("id = ? AND status = ?", submissionID, models.BlogStatusPending).
				Updates(map[string]interface{}{
					"status":          models.BlogStatusApproved,
					"decided_by":      adminID,
					"decision_reason": reason,
					"decided_at":      now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: blog submission %d already decided", models.ErrInvalidState, submissionID)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Blog] Submission %d approved by admin %d: +%d credits for account %d",
		submissionID, adminID, submission.CreditsRequested, submission.AccountID)
	return s.reload(ctx, submissionID)
}

// ListByAccount returns the caller's submissions, newest first
func (s *BlogService) ListByAccount(ctx context.Context, accountID uint) ([]models.BlogSubmission, error) {
	var submissions []models.BlogSubmission
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListPending returns submissions waiting for review, oldest first
func (s *BlogService) ListPending(ctx context.Context, limit int) ([]models.BlogSubmission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var submissions []models.BlogSubmission
	if err := s.db.WithContext(ctx).Where("status = ?", models.BlogStatusPending).
		Order("created_at ASC").Limit(limit).Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (s *BlogService) reload(ctx context.Context, submissionID uint) (*models.BlogSubmission, error) {
	var submission models.BlogSubmission
	if err := s.db.WithContext(ctx).Where("id = ?", submissionID).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}
