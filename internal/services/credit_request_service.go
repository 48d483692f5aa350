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

// Scorer is the external scoring collaborator (scoring.Pool in production).
type Scorer interface {
	Score(ctx context.Context, templateContent, customContent string) (int, error)
}

// CreditRequestService implements the scored custom-post earning flow and the
// admin decision path.
type CreditRequestService struct {
	db     *gorm.DB
	ledger *LedgerService
	trust  *TrustService
	scorer Scorer
}

func NewCreditRequestService(db *gorm.DB, ledger *LedgerService, trust *TrustService, scorer Scorer) *CreditRequestService {
	return &CreditRequestService{
		db:     db,
		ledger: ledger,
		trust:  trust,
		scorer: scorer,
	}
}

// SubmitRequestInput is the request payload for a scored earning attempt
type SubmitRequestInput struct {
	Platform      string
	PostType      string
	TemplateID    uint
	CustomContent string
	ProofURL      *string
}

// SubmitRequestResult reports the one-time status decision made at creation
type SubmitRequestResult struct {
	RequestID      uint                       `json:"request_id"`
	Status         models.CreditRequestStatus `json:"status"`
	CreditsAwarded int64                      `json:"credits_awarded"`
}

// Submit scores the custom content, sizes the reward, and decides the request
// status exactly once based on trust state at this instant. Auto-approved
// requests are credited in the same call; pending ones wait for an admin.
func (s *CreditRequestService) Submit(ctx context.Context, accountID uint, in SubmitRequestInput) (*SubmitRequestResult, error) {
	if strings.TrimSpace(in.CustomContent) == "" {
		return nil, fmt.Errorf("%w: custom content is required", models.ErrValidation)
	}

	var template models.PostTemplate
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", in.TemplateID, true).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post template %d", models.ErrNotFound, in.TemplateID)
		}
		return nil, err
	}

	// External call happens before any ledger write; the per-account
	// serialization point is never held across it.
	score, err := s.scorer.Score(ctx, template.Content, in.CustomContent)
	if err != nil {
		if errors.Is(err, models.ErrExternalDependency) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scoring failed: %v", models.ErrExternalDependency, err)
	}

	credits, err := RewardForScore(in.Platform, in.PostType, score)
	if err != nil {
		return nil, err
	}

	profile, err := s.trust.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	request := models.CreditRequest{
		AccountID:            accountID,
		Platform:             strings.ToLower(in.Platform),
		PostType:             strings.ToLower(in.PostType),
		TemplateID:           template.ID,
		CustomContent:        in.CustomContent,
		ProofURL:             in.ProofURL,
		PersonalizationScore: score,
		CreditsRequested:     credits,
	}

	if !s.trust.CanAutoApprove(profile.TrustLevel, profile.ApprovedRequestsCount) {
		request.Status = models.RequestStatusPending
		if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
			return nil, fmt.Errorf("failed to create credit request: %w", err)
		}

		log.Printf("[CreditRequest] Account %d: request %d pending review (score=%d, credits=%d)",
			accountID, request.ID, score, credits)
		return &SubmitRequestResult{
			RequestID:      request.ID,
			Status:         models.RequestStatusPending,
			CreditsAwarded: 0,
		}, nil
	}

	// Trusted submitter: request creation and crediting commit together.
	request.Status = models.RequestStatusAutoApproved
	_, err = s.ledger.Record(ctx, EntryParams{
		AccountID: accountID,
		Amount:    credits,
		Type:      models.TxEarnSocial,
		Metadata: models.JSONB{
			"platform":  request.Platform,
			"post_type": request.PostType,
			"score":     score,
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			if err := tx.Create(&request).Error; err != nil {
				return fmt.Errorf("failed to create credit request: %w", err)
			}
			return tx.Model(entry).Update("request_id", request.ID).Error
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CreditRequest] Account %d: request %d auto-approved for %d credits",
		accountID, request.ID, credits)
	return &SubmitRequestResult{
		RequestID:      request.ID,
		Status:         models.RequestStatusAutoApproved,
		CreditsAwarded: credits,
	}, nil
}

// ListTemplates returns the active post templates submitters personalize
func (s *CreditRequestService) ListTemplates(ctx context.Context) ([]models.PostTemplate, error) {
	var templates []models.PostTemplate
	if err := s.db.WithContext(ctx).Where("active = ?", true).
		Order("id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// GetRequest returns a request owned by the caller
func (s *CreditRequestService) GetRequest(ctx context.Context, accountID, requestID uint) (*models.CreditRequest, error) {
	var request models.CreditRequest
	if err := s.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: credit request %d", models.ErrNotFound, requestID)
		}
		return nil, err
	}
	if request.AccountID != accountID {
		return nil, fmt.Errorf("%w: credit request %d", models.ErrNotAuthorized, requestID)
	}
	return &request, nil
}

// ListByAccount returns the caller's requests, newest first
func (s *CreditRequestService) ListByAccount(ctx context.Context, accountID uint) ([]models.CreditRequest, error) {
	var requests []models.CreditRequest
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListPending returns requests waiting for an admin decision, oldest first
func (s *CreditRequestService) ListPending(ctx context.Context, limit int) ([]models.CreditRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var requests []models.CreditRequest
	if err := s.db.WithContext(ctx).Where("status = ?", models.RequestStatusPending).
		Order("created_at ASC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Decide applies the one-time admin decision on a pending request. Approval
// writes the ledger entry and bumps the trust counter in the same database
// transaction; rejection writes nothing to the ledger. Deciding an
// already-decided request fails with ErrInvalidState.
func (s *CreditRequestService) Decide(ctx context.Context, adminID, requestID uint, approve bool, reason *string) (*models.CreditRequest, error) {
	var request models.CreditRequest
	if err := s.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: credit request %d", models.ErrNotFound, requestID)
		}
		return nil, err
	}

	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: credit request %d already %s", models.ErrInvalidState, requestID, request.Status)
	}

	now := time.Now()

	if !approve {
		// The conditional update is the idempotency guard against racing
		// admins.
		result := s.db.WithContext(ctx).Model(&models.CreditRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":          models.RequestStatusRejected,
				"decided_by":      adminID,
				"decision_reason": reason,
				"decided_at":      now,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: credit request %d already decided", models.ErrInvalidState, requestID)
		}

		log.Printf("[CreditRequest] Request %d rejected by admin %d", requestID, adminID)
		return s.reload(ctx, requestID)
	}

	reqID := request.ID
	_, err := s.ledger.Record(ctx, EntryParams{
		AccountID: request.AccountID,
		Amount:    request.CreditsRequested,
		Type:      models.TxEarnSocial,
		RequestID: &reqID,
		Metadata: models.JSONB{
			"platform":  request.Platform,
			"post_type": request.PostType,
			"score":     request.PersonalizationScore,
		},
		Apply: func(tx *gorm.DB, entry *models.CreditTransaction) error {
			result := tx.Model(&models.CreditRequest{}).
				Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
				Updates(map[string]interface{}{
					"status":          models.RequestStatusApproved,
					"decided_by":      adminID,
					"decision_reason": reason,
					"decided_at":      now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: credit request %d already decided", models.ErrInvalidState, requestID)
			}

			return s.trust.RecordApproval(tx, request.AccountID)
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CreditRequest] Request %d approved by admin %d: +%d credits for account %d",
		requestID, adminID, request.CreditsRequested, request.AccountID)
	return s.reload(ctx, requestID)
}

func (s *CreditRequestService) reload(ctx context.Context, requestID uint) (*models.CreditRequest, error) {
	var request models.CreditRequest
	if err := s.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}
