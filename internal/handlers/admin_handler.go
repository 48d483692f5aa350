package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"welcomebook-credits/internal/auth"
	"welcomebook-credits/internal/models"
	"welcomebook-credits/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler exposes the moderation surface: pending queues, decisions,
// share revocation and trust management. Every decision is written to the
// audit log.
type AdminHandler struct {
	db             *gorm.DB
	requestService *services.CreditRequestService
	blogService    *services.BlogService
	shareService   *services.SocialShareService
	trustService   *services.TrustService
	ledgerService  *services.LedgerService
}

func NewAdminHandler(db *gorm.DB, requestService *services.CreditRequestService, blogService *services.BlogService, shareService *services.SocialShareService, trustService *services.TrustService, ledgerService *services.LedgerService) *AdminHandler {
	return &AdminHandler{
		db:             db,
		requestService: requestService,
		blogService:    blogService,
		shareService:   shareService,
		trustService:   trustService,
		ledgerService:  ledgerService,
	}
}

// AdminMiddleware allows only accounts registered in admin_users
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		var admin models.AdminUser
		if err := h.db.Where("account_id = ?", accountID).First(&admin).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			c.Abort()
			return
		}

		c.Set("admin_id", admin.ID)
		c.Set("admin_role", admin.Role)
		c.Next()
	}
}

func getAdminID(c *gin.Context) (uint, bool) {
	adminID, exists := c.Get("admin_id")
	if !exists {
		return 0, false
	}
	id, ok := adminID.(uint)
	return id, ok
}

// audit writes one admin-log row; failures are logged, never surfaced
func (h *AdminHandler) audit(adminID uint, action, targetType string, targetID uint, details models.JSONB) {
	entry := models.AdminLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := h.db.Create(&entry).Error; err != nil {
		log.Printf("[Admin] Failed to write audit log (%s %s %d): %v", action, targetType, targetID, err)
	}
}

// ListPendingRequests returns credit requests waiting for a decision
// GET /api/admin/requests/pending
func (h *AdminHandler) ListPendingRequests(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	requests, err := h.requestService.ListPending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    len(requests),
	})
}

// DecideRequest approves or rejects a pending credit request
// POST /api/admin/requests/:id/decide
func (h *AdminHandler) DecideRequest(c *gin.Context) {
	adminID, exists := getAdminID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req struct {
		Approve bool    `json:"approve"`
		Reason  *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.requestService.Decide(c.Request.Context(), adminID, uint(requestID), req.Approve, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	action := "reject_request"
	if req.Approve {
		action = "approve_request"
	}
	h.audit(adminID, action, "credit_request", request.ID, models.JSONB{
		"account_id": request.AccountID,
		"credits":    request.CreditsRequested,
	})

	c.JSON(http.StatusOK, request)
}

// ListPendingBlogs returns blog submissions waiting for review
// GET /api/admin/blogs/pending
func (h *AdminHandler) ListPendingBlogs(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	submissions, err := h.blogService.ListPending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// DecideBlog approves or rejects a pending blog submission
// POST /api/admin/blogs/:id/decide
func (h *AdminHandler) DecideBlog(c *gin.Context) {
	adminID, exists := getAdminID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	submissionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	var req struct {
		Approve bool    `json:"approve"`
		Reason  *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := h.blogService.Decide(c.Request.Context(), adminID, uint(submissionID), req.Approve, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	action := "reject_blog"
	if req.Approve {
		action = "approve_blog"
	}
	h.audit(adminID, action, "blog_submission", submission.ID, models.JSONB{
		"account_id": submission.AccountID,
		"credits":    submission.CreditsRequested,
	})

	c.JSON(http.StatusOK, submission)
}

// RevokeShare claws back a credited share with a compensating ledger entry
// POST /api/admin/shares/:id/revoke
func (h *AdminHandler) RevokeShare(c *gin.Context) {
	adminID, exists := getAdminID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shareID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid share id"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	share, err := h.shareService.RevokeShare(c.Request.Context(), uint(shareID), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(adminID, "revoke_share", "social_post_share", share.ID, models.JSONB{
		"account_id": share.AccountID,
		"credits":    share.CreditsAwarded,
		"reason":     req.Reason,
	})

	c.JSON(http.StatusOK, share)
}

// SetTrustLevel changes an account's trust level
// POST /api/admin/accounts/:id/trust
func (h *AdminHandler) SetTrustLevel(c *gin.Context) {
	adminID, exists := getAdminID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	accountID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req struct {
		TrustLevel string `json:"trust_level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trust_level is required"})
		return
	}

	if err := h.trustService.SetTrustLevel(c.Request.Context(), uint(accountID), models.TrustLevel(req.TrustLevel)); err != nil {
		respondError(c, err)
		return
	}

	h.audit(adminID, "set_trust_level", "account", uint(accountID), models.JSONB{
		"trust_level": req.TrustLevel,
	})

	c.JSON(http.StatusOK, gin.H{"message": "trust level updated"})
}

// VerifyAccountLedger re-folds an account's transaction log against the
// projected balance
// GET /api/admin/accounts/:id/verify
func (h *AdminHandler) VerifyAccountLedger(c *gin.Context) {
	accountID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	if err := h.ledgerService.VerifyAccount(c.Request.Context(), uint(accountID)); err != nil {
		if errors.Is(err, models.ErrLedgerCorrupt) {
			c.JSON(http.StatusConflict, gin.H{
				"consistent": false,
				"error":      err.Error(),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"consistent": true})
}

// ListAuditLog returns recent admin actions, newest first
// GET /api/admin/audit
func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	var entries []models.AdminLog
	if err := h.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}
