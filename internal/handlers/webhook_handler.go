package handlers

import (
	"crypto/subtle"
	"net/http"

	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WebhookHandler receives confirmed-payment callbacks from the billing
// collaborator. Delivery is at-least-once; the purchase service deduplicates
// by external payment id.
type WebhookHandler struct {
	purchaseService *services.PurchaseService
	cfg             config.BillingConfig
}

func NewWebhookHandler(purchaseService *services.PurchaseService, cfg config.BillingConfig) *WebhookHandler {
	return &WebhookHandler{
		purchaseService: purchaseService,
		cfg:             cfg,
	}
}

// BillingWebhook credits a confirmed purchase
// POST /api/webhooks/billing
func (h *WebhookHandler) BillingWebhook(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.WebhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var req struct {
		AccountID         uint   `json:"account_id" binding:"required"`
		PackageID         uint   `json:"package_id" binding:"required"`
		ExternalPaymentID string `json:"external_payment_id" binding:"required"`
		AmountPaid        string `json:"amount_paid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.AmountPaid)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_paid"})
		return
	}

	purchase, err := h.purchaseService.CreditPurchase(
		c.Request.Context(),
		req.AccountID,
		req.PackageID,
		req.ExternalPaymentID,
		amount,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}
