package handlers

import (
	"net/http"

	"welcomebook-credits/internal/auth"
	"welcomebook-credits/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accountService *services.AccountService
}

func NewAuthHandler(accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
	}
}

// Login resolves a verified email to an account and issues a JWT. The email
// arrives already verified by the identity layer in front of this service;
// first-time callers get a fresh account with the initial bonus credited.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid email is required"})
		return
	}

	account, created, err := h.accountService.FindOrCreateByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(account.ID, account.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	c.JSON(status, gin.H{
		"token":   token,
		"account": account,
		"is_new":  created,
	})
}
