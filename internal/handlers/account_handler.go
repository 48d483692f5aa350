package handlers

import (
	"net/http"
	"strconv"

	"welcomebook-credits/internal/auth"
	"welcomebook-credits/internal/events"
	"welcomebook-credits/internal/services"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService *services.AccountService
	ledgerService  *services.LedgerService
	trustService   *services.TrustService
	publisher      *events.Publisher
}

func NewAccountHandler(accountService *services.AccountService, ledgerService *services.LedgerService, trustService *services.TrustService, publisher *events.Publisher) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
		trustService:   trustService,
		publisher:      publisher,
	}
}

// GetProfile returns the caller's account, welcomebooks and trust state
// GET /api/account
func (h *AccountHandler) GetProfile(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	books, err := h.accountService.ListWelcomebooks(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	trust, err := h.trustService.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":      account,
		"welcomebooks": books,
		"trust":        trust,
	})
}

// GetBalance returns the current credit balance
// GET /api/account/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetTransactions returns the caller's ledger history
// GET /api/account/transactions
func (h *AccountHandler) GetTransactions(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	transactions, err := h.ledgerService.GetTransactions(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        len(transactions),
	})
}

// CreateWelcomebook adds a welcomebook to the caller's account
// POST /api/account/welcomebooks
func (h *AccountHandler) CreateWelcomebook(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	book, err := h.accountService.AddWelcomebook(c.Request.Context(), accountID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

// ListWelcomebooks returns the caller's welcomebooks
// GET /api/account/welcomebooks
func (h *AccountHandler) ListWelcomebooks(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	books, err := h.accountService.ListWelcomebooks(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"welcomebooks": books,
		"total":        len(books),
	})
}

// RequestDeletion marks the caller's account for deletion
// POST /api/account/delete
func (h *AccountHandler) RequestDeletion(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.accountService.RequestDeletion(c.Request.Context(), accountID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account marked for deletion"})
}

// ListEvents returns the caller's credit events, newest first
// GET /api/account/events
func (h *AccountHandler) ListEvents(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	list, err := h.publisher.ListByAccount(accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": list,
		"total":  len(list),
	})
}
