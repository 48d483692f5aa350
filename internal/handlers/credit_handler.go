package handlers

import (
	"net/http"
	"strconv"

	"welcomebook-credits/internal/auth"
	"welcomebook-credits/internal/services"

	"github.com/gin-gonic/gin"
)

// CreditHandler exposes the earning flows: official-post shares, scored
// custom-post requests, and blog submissions.
type CreditHandler struct {
	requestService *services.CreditRequestService
	shareService   *services.SocialShareService
	blogService    *services.BlogService
	purchase       *services.PurchaseService
}

func NewCreditHandler(requestService *services.CreditRequestService, shareService *services.SocialShareService, blogService *services.BlogService, purchase *services.PurchaseService) *CreditHandler {
	return &CreditHandler{
		requestService: requestService,
		shareService:   shareService,
		blogService:    blogService,
		purchase:       purchase,
	}
}

// ListOfficialPosts returns the pre-made posts open for sharing
// GET /api/credits/posts
func (h *CreditHandler) ListOfficialPosts(c *gin.Context) {
	posts, err := h.shareService.ListActivePosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"total": len(posts),
	})
}

// SharePost records a share of an official post; with a profile URL attached
// the credits land immediately
// POST /api/credits/posts/:id/share
func (h *CreditHandler) SharePost(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req struct {
		ProfileURL string `json:"profile_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	share, err := h.shareService.ShareOfficialPost(c.Request.Context(), accountID, uint(postID), req.ProfileURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, share)
}

// CompleteShare attaches the proof URL to a pending share and credits it
// POST /api/credits/shares/:id/complete
func (h *CreditHandler) CompleteShare(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
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
		ProfileURL string `json:"profile_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile_url is required"})
		return
	}

	share, err := h.shareService.CompletePendingShare(c.Request.Context(), accountID, uint(shareID), req.ProfileURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, share)
}

// ListShares returns the caller's shares
// GET /api/credits/shares
func (h *CreditHandler) ListShares(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shares, err := h.shareService.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shares": shares,
		"total":  len(shares),
	})
}

// ListTemplates returns the active post templates for custom posts
// GET /api/credits/templates
func (h *CreditHandler) ListTemplates(c *gin.Context) {
	templates, err := h.requestService.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"total":     len(templates),
	})
}

// SubmitRequest submits a personalized post for scoring and crediting
// POST /api/credits/requests
func (h *CreditHandler) SubmitRequest(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Platform      string  `json:"platform" binding:"required"`
		PostType      string  `json:"post_type" binding:"required"`
		TemplateID    uint    `json:"template_id" binding:"required"`
		CustomContent string  `json:"custom_content" binding:"required"`
		ProofURL      *string `json:"proof_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.requestService.Submit(c.Request.Context(), accountID, services.SubmitRequestInput{
		Platform:      req.Platform,
		PostType:      req.PostType,
		TemplateID:    req.TemplateID,
		CustomContent: req.CustomContent,
		ProofURL:      req.ProofURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetRequest returns one of the caller's requests
// GET /api/credits/requests/:id
func (h *CreditHandler) GetRequest(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	request, err := h.requestService.GetRequest(c.Request.Context(), accountID, uint(requestID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListRequests returns the caller's requests
// GET /api/credits/requests
func (h *CreditHandler) ListRequests(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requests, err := h.requestService.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    len(requests),
	})
}

// SubmitBlog registers a blog article for review
// POST /api/credits/blogs
func (h *CreditHandler) SubmitBlog(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		ArticleURL string `json:"article_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_url is required"})
		return
	}

	submission, err := h.blogService.Submit(c.Request.Context(), accountID, req.ArticleURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// ListBlogs returns the caller's blog submissions
// GET /api/credits/blogs
func (h *CreditHandler) ListBlogs(c *gin.Context) {
	accountID, exists := auth.GetAccountID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	submissions, err := h.blogService.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// ListPackages returns the purchasable credit packages
// GET /api/credits/packages
func (h *CreditHandler) ListPackages(c *gin.Context) {
	packages, err := h.purchase.ListPackages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"packages": packages,
		"total":    len(packages),
	})
}
