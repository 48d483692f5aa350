package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"welcomebook-credits/internal/auth"
	"welcomebook-credits/internal/config"
	"welcomebook-credits/internal/database"
	"welcomebook-credits/internal/events"
	"welcomebook-credits/internal/handlers"
	"welcomebook-credits/internal/jobs"
	"welcomebook-credits/internal/models"
	"welcomebook-credits/internal/scoring"
	"welcomebook-credits/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Event publisher; the notification collaborator subscribes here
	publisher := events.NewPublisher(db)
	publisher.Subscribe(func(event models.CreditEvent) {
		log.Printf("[Notify] account=%d event=%s", event.AccountID, event.Type)
	})

	// Personalization scoring pool
	scoringPool := scoring.NewPoolFromEndpoints(cfg.Scoring.Endpoints, cfg.Scoring.APIKey, cfg.Scoring.Timeout)

	// Initialize services
	ledgerService := services.NewLedgerService(db, cfg.Credits, publisher)
	trustService := services.NewTrustService(db, cfg.Credits)
	accountService := services.NewAccountService(db, ledgerService, cfg.Credits, publisher)
	requestService := services.NewCreditRequestService(db, ledgerService, trustService, scoringPool)
	shareService := services.NewSocialShareService(db, ledgerService)
	blogService := services.NewBlogService(db, ledgerService, cfg.Credits)
	purchaseService := services.NewPurchaseService(db, ledgerService)
	consumptionService := services.NewConsumptionService(db, ledgerService, cfg.Credits, publisher)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService)
	accountHandler := handlers.NewAccountHandler(accountService, ledgerService, trustService, publisher)
	creditHandler := handlers.NewCreditHandler(requestService, shareService, blogService, purchaseService)
	adminHandler := handlers.NewAdminHandler(db, requestService, blogService, shareService, trustService, ledgerService)
	webhookHandler := handlers.NewWebhookHandler(purchaseService, cfg.Billing)

	// Start consumption sweep job
	consumptionJob := jobs.NewConsumptionJob(consumptionService, cfg.Credits.ConsumptionTick)
	go consumptionJob.Start()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	router.POST("/api/auth/login", authHandler.Login)

	// Billing webhook (authenticated by shared secret, not JWT)
	router.POST("/api/webhooks/billing", webhookHandler.BillingWebhook)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Account endpoints
		api.GET("/account", accountHandler.GetProfile)
		api.GET("/account/balance", accountHandler.GetBalance)
		api.GET("/account/transactions", accountHandler.GetTransactions)
		api.GET("/account/events", accountHandler.ListEvents)
		api.POST("/account/delete", accountHandler.RequestDeletion)
		api.GET("/account/welcomebooks", accountHandler.ListWelcomebooks)
		api.POST("/account/welcomebooks", accountHandler.CreateWelcomebook)

		// Earning endpoints
		api.GET("/credits/posts", creditHandler.ListOfficialPosts)
		api.POST("/credits/posts/:id/share", creditHandler.SharePost)
		api.GET("/credits/shares", creditHandler.ListShares)
		api.POST("/credits/shares/:id/complete", creditHandler.CompleteShare)
		api.GET("/credits/templates", creditHandler.ListTemplates)
		api.POST("/credits/requests", creditHandler.SubmitRequest)
		api.GET("/credits/requests", creditHandler.ListRequests)
		api.GET("/credits/requests/:id", creditHandler.GetRequest)
		api.POST("/credits/blogs", creditHandler.SubmitBlog)
		api.GET("/credits/blogs", creditHandler.ListBlogs)
		api.GET("/credits/packages", creditHandler.ListPackages)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/requests/pending", adminHandler.ListPendingRequests)
		admin.POST("/requests/:id/decide", adminHandler.DecideRequest)
		admin.GET("/blogs/pending", adminHandler.ListPendingBlogs)
		admin.POST("/blogs/:id/decide", adminHandler.DecideBlog)
		admin.POST("/shares/:id/revoke", adminHandler.RevokeShare)
		admin.POST("/accounts/:id/trust", adminHandler.SetTrustLevel)
		admin.GET("/accounts/:id/verify", adminHandler.VerifyAccountLedger)
		admin.GET("/audit", adminHandler.ListAuditLog)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	consumptionJob.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
