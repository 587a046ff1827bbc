package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"race_access/internal/access"     // Access gate
	"race_access/internal/metrics"    // Prometheus metrics
	"race_access/internal/middleware" // Auth middleware
	"race_access/internal/store"      // Data access
)

// Deps are the collaborators the routes need
type Deps struct {
	Gate      *access.Gate
	Store     *store.Store
	Metrics   *metrics.Recorder
	JWTSecret string
}

// Register mounts every route on r
func Register(r gin.IRouter, d Deps) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler())) // Prometheus scrape endpoint
	}

	// Auth routes
	r.POST("/user", RegisterHandler(d.Store))                 // Registration endpoint
	r.POST("/user/login", LoginHandler(d.Store, d.JWTSecret)) // Login endpoint

	auth := middleware.JWTAuthMiddleware(d.JWTSecret)

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet", auth)
	walletGroup.GET("", GetWalletHandler(d.Gate))                          // Balances
	walletGroup.GET("/transactions", GetTransactionHistoryHandler(d.Gate)) // Ledger history

	// Access routes (protected by JWT)
	meetingGroup := r.Group("/meetings/:meetingId", auth)
	meetingGroup.GET("/access", AccessStatusHandler(d.Gate))                 // Quota status
	meetingGroup.POST("/races/:raceId/access", RequestAccessHandler(d.Gate)) // Unlock a race

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.Store))
	adminGroup.GET("/users", ListUsersHandler(d.Store))                // Users with balances
	adminGroup.GET("/transactions", ListTransactionsHandler(d.Gate))   // All ledger entries
	adminGroup.GET("/revenue", RevenueHandler(d.Gate))                 // Revenue report
	adminGroup.POST("/users/:userId/credits", CreditHandler(d.Gate))   // Approved top-ups and bonuses
	adminGroup.POST("/transactions/:id/refund", RefundHandler(d.Gate)) // Refund a paid unlock
}
