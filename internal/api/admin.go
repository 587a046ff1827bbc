package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"race_access/internal/access"     // Access gate
	"race_access/internal/domain"     // Domain models
	"race_access/internal/middleware" // Context keys
	"race_access/internal/store"      // Ledger filters
)

// UserAdminResponse is a user as shown to operators
type UserAdminResponse struct {
	ID       string        `json:"id"`       // User ID
	Username string        `json:"username"` // Username
	Roles    []string      `json:"roles"`    // Role set
	Wallet   domain.Wallet `json:"wallet"`   // Balances
}

// ListUsersHandler returns users with their balances
func ListUsersHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		users, total, err := st.ListUsers(c.Request.Context(), store.Page{Number: page, Size: pageSize})
		if err != nil {
			respondError(c, err)
			return
		}
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{ID: u.ID, Username: u.Username, Roles: u.Roles, Wallet: u.Wallet}
		}
		c.JSON(http.StatusOK, gin.H{"users": resp, "total": total})
	}
}

// ListTransactionsHandler returns ledger entries of all users, filtered by user_id, type, from and to
func ListTransactionsHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, errFrom := queryMillis(c, "from")
		to, errTo := queryMillis(c, "to")
		if errFrom != nil || errTo != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be unix milliseconds"})
			return
		}
		filter := store.LedgerFilter{
			UserID: c.Query("user_id"),                // Optional user
			Type:   domain.EntryType(c.Query("type")), // Optional entry type
			From:   from,                              // Inclusive lower bound
			To:     to,                                // Inclusive upper bound
		}
		page, pageSize := pageParams(c)
		result, err := gate.Entries(c.Request.Context(), filter, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": result.Entries, // Ledger entries
			"page":         result.Page,    // Current page
			"page_size":    result.Size,    // Page size
			"total":        result.Total,   // Total entries
		})
	}
}

// RevenueHandler reports producer and platform shares of paid unlocks
func RevenueHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, errFrom := queryMillis(c, "from")
		to, errTo := queryMillis(c, "to")
		if errFrom != nil || errTo != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be unix milliseconds"})
			return
		}
		report, err := gate.Revenue(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"revenue": report})
	}
}

// CreditRequest represents an approved top-up or bonus
type CreditRequest struct {
	Amount      uint64 `json:"amount" binding:"required,gt=0"`                 // Amount to credit
	Currency    string `json:"currency" binding:"required,oneof=gold diamond"` // Credited currency
	Type        string `json:"type" binding:"required,oneof=purchase bonus"`   // Ledger entry type
	Reference   string `json:"reference" binding:"max=128"`                    // Idempotency reference
	Description string `json:"description" binding:"max=255"`                  // Shown in the user's history
}

// CreditHandler credits a user's wallet
func CreditHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreditRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		entry, applied, err := gate.Credit(c.Request.Context(), access.CreditInput{
			UserID:      c.Param("userId"),
			Currency:    domain.Currency(req.Currency),
			Amount:      req.Amount,
			Type:        domain.EntryType(req.Type),
			Reference:   req.Reference,
			Description: req.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusCreated
		if !applied {
			status = http.StatusOK // Reference already credited
		}
		c.JSON(status, gin.H{"transaction": entry, "applied": applied})
	}
}

// RefundRequest carries the reason shown to the user
type RefundRequest struct {
	Reason string `json:"reason" binding:"max=255"` // Refund reason
}

// RefundHandler refunds a paid unlock
func RefundHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id"})
			return
		}
		var req RefundRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
		}
		adminID, _ := c.Get(middleware.UserIDKey)
		entry, applied, err := gate.Refund(c.Request.Context(), id, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"admin_id":        adminID, // Operator
			"ledger_entry_id": id,      // Refunded unlock
			"applied":         applied, // False on repeats
		}).Info("Refund requested")
		status := http.StatusCreated
		if !applied {
			status = http.StatusOK // Already refunded
		}
		c.JSON(status, gin.H{"transaction": entry, "applied": applied})
	}
}

// queryMillis parses an optional unix-millisecond query parameter
func queryMillis(c *gin.Context, key string) (int64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
