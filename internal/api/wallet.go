package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin" // Gin web framework

	"race_access/internal/access" // Access gate
)

// pageParams reads page and page_size; invalid values fall back to defaults downstream
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))          // Zero when absent or malformed
	pageSize, _ := strconv.Atoi(c.Query("page_size")) // Zero when absent or malformed
	return page, pageSize
}

// GetWalletHandler returns the balances of the authenticated user
func GetWalletHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		wallet, err := gate.Wallet(c.Request.Context(), userID) // Cached read
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"wallet": wallet})
	}
}

// GetTransactionHistoryHandler returns the ledger of the authenticated user, newest first
func GetTransactionHistoryHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		page, pageSize := pageParams(c)
		history, err := gate.History(c.Request.Context(), userID, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		totalPages := (int(history.Total) + history.Size - 1) / history.Size // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"transactions": history.Entries, // Ledger entries
			"page":         history.Page,    // Current page
			"page_size":    history.Size,    // Page size
			"total":        history.Total,   // Total entries
			"total_pages":  totalPages,      // Total pages
		})
	}
}
