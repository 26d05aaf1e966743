package handlers

import (
	"errors"
	"net/http"

	"paybridge/internal/models"
	"paybridge/internal/services"

	"github.com/gin-gonic/gin"
)

// QuoteHandler serves one-shot quote aggregation and live quote
// sessions.
type QuoteHandler struct {
	quotes   *services.QuoteService
	sessions *services.QuoteSessionService
	balances *services.BalanceService
}

func NewQuoteHandler(quotes *services.QuoteService, sessions *services.QuoteSessionService, balances *services.BalanceService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, sessions: sessions, balances: balances}
}

// GetQuotesHandler runs one aggregation round across all providers.
// POST /api/v1/quotes
func (h *QuoteHandler) GetQuotesHandler(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid quote request",
			"message": err.Error(),
		})
		return
	}

	result, err := h.quotes.GetQuotes(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrNoRouteAvailable) {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   "No route available",
				"message": "All bridge providers failed or returned no route",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Quote aggregation failed",
			"message": err.Error(),
		})
		return
	}

	resp := gin.H{
		"success": true,
		"data":    result,
	}
	// Advisory only: a shortfall is reported alongside the quotes, never
	// as a failure. The executor re-checks before submitting.
	if h.balances != nil && req.UserAddress != "" {
		if amount, ok := req.AmountWei(); ok {
			resp["balance_sufficient"] = h.balances.CheckSufficient(
				c.Request.Context(), req.FromChainID, req.FromToken, req.UserAddress, amount)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// OpenSessionHandler opens a self-refreshing quote session.
// POST /api/v1/quotes/sessions
func (h *QuoteHandler) OpenSessionHandler(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid quote request",
			"message": err.Error(),
		})
		return
	}

	session := h.sessions.Open(&req)
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": session.ID,
	})
}

// UpdateSessionHandler replaces the session request; the refetch is
// debounced.
// PUT /api/v1/quotes/sessions/:id
func (h *QuoteHandler) UpdateSessionHandler(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid quote request",
			"message": err.Error(),
		})
		return
	}

	if !h.sessions.UpdateRequest(c.Param("id"), &req) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSessionHandler returns the latest ranked result for a session.
// GET /api/v1/quotes/sessions/:id
func (h *QuoteHandler) GetSessionHandler(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session.Latest(),
	})
}

// CloseSessionHandler tears a session down.
// DELETE /api/v1/quotes/sessions/:id
func (h *QuoteHandler) CloseSessionHandler(c *gin.Context) {
	h.sessions.Close(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
