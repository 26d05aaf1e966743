package handlers

import (
	"net/http"

	"paybridge/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes operator maintenance actions.
type AdminHandler struct {
	reaper *services.ExpiryReaperService
	push   *services.WebSocketPushService
}

func NewAdminHandler(reaper *services.ExpiryReaperService, push *services.WebSocketPushService) *AdminHandler {
	return &AdminHandler{reaper: reaper, push: push}
}

// SweepExpiredHandler runs the expiry sweep on demand instead of waiting
// for the next tick.
// POST /api/v1/admin/intents/sweep
func (h *AdminHandler) SweepExpiredHandler(c *gin.Context) {
	count, err := h.reaper.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Sweep failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"expired": count,
	})
}

// StatusHandler reports operational counters.
// GET /api/v1/admin/status
func (h *AdminHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"websocket_connections": h.push.GetActiveConnections(),
	})
}
