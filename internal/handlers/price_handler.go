package handlers

import (
	"net/http"

	"paybridge/internal/clients"

	"github.com/gin-gonic/gin"
)

// PriceHandler serves USD spot prices so the client can size a source
// token amount against a USD share.
type PriceHandler struct {
	prices *clients.PriceClient
}

func NewPriceHandler(prices *clients.PriceClient) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// GetTokenPriceHandler returns the USD price for a token symbol.
// GET /api/v1/prices/:symbol
func (h *PriceHandler) GetTokenPriceHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	price, err := h.prices.GetTokenPriceUSD(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Price lookup failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"symbol":    symbol,
			"price_usd": price,
		},
	})
}
