package handlers

import (
	"net/http"

	"paybridge/internal/services"

	"github.com/gin-gonic/gin"
)

// IntentHandler serves standalone deposits and the intent lifecycle.
type IntentHandler struct {
	intents *services.PaymentIntentService
}

func NewIntentHandler(intents *services.PaymentIntentService) *IntentHandler {
	return &IntentHandler{intents: intents}
}

// DepositCreateRequest creates an intent not tied to a bill.
type DepositCreateRequest struct {
	RecipientAddress string  `json:"recipient_address" binding:"required"`
	AmountUSD        float64 `json:"amount_usd" binding:"required,gt=0"`
}

// CreateDepositHandler creates a standalone deposit intent.
// POST /api/v1/deposits
func (h *IntentHandler) CreateDepositHandler(c *gin.Context) {
	var req DepositCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid deposit request",
			"message": err.Error(),
		})
		return
	}

	intent, err := h.intents.CreateDepositIntent(c.Request.Context(), req.RecipientAddress, req.AmountUSD)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to create deposit intent",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    intent,
	})
}

// GetIntentHandler reads one intent. Pending intents past their
// deadline are expired on read and reported as not found.
// GET /api/v1/intents/:id
func (h *IntentHandler) GetIntentHandler(c *gin.Context) {
	intent, err := h.intents.GetIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load intent",
			"message": err.Error(),
		})
		return
	}
	if intent == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Intent not found or expired",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intent,
	})
}

// intentPatchColumns are the only columns a client patch may touch.
// Lifecycle transitions go through the dedicated endpoints.
var intentPatchColumns = map[string]bool{
	"payer_address":   true,
	"source_chain_id": true,
	"source_token":    true,
	"source_tx_hash":  true,
	"bridge_provider": true,
}

// UpdateIntentHandler applies a partial update to an intent's
// provenance fields.
// PATCH /api/v1/intents/:id
func (h *IntentHandler) UpdateIntentHandler(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid patch body",
			"message": err.Error(),
		})
		return
	}

	fields := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		if !intentPatchColumns[key] {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Field not patchable: " + key,
			})
			return
		}
		if key == "source_chain_id" {
			num, ok := value.(float64)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error":   "source_chain_id must be a number",
				})
				return
			}
			value = int64(num)
		}
		fields[key] = value
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Empty patch",
		})
		return
	}

	intent, err := h.intents.UpdateIntent(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to update intent",
			"message": err.Error(),
		})
		return
	}
	if intent == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Intent not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intent,
	})
}

// CompleteIntentHandler records payment with its provenance. Safe to
// repeat with the same proof.
// POST /api/v1/intents/:id/complete
func (h *IntentHandler) CompleteIntentHandler(c *gin.Context) {
	var proof services.CompletionProof
	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid completion proof",
			"message": err.Error(),
		})
		return
	}
	if proof.DestTxHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "dest_tx_hash is required",
		})
		return
	}

	intent, err := h.intents.CompleteIntent(c.Request.Context(), c.Param("id"), &proof)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "Completion rejected",
			"message": err.Error(),
		})
		return
	}
	if intent == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Intent not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intent,
	})
}
