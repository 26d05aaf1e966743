package handlers

import (
	"net/http"

	"paybridge/internal/services"

	"github.com/gin-gonic/gin"
)

// BillHandler serves bill creation and settlement views.
type BillHandler struct {
	intents *services.PaymentIntentService
}

func NewBillHandler(intents *services.PaymentIntentService) *BillHandler {
	return &BillHandler{intents: intents}
}

// CreateBillHandler finalizes a bill: the bill row plus one pending
// intent per participant share, written atomically.
// POST /api/v1/bills
func (h *BillHandler) CreateBillHandler(c *gin.Context) {
	var req services.BillCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid bill request",
			"message": err.Error(),
		})
		return
	}

	bill, err := h.intents.CreateBill(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to create bill",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    bill,
	})
}

// GetBillHandler returns a bill with its intents and derived settlement
// state.
// GET /api/v1/bills/:id
func (h *BillHandler) GetBillHandler(c *gin.Context) {
	bill, err := h.intents.GetBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load bill",
			"message": err.Error(),
		})
		return
	}
	if bill == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Bill not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"bill":          bill,
			"fully_settled": services.IsFullySettled(bill.Intents),
		},
	})
}

// ListBillIntentsHandler returns the bill's intents ordered by
// participant index.
// GET /api/v1/bills/:id/intents
func (h *BillHandler) ListBillIntentsHandler(c *gin.Context) {
	intents, err := h.intents.ListIntentsForBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to list intents",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intents,
	})
}
