package handlers

import (
	"errors"
	"net/http"
	"time"

	"paybridge/internal/config"
	"paybridge/internal/models"
	"paybridge/internal/services"

	"github.com/gin-gonic/gin"
)

// ExecutionHandler drives bridge executions over HTTP.
type ExecutionHandler struct {
	executor *services.BridgeExecutorService
	sessions *services.QuoteSessionService
}

func NewExecutionHandler(executor *services.BridgeExecutorService, sessions *services.QuoteSessionService) *ExecutionHandler {
	return &ExecutionHandler{executor: executor, sessions: sessions}
}

// ExecutionStartRequest begins an execution against a previously
// aggregated quote. FetchedAt anchors the freshness window.
type ExecutionStartRequest struct {
	IntentID  string              `json:"intent_id"`
	SessionID string              `json:"session_id"`
	Quote     *models.BridgeQuote `json:"quote" binding:"required"`
	FetchedAt time.Time           `json:"fetched_at" binding:"required"`
}

// ExecutionResumeRequest re-attaches observation of a submitted
// transaction.
type ExecutionResumeRequest struct {
	IntentID string              `json:"intent_id"`
	Quote    *models.BridgeQuote `json:"quote" binding:"required"`
	TxHash   string              `json:"tx_hash" binding:"required"`
}

// StartExecutionHandler creates and starts an execution.
// POST /api/v1/executions
func (h *ExecutionHandler) StartExecutionHandler(c *gin.Context) {
	var req ExecutionStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid execution request",
			"message": err.Error(),
		})
		return
	}

	quotesCfg := config.AppConfig.Quotes
	hold := models.NewQuoteHold(
		req.Quote,
		req.FetchedAt,
		time.Duration(quotesCfg.ValiditySeconds)*time.Second,
		time.Duration(quotesCfg.WarningSeconds)*time.Second,
	)

	exec := h.executor.Begin(req.IntentID, hold)
	exec.SessionID = req.SessionID

	// Auto-refresh must not replace a quote that is being executed; the
	// executor resumes the session on terminal outcomes.
	if req.SessionID != "" {
		h.sessions.Pause(req.SessionID)
	}

	if err := h.executor.Start(c.Request.Context(), exec.ID); err != nil {
		if req.SessionID != "" {
			h.sessions.Resume(req.SessionID)
		}
		h.writeStartError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    exec.Snapshot(),
	})
}

// GetExecutionHandler returns the current execution snapshot.
// GET /api/v1/executions/:id
func (h *ExecutionHandler) GetExecutionHandler(c *gin.Context) {
	exec, ok := h.executor.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Execution not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    exec.Snapshot(),
	})
}

// RetryExecutionHandler re-runs a recoverably failed execution.
// POST /api/v1/executions/:id/retry
func (h *ExecutionHandler) RetryExecutionHandler(c *gin.Context) {
	if err := h.executor.Start(c.Request.Context(), c.Param("id")); err != nil {
		h.writeStartError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// CancelExecutionHandler aborts or detaches an execution depending on
// how far it has progressed.
// POST /api/v1/executions/:id/cancel
func (h *ExecutionHandler) CancelExecutionHandler(c *gin.Context) {
	if err := h.executor.Cancel(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrNotCancellable) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   "Cancellation rejected",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResumeExecutionHandler re-attaches polling to a detached execution.
// POST /api/v1/executions/:id/resume
func (h *ExecutionHandler) ResumeExecutionHandler(c *gin.Context) {
	if err := h.executor.Resume(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "Resume rejected",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// ResumeDetachedHandler rebuilds observation of a transaction from a
// persisted hash, for sessions lost before confirmation.
// POST /api/v1/executions/resume
func (h *ExecutionHandler) ResumeDetachedHandler(c *gin.Context) {
	var req ExecutionResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid resume request",
			"message": err.Error(),
		})
		return
	}

	exec, err := h.executor.ResumeDetached(c.Request.Context(), req.IntentID, req.Quote, req.TxHash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Resume failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    exec.Snapshot(),
	})
}

func (h *ExecutionHandler) writeStartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrQuoteExpired):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "Quote expired",
			"message": "The held quote is stale; fetch a fresh quote and try again",
			"code":    "QUOTE_EXPIRED",
		})
	case errors.Is(err, services.ErrExecutionInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "Execution already in progress",
			"code":    "EXECUTION_IN_PROGRESS",
		})
	case errors.Is(err, services.ErrNotRetryable):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "Execution failed terminally",
			"message": "This failure cannot be retried; start over with a fresh quote",
			"code":    "NOT_RETRYABLE",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to start execution",
			"message": err.Error(),
		})
	}
}
