package handlers

import (
	"strings"

	"paybridge/internal/services"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades clients onto the push hub.
type WebSocketHandler struct {
	push *services.WebSocketPushService
}

func NewWebSocketHandler(push *services.WebSocketPushService) *WebSocketHandler {
	return &WebSocketHandler{push: push}
}

// HandleWebSocket subscribes the client to the comma-separated topics in
// the query string, e.g. ?topics=execution:<id>,bill:<id>.
// GET /api/v1/ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	var topics []string
	if raw := c.Query("topics"); raw != "" {
		for _, topic := range strings.Split(raw, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				topics = append(topics, topic)
			}
		}
	}

	h.push.HandleWebSocket(c.Writer, c.Request, topics)
}
