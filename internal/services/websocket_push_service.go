package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"paybridge/internal/events"
	"paybridge/internal/metrics"
	"paybridge/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer in front of this.
		return true
	},
}

// Connection is one live WebSocket client. Topics select which push
// streams it receives: "execution:<id>", "session:<id>", "bill:<id>".
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Topics   map[string]bool
	LastPing time.Time
}

// PushMessage is the envelope for every frame pushed to clients.
type PushMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id"`
	Topic     string      `json:"topic,omitempty"`
	Data      interface{} `json:"data"`
}

// WebSocketPushService fans execution, quote and settlement updates out
// to subscribed clients.
type WebSocketPushService struct {
	mutex       sync.RWMutex
	connections map[string]*Connection
	hub         chan PushMessage
	register    chan *Connection
	unregister  chan *Connection
}

// NewWebSocketPushService creates the push hub and starts its loop.
func NewWebSocketPushService() *WebSocketPushService {
	service := &WebSocketPushService{
		connections: make(map[string]*Connection),
		hub:         make(chan PushMessage, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
	}

	go service.run()
	return service
}

func (s *WebSocketPushService) run() {
	for {
		select {
		case conn := <-s.register:
			s.handleRegister(conn)
		case conn := <-s.unregister:
			s.handleUnregister(conn)
		case message := <-s.hub:
			s.handleBroadcast(message)
		}
	}
}

func (s *WebSocketPushService) handleRegister(conn *Connection) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.connections[conn.ID] = conn
	metrics.WebSocketConnections.Inc()
	log.Printf("📱 WebSocket connection registered: connID=%s, topics=%d", conn.ID, len(conn.Topics))

	s.sendToConnection(conn, PushMessage{
		Type:      "connection_established",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: newMessageID(),
		Data: map[string]interface{}{
			"connection_id": conn.ID,
			"message":       "Real-time status connection established",
		},
	})
}

func (s *WebSocketPushService) handleUnregister(conn *Connection) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.connections[conn.ID]; !exists {
		return
	}
	delete(s.connections, conn.ID)
	metrics.WebSocketConnections.Dec()

	close(conn.Send)
	conn.Conn.Close()
	log.Printf("📱 WebSocket connection unregistered: connID=%s", conn.ID)
}

func (s *WebSocketPushService) handleBroadcast(message PushMessage) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, conn := range s.connections {
		if message.Topic != "" && !conn.Topics[message.Topic] {
			continue
		}
		s.sendToConnection(conn, message)
	}
}

func (s *WebSocketPushService) sendToConnection(conn *Connection, message PushMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Failed to marshal push message: %v", err)
		return
	}

	select {
	case conn.Send <- payload:
	default:
		// Slow consumer; drop the frame rather than block the hub.
		log.Printf("⚠️ Dropping push frame for slow connection %s", conn.ID)
	}
}

// HandleWebSocket upgrades the request and serves the connection until
// it closes. topics selects the push streams for this client.
func (s *WebSocketPushService) HandleWebSocket(w http.ResponseWriter, r *http.Request, topics []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	topicSet := make(map[string]bool, len(topics))
	for _, t := range topics {
		topicSet[t] = true
	}

	connection := &Connection{
		ID:       uuid.NewString(),
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Topics:   topicSet,
		LastPing: time.Now(),
	}

	s.register <- connection

	go s.handleConnectionWrite(connection)
	go s.handleConnectionRead(connection)
}

func (s *WebSocketPushService) handleConnectionWrite(conn *Connection) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("❌ Write message failed: %v", err)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *WebSocketPushService) handleConnectionRead(conn *Connection) {
	defer func() {
		s.unregister <- conn
	}()

	conn.Conn.SetReadLimit(512)
	conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.LastPing = time.Now()
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket read error: %v", err)
			}
			break
		}
	}
}

// NotifyExecution pushes an executor state snapshot to clients watching
// that execution.
func (s *WebSocketPushService) NotifyExecution(snapshot models.ExecutionSnapshot) {
	s.hub <- PushMessage{
		Type:      "execution_update",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: newMessageID(),
		Topic:     "execution:" + snapshot.ID,
		Data:      snapshot,
	}
}

// NotifyQuoteUpdate pushes a refreshed quote result for a session.
func (s *WebSocketPushService) NotifyQuoteUpdate(sessionID string, result *models.QuoteResult, fetchErr error) {
	data := map[string]interface{}{"session_id": sessionID}
	if fetchErr != nil {
		data["error"] = fetchErr.Error()
	} else {
		data["result"] = result
	}

	s.hub <- PushMessage{
		Type:      "quote_update",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: newMessageID(),
		Topic:     "session:" + sessionID,
		Data:      data,
	}
}

// NotifyBillSettled pushes the settled notification to clients watching
// the bill.
func (s *WebSocketPushService) NotifyBillSettled(event events.BillSettledEvent) {
	s.hub <- PushMessage{
		Type:      "bill_settled",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: newMessageID(),
		Topic:     "bill:" + event.BillID,
		Data:      event,
	}
}

// GetActiveConnections returns the live connection count.
func (s *WebSocketPushService) GetActiveConnections() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.connections)
}

func newMessageID() string {
	return fmt.Sprintf("msg_%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
