package clients

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"paybridge/internal/metrics"

	"github.com/nats-io/nats.go"
)

// NATSClient wraps the NATS connection used for telemetry and
// settlement notifications.
type NATSClient struct {
	conn *nats.Conn
}

// NewNATSClient connects to the NATS server with automatic reconnects.
func NewNATSClient(url string, timeout time.Duration) (*NATSClient, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️ NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("✅ NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)
	return &NATSClient{conn: conn}, nil
}

// Publish marshals payload and publishes it on subject.
func (c *NATSClient) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}
	if err := c.conn.Publish(subject, data); err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(subject).Inc()
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	metrics.NATSMessagesPublished.WithLabelValues(subject).Inc()
	return nil
}

// Close drains and closes the connection.
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// GetConnection exposes the raw connection.
func (c *NATSClient) GetConnection() *nats.Conn {
	return c.conn
}
