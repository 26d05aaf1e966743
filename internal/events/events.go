package events

import (
	"log"
	"time"

	"paybridge/internal/clients"
)

// NATS subjects. An external notifier consumes bill.settled; execution
// telemetry feeds dashboards.
const (
	SubjectExecutionTelemetry = "paybridge.execution.telemetry"
	SubjectBillSettled        = "paybridge.bill.settled"
)

// Execution telemetry event types.
const (
	ExecEventAttempt        = "attempt"
	ExecEventWalletRequired = "wallet_required"
	ExecEventSubmitted      = "submitted"
	ExecEventSuccess        = "success"
	ExecEventError          = "error"
)

// ExecutionEvent is one telemetry sample from the executor.
type ExecutionEvent struct {
	ExecutionID string    `json:"execution_id"`
	IntentID    string    `json:"intent_id,omitempty"`
	Event       string    `json:"event"`
	State       string    `json:"state"`
	Provider    string    `json:"provider,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// BillSettledEvent notifies that every intent of a bill has completed.
// Published at most once per bill.
type BillSettledEvent struct {
	BillID         string    `json:"bill_id"`
	CreatorAddress string    `json:"creator_address"`
	Total          float64   `json:"total"`
	Currency       string    `json:"currency"`
	SettledAt      time.Time `json:"settled_at"`
}

// Publisher sends events over NATS. All publishes are fire-and-forget:
// a nil client or a publish failure is logged and swallowed so that
// telemetry can never block or fail a state transition.
type Publisher struct {
	nats *clients.NATSClient
}

// NewPublisher wraps a NATS client; nil disables publishing.
func NewPublisher(natsClient *clients.NATSClient) *Publisher {
	return &Publisher{nats: natsClient}
}

// PublishExecutionEvent emits executor telemetry.
func (p *Publisher) PublishExecutionEvent(event ExecutionEvent) {
	if p == nil || p.nats == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := p.nats.Publish(SubjectExecutionTelemetry, event); err != nil {
		log.Printf("⚠️ Failed to publish execution telemetry: %v", err)
	}
}

// PublishBillSettled emits the settled notification for a bill.
func (p *Publisher) PublishBillSettled(event BillSettledEvent) {
	if p == nil || p.nats == nil {
		return
	}
	event.SettledAt = time.Now()
	if err := p.nats.Publish(SubjectBillSettled, event); err != nil {
		log.Printf("⚠️ Failed to publish bill settled event: %v", err)
	}
}
