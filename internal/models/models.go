package models

import (
	"time"
)

// PaymentIntentStatus lifecycle:
// pending → processing → completed
// pending → expired (TTL passed before any payment)
// any active state → failed
// Terminal states (completed, expired, failed) are never overwritten.
type PaymentIntentStatus string

const (
	IntentStatusPending    PaymentIntentStatus = "pending"
	IntentStatusProcessing PaymentIntentStatus = "processing"
	IntentStatusCompleted  PaymentIntentStatus = "completed"
	IntentStatusExpired    PaymentIntentStatus = "expired"
	IntentStatusFailed     PaymentIntentStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s PaymentIntentStatus) IsTerminal() bool {
	return s == IntentStatusCompleted || s == IntentStatusExpired || s == IntentStatusFailed
}

// PaymentIntent is one expected incoming payment: either a participant's
// share of a bill or a standalone deposit (BillID nil).
//
// Invariant: Status == completed ⇔ PaidAt != nil && DestTxHash != "".
type PaymentIntent struct {
	ID               string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	BillID           *string `gorm:"type:varchar(36);index" json:"bill_id,omitempty"`
	ParticipantIndex *int    `json:"participant_index,omitempty"`

	AmountUSD        float64 `gorm:"type:decimal(18,2)" json:"amount_usd"`
	RecipientAddress string  `gorm:"type:varchar(66);index" json:"recipient_address"`
	PayerAddress     string  `gorm:"type:varchar(66)" json:"payer_address,omitempty"`

	Status PaymentIntentStatus `gorm:"type:varchar(20);index;default:pending" json:"status"`

	// Bridge provenance, filled in by the executor.
	SourceChainID  int64  `json:"source_chain_id,omitempty"`
	SourceToken    string `gorm:"type:varchar(66)" json:"source_token,omitempty"`
	SourceTxHash   string `gorm:"type:varchar(66);index" json:"source_tx_hash,omitempty"`
	DestTxHash     string `gorm:"type:varchar(66)" json:"dest_tx_hash,omitempty"`
	BridgeProvider string `gorm:"type:varchar(32)" json:"bridge_provider,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// IsExpiredAt reports whether a still-pending intent has outlived its TTL.
func (p *PaymentIntent) IsExpiredAt(now time.Time) bool {
	return p.Status == IntentStatusPending && now.After(p.ExpiresAt)
}

// Bill owns 1..N payment intents, one per participant share.
// "Fully settled" is derived from the child intents, never stored.
type Bill struct {
	ID             string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatorAddress string  `gorm:"type:varchar(66);index" json:"creator_address"`
	Title          string  `gorm:"type:varchar(255)" json:"title"`
	Subtotal       float64 `gorm:"type:decimal(18,2)" json:"subtotal"`
	Tax            float64 `gorm:"type:decimal(18,2)" json:"tax"`
	TaxPercent     float64 `json:"tax_percent"`
	Tip            float64 `gorm:"type:decimal(18,2)" json:"tip"`
	TipPercent     float64 `json:"tip_percent"`
	Total          float64 `gorm:"type:decimal(18,2)" json:"total"`
	Currency       string  `gorm:"type:varchar(8);default:USD" json:"currency"`

	// Set exactly once by the settlement tracker; guards at-most-once
	// creator notification.
	SettledNotifiedAt *time.Time `json:"settled_notified_at,omitempty"`

	Intents []PaymentIntent `gorm:"foreignKey:BillID" json:"intents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Bill) TableName() string {
	return "bills"
}

// ParticipantShare is one participant's slice of a bill at creation time.
type ParticipantShare struct {
	RecipientAddress string  `json:"recipient_address" binding:"required"`
	AmountUSD        float64 `json:"amount_usd" binding:"required"`
}
