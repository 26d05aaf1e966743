package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"paybridge/internal/metrics"
	"paybridge/internal/models"
	"paybridge/internal/repository"

	"github.com/google/uuid"
)

// CompletionProof carries the provenance recorded when an intent is paid.
type CompletionProof struct {
	PayerAddress   string `json:"payer_address"`
	DestTxHash     string `json:"dest_tx_hash"`
	SourceChainID  int64  `json:"source_chain_id,omitempty"`
	SourceToken    string `json:"source_token,omitempty"`
	SourceTxHash   string `json:"source_tx_hash,omitempty"`
	BridgeProvider string `json:"bridge_provider,omitempty"`
}

// BillCreateRequest is the input for finalizing a bill.
type BillCreateRequest struct {
	CreatorAddress string                    `json:"creator_address" binding:"required"`
	Title          string                    `json:"title"`
	Subtotal       float64                   `json:"subtotal"`
	Tax            float64                   `json:"tax"`
	TaxPercent     float64                   `json:"tax_percent"`
	Tip            float64                   `json:"tip"`
	TipPercent     float64                   `json:"tip_percent"`
	Total          float64                   `json:"total" binding:"required"`
	Currency       string                    `json:"currency"`
	Participants   []models.ParticipantShare `json:"participants" binding:"required,min=1"`
}

// PaymentIntentService is the durable ledger of expected payments.
type PaymentIntentService struct {
	intents    repository.PaymentIntentRepository
	bills      repository.BillRepository
	settlement *SettlementService
	ttl        time.Duration
	now        func() time.Time
}

// NewPaymentIntentService creates the intent ledger service.
func NewPaymentIntentService(intents repository.PaymentIntentRepository, bills repository.BillRepository, settlement *SettlementService, ttl time.Duration) *PaymentIntentService {
	return &PaymentIntentService{
		intents:    intents,
		bills:      bills,
		settlement: settlement,
		ttl:        ttl,
		now:        time.Now,
	}
}

// CreateBill writes the bill and one pending intent per participant
// share as a single transactional unit.
func (s *PaymentIntentService) CreateBill(ctx context.Context, req *BillCreateRequest) (*models.Bill, error) {
	if len(req.Participants) == 0 {
		return nil, fmt.Errorf("bill requires at least one participant")
	}

	now := s.now()
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	bill := &models.Bill{
		ID:             uuid.NewString(),
		CreatorAddress: req.CreatorAddress,
		Title:          req.Title,
		Subtotal:       req.Subtotal,
		Tax:            req.Tax,
		TaxPercent:     req.TaxPercent,
		Tip:            req.Tip,
		TipPercent:     req.TipPercent,
		Total:          req.Total,
		Currency:       currency,
		CreatedAt:      now,
	}

	intents := make([]models.PaymentIntent, len(req.Participants))
	for i, share := range req.Participants {
		idx := i
		intents[i] = models.PaymentIntent{
			ID:               uuid.NewString(),
			ParticipantIndex: &idx,
			AmountUSD:        share.AmountUSD,
			RecipientAddress: share.RecipientAddress,
			Status:           models.IntentStatusPending,
			ExpiresAt:        now.Add(s.ttl),
			CreatedAt:        now,
		}
	}

	if err := s.bills.CreateWithIntents(ctx, bill, intents); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	for range intents {
		metrics.IntentsCreated.Inc()
	}
	bill.Intents = intents
	log.Printf("🧾 Bill created: id=%s, participants=%d, total=%.2f %s", bill.ID, len(intents), bill.Total, bill.Currency)
	return bill, nil
}

// CreateDepositIntent creates a standalone intent not tied to any bill.
func (s *PaymentIntentService) CreateDepositIntent(ctx context.Context, recipientAddress string, amountUSD float64) (*models.PaymentIntent, error) {
	now := s.now()
	intent := &models.PaymentIntent{
		ID:               uuid.NewString(),
		AmountUSD:        amountUSD,
		RecipientAddress: recipientAddress,
		Status:           models.IntentStatusPending,
		ExpiresAt:        now.Add(s.ttl),
		CreatedAt:        now,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to create deposit intent: %w", err)
	}
	metrics.IntentsCreated.Inc()
	return intent, nil
}

// GetIntent reads one intent. A pending intent past its deadline is
// transitioned to expired inline and reported as absent: an expired
// intent is never returned as actionable.
func (s *PaymentIntentService) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	intent, err := s.intents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, nil
	}

	if intent.IsExpiredAt(s.now()) {
		if expired, err := s.intents.MarkExpiredIfPending(ctx, id); err != nil {
			return nil, err
		} else if expired {
			metrics.IntentsExpired.Inc()
		}
		return nil, nil
	}
	return intent, nil
}

// UpdateIntent applies a generic field patch; nil when the record does
// not exist.
func (s *PaymentIntentService) UpdateIntent(ctx context.Context, id string, fields map[string]interface{}) (*models.PaymentIntent, error) {
	return s.intents.Update(ctx, id, fields)
}

// MarkProcessing records that an on-chain payment for the intent is in
// flight, along with its source-side provenance.
func (s *PaymentIntentService) MarkProcessing(ctx context.Context, id string, payerAddress string, sourceChainID int64, sourceToken, sourceTxHash, provider string) (*models.PaymentIntent, error) {
	return s.intents.Update(ctx, id, map[string]interface{}{
		"status":          models.IntentStatusProcessing,
		"payer_address":   payerAddress,
		"source_chain_id": sourceChainID,
		"source_token":    sourceToken,
		"source_tx_hash":  sourceTxHash,
		"bridge_provider": provider,
	})
}

// CompleteIntent marks the intent paid and triggers settlement
// re-evaluation for its bill. The write only targets intents still
// pending or processing, so completion always beats the expiry sweep
// and a terminal state is never overwritten. Repeating the call with
// the same proof is a no-op that returns the settled record.
func (s *PaymentIntentService) CompleteIntent(ctx context.Context, id string, proof *CompletionProof) (*models.PaymentIntent, error) {
	paidAt := s.now()
	rows, err := s.intents.CompleteIf(ctx, id, map[string]interface{}{
		"status":          models.IntentStatusCompleted,
		"paid_at":         paidAt,
		"payer_address":   proof.PayerAddress,
		"dest_tx_hash":    proof.DestTxHash,
		"source_chain_id": proof.SourceChainID,
		"source_token":    proof.SourceToken,
		"source_tx_hash":  proof.SourceTxHash,
		"bridge_provider": proof.BridgeProvider,
	})
	if err != nil {
		return nil, err
	}

	intent, getErr := s.intents.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if intent == nil {
		return nil, nil
	}

	if rows == 0 {
		// Lost the conditional write: either a duplicate completion
		// (idempotent, fine) or a conflicting terminal state.
		if intent.Status == models.IntentStatusCompleted && intent.DestTxHash == proof.DestTxHash {
			return intent, nil
		}
		return nil, fmt.Errorf("intent %s is %s and cannot be completed", id, intent.Status)
	}

	metrics.IntentsCompleted.Inc()
	log.Printf("✅ Intent completed: id=%s, payer=%s, destTx=%s", id, proof.PayerAddress, proof.DestTxHash)

	if intent.BillID != nil && s.settlement != nil {
		if err := s.settlement.Evaluate(ctx, *intent.BillID); err != nil {
			log.Printf("⚠️ Settlement evaluation failed for bill %s: %v", *intent.BillID, err)
		}
	}
	return intent, nil
}

// ListIntentsForBill returns a bill's intents ordered by participant
// index ascending.
func (s *PaymentIntentService) ListIntentsForBill(ctx context.Context, billID string) ([]models.PaymentIntent, error) {
	return s.intents.ListByBill(ctx, billID)
}

// GetBill reads a bill with its intents attached.
func (s *PaymentIntentService) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil || bill == nil {
		return bill, err
	}
	intents, err := s.intents.ListByBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	bill.Intents = intents
	return bill, nil
}
