package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"paybridge/internal/events"
	"paybridge/internal/metrics"
	"paybridge/internal/models"
	"paybridge/internal/repository"
)

// BillNotifier pushes the settled notification to connected clients.
type BillNotifier interface {
	NotifyBillSettled(event events.BillSettledEvent)
}

// SettlementService derives a bill's fully-settled state from its child
// intents and notifies the creator at most once.
type SettlementService struct {
	intents   repository.PaymentIntentRepository
	bills     repository.BillRepository
	publisher *events.Publisher
	notifier  BillNotifier
}

// NewSettlementService creates the settlement tracker.
func NewSettlementService(intents repository.PaymentIntentRepository, bills repository.BillRepository, publisher *events.Publisher) *SettlementService {
	return &SettlementService{
		intents:   intents,
		bills:     bills,
		publisher: publisher,
	}
}

// SetNotifier attaches the client push sink; nil disables pushes.
func (s *SettlementService) SetNotifier(notifier BillNotifier) {
	s.notifier = notifier
}

// IsFullySettled reports whether every child intent has completed.
// Pure function over the intent list; a bill with no intents is not
// settled.
func IsFullySettled(intents []models.PaymentIntent) bool {
	if len(intents) == 0 {
		return false
	}
	for _, intent := range intents {
		if intent.Status != models.IntentStatusCompleted {
			return false
		}
	}
	return true
}

// Evaluate recomputes settlement for a bill after a completion. When the
// bill has just become fully settled, exactly one caller wins the
// notified flag and publishes the creator notification; re-evaluations
// are no-ops.
func (s *SettlementService) Evaluate(ctx context.Context, billID string) error {
	intents, err := s.intents.ListByBill(ctx, billID)
	if err != nil {
		return fmt.Errorf("failed to list intents for bill %s: %w", billID, err)
	}
	if !IsFullySettled(intents) {
		return nil
	}

	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return fmt.Errorf("failed to load bill %s: %w", billID, err)
	}
	if bill == nil {
		return fmt.Errorf("bill %s not found", billID)
	}

	won, err := s.bills.MarkSettledNotified(ctx, billID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark bill %s notified: %w", billID, err)
	}
	if !won {
		// Another evaluation already notified.
		return nil
	}

	metrics.BillsSettled.Inc()
	log.Printf("🎉 Bill fully settled: id=%s, total=%.2f %s", bill.ID, bill.Total, bill.Currency)

	event := events.BillSettledEvent{
		BillID:         bill.ID,
		CreatorAddress: bill.CreatorAddress,
		Total:          bill.Total,
		Currency:       bill.Currency,
		SettledAt:      time.Now().UTC(),
	}
	s.publisher.PublishBillSettled(event)
	if s.notifier != nil {
		s.notifier.NotifyBillSettled(event)
	}
	return nil
}
