package services

import (
	"context"
	"testing"

	"paybridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFullySettled(t *testing.T) {
	assert.False(t, IsFullySettled(nil))
	assert.False(t, IsFullySettled([]models.PaymentIntent{}))

	assert.False(t, IsFullySettled([]models.PaymentIntent{
		{Status: models.IntentStatusCompleted},
		{Status: models.IntentStatusPending},
	}))

	assert.False(t, IsFullySettled([]models.PaymentIntent{
		{Status: models.IntentStatusCompleted},
		{Status: models.IntentStatusExpired},
	}))

	assert.True(t, IsFullySettled([]models.PaymentIntent{
		{Status: models.IntentStatusCompleted},
		{Status: models.IntentStatusCompleted},
	}))
}

func TestSettlementNotifiesExactlyOnce(t *testing.T) {
	intents := newFakeIntentRepo()
	bills := newFakeBillRepo(intents)
	svc := newTestIntentService(intents, bills)

	bill, err := svc.CreateBill(context.Background(), &BillCreateRequest{
		CreatorAddress: "0xCc",
		Total:          60,
		Participants: []models.ParticipantShare{
			{RecipientAddress: "0xA1", AmountUSD: 30},
			{RecipientAddress: "0xA2", AmountUSD: 30},
		},
	})
	require.NoError(t, err)

	listed, err := svc.ListIntentsForBill(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// First completion: not yet settled.
	_, err = svc.CompleteIntent(context.Background(), listed[0].ID, &CompletionProof{DestTxHash: "0xh1"})
	require.NoError(t, err)

	stored, _ := bills.GetByID(context.Background(), bill.ID)
	assert.Nil(t, stored.SettledNotifiedAt)

	// Last completion settles and notifies.
	_, err = svc.CompleteIntent(context.Background(), listed[1].ID, &CompletionProof{DestTxHash: "0xh2"})
	require.NoError(t, err)

	stored, _ = bills.GetByID(context.Background(), bill.ID)
	require.NotNil(t, stored.SettledNotifiedAt)
	notifiedAt := *stored.SettledNotifiedAt

	// Re-evaluation is a no-op; the flag does not move.
	settlement := NewSettlementService(intents, bills, nil)
	require.NoError(t, settlement.Evaluate(context.Background(), bill.ID))

	stored, _ = bills.GetByID(context.Background(), bill.ID)
	assert.Equal(t, notifiedAt, *stored.SettledNotifiedAt)
}

func TestSettlementEvaluateUnknownBill(t *testing.T) {
	intents := newFakeIntentRepo()
	bills := newFakeBillRepo(intents)
	settlement := NewSettlementService(intents, bills, nil)

	// No intents at all: not settled, no error.
	assert.NoError(t, settlement.Evaluate(context.Background(), "missing"))
}
