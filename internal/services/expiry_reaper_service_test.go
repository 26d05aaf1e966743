package services

import (
	"context"
	"testing"
	"time"

	"paybridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiresOnlyStalePending(t *testing.T) {
	intents := newFakeIntentRepo()
	now := time.Now()

	seed := []*models.PaymentIntent{
		{ID: "stale-pending", Status: models.IntentStatusPending, ExpiresAt: now.Add(-time.Hour)},
		{ID: "fresh-pending", Status: models.IntentStatusPending, ExpiresAt: now.Add(time.Hour)},
		{ID: "processing", Status: models.IntentStatusProcessing, ExpiresAt: now.Add(-time.Hour)},
		{ID: "completed", Status: models.IntentStatusCompleted, ExpiresAt: now.Add(-time.Hour)},
	}
	for _, intent := range seed {
		require.NoError(t, intents.Create(context.Background(), intent))
	}

	reaper := NewExpiryReaperService(intents, time.Minute)
	reaper.now = func() time.Time { return now }

	count, err := reaper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	expect := map[string]models.PaymentIntentStatus{
		"stale-pending": models.IntentStatusExpired,
		"fresh-pending": models.IntentStatusPending,
		"processing":    models.IntentStatusProcessing,
		"completed":     models.IntentStatusCompleted,
	}
	for id, status := range expect {
		stored, _ := intents.GetByID(context.Background(), id)
		assert.Equal(t, status, stored.Status, id)
	}
}

func TestSweepEmptyLedger(t *testing.T) {
	reaper := NewExpiryReaperService(newFakeIntentRepo(), time.Minute)
	count, err := reaper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReaperStartStop(t *testing.T) {
	intents := newFakeIntentRepo()
	require.NoError(t, intents.Create(context.Background(), &models.PaymentIntent{
		ID:        "stale",
		Status:    models.IntentStatusPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	reaper := NewExpiryReaperService(intents, 10*time.Millisecond)
	reaper.Start()
	defer reaper.Stop()

	assert.Eventually(t, func() bool {
		stored, _ := intents.GetByID(context.Background(), "stale")
		return stored.Status == models.IntentStatusExpired
	}, time.Second, 10*time.Millisecond)
}
