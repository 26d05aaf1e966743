package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider tracks quote rounds so debounce collapsing is
// observable.
type countingProvider struct {
	fakeProvider
	calls atomic.Int64
}

func (c *countingProvider) GetQuote(ctx context.Context, req *clients.ProviderQuoteRequest) (*models.BridgeQuote, error) {
	c.calls.Add(1)
	return c.fakeProvider.GetQuote(ctx, req)
}

func newSessionFixture(debounce time.Duration) (*QuoteSessionService, *countingProvider) {
	provider := &countingProvider{fakeProvider: fakeProvider{name: "lifi", quote: testQuote("lifi", "990000", 1.0, 120)}}
	quotes := NewQuoteService([]clients.BridgeProvider{provider}, nil, testSettlement(), 1800, time.Second)
	return NewQuoteSessionService(quotes, debounce, time.Hour, nil), provider
}

func TestSessionOpenFetchesImmediately(t *testing.T) {
	svc, provider := newSessionFixture(time.Hour) // debounce must not gate the first round

	session := svc.Open(testRequest())
	require.NotEmpty(t, session.ID)

	require.Eventually(t, func() bool {
		return session.Latest() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), provider.calls.Load())
	assert.Equal(t, "lifi", session.Latest().Best.Provider)
}

func TestSessionDebounceCollapsesRapidEdits(t *testing.T) {
	svc, provider := newSessionFixture(50 * time.Millisecond)

	session := svc.Open(testRequest())
	require.Eventually(t, func() bool {
		return provider.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Five edits inside the debounce window: exactly one more round.
	for i := 0; i < 5; i++ {
		req := testRequest()
		req.FromAmount = "2000000"
		require.True(t, svc.UpdateRequest(session.ID, req))
	}

	require.Eventually(t, func() bool {
		return provider.calls.Load() == 2
	}, time.Second, 5*time.Millisecond)

	// No stragglers after the window closes.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(2), provider.calls.Load())
}

func TestSessionUpdateUnknownSession(t *testing.T) {
	svc, _ := newSessionFixture(time.Millisecond)
	assert.False(t, svc.UpdateRequest("nope", testRequest()))
}

// gateProvider blocks its first quote round until released, and answers
// later rounds immediately with a different amount. That pins an
// interleaving where an old round lands after a newer one.
type gateProvider struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (g *gateProvider) Name() string { return "lifi" }

func (g *gateProvider) GetQuote(ctx context.Context, req *clients.ProviderQuoteRequest) (*models.BridgeQuote, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return testQuote("lifi", "111111", 1.0, 120), nil
	}
	return testQuote("lifi", "222222", 1.0, 120), nil
}

func (g *gateProvider) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*clients.TransactionData, error) {
	return nil, clients.ErrNoRoute
}

func TestSessionStaleRoundDiscarded(t *testing.T) {
	provider := &gateProvider{started: make(chan struct{}), release: make(chan struct{})}
	quotes := NewQuoteService([]clients.BridgeProvider{provider}, nil, testSettlement(), 1800, time.Minute)
	svc := NewQuoteSessionService(quotes, time.Millisecond, time.Hour, nil)

	session := svc.Open(testRequest())

	// Round one is in flight and parked on the gate.
	<-provider.started

	// Overtake it; round two answers immediately.
	require.True(t, svc.UpdateRequest(session.ID, testRequest()))
	require.Eventually(t, func() bool {
		latest := session.Latest()
		return latest != nil && latest.Best != nil && latest.Best.ToAmount == "222222"
	}, time.Second, 5*time.Millisecond)

	// The stale round finally lands and must be discarded.
	close(provider.release)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "222222", session.Latest().Best.ToAmount)
}

func TestSessionPauseSkipsRefresh(t *testing.T) {
	provider := &countingProvider{fakeProvider: fakeProvider{name: "lifi", quote: testQuote("lifi", "990000", 1.0, 120)}}
	quotes := NewQuoteService([]clients.BridgeProvider{provider}, nil, testSettlement(), 1800, time.Second)
	svc := NewQuoteSessionService(quotes, time.Millisecond, 20*time.Millisecond, nil)
	svc.Start()
	defer svc.Stop()

	session := svc.Open(testRequest())
	require.Eventually(t, func() bool {
		return provider.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	svc.Pause(session.ID)
	settled := provider.calls.Load()

	// Several refresh intervals pass without a round.
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, provider.calls.Load(), settled+1, "paused session must not refresh")

	// Resume triggers an immediate round and the ticker picks it back up.
	svc.Resume(session.ID)
	require.Eventually(t, func() bool {
		return provider.calls.Load() > settled+1
	}, time.Second, 5*time.Millisecond)
}

func TestSessionCloseStopsUpdates(t *testing.T) {
	svc, provider := newSessionFixture(time.Millisecond)

	session := svc.Open(testRequest())
	require.Eventually(t, func() bool {
		return provider.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	svc.Close(session.ID)

	_, ok := svc.Get(session.ID)
	assert.False(t, ok)
	assert.False(t, svc.UpdateRequest(session.ID, testRequest()))
}
