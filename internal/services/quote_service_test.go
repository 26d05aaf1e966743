package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/config"
	"paybridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name   string
	quote  *models.BridgeQuote
	err    error
	txData *clients.TransactionData
	delay  time.Duration
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GetQuote(ctx context.Context, req *clients.ProviderQuoteRequest) (*models.BridgeQuote, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func (f *fakeProvider) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*clients.TransactionData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.txData, nil
}

func testSettlement() config.SettlementConfig {
	return config.SettlementConfig{
		ChainID:       8453,
		TokenAddress:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		TokenSymbol:   "USDC",
		TokenDecimals: 6,
	}
}

func testQuote(provider, toAmount string, gasUSD float64, etaSeconds int) *models.BridgeQuote {
	return &models.BridgeQuote{
		Provider:             provider,
		RouteID:              provider + "-route",
		FromChainID:          1,
		FromToken:            "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		FromAmount:           "1000000",
		ToChainID:            8453,
		ToToken:              "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		ToAmount:             toAmount,
		GasUSD:               gasUSD,
		EstimatedTimeSeconds: etaSeconds,
	}
}

func testRequest() *models.QuoteRequest {
	return &models.QuoteRequest{
		FromChainID:      1,
		FromToken:        "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		FromAmount:       "1000000",
		RecipientAddress: "0x1111111111111111111111111111111111111111",
	}
}

func TestGetQuotesRanksByOutputAmount(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", quote: testQuote("lifi", "980000", 1.0, 120)},
		&fakeProvider{name: "debridge", quote: testQuote("debridge", "990000", 2.0, 300)},
		&fakeProvider{name: "squid", quote: testQuote("squid", "970000", 0.5, 60)},
	}, map[string]int{"lifi": 1, "debridge": 2, "squid": 3}, testSettlement(), 1800, 5*time.Second)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotNil(t, result.Best)

	assert.Equal(t, "debridge", result.Best.Provider)
	require.Len(t, result.All, 3)
	assert.Equal(t, "debridge", result.All[0].Provider)
	assert.Equal(t, "lifi", result.All[1].Provider)
	assert.Equal(t, "squid", result.All[2].Provider)
}

func TestGetQuotesTieBreaksByGasThenPriority(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", quote: testQuote("lifi", "990000", 2.0, 120)},
		&fakeProvider{name: "debridge", quote: testQuote("debridge", "990000", 1.0, 120)},
	}, map[string]int{"lifi": 1, "debridge": 2}, testSettlement(), 1800, 5*time.Second)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "debridge", result.Best.Provider, "lower gas wins on equal output")

	// Equal output and equal gas: configured priority decides.
	svc = NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", quote: testQuote("lifi", "990000", 1.0, 120)},
		&fakeProvider{name: "debridge", quote: testQuote("debridge", "990000", 1.0, 120)},
	}, map[string]int{"lifi": 1, "debridge": 2}, testSettlement(), 1800, 5*time.Second)

	result, err = svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "lifi", result.Best.Provider)
}

func TestGetQuotesExcludesSlowRoutesFromBest(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", quote: testQuote("lifi", "999999", 1.0, 3600)},
		&fakeProvider{name: "debridge", quote: testQuote("debridge", "900000", 1.0, 120)},
	}, map[string]int{"lifi": 1, "debridge": 2}, testSettlement(), 1800, 5*time.Second)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)

	// Better-paying but over-ceiling quote is skipped for selection yet
	// still listed.
	assert.Equal(t, "debridge", result.Best.Provider)
	assert.Len(t, result.All, 2)
}

func TestGetQuotesAllOverCeiling(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", quote: testQuote("lifi", "999999", 1.0, 3600)},
	}, map[string]int{"lifi": 1}, testSettlement(), 1800, 5*time.Second)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Nil(t, result.Best)
	assert.Len(t, result.All, 1)
}

func TestGetQuotesSurvivesPartialFailure(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", err: errors.New("upstream 500")},
		&fakeProvider{name: "debridge", quote: testQuote("debridge", "950000", 1.0, 120)},
		&fakeProvider{name: "squid", err: clients.ErrNoRoute},
	}, map[string]int{"lifi": 1, "debridge": 2, "squid": 3}, testSettlement(), 1800, 5*time.Second)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "debridge", result.Best.Provider)
	assert.Len(t, result.All, 1)
}

func TestGetQuotesAllProvidersFail(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", err: errors.New("boom")},
		&fakeProvider{name: "debridge", err: clients.ErrNoRoute},
	}, nil, testSettlement(), 1800, 5*time.Second)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrNoRouteAvailable)
	assert.Nil(t, result)
}

func TestGetQuotesZeroAmountShortCircuits(t *testing.T) {
	provider := &fakeProvider{name: "lifi", quote: testQuote("lifi", "990000", 1.0, 120)}
	svc := NewQuoteService([]clients.BridgeProvider{provider}, nil, testSettlement(), 1800, 5*time.Second)

	for _, amount := range []string{"0", "-1", "junk", ""} {
		req := testRequest()
		req.FromAmount = amount

		result, err := svc.GetQuotes(context.Background(), req)
		require.NoError(t, err)
		assert.Nil(t, result.Best)
		assert.Empty(t, result.All)
	}
}

func TestGetQuotesProviderTimeout(t *testing.T) {
	svc := NewQuoteService([]clients.BridgeProvider{
		&fakeProvider{name: "lifi", quote: testQuote("lifi", "990000", 1.0, 120), delay: time.Second},
		&fakeProvider{name: "debridge", quote: testQuote("debridge", "950000", 1.0, 120)},
	}, map[string]int{"lifi": 1, "debridge": 2}, testSettlement(), 1800, 50*time.Millisecond)

	result, err := svc.GetQuotes(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "debridge", result.Best.Provider, "slow provider excluded by timeout")
	assert.Len(t, result.All, 1)
}

func TestProviderByName(t *testing.T) {
	lifi := &fakeProvider{name: "lifi"}
	svc := NewQuoteService([]clients.BridgeProvider{lifi}, nil, testSettlement(), 1800, 5*time.Second)

	p, ok := svc.ProviderByName("lifi")
	assert.True(t, ok)
	assert.Same(t, clients.BridgeProvider(lifi), p)

	_, ok = svc.ProviderByName("unknown")
	assert.False(t, ok)
}
