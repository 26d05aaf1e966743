package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserAddr      = "0xUserUserUserUserUserUserUserUserUserUs01"
	testRecipientAddr = "0xRecvRecvRecvRecvRecvRecvRecvRecvRecvRe02"
)

func testProviderRequest() *ProviderQuoteRequest {
	return &ProviderQuoteRequest{
		FromChainID: 1,
		FromToken:   "0xTokenTokenTokenTokenTokenTokenTokenTok03",
		FromAmount:  "1000000",
		ToChainID:   137,
		ToToken:     "0xUSDCUSDCUSDCUSDCUSDCUSDCUSDCUSDCUSDCUS04",
		FromAddress: testUserAddr,
		ToAddress:   testRecipientAddr,
	}
}

const lifiQuoteBody = `{
	"id": "lifi-route-1",
	"estimate": {
		"toAmount": "990000",
		"toAmountMin": "980000",
		"approvalAddress": "0xApprApprApprApprApprApprApprApprApprAp05",
		"executionDuration": 120,
		"gasCosts": [{"amountUSD": "1.5"}],
		"feeCosts": [{"amountUSD": "0.5"}]
	},
	"transactionRequest": {
		"to": "0xRouterRouterRouterRouterRouterRouterRo06",
		"data": "0xdeadbeef",
		"value": "0x0",
		"gasLimit": "0x33450"
	}
}`

func TestLiFiTransactionDataCarriesQuotedAddresses(t *testing.T) {
	var queries []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(lifiQuoteBody))
	}))
	defer server.Close()

	client := NewLiFiClient(server.URL, 2*time.Second)

	quote, err := client.GetQuote(context.Background(), testProviderRequest())
	require.NoError(t, err)
	assert.Equal(t, "lifi-route-1", quote.RouteID)
	assert.Equal(t, testUserAddr, quote.UserAddress)
	assert.Equal(t, testRecipientAddr, quote.RecipientAddress)

	txData, err := client.GetTransactionData(context.Background(), quote)
	require.NoError(t, err)
	assert.Equal(t, "0xRouterRouterRouterRouterRouterRouterRo06", txData.To)
	assert.Equal(t, uint64(0x33450), txData.GasLimit)

	require.Len(t, queries, 2)
	for _, q := range queries {
		assert.Equal(t, testUserAddr, q.Get("fromAddress"))
		assert.Equal(t, testRecipientAddr, q.Get("toAddress"))
	}
}

const debridgeOrderBody = `{
	"orderId": "dln-order-9",
	"estimation": {
		"dstChainTokenOut": {"amount": "990000", "recommendedAmount": "980000"},
		"costsDetails": [{"amountUsd": 1.2}]
	},
	"tx": {"to": "0xDlnDlnDlnDlnDlnDlnDlnDlnDlnDlnDlnDlnDl07", "data": "0xbeef", "value": "0"},
	"order": {"approximateFulfillmentDelay": 60},
	"allowanceTarget": "0xAllowAllowAllowAllowAllowAllowAllowAll08"
}`

func TestDeBridgeTransactionDataCarriesQuotedAddresses(t *testing.T) {
	var queries []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(debridgeOrderBody))
	}))
	defer server.Close()

	client := NewDeBridgeClient(server.URL, 2*time.Second)

	quote, err := client.GetQuote(context.Background(), testProviderRequest())
	require.NoError(t, err)
	assert.Equal(t, "dln-order-9", quote.RouteID)
	assert.Equal(t, testUserAddr, quote.UserAddress)
	assert.Equal(t, testRecipientAddr, quote.RecipientAddress)

	_, err = client.GetTransactionData(context.Background(), quote)
	require.NoError(t, err)

	require.Len(t, queries, 2)
	for _, q := range queries {
		assert.Equal(t, testRecipientAddr, q.Get("dstChainTokenOutRecipient"))
		assert.Equal(t, testUserAddr, q.Get("srcChainOrderAuthorityAddress"))
	}
}

const squidRouteBody = `{
	"route": {
		"estimate": {
			"toAmount": "990000",
			"toAmountMin": "980000",
			"estimatedRouteDuration": 90,
			"gasCosts": [{"amountUsd": "1.1"}],
			"feeCosts": []
		},
		"transactionRequest": {
			"target": "0xSquidSquidSquidSquidSquidSquidSquidSqu09",
			"data": "0xfeed",
			"value": "0",
			"gasLimit": "250000"
		},
		"params": {"quoteId": "squid-quote-7"}
	}
}`

func TestSquidTransactionDataCarriesQuotedAddresses(t *testing.T) {
	var bodies []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(squidRouteBody))
	}))
	defer server.Close()

	client := NewSquidClient(server.URL, "integrator-id", 2*time.Second)

	quote, err := client.GetQuote(context.Background(), testProviderRequest())
	require.NoError(t, err)
	assert.Equal(t, "squid-quote-7", quote.RouteID)
	assert.Equal(t, testUserAddr, quote.UserAddress)
	assert.Equal(t, testRecipientAddr, quote.RecipientAddress)

	_, err = client.GetTransactionData(context.Background(), quote)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	for _, body := range bodies {
		assert.Equal(t, testUserAddr, body["fromAddress"])
		assert.Equal(t, testRecipientAddr, body["toAddress"])
	}
}

const socketQuoteBody = `{
	"success": true,
	"result": {
		"routes": [{
			"routeId": "socket-route-3",
			"toAmount": "990000",
			"minAmountOut": "980000",
			"totalGasFeesInUsd": 1.3,
			"serviceTime": 100
		}],
		"approvalData": {"allowanceTarget": "0xSockAllowSockAllowSockAllowSockAllowSo10"}
	}
}`

const socketBuildTxBody = `{
	"success": true,
	"result": {
		"txTarget": "0xSockSockSockSockSockSockSockSockSockSo11",
		"txData": "0xaaaa",
		"value": "0"
	}
}`

func TestSocketBuildTxCarriesRouteAndAddresses(t *testing.T) {
	var buildQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/quote":
			w.Write([]byte(socketQuoteBody))
		case "/build-tx":
			buildQuery = r.URL.Query()
			w.Write([]byte(socketBuildTxBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewSocketClient(server.URL, "api-key", 2*time.Second)

	quote, err := client.GetQuote(context.Background(), testProviderRequest())
	require.NoError(t, err)
	assert.Equal(t, "socket-route-3", quote.RouteID)
	assert.Equal(t, testUserAddr, quote.UserAddress)
	assert.Equal(t, testRecipientAddr, quote.RecipientAddress)

	_, err = client.GetTransactionData(context.Background(), quote)
	require.NoError(t, err)

	require.NotNil(t, buildQuery)
	assert.Equal(t, "socket-route-3", buildQuery.Get("routeId"))
	assert.Equal(t, testUserAddr, buildQuery.Get("userAddress"))
	assert.Equal(t, testRecipientAddr, buildQuery.Get("recipient"))
}
