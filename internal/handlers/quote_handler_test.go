package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/config"
	"paybridge/internal/models"
	"paybridge/internal/services"
	"paybridge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	quote *models.BridgeQuote
}

func (p *stubProvider) Name() string { return "lifi" }

func (p *stubProvider) GetQuote(ctx context.Context, req *clients.ProviderQuoteRequest) (*models.BridgeQuote, error) {
	q := *p.quote
	q.UserAddress = req.FromAddress
	q.RecipientAddress = req.ToAddress
	return &q, nil
}

func (p *stubProvider) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*clients.TransactionData, error) {
	return nil, errors.New("not used in quote aggregation")
}

type stubChainReader struct {
	native *big.Int
}

func (r *stubChainReader) NativeBalance(ctx context.Context, chainID int64, account string) (*big.Int, error) {
	return r.native, nil
}

func (r *stubChainReader) CallContract(ctx context.Context, chainID int64, to string, data []byte) ([]byte, error) {
	return nil, errors.New("no contract calls expected")
}

func newQuoteTestRouter(native *big.Int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	provider := &stubProvider{quote: &models.BridgeQuote{
		Provider:             "lifi",
		RouteID:              "route-1",
		FromChainID:          1,
		FromToken:            utils.NativeTokenAddress,
		FromAmount:           "1000000",
		ToChainID:            42161,
		ToToken:              "0xUSDCUSDCUSDCUSDCUSDCUSDCUSDCUSDCUSDCUS01",
		ToAmount:             "990000",
		ToAmountMin:          "980000",
		EstimatedTimeSeconds: 120,
	}}
	quotes := services.NewQuoteService(
		[]clients.BridgeProvider{provider},
		map[string]int{"lifi": 1},
		config.SettlementConfig{ChainID: 42161, TokenAddress: "0xUSDCUSDCUSDCUSDCUSDCUSDCUSDCUSDCUSDCUS01"},
		1800,
		time.Second,
	)
	balances := services.NewBalanceService(&stubChainReader{native: native})

	router := gin.New()
	handler := NewQuoteHandler(quotes, nil, balances)
	router.POST("/quotes", handler.GetQuotesHandler)
	return router
}

func postQuotes(t *testing.T, router *gin.Engine, req models.QuoteRequest) map[string]interface{} {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/quotes", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, httpReq)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	return resp
}

func TestGetQuotesHandlerFlagsInsufficientBalance(t *testing.T) {
	router := newQuoteTestRouter(big.NewInt(1)) // far below the requested amount

	resp := postQuotes(t, router, models.QuoteRequest{
		FromChainID:      1,
		FromToken:        utils.NativeTokenAddress,
		FromAmount:       "1000000",
		RecipientAddress: "0xRecvRecvRecvRecvRecvRecvRecvRecvRecvRe02",
		UserAddress:      "0xUserUserUserUserUserUserUserUserUserUs03",
	})

	require.Contains(t, resp, "balance_sufficient")
	assert.Equal(t, false, resp["balance_sufficient"])
	assert.NotNil(t, resp["data"], "shortfall is advisory, quotes still returned")
}

func TestGetQuotesHandlerReportsSufficientBalance(t *testing.T) {
	router := newQuoteTestRouter(big.NewInt(5_000_000))

	resp := postQuotes(t, router, models.QuoteRequest{
		FromChainID:      1,
		FromToken:        utils.NativeTokenAddress,
		FromAmount:       "1000000",
		RecipientAddress: "0xRecvRecvRecvRecvRecvRecvRecvRecvRecvRe02",
		UserAddress:      "0xUserUserUserUserUserUserUserUserUserUs03",
	})

	assert.Equal(t, true, resp["balance_sufficient"])
}

func TestGetQuotesHandlerSkipsAdvisoryWithoutUserAddress(t *testing.T) {
	router := newQuoteTestRouter(big.NewInt(1))

	resp := postQuotes(t, router, models.QuoteRequest{
		FromChainID:      1,
		FromToken:        utils.NativeTokenAddress,
		FromAmount:       "1000000",
		RecipientAddress: "0xRecvRecvRecvRecvRecvRecvRecvRecvRecvRe02",
	})

	assert.NotContains(t, resp, "balance_sufficient")
}
