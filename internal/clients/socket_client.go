package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"paybridge/internal/models"
)

// SocketClient queries the Socket (Bungee) aggregation API.
type SocketClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSocketClient creates a Socket client.
func NewSocketClient(baseURL, apiKey string, timeout time.Duration) *SocketClient {
	if baseURL == "" {
		baseURL = "https://api.socket.tech/v2"
	}
	return &SocketClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *SocketClient) Name() string {
	return "socket"
}

type socketQuoteResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Routes []struct {
			RouteID      string  `json:"routeId"`
			ToAmount     string  `json:"toAmount"`
			MinAmountOut string  `json:"minAmountOut"`
			TotalGasFees float64 `json:"totalGasFeesInUsd"`
			ServiceTime  int     `json:"serviceTime"`
		} `json:"routes"`
		ApprovalData *struct {
			ApprovalTokenAddress string `json:"approvalTokenAddress"`
			AllowanceTarget      string `json:"allowanceTarget"`
			MinimumApprovalAmt   string `json:"minimumApprovalAmount"`
		} `json:"approvalData"`
	} `json:"result"`
}

type socketBuildTxResponse struct {
	Success bool `json:"success"`
	Result  struct {
		TxTarget string `json:"txTarget"`
		TxData   string `json:"txData"`
		Value    string `json:"value"`
	} `json:"result"`
}

func (c *SocketClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create socket request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("socket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("socket returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode socket response: %w", err)
	}
	return nil
}

// GetQuote requests routes from Socket and returns the provider's top one.
func (c *SocketClient) GetQuote(ctx context.Context, req *ProviderQuoteRequest) (*models.BridgeQuote, error) {
	params := url.Values{}
	params.Set("fromChainId", strconv.FormatInt(req.FromChainID, 10))
	params.Set("fromTokenAddress", req.FromToken)
	params.Set("fromAmount", req.FromAmount)
	params.Set("toChainId", strconv.FormatInt(req.ToChainID, 10))
	params.Set("toTokenAddress", req.ToToken)
	params.Set("userAddress", req.FromAddress)
	params.Set("recipient", req.ToAddress)
	params.Set("sort", "output")
	params.Set("singleTxOnly", "true")

	var quoteResp socketQuoteResponse
	if err := c.get(ctx, "/quote", params, &quoteResp); err != nil {
		return nil, err
	}
	if !quoteResp.Success || len(quoteResp.Result.Routes) == 0 {
		return nil, ErrNoRoute
	}

	route := quoteResp.Result.Routes[0]
	quote := &models.BridgeQuote{
		Provider:             c.Name(),
		RouteID:              route.RouteID,
		FromChainID:          req.FromChainID,
		FromToken:            req.FromToken,
		FromAmount:           req.FromAmount,
		UserAddress:          req.FromAddress,
		RecipientAddress:     req.ToAddress,
		ToChainID:            req.ToChainID,
		ToToken:              req.ToToken,
		ToAmount:             route.ToAmount,
		ToAmountMin:          route.MinAmountOut,
		GasUSD:               route.TotalGasFees,
		EstimatedTimeSeconds: route.ServiceTime,
	}
	if approval := quoteResp.Result.ApprovalData; approval != nil {
		quote.ApprovalAddress = approval.AllowanceTarget
	}
	return quote, nil
}

// GetTransactionData builds the submittable transaction for a quoted route.
func (c *SocketClient) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*TransactionData, error) {
	params := url.Values{}
	params.Set("routeId", quote.RouteID)
	params.Set("userAddress", quote.UserAddress)
	params.Set("recipient", quote.RecipientAddress)

	var buildResp socketBuildTxResponse
	if err := c.get(ctx, "/build-tx", params, &buildResp); err != nil {
		return nil, err
	}
	if !buildResp.Success || buildResp.Result.TxTarget == "" {
		return nil, fmt.Errorf("socket build-tx failed for route %s", quote.RouteID)
	}

	txData := &TransactionData{
		To:    buildResp.Result.TxTarget,
		Data:  buildResp.Result.TxData,
		Value: buildResp.Result.Value,
	}
	if quote.ApprovalAddress != "" {
		txData.Approval = &ApprovalRequirement{
			Token:   quote.FromToken,
			Spender: quote.ApprovalAddress,
			Amount:  quote.FromAmount,
		}
	}
	return txData, nil
}
