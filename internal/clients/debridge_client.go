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

// DeBridgeClient queries the deBridge Liquidity Network (DLN) API.
type DeBridgeClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDeBridgeClient creates a deBridge client.
func NewDeBridgeClient(baseURL string, timeout time.Duration) *DeBridgeClient {
	if baseURL == "" {
		baseURL = "https://api.dln.trade/v1.0"
	}
	return &DeBridgeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *DeBridgeClient) Name() string {
	return "debridge"
}

// debridgeOrderResponse mirrors the create-tx response fields we consume.
type debridgeOrderResponse struct {
	OrderID    string `json:"orderId"`
	Estimation struct {
		DstChainTokenOut struct {
			Amount    string `json:"amount"`
			MinAmount string `json:"recommendedAmount"`
		} `json:"dstChainTokenOut"`
		Costs []struct {
			PayloadUSD float64 `json:"amountUsd"`
		} `json:"costsDetails"`
	} `json:"estimation"`
	Tx struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
	} `json:"tx"`
	Order struct {
		ApproximateFulfillmentDelay int `json:"approximateFulfillmentDelay"`
	} `json:"order"`
	AllowanceTarget string `json:"allowanceTarget"`
	ErrorMessage    string `json:"errorMessage"`
}

func (c *DeBridgeClient) quoteParams(req *ProviderQuoteRequest) url.Values {
	params := url.Values{}
	params.Set("srcChainId", strconv.FormatInt(req.FromChainID, 10))
	params.Set("srcChainTokenIn", req.FromToken)
	params.Set("srcChainTokenInAmount", req.FromAmount)
	params.Set("dstChainId", strconv.FormatInt(req.ToChainID, 10))
	params.Set("dstChainTokenOut", req.ToToken)
	params.Set("dstChainTokenOutAmount", "auto")
	if req.ToAddress != "" {
		params.Set("dstChainTokenOutRecipient", req.ToAddress)
	}
	if req.FromAddress != "" {
		params.Set("srcChainOrderAuthorityAddress", req.FromAddress)
		params.Set("dstChainOrderAuthorityAddress", req.ToAddress)
	}
	return params
}

func (c *DeBridgeClient) fetchOrder(ctx context.Context, params url.Values) (*debridgeOrderResponse, error) {
	endpoint := fmt.Sprintf("%s/dln/order/create-tx?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create debridge request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("debridge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("debridge returned status %d", resp.StatusCode)
	}

	var orderResp debridgeOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("failed to decode debridge response: %w", err)
	}
	if orderResp.ErrorMessage != "" {
		return nil, fmt.Errorf("debridge error: %s", orderResp.ErrorMessage)
	}
	return &orderResp, nil
}

// GetQuote requests a DLN order estimate.
func (c *DeBridgeClient) GetQuote(ctx context.Context, req *ProviderQuoteRequest) (*models.BridgeQuote, error) {
	orderResp, err := c.fetchOrder(ctx, c.quoteParams(req))
	if err != nil {
		return nil, err
	}

	out := orderResp.Estimation.DstChainTokenOut
	if out.Amount == "" {
		return nil, ErrNoRoute
	}

	var feeUSD float64
	for _, cost := range orderResp.Estimation.Costs {
		feeUSD += cost.PayloadUSD
	}

	return &models.BridgeQuote{
		Provider:             c.Name(),
		RouteID:              orderResp.OrderID,
		FromChainID:          req.FromChainID,
		FromToken:            req.FromToken,
		FromAmount:           req.FromAmount,
		ToChainID:            req.ToChainID,
		ToToken:              req.ToToken,
		UserAddress:          req.FromAddress,
		RecipientAddress:     req.ToAddress,
		ToAmount:             out.Amount,
		ToAmountMin:          out.MinAmount,
		FeeUSD:               feeUSD,
		EstimatedTimeSeconds: orderResp.Order.ApproximateFulfillmentDelay,
		ApprovalAddress:      orderResp.AllowanceTarget,
	}, nil
}

// GetTransactionData re-creates the order transaction for the quoted
// route, with the same authority and recipient addresses the estimate
// was priced for.
func (c *DeBridgeClient) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*TransactionData, error) {
	params := c.quoteParams(&ProviderQuoteRequest{
		FromChainID: quote.FromChainID,
		FromToken:   quote.FromToken,
		FromAmount:  quote.FromAmount,
		ToChainID:   quote.ToChainID,
		ToToken:     quote.ToToken,
		FromAddress: quote.UserAddress,
		ToAddress:   quote.RecipientAddress,
	})

	orderResp, err := c.fetchOrder(ctx, params)
	if err != nil {
		return nil, err
	}
	if orderResp.Tx.To == "" {
		return nil, fmt.Errorf("debridge order has no transaction payload")
	}

	txData := &TransactionData{
		To:    orderResp.Tx.To,
		Data:  orderResp.Tx.Data,
		Value: orderResp.Tx.Value,
	}
	if orderResp.AllowanceTarget != "" {
		txData.Approval = &ApprovalRequirement{
			Token:   quote.FromToken,
			Spender: orderResp.AllowanceTarget,
			Amount:  quote.FromAmount,
		}
	}
	return txData, nil
}
