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

// LiFiClient queries the LI.FI aggregation API.
type LiFiClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLiFiClient creates a LI.FI client.
func NewLiFiClient(baseURL string, timeout time.Duration) *LiFiClient {
	if baseURL == "" {
		baseURL = "https://li.quest/v1"
	}
	return &LiFiClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *LiFiClient) Name() string {
	return "lifi"
}

// lifiQuoteResponse mirrors the fields of GET /quote we consume.
type lifiQuoteResponse struct {
	ID       string `json:"id"`
	Estimate struct {
		ToAmount          string `json:"toAmount"`
		ToAmountMin       string `json:"toAmountMin"`
		ApprovalAddress   string `json:"approvalAddress"`
		ExecutionDuration int    `json:"executionDuration"`
		GasCosts          []struct {
			AmountUSD string `json:"amountUSD"`
		} `json:"gasCosts"`
		FeeCosts []struct {
			AmountUSD string `json:"amountUSD"`
		} `json:"feeCosts"`
	} `json:"estimate"`
	TransactionRequest struct {
		To       string `json:"to"`
		Data     string `json:"data"`
		Value    string `json:"value"`
		GasLimit string `json:"gasLimit"`
	} `json:"transactionRequest"`
}

func (c *LiFiClient) quoteParams(req *ProviderQuoteRequest) url.Values {
	params := url.Values{}
	params.Set("fromChain", strconv.FormatInt(req.FromChainID, 10))
	params.Set("toChain", strconv.FormatInt(req.ToChainID, 10))
	params.Set("fromToken", req.FromToken)
	params.Set("toToken", req.ToToken)
	params.Set("fromAmount", req.FromAmount)
	params.Set("fromAddress", req.FromAddress)
	params.Set("toAddress", req.ToAddress)
	return params
}

func (c *LiFiClient) fetchQuote(ctx context.Context, params url.Values) (*lifiQuoteResponse, error) {
	endpoint := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifi request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("lifi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lifi returned status %d", resp.StatusCode)
	}

	var quoteResp lifiQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, fmt.Errorf("failed to decode lifi response: %w", err)
	}
	return &quoteResp, nil
}

// GetQuote requests a route from LI.FI.
func (c *LiFiClient) GetQuote(ctx context.Context, req *ProviderQuoteRequest) (*models.BridgeQuote, error) {
	quoteResp, err := c.fetchQuote(ctx, c.quoteParams(req))
	if err != nil {
		return nil, err
	}

	if quoteResp.Estimate.ToAmount == "" {
		return nil, ErrNoRoute
	}

	gasUSD := sumAmountsUSD(quoteResp.Estimate.GasCosts)
	feeUSD := sumAmountsUSD(quoteResp.Estimate.FeeCosts)

	return &models.BridgeQuote{
		Provider:             c.Name(),
		RouteID:              quoteResp.ID,
		FromChainID:          req.FromChainID,
		FromToken:            req.FromToken,
		FromAmount:           req.FromAmount,
		UserAddress:          req.FromAddress,
		RecipientAddress:     req.ToAddress,
		ToChainID:            req.ToChainID,
		ToToken:              req.ToToken,
		ToAmount:             quoteResp.Estimate.ToAmount,
		ToAmountMin:          quoteResp.Estimate.ToAmountMin,
		GasUSD:               gasUSD,
		FeeUSD:               feeUSD,
		EstimatedTimeSeconds: quoteResp.Estimate.ExecutionDuration,
		ApprovalAddress:      quoteResp.Estimate.ApprovalAddress,
	}, nil
}

// GetTransactionData re-requests the quote and returns its transaction
// payload. LI.FI embeds the payload in the quote response, so the route
// is re-resolved with the exact quoted parameters, the sender and
// recipient addresses included.
func (c *LiFiClient) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*TransactionData, error) {
	params := c.quoteParams(&ProviderQuoteRequest{
		FromChainID: quote.FromChainID,
		FromToken:   quote.FromToken,
		FromAmount:  quote.FromAmount,
		ToChainID:   quote.ToChainID,
		ToToken:     quote.ToToken,
		FromAddress: quote.UserAddress,
		ToAddress:   quote.RecipientAddress,
	})

	quoteResp, err := c.fetchQuote(ctx, params)
	if err != nil {
		return nil, err
	}

	if quoteResp.TransactionRequest.To == "" {
		return nil, fmt.Errorf("lifi quote has no transaction request")
	}

	txData := &TransactionData{
		To:    quoteResp.TransactionRequest.To,
		Data:  quoteResp.TransactionRequest.Data,
		Value: quoteResp.TransactionRequest.Value,
	}
	if quoteResp.TransactionRequest.GasLimit != "" {
		if gas, err := strconv.ParseUint(trimHexPrefix(quoteResp.TransactionRequest.GasLimit), 16, 64); err == nil {
			txData.GasLimit = gas
		}
	}
	if quoteResp.Estimate.ApprovalAddress != "" {
		txData.Approval = &ApprovalRequirement{
			Token:   quote.FromToken,
			Spender: quoteResp.Estimate.ApprovalAddress,
			Amount:  quote.FromAmount,
		}
	}
	return txData, nil
}

func sumAmountsUSD(costs []struct {
	AmountUSD string `json:"amountUSD"`
}) float64 {
	var total float64
	for _, c := range costs {
		if v, err := strconv.ParseFloat(c.AmountUSD, 64); err == nil {
			total += v
		}
	}
	return total
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
