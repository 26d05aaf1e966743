package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"paybridge/internal/models"
)

// SquidClient queries the Squid Router API.
type SquidClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSquidClient creates a Squid client. The integrator ID is sent as a
// header on every request.
func NewSquidClient(baseURL, apiKey string, timeout time.Duration) *SquidClient {
	if baseURL == "" {
		baseURL = "https://v2.api.squidrouter.com/v2"
	}
	return &SquidClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *SquidClient) Name() string {
	return "squid"
}

type squidRouteRequest struct {
	FromChain   string `json:"fromChain"`
	FromToken   string `json:"fromToken"`
	FromAmount  string `json:"fromAmount"`
	ToChain     string `json:"toChain"`
	ToToken     string `json:"toToken"`
	FromAddress string `json:"fromAddress,omitempty"`
	ToAddress   string `json:"toAddress,omitempty"`
}

type squidRouteResponse struct {
	Route struct {
		Estimate struct {
			ToAmount          string `json:"toAmount"`
			ToAmountMin       string `json:"toAmountMin"`
			EstimatedDuration int    `json:"estimatedRouteDuration"`
			GasCosts          []struct {
				AmountUSD string `json:"amountUsd"`
			} `json:"gasCosts"`
			FeeCosts []struct {
				AmountUSD string `json:"amountUsd"`
			} `json:"feeCosts"`
		} `json:"estimate"`
		TransactionRequest struct {
			Target   string `json:"target"`
			Data     string `json:"data"`
			Value    string `json:"value"`
			GasLimit string `json:"gasLimit"`
		} `json:"transactionRequest"`
		Params struct {
			QuoteID string `json:"quoteId"`
		} `json:"params"`
	} `json:"route"`
}

func (c *SquidClient) fetchRoute(ctx context.Context, req *ProviderQuoteRequest) (*squidRouteResponse, error) {
	body, err := json.Marshal(squidRouteRequest{
		FromChain:   strconv.FormatInt(req.FromChainID, 10),
		FromToken:   req.FromToken,
		FromAmount:  req.FromAmount,
		ToChain:     strconv.FormatInt(req.ToChainID, 10),
		ToToken:     req.ToToken,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal squid request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/route", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create squid request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-integrator-id", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("squid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("squid returned status %d", resp.StatusCode)
	}

	var routeResp squidRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResp); err != nil {
		return nil, fmt.Errorf("failed to decode squid response: %w", err)
	}
	return &routeResp, nil
}

// GetQuote requests a route estimate from Squid.
func (c *SquidClient) GetQuote(ctx context.Context, req *ProviderQuoteRequest) (*models.BridgeQuote, error) {
	routeResp, err := c.fetchRoute(ctx, req)
	if err != nil {
		return nil, err
	}

	est := routeResp.Route.Estimate
	if est.ToAmount == "" {
		return nil, ErrNoRoute
	}

	var gasUSD, feeUSD float64
	for _, g := range est.GasCosts {
		if v, err := strconv.ParseFloat(g.AmountUSD, 64); err == nil {
			gasUSD += v
		}
	}
	for _, f := range est.FeeCosts {
		if v, err := strconv.ParseFloat(f.AmountUSD, 64); err == nil {
			feeUSD += v
		}
	}

	return &models.BridgeQuote{
		Provider:             c.Name(),
		RouteID:              routeResp.Route.Params.QuoteID,
		FromChainID:          req.FromChainID,
		FromToken:            req.FromToken,
		FromAmount:           req.FromAmount,
		UserAddress:          req.FromAddress,
		RecipientAddress:     req.ToAddress,
		ToChainID:            req.ToChainID,
		ToToken:              req.ToToken,
		ToAmount:             est.ToAmount,
		ToAmountMin:          est.ToAmountMin,
		GasUSD:               gasUSD,
		FeeUSD:               feeUSD,
		EstimatedTimeSeconds: est.EstimatedDuration,
		ApprovalAddress:      routeResp.Route.TransactionRequest.Target,
	}, nil
}

// GetTransactionData re-resolves the route with the quoted sender and
// recipient addresses and returns its call payload.
func (c *SquidClient) GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*TransactionData, error) {
	routeResp, err := c.fetchRoute(ctx, &ProviderQuoteRequest{
		FromChainID: quote.FromChainID,
		FromToken:   quote.FromToken,
		FromAmount:  quote.FromAmount,
		ToChainID:   quote.ToChainID,
		ToToken:     quote.ToToken,
		FromAddress: quote.UserAddress,
		ToAddress:   quote.RecipientAddress,
	})
	if err != nil {
		return nil, err
	}

	txReq := routeResp.Route.TransactionRequest
	if txReq.Target == "" {
		return nil, fmt.Errorf("squid route has no transaction request")
	}

	txData := &TransactionData{
		To:    txReq.Target,
		Data:  txReq.Data,
		Value: txReq.Value,
		Approval: &ApprovalRequirement{
			Token:   quote.FromToken,
			Spender: txReq.Target,
			Amount:  quote.FromAmount,
		},
	}
	if txReq.GasLimit != "" {
		if gas, err := strconv.ParseUint(txReq.GasLimit, 10, 64); err == nil {
			txData.GasLimit = gas
		}
	}
	return txData, nil
}
