package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// PriceClient resolves USD spot prices so callers can translate a
// participant's USD share into source-token units.
type PriceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPriceClient creates a CoinGecko-backed price client. An empty
// baseURL uses the public API.
func NewPriceClient(baseURL string) *PriceClient {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &PriceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetTokenPriceUSD returns the USD spot price for a token symbol.
func (c *PriceClient) GetTokenPriceUSD(ctx context.Context, symbol string) (float64, error) {
	tokenID := coingeckoTokenID(symbol)
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, tokenID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API error (status %d)", resp.StatusCode)
	}

	var priceResp map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if price, ok := priceResp[tokenID]["usd"]; ok {
		return price, nil
	}
	return 0, fmt.Errorf("price not found for %s", symbol)
}

func coingeckoTokenID(symbol string) string {
	symbolMap := map[string]string{
		"ETH":   "ethereum",
		"WETH":  "weth",
		"BNB":   "binancecoin",
		"MATIC": "matic-network",
		"POL":   "matic-network",
		"AVAX":  "avalanche-2",
		"USDC":  "usd-coin",
		"USDT":  "tether",
		"DAI":   "dai",
	}
	if id, ok := symbolMap[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}
