package models

import (
	"math/big"
	"time"
)

// QuoteRequest asks for conversion of fromAmount of fromToken on
// fromChainID into the canonical settlement token. Amounts are decimal
// strings in the token's smallest unit.
type QuoteRequest struct {
	FromChainID      int64  `json:"from_chain_id" binding:"required"`
	FromToken        string `json:"from_token" binding:"required"`
	FromAmount       string `json:"from_amount" binding:"required"`
	RecipientAddress string `json:"recipient_address" binding:"required"`
	UserAddress      string `json:"user_address"`
}

// AmountWei parses FromAmount; ok is false for malformed or non-positive input.
func (r *QuoteRequest) AmountWei() (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(r.FromAmount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, false
	}
	return amount, true
}

// BridgeQuote is a provider's time-boxed price offer for one route.
// Produced fresh per request and never mutated. UserAddress and
// RecipientAddress are carried so the transaction payload can be
// rebuilt for the exact quoted parties.
type BridgeQuote struct {
	Provider             string  `json:"provider"`
	RouteID              string  `json:"route_id"`
	FromChainID          int64   `json:"from_chain_id"`
	FromToken            string  `json:"from_token"`
	FromAmount           string  `json:"from_amount"`
	UserAddress          string  `json:"user_address,omitempty"`
	RecipientAddress     string  `json:"recipient_address,omitempty"`
	ToChainID            int64   `json:"to_chain_id"`
	ToToken              string  `json:"to_token"`
	ToAmount             string  `json:"to_amount"`
	ToAmountMin          string  `json:"to_amount_min"`
	GasUSD               float64 `json:"gas_usd"`
	FeeUSD               float64 `json:"fee_usd"`
	EstimatedTimeSeconds int     `json:"estimated_time_seconds"`
	ApprovalAddress      string  `json:"approval_address,omitempty"`
}

// ToAmountWei parses the destination amount for ranking. A quote with a
// malformed amount ranks as zero rather than poisoning the comparison.
func (q *BridgeQuote) ToAmountWei() *big.Int {
	amount, ok := new(big.Int).SetString(q.ToAmount, 10)
	if !ok {
		return new(big.Int)
	}
	return amount
}

// QuoteResult is the aggregator's answer: the selected best quote plus
// every quote that survived provider errors.
type QuoteResult struct {
	Best      *BridgeQuote   `json:"best,omitempty"`
	All       []*BridgeQuote `json:"all"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// QuoteHold attaches a validity window to a selected quote. The executor
// refuses to run against an expired hold; the caller must re-quote.
type QuoteHold struct {
	Quote     *BridgeQuote  `json:"quote"`
	FetchedAt time.Time     `json:"fetched_at"`
	Validity  time.Duration `json:"-"`
	Warning   time.Duration `json:"-"`
}

// NewQuoteHold starts the freshness clock for a selected quote.
func NewQuoteHold(quote *BridgeQuote, fetchedAt time.Time, validity, warning time.Duration) *QuoteHold {
	return &QuoteHold{
		Quote:     quote,
		FetchedAt: fetchedAt,
		Validity:  validity,
		Warning:   warning,
	}
}

// SecondsRemainingAt returns whole seconds left in the validity window,
// clamped at zero.
func (h *QuoteHold) SecondsRemainingAt(now time.Time) int {
	remaining := h.FetchedAt.Add(h.Validity).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// SecondsRemaining is SecondsRemainingAt against the wall clock.
func (h *QuoteHold) SecondsRemaining() int {
	return h.SecondsRemainingAt(time.Now())
}

// ExpiredAt reports whether the window has fully elapsed at now.
func (h *QuoteHold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.FetchedAt.Add(h.Validity))
}

// Expired reports whether the hold is stale against the wall clock.
func (h *QuoteHold) Expired() bool {
	return h.ExpiredAt(time.Now())
}

// NearExpiryAt is the advisory countdown threshold for display only.
func (h *QuoteHold) NearExpiryAt(now time.Time) bool {
	if h.ExpiredAt(now) {
		return false
	}
	return h.FetchedAt.Add(h.Validity).Sub(now) <= h.Warning
}

// NearExpiry is NearExpiryAt against the wall clock.
func (h *QuoteHold) NearExpiry() bool {
	return h.NearExpiryAt(time.Now())
}
