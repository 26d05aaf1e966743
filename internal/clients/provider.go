package clients

import (
	"context"
	"errors"

	"paybridge/internal/models"
)

// ErrNoRoute is returned by a provider that cannot serve the requested
// route. The aggregator treats it like any other provider failure.
var ErrNoRoute = errors.New("no route available")

// ProviderQuoteRequest is the normalized request sent to every provider.
// Amounts are decimal strings in smallest units.
type ProviderQuoteRequest struct {
	FromChainID int64
	FromToken   string
	FromAmount  string
	ToChainID   int64
	ToToken     string
	FromAddress string
	ToAddress   string
}

// ApprovalRequirement describes the allowance a provider's router needs
// before the bridge transaction can move ERC-20 funds.
type ApprovalRequirement struct {
	Token   string `json:"token"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// TransactionData is the submittable payload for one quoted route.
type TransactionData struct {
	To       string               `json:"to"`
	Data     string               `json:"data"`
	Value    string               `json:"value"`
	GasLimit uint64               `json:"gas_limit,omitempty"`
	Approval *ApprovalRequirement `json:"approval,omitempty"`
}

// BridgeProvider is one external bridge/swap integration. Implementations
// are injected into the aggregator and executor rather than held as
// process-wide singletons.
type BridgeProvider interface {
	Name() string
	GetQuote(ctx context.Context, req *ProviderQuoteRequest) (*models.BridgeQuote, error)
	GetTransactionData(ctx context.Context, quote *models.BridgeQuote) (*TransactionData, error)
}
