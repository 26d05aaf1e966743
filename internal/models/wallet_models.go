package models

import (
	"context"
	"errors"
	"math/big"
)

// Standard wallet-RPC error codes (EIP-1193 / EIP-3326).
const (
	WalletErrUserRejected = 4001
	WalletErrUnknownChain = 4902
)

// WalletRPCError is a coded error returned by wallet provider calls.
type WalletRPCError struct {
	Code    int
	Message string
}

func (e *WalletRPCError) Error() string {
	return e.Message
}

// IsUserRejection reports whether the user declined a wallet prompt.
func IsUserRejection(err error) bool {
	var rpcErr *WalletRPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == WalletErrUserRejected
}

// IsUnknownChain reports whether a chain switch failed because the wallet
// does not know the chain; the caller should fall back to AddChain.
func IsUnknownChain(err error) bool {
	var rpcErr *WalletRPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == WalletErrUnknownChain
}

// TxRequest is a transaction submitted through a wallet provider.
type TxRequest struct {
	To       string
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}

// AddChainParams carries the chain reference record for wallet_addEthereumChain.
type AddChainParams struct {
	ChainID        int64
	Name           string
	NativeCurrency string
	RPCURLs        []string
	ExplorerURL    string
}

// WalletProvider is the signing handle yielded by the external wallet
// collaborator. Every call may fail with a WalletRPCError.
type WalletProvider interface {
	Address() string
	ChainID(ctx context.Context) (int64, error)
	SwitchChain(ctx context.Context, chainID int64) error
	AddChain(ctx context.Context, params AddChainParams) error
	SendTransaction(ctx context.Context, tx TxRequest) (string, error)
}

// WalletConnector resolves a signing handle, typically by prompting the
// user. Rejection surfaces as a WalletRPCError with code 4001.
type WalletConnector interface {
	Connect(ctx context.Context) (WalletProvider, error)
}
