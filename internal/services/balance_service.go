package services

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"paybridge/internal/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid erc20 ABI: %v", err))
	}
}

// ChainReader is the read surface of the chain client pool the oracle
// needs; narrowed to an interface so tests can inject doubles.
type ChainReader interface {
	NativeBalance(ctx context.Context, chainID int64, account string) (*big.Int, error)
	CallContract(ctx context.Context, chainID int64, to string, data []byte) ([]byte, error)
}

// BalanceService reads wallet balances and allowances. Failures are
// advisory: callers get a nil balance and decide for themselves whether
// to block.
type BalanceService struct {
	chains ChainReader
}

// NewBalanceService creates the balance oracle.
func NewBalanceService(chains ChainReader) *BalanceService {
	return &BalanceService{chains: chains}
}

// GetBalance returns the account's balance of token on chainID. The
// native sentinel address routes to an account balance query; anything
// else is an ERC-20 balanceOf call.
func (s *BalanceService) GetBalance(ctx context.Context, chainID int64, token, account string) (*big.Int, error) {
	if utils.IsNativeToken(token) {
		balance, err := s.chains.NativeBalance(ctx, chainID, account)
		if err != nil {
			return nil, fmt.Errorf("native balance query failed on chain %d: %w", chainID, err)
		}
		return balance, nil
	}

	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(account))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	out, err := s.chains.CallContract(ctx, chainID, token, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed on chain %d: %w", chainID, err)
	}

	results, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil || len(results) == 0 {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance, nil
}

// GetAllowance reads the spender's current allowance on an ERC-20 token.
func (s *BalanceService) GetAllowance(ctx context.Context, chainID int64, token, owner, spender string) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance: %w", err)
	}

	out, err := s.chains.CallContract(ctx, chainID, token, data)
	if err != nil {
		return nil, fmt.Errorf("allowance call failed on chain %d: %w", chainID, err)
	}

	results, err := erc20ABI.Unpack("allowance", out)
	if err != nil || len(results) == 0 {
		return nil, fmt.Errorf("failed to unpack allowance result: %w", err)
	}

	allowance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result type %T", results[0])
	}
	return allowance, nil
}

// PackApprove builds approve(spender, amount) calldata for an ERC-20.
func PackApprove(spender string, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve: %w", err)
	}
	return data, nil
}

// CheckSufficient is the advisory balance check used by the quote flow.
// An oracle failure logs and reports sufficient, because the advisory
// check must never block user interaction.
func (s *BalanceService) CheckSufficient(ctx context.Context, chainID int64, token, account string, amount *big.Int) bool {
	balance, err := s.GetBalance(ctx, chainID, token, account)
	if err != nil {
		log.Printf("⚠️ Balance oracle unavailable (advisory): %v", err)
		return true
	}
	return balance.Cmp(amount) >= 0
}
