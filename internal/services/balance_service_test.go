package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"paybridge/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChainReader struct {
	nativeBalance *big.Int
	nativeErr     error
	callResult    []byte
	callErr       error

	lastCallTo   string
	lastCallData []byte
}

func (r *fakeChainReader) NativeBalance(ctx context.Context, chainID int64, account string) (*big.Int, error) {
	return r.nativeBalance, r.nativeErr
}

func (r *fakeChainReader) CallContract(ctx context.Context, chainID int64, to string, data []byte) ([]byte, error) {
	r.lastCallTo = to
	r.lastCallData = data
	return r.callResult, r.callErr
}

func packUint256(t *testing.T, method string, value *big.Int) []byte {
	t.Helper()
	out, err := erc20ABI.Methods[method].Outputs.Pack(value)
	require.NoError(t, err)
	return out
}

func TestGetBalanceNativeToken(t *testing.T) {
	reader := &fakeChainReader{nativeBalance: big.NewInt(42)}
	svc := NewBalanceService(reader)

	balance, err := svc.GetBalance(context.Background(), 1, utils.NativeTokenAddress, "0xA1")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), balance)
	assert.Nil(t, reader.lastCallData, "native query must not hit the contract path")
}

func TestGetBalanceERC20(t *testing.T) {
	token := "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	reader := &fakeChainReader{callResult: packUint256(t, "balanceOf", big.NewInt(1_000_000))}
	svc := NewBalanceService(reader)

	balance, err := svc.GetBalance(context.Background(), 8453, token, "0xA1")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), balance)
	assert.Equal(t, token, reader.lastCallTo)
	require.NotEmpty(t, reader.lastCallData)
}

func TestGetBalanceRPCFailure(t *testing.T) {
	svc := NewBalanceService(&fakeChainReader{callErr: errors.New("rpc down")})

	_, err := svc.GetBalance(context.Background(), 1, "0xToken", "0xA1")
	assert.Error(t, err)
}

func TestGetAllowance(t *testing.T) {
	reader := &fakeChainReader{callResult: packUint256(t, "allowance", big.NewInt(500))}
	svc := NewBalanceService(reader)

	allowance, err := svc.GetAllowance(context.Background(), 1, "0xToken", "0xOwner", "0xSpender")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), allowance)
}

func TestCheckSufficientAdvisory(t *testing.T) {
	// Confirmed balance below the amount: insufficient.
	svc := NewBalanceService(&fakeChainReader{nativeBalance: big.NewInt(10)})
	assert.False(t, svc.CheckSufficient(context.Background(), 1, utils.NativeTokenAddress, "0xA1", big.NewInt(11)))
	assert.True(t, svc.CheckSufficient(context.Background(), 1, utils.NativeTokenAddress, "0xA1", big.NewInt(10)))

	// Oracle failure never blocks.
	svc = NewBalanceService(&fakeChainReader{nativeErr: errors.New("rpc down")})
	assert.True(t, svc.CheckSufficient(context.Background(), 1, utils.NativeTokenAddress, "0xA1", big.NewInt(1)))
}

func TestPackApprove(t *testing.T) {
	data, err := PackApprove("0xSpender", big.NewInt(123))
	require.NoError(t, err)
	// 4-byte selector plus two 32-byte words.
	assert.Len(t, data, 68)
}
