package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/events"
	"paybridge/internal/models"
	"paybridge/internal/utils"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWallet struct {
	mu           sync.Mutex
	address      string
	chainID      int64
	knownChains  map[int64]bool
	rejectSwitch bool
	rejectSend   bool
	addedChains  []int64
	sentTxs      []models.TxRequest
	nextHash     int
}

func newFakeWallet(chainID int64) *fakeWallet {
	return &fakeWallet{
		address:     "0xPayerPayerPayerPayerPayerPayerPayerPa01",
		chainID:     chainID,
		knownChains: map[int64]bool{chainID: true},
	}
}

func (w *fakeWallet) Address() string { return w.address }

func (w *fakeWallet) ChainID(ctx context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID, nil
}

func (w *fakeWallet) SwitchChain(ctx context.Context, chainID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejectSwitch {
		return &models.WalletRPCError{Code: models.WalletErrUserRejected, Message: "User rejected the request"}
	}
	if !w.knownChains[chainID] {
		return &models.WalletRPCError{Code: models.WalletErrUnknownChain, Message: "Unrecognized chain ID"}
	}
	w.chainID = chainID
	return nil
}

func (w *fakeWallet) AddChain(ctx context.Context, params models.AddChainParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.knownChains[params.ChainID] = true
	w.addedChains = append(w.addedChains, params.ChainID)
	w.chainID = params.ChainID
	return nil
}

func (w *fakeWallet) SendTransaction(ctx context.Context, tx models.TxRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejectSend {
		return "", &models.WalletRPCError{Code: models.WalletErrUserRejected, Message: "User rejected the request"}
	}
	w.sentTxs = append(w.sentTxs, tx)
	w.nextHash++
	return fmt.Sprintf("0xtx%02d", w.nextHash), nil
}

func (w *fakeWallet) sentCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sentTxs)
}

type fakeConnector struct {
	wallet *fakeWallet
	reject bool
	calls  int
}

func (c *fakeConnector) Connect(ctx context.Context) (models.WalletProvider, error) {
	c.calls++
	if c.reject {
		return nil, &models.WalletRPCError{Code: models.WalletErrUserRejected, Message: "User rejected the request"}
	}
	return c.wallet, nil
}

type fakeReceipts struct {
	mu       sync.Mutex
	receipts map[string]*types.Receipt
	pending  map[string]int // polls to survive before the receipt appears
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{
		receipts: make(map[string]*types.Receipt),
		pending:  make(map[string]int),
	}
}

func (r *fakeReceipts) confirm(hash string, status uint64, afterPolls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts[hash] = &types.Receipt{Status: status}
	r.pending[hash] = afterPolls
}

func (r *fakeReceipts) TransactionReceipt(ctx context.Context, chainID int64, txHash string) (*types.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[txHash] > 0 {
		r.pending[txHash]--
		return nil, nil
	}
	return r.receipts[txHash], nil
}

type fakeBalances struct {
	balance   *big.Int
	balErr    error
	allowance *big.Int
	allowErr  error
}

func (b *fakeBalances) GetBalance(ctx context.Context, chainID int64, token, account string) (*big.Int, error) {
	return b.balance, b.balErr
}

func (b *fakeBalances) GetAllowance(ctx context.Context, chainID int64, token, owner, spender string) (*big.Int, error) {
	return b.allowance, b.allowErr
}

type singleProviderSource struct {
	provider clients.BridgeProvider
}

func (s *singleProviderSource) ProviderByName(name string) (clients.BridgeProvider, bool) {
	if s.provider != nil && s.provider.Name() == name {
		return s.provider, true
	}
	return nil, false
}

type executorFixture struct {
	executor  *BridgeExecutorService
	wallet    *fakeWallet
	connector *fakeConnector
	receipts  *fakeReceipts
	balances  *fakeBalances
	intents   *fakeIntentRepo
	svc       *PaymentIntentService
}

func newExecutorFixture(t *testing.T, quote *models.BridgeQuote, txData *clients.TransactionData) *executorFixture {
	t.Helper()

	wallet := newFakeWallet(quote.FromChainID)
	connector := &fakeConnector{wallet: wallet}
	receipts := newFakeReceipts()
	balances := &fakeBalances{balance: big.NewInt(2_000_000)}
	intents := newFakeIntentRepo()
	svc := newTestIntentService(intents, newFakeBillRepo(intents))

	provider := &fakeProvider{name: quote.Provider, quote: quote, txData: txData}
	executor := NewBridgeExecutorService(
		connector,
		&singleProviderSource{provider: provider},
		balances,
		receipts,
		svc,
		events.NewPublisher(nil),
		nil,
		5*time.Millisecond,
	)

	return &executorFixture{
		executor:  executor,
		wallet:    wallet,
		connector: connector,
		receipts:  receipts,
		balances:  balances,
		intents:   intents,
		svc:       svc,
	}
}

func plainQuote() *models.BridgeQuote {
	return testQuote("lifi", "990000", 1.0, 120)
}

func plainTxData() *clients.TransactionData {
	return &clients.TransactionData{
		To:       "0xBridgeRouter00000000000000000000000000001",
		Data:     "0xdeadbeef",
		Value:    "1000000",
		GasLimit: 210000,
	}
}

func freshHold(quote *models.BridgeQuote) *models.QuoteHold {
	return models.NewQuoteHold(quote, time.Now(), 30*time.Second, 10*time.Second)
}

func waitForState(t *testing.T, exec *Execution, state models.ExecutionState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return exec.Snapshot().State == state
	}, 2*time.Second, 5*time.Millisecond, "expected state %s, got %s", state, exec.Snapshot().State)
}

func TestExecutorHappyPath(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	intent, err := fx.svc.CreateDepositIntent(context.Background(), "0xA1", 25)
	require.NoError(t, err)

	// The bridge tx gets hash 0xtx01; confirm it after a few polls.
	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 2)

	exec := fx.executor.Begin(intent.ID, freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))

	waitForState(t, exec, models.ExecStateSuccess)

	snapshot := exec.Snapshot()
	assert.Equal(t, "0xtx01", snapshot.TxHash)
	assert.Nil(t, snapshot.Error)
	assert.Equal(t, 1, fx.connector.calls)

	stored, _ := fx.intents.GetByID(context.Background(), intent.ID)
	assert.Equal(t, models.IntentStatusCompleted, stored.Status)
	assert.Equal(t, "0xtx01", stored.DestTxHash)
	assert.Equal(t, fx.wallet.Address(), stored.PayerAddress)
}

func TestExecutorRefusesStaleQuote(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	stale := models.NewQuoteHold(quote, time.Now().Add(-time.Minute), 30*time.Second, 10*time.Second)
	exec := fx.executor.Begin("", stale)

	err := fx.executor.Start(context.Background(), exec.ID)
	assert.ErrorIs(t, err, ErrQuoteExpired)
	assert.Equal(t, models.ExecStateIdle, exec.Snapshot().State)
	assert.Zero(t, fx.wallet.sentCount())
}

func TestExecutorSingleFlight(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	// Receipt never arrives; the execution parks in waiting.
	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateWaiting)
	defer fx.executor.Cancel(exec.ID)

	err := fx.executor.Start(context.Background(), exec.ID)
	assert.ErrorIs(t, err, ErrExecutionInProgress)
	assert.Equal(t, 1, fx.wallet.sentCount(), "second start must not submit again")
}

func TestExecutorInsufficientBalance(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.balances.balance = big.NewInt(1) // confirmed shortfall

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	snapshot := exec.Snapshot()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, models.ExecErrInsufficientFunds, snapshot.Error.Code)
	assert.False(t, snapshot.Error.Retryable)
	assert.Zero(t, fx.wallet.sentCount())

	// Non-retryable errors refuse retry once the attempt fully unwinds.
	require.Eventually(t, func() bool {
		return errors.Is(fx.executor.Start(context.Background(), exec.ID), ErrNotRetryable)
	}, time.Second, 5*time.Millisecond)
}

func TestExecutorProceedsWhenOracleUnavailable(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.balances.balance = nil
	fx.balances.balErr = errors.New("rpc down")

	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateSuccess)
}

func TestExecutorChainSwitchRejectionIsRetryable(t *testing.T) {
	quote := plainQuote()
	quote.FromChainID = 137 // wallet starts on chain 1
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.wallet.chainID = 1
	fx.wallet.knownChains = map[int64]bool{1: true, 137: true}
	fx.wallet.rejectSwitch = true

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	snapshot := exec.Snapshot()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, models.ExecErrChainSwitchFailed, snapshot.Error.Code)
	assert.True(t, snapshot.Error.Retryable)

	// User relents; retry succeeds on the still-valid hold without a
	// second connect prompt.
	fx.wallet.rejectSwitch = false
	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)

	require.Eventually(t, func() bool {
		return fx.executor.Start(context.Background(), exec.ID) == nil
	}, time.Second, 5*time.Millisecond)
	waitForState(t, exec, models.ExecStateSuccess)
	assert.Equal(t, 1, fx.connector.calls)
}

func TestExecutorAddsUnknownChain(t *testing.T) {
	quote := plainQuote()
	quote.FromChainID = 8453 // in the registry, unknown to the wallet
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.wallet.chainID = 1
	fx.wallet.knownChains = map[int64]bool{1: true}

	_, ok := utils.GlobalChainRegistry.Get(8453)
	require.True(t, ok)

	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateSuccess)

	assert.Contains(t, fx.wallet.addedChains, int64(8453))
}

func TestExecutorWalletRejectionOnSend(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.wallet.rejectSend = true

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	snapshot := exec.Snapshot()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, models.ExecErrWalletRejected, snapshot.Error.Code)
	assert.True(t, snapshot.Error.Retryable)
	assert.Empty(t, snapshot.TxHash)
}

func TestExecutorRevertedTransaction(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	intent, err := fx.svc.CreateDepositIntent(context.Background(), "0xA1", 25)
	require.NoError(t, err)

	fx.receipts.confirm("0xtx01", types.ReceiptStatusFailed, 1)

	exec := fx.executor.Begin(intent.ID, freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	snapshot := exec.Snapshot()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, models.ExecErrTxReverted, snapshot.Error.Code)
	assert.False(t, snapshot.Error.Retryable)
	assert.Equal(t, "0xtx01", snapshot.TxHash, "hash survives for the explorer link")

	stored, _ := fx.intents.GetByID(context.Background(), intent.ID)
	assert.NotEqual(t, models.IntentStatusCompleted, stored.Status)
}

func TestExecutorApprovalFlow(t *testing.T) {
	quote := testQuote("lifi", "990000", 1.0, 120) // ERC-20 source token
	txData := plainTxData()
	txData.Approval = &clients.ApprovalRequirement{
		Token:   quote.FromToken,
		Spender: "0xSpenderSpenderSpenderSpenderSpenderSp01",
		Amount:  quote.FromAmount,
	}

	fx := newExecutorFixture(t, quote, txData)
	fx.balances.allowance = big.NewInt(0) // forces the approval leg

	// Approval is 0xtx01, bridge is 0xtx02.
	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 1)
	fx.receipts.confirm("0xtx02", types.ReceiptStatusSuccessful, 1)

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateSuccess)

	require.Equal(t, 2, fx.wallet.sentCount())
	assert.Equal(t, quote.FromToken, fx.wallet.sentTxs[0].To, "approval targets the token contract")
	assert.Equal(t, txData.To, fx.wallet.sentTxs[1].To)
	assert.Equal(t, "0xtx02", exec.Snapshot().TxHash)
}

func TestExecutorSkipsApprovalWhenAllowanceSufficient(t *testing.T) {
	quote := testQuote("lifi", "990000", 1.0, 120)
	txData := plainTxData()
	txData.Approval = &clients.ApprovalRequirement{
		Token:   quote.FromToken,
		Spender: "0xSpenderSpenderSpenderSpenderSpenderSp01",
		Amount:  quote.FromAmount,
	}

	fx := newExecutorFixture(t, quote, txData)
	fx.balances.allowance = big.NewInt(10_000_000)

	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateSuccess)

	assert.Equal(t, 1, fx.wallet.sentCount(), "no approval needed")
}

func TestExecutorApprovalReverted(t *testing.T) {
	quote := testQuote("lifi", "990000", 1.0, 120)
	txData := plainTxData()
	txData.Approval = &clients.ApprovalRequirement{
		Token:   quote.FromToken,
		Spender: "0xSpenderSpenderSpenderSpenderSpenderSp01",
		Amount:  quote.FromAmount,
	}

	fx := newExecutorFixture(t, quote, txData)
	fx.balances.allowance = big.NewInt(0)
	fx.receipts.confirm("0xtx01", types.ReceiptStatusFailed, 0)

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	snapshot := exec.Snapshot()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, models.ExecErrApprovalReverted, snapshot.Error.Code)
	assert.True(t, snapshot.Error.Retryable)
}

func TestExecutorCancelDetachesAfterSubmission(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	intent, err := fx.svc.CreateDepositIntent(context.Background(), "0xA1", 25)
	require.NoError(t, err)

	// No receipt yet: the execution parks in waiting.
	exec := fx.executor.Begin(intent.ID, freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateWaiting)

	// Cancel only detaches; state and hash survive.
	require.NoError(t, fx.executor.Cancel(exec.ID))
	snapshot := exec.Snapshot()
	assert.Equal(t, models.ExecStateWaiting, snapshot.State)
	assert.Equal(t, "0xtx01", snapshot.TxHash)

	// The transaction confirms while detached; resume picks it up once
	// the detached poller has unwound.
	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)
	require.Eventually(t, func() bool {
		return fx.executor.Resume(context.Background(), exec.ID) == nil
	}, time.Second, 5*time.Millisecond)
	waitForState(t, exec, models.ExecStateSuccess)

	stored, _ := fx.intents.GetByID(context.Background(), intent.ID)
	assert.Equal(t, models.IntentStatusCompleted, stored.Status)
}

func TestExecutorCancelBeforeStartAborts(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Cancel(exec.ID))

	_, ok := fx.executor.Get(exec.ID)
	assert.False(t, ok)
	assert.Zero(t, fx.wallet.sentCount())
}

func TestExecutorConnectRejectionIsRetryable(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.connector.reject = true

	exec := fx.executor.Begin("", freshHold(quote))
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	snapshot := exec.Snapshot()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, models.ExecErrWalletRejected, snapshot.Error.Code)
	assert.True(t, snapshot.Error.Retryable)

	// Second attempt prompts again.
	fx.connector.reject = false
	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)
	require.Eventually(t, func() bool {
		return fx.executor.Start(context.Background(), exec.ID) == nil
	}, time.Second, 5*time.Millisecond)
	waitForState(t, exec, models.ExecStateSuccess)
	assert.Equal(t, 2, fx.connector.calls)
}

type fakeSessionControl struct {
	mu      sync.Mutex
	resumed []string
}

func (f *fakeSessionControl) Resume(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = append(f.resumed, sessionID)
}

func (f *fakeSessionControl) resumedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resumed...)
}

func TestExecutorCancelRacingStartIsRejected(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	exec := fx.executor.Begin("", freshHold(quote))

	// The window between Start taking the latch and the goroutine's
	// first transition: state still idle, latch held.
	exec.mu.Lock()
	exec.inFlight = true
	exec.mu.Unlock()

	err := fx.executor.Cancel(exec.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
	_, ok := fx.executor.Get(exec.ID)
	assert.True(t, ok, "latched execution must stay registered")

	// Once the latch is released the same cancel goes through.
	exec.mu.Lock()
	exec.inFlight = false
	exec.mu.Unlock()
	require.NoError(t, fx.executor.Cancel(exec.ID))
	_, ok = fx.executor.Get(exec.ID)
	assert.False(t, ok)
}

func TestExecutorResumesSessionOnSuccess(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	sessions := &fakeSessionControl{}
	fx.executor.SetSessionControl(sessions)

	fx.receipts.confirm("0xtx01", types.ReceiptStatusSuccessful, 0)

	exec := fx.executor.Begin("", freshHold(quote))
	exec.SessionID = "sess-ok"
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateSuccess)

	require.Eventually(t, func() bool {
		return len(sessions.resumedIDs()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"sess-ok"}, sessions.resumedIDs())
}

func TestExecutorResumesSessionOnTerminalError(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.balances.balance = big.NewInt(1) // confirmed shortfall, non-retryable
	sessions := &fakeSessionControl{}
	fx.executor.SetSessionControl(sessions)

	exec := fx.executor.Begin("", freshHold(quote))
	exec.SessionID = "sess-dead"
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	require.Eventually(t, func() bool {
		return len(sessions.resumedIDs()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"sess-dead"}, sessions.resumedIDs())
}

func TestExecutorKeepsSessionPausedOnRetryableError(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	fx.wallet.rejectSend = true
	sessions := &fakeSessionControl{}
	fx.executor.SetSessionControl(sessions)

	exec := fx.executor.Begin("", freshHold(quote))
	exec.SessionID = "sess-retry"
	require.NoError(t, fx.executor.Start(context.Background(), exec.ID))
	waitForState(t, exec, models.ExecStateError)

	// A retryable failure leaves the session paused: the user retries
	// against the same hold instead of re-quoting.
	assert.Empty(t, sessions.resumedIDs())
}

func TestExecutorCancelResumesSession(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())
	sessions := &fakeSessionControl{}
	fx.executor.SetSessionControl(sessions)

	exec := fx.executor.Begin("", freshHold(quote))
	exec.SessionID = "sess-bail"
	require.NoError(t, fx.executor.Cancel(exec.ID))

	assert.Equal(t, []string{"sess-bail"}, sessions.resumedIDs())
}

func TestExecutorResumeDetachedFromHash(t *testing.T) {
	quote := plainQuote()
	fx := newExecutorFixture(t, quote, plainTxData())

	intent, err := fx.svc.CreateDepositIntent(context.Background(), "0xA1", 25)
	require.NoError(t, err)

	fx.receipts.confirm("0xabc", types.ReceiptStatusSuccessful, 1)

	exec, err := fx.executor.ResumeDetached(context.Background(), intent.ID, quote, "0xabc")
	require.NoError(t, err)
	waitForState(t, exec, models.ExecStateSuccess)

	stored, _ := fx.intents.GetByID(context.Background(), intent.ID)
	assert.Equal(t, models.IntentStatusCompleted, stored.Status)
	assert.Equal(t, "0xabc", stored.DestTxHash)
}
