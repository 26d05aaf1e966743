package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/events"
	"paybridge/internal/metrics"
	"paybridge/internal/models"
	"paybridge/internal/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

var (
	// ErrQuoteExpired rejects execution against a stale hold; the caller
	// must re-run the aggregator.
	ErrQuoteExpired = errors.New("quote expired, re-quote required")
	// ErrExecutionInProgress guards the single-flight latch.
	ErrExecutionInProgress = errors.New("execution already in progress")
	// ErrNotRetryable is returned when retry is requested on a terminal
	// failure.
	ErrNotRetryable = errors.New("execution error is not retryable")
	// ErrNotCancellable is returned for cancellation attempts past the
	// point of no return.
	ErrNotCancellable = errors.New("execution can no longer be cancelled")
)

// ReceiptReader fetches transaction receipts; nil receipt means not yet
// mined.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, chainID int64, txHash string) (*types.Receipt, error)
}

// BalanceOracle is the executor's view of the balance service.
type BalanceOracle interface {
	GetBalance(ctx context.Context, chainID int64, token, account string) (*big.Int, error)
	GetAllowance(ctx context.Context, chainID int64, token, owner, spender string) (*big.Int, error)
}

// ProviderSource resolves the provider integration behind a quote.
type ProviderSource interface {
	ProviderByName(name string) (clients.BridgeProvider, bool)
}

// IntentLedger is the slice of the payment intent service the executor
// writes to on submission and confirmation.
type IntentLedger interface {
	MarkProcessing(ctx context.Context, id string, payerAddress string, sourceChainID int64, sourceToken, sourceTxHash, provider string) (*models.PaymentIntent, error)
	CompleteIntent(ctx context.Context, id string, proof *CompletionProof) (*models.PaymentIntent, error)
}

// ExecutionNotifier receives state snapshots for UI push; may be nil.
type ExecutionNotifier interface {
	NotifyExecution(snapshot models.ExecutionSnapshot)
}

// SessionControl resumes a quote session's auto-refresh once its
// execution reaches a terminal outcome; may be nil.
type SessionControl interface {
	Resume(sessionID string)
}

// Execution is one live bridge attempt. Exactly one state is active at
// a time; TxHash is only set from bridging onward. SessionID ties the
// execution back to the quote session whose refresh it paused.
type Execution struct {
	ID        string
	IntentID  string
	SessionID string
	Hold      *models.QuoteHold

	mu       sync.Mutex
	state    models.ExecutionState
	wallet   models.WalletProvider
	txHash   string
	execErr  *models.ExecutionError
	inFlight bool
	detach   context.CancelFunc
	started  time.Time
}

// Snapshot returns the externally visible view of the execution.
func (e *Execution) Snapshot() models.ExecutionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.ExecutionSnapshot{
		ID:       e.ID,
		IntentID: e.IntentID,
		State:    e.state,
		TxHash:   e.txHash,
		Error:    e.execErr,
	}
}

// BridgeExecutorService drives bridge executions through the
// connecting → approving → bridging → waiting → success state machine.
type BridgeExecutorService struct {
	connector models.WalletConnector
	providers ProviderSource
	balances  BalanceOracle
	receipts  ReceiptReader
	intents   IntentLedger
	telemetry *events.Publisher
	notifier  ExecutionNotifier
	sessions  SessionControl

	pollInterval time.Duration

	mu         sync.RWMutex
	executions map[string]*Execution
}

// NewBridgeExecutorService wires the executor. notifier may be nil.
func NewBridgeExecutorService(
	connector models.WalletConnector,
	providers ProviderSource,
	balances BalanceOracle,
	receipts ReceiptReader,
	intents IntentLedger,
	telemetry *events.Publisher,
	notifier ExecutionNotifier,
	pollInterval time.Duration,
) *BridgeExecutorService {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &BridgeExecutorService{
		connector:    connector,
		providers:    providers,
		balances:     balances,
		receipts:     receipts,
		intents:      intents,
		telemetry:    telemetry,
		notifier:     notifier,
		pollInterval: pollInterval,
		executions:   make(map[string]*Execution),
	}
}

// SetSessionControl attaches the quote session manager so terminal
// executions resume its auto-refresh. Setter wiring breaks the
// construction cycle between executor and session service.
func (s *BridgeExecutorService) SetSessionControl(sessions SessionControl) {
	s.sessions = sessions
}

// Begin registers a new idle execution for a held quote.
func (s *BridgeExecutorService) Begin(intentID string, hold *models.QuoteHold) *Execution {
	exec := &Execution{
		ID:       uuid.NewString(),
		IntentID: intentID,
		Hold:     hold,
		state:    models.ExecStateIdle,
	}
	s.mu.Lock()
	s.executions[exec.ID] = exec
	s.mu.Unlock()
	return exec
}

// Get returns a registered execution.
func (s *BridgeExecutorService) Get(execID string) (*Execution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.executions[execID]
	return exec, ok
}

// Start runs the execution from idle, or retries from error. The
// single-flight latch rejects overlapping starts so rapid repeated
// confirmation can never submit two bridge transactions for one quote.
// Execution against an expired hold is refused up front.
func (s *BridgeExecutorService) Start(ctx context.Context, execID string) error {
	exec, ok := s.Get(execID)
	if !ok {
		return fmt.Errorf("unknown execution: %s", execID)
	}

	exec.mu.Lock()
	if exec.inFlight {
		exec.mu.Unlock()
		return ErrExecutionInProgress
	}
	switch exec.state {
	case models.ExecStateIdle:
	case models.ExecStateError:
		if exec.execErr != nil && !exec.execErr.Retryable {
			exec.mu.Unlock()
			return ErrNotRetryable
		}
	default:
		exec.mu.Unlock()
		return ErrExecutionInProgress
	}
	if exec.Hold == nil || exec.Hold.Expired() {
		exec.mu.Unlock()
		return ErrQuoteExpired
	}
	exec.inFlight = true
	exec.execErr = nil
	exec.started = time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	exec.detach = cancel
	exec.mu.Unlock()

	metrics.ExecutionsStarted.Inc()
	go s.run(runCtx, exec)
	return nil
}

// Cancel aborts an execution. Before a transaction hash exists the
// abort is complete and side-effect free; once a hash exists only the
// polling is detached, never the on-chain operation.
func (s *BridgeExecutorService) Cancel(execID string) error {
	exec, ok := s.Get(execID)
	if !ok {
		return fmt.Errorf("unknown execution: %s", execID)
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()

	switch exec.state {
	case models.ExecStateIdle, models.ExecStateError:
		// A start may be racing ahead of its first transition; the
		// latch decides, not the visible state.
		if exec.inFlight {
			return ErrNotCancellable
		}
		s.mu.Lock()
		delete(s.executions, execID)
		s.mu.Unlock()
		s.resumeSession(exec)
		return nil
	case models.ExecStateWaiting:
		// Detach the observer; the transaction and its stored hash
		// remain reconcilable via Resume.
		if exec.detach != nil {
			exec.detach()
		}
		return nil
	default:
		return ErrNotCancellable
	}
}

// Resume re-attaches receipt polling to an execution that was detached
// while waiting.
func (s *BridgeExecutorService) Resume(ctx context.Context, execID string) error {
	exec, ok := s.Get(execID)
	if !ok {
		return fmt.Errorf("unknown execution: %s", execID)
	}

	exec.mu.Lock()
	if exec.state != models.ExecStateWaiting || exec.txHash == "" {
		exec.mu.Unlock()
		return fmt.Errorf("execution %s is not awaiting a receipt", execID)
	}
	if exec.inFlight {
		exec.mu.Unlock()
		return ErrExecutionInProgress
	}
	exec.inFlight = true
	runCtx, cancel := context.WithCancel(ctx)
	exec.detach = cancel
	hash := exec.txHash
	chainID := exec.Hold.Quote.FromChainID
	exec.mu.Unlock()

	go func() {
		defer s.release(exec)
		s.awaitBridgeReceipt(runCtx, exec, chainID, hash)
	}()
	return nil
}

// ResumeDetached rebuilds an execution in the waiting state from a
// persisted hash, so a transfer can be re-observed after the original
// session is gone.
func (s *BridgeExecutorService) ResumeDetached(ctx context.Context, intentID string, quote *models.BridgeQuote, txHash string) (*Execution, error) {
	if txHash == "" {
		return nil, fmt.Errorf("transaction hash required to resume")
	}
	exec := &Execution{
		ID:       uuid.NewString(),
		IntentID: intentID,
		Hold:     &models.QuoteHold{Quote: quote, FetchedAt: time.Now(), Validity: time.Hour},
		state:    models.ExecStateWaiting,
		txHash:   txHash,
	}
	s.mu.Lock()
	s.executions[exec.ID] = exec
	s.mu.Unlock()

	if err := s.Resume(ctx, exec.ID); err != nil {
		return nil, err
	}
	return exec, nil
}

func (s *BridgeExecutorService) release(exec *Execution) {
	exec.mu.Lock()
	exec.inFlight = false
	exec.mu.Unlock()
}

func (s *BridgeExecutorService) transition(exec *Execution, state models.ExecutionState) {
	exec.mu.Lock()
	exec.state = state
	exec.mu.Unlock()
	s.notify(exec)
}

func (s *BridgeExecutorService) notify(exec *Execution) {
	if s.notifier != nil {
		s.notifier.NotifyExecution(exec.Snapshot())
	}
}

// resumeSession restarts the paused quote session once the execution
// can no longer submit anything. Retryable errors keep the session
// paused: the user is expected to retry, not re-quote.
func (s *BridgeExecutorService) resumeSession(exec *Execution) {
	if s.sessions != nil && exec.SessionID != "" {
		s.sessions.Resume(exec.SessionID)
	}
}

// fail parks the execution in the error state with a typed error.
func (s *BridgeExecutorService) fail(exec *Execution, code, message string, retryable bool, cause error) {
	execErr := models.NewExecutionError(code, message, retryable, cause)

	exec.mu.Lock()
	exec.state = models.ExecStateError
	exec.execErr = execErr
	exec.mu.Unlock()

	log.Printf("❌ Execution %s failed: %v (retryable=%v)", exec.ID, execErr, retryable)
	metrics.ExecutionsByOutcome.WithLabelValues("error").Inc()
	s.telemetry.PublishExecutionEvent(events.ExecutionEvent{
		ExecutionID: exec.ID,
		IntentID:    exec.IntentID,
		Event:       events.ExecEventError,
		State:       string(models.ExecStateError),
		Provider:    exec.Hold.Quote.Provider,
		ErrorCode:   code,
	})
	s.notify(exec)
	if !retryable {
		s.resumeSession(exec)
	}
}

// run drives one attempt through the machine. A retry re-enters here:
// the connect step is skipped when a wallet is already attached.
func (s *BridgeExecutorService) run(ctx context.Context, exec *Execution) {
	defer s.release(exec)

	quote := exec.Hold.Quote
	s.transition(exec, models.ExecStateConnecting)
	s.telemetry.PublishExecutionEvent(events.ExecutionEvent{
		ExecutionID: exec.ID,
		IntentID:    exec.IntentID,
		Event:       events.ExecEventAttempt,
		State:       string(models.ExecStateConnecting),
		Provider:    quote.Provider,
	})

	// Attach a signing handle if none is held.
	exec.mu.Lock()
	wallet := exec.wallet
	exec.mu.Unlock()
	if wallet == nil {
		s.telemetry.PublishExecutionEvent(events.ExecutionEvent{
			ExecutionID: exec.ID,
			IntentID:    exec.IntentID,
			Event:       events.ExecEventWalletRequired,
			State:       string(models.ExecStateConnecting),
		})
		connected, err := s.connector.Connect(ctx)
		if err != nil {
			s.fail(exec, models.ExecErrWalletRejected, "wallet connection rejected", true, err)
			return
		}
		wallet = connected
		exec.mu.Lock()
		exec.wallet = wallet
		exec.mu.Unlock()
	}

	// Fetch the submittable payload for the exact selected route.
	provider, ok := s.providers.ProviderByName(quote.Provider)
	if !ok {
		s.fail(exec, models.ExecErrProviderFailed, fmt.Sprintf("provider %s not configured", quote.Provider), true, nil)
		return
	}
	txData, err := provider.GetTransactionData(ctx, quote)
	if err != nil {
		s.fail(exec, models.ExecErrProviderFailed, "failed to fetch transaction data", true, err)
		return
	}

	// Hard balance precondition. A confirmed shortfall aborts; an
	// unreachable oracle does not block, per the advisory contract.
	amount, ok := new(big.Int).SetString(quote.FromAmount, 10)
	if !ok {
		s.fail(exec, models.ExecErrProviderFailed, "malformed quote amount", false, nil)
		return
	}
	if balance, err := s.balances.GetBalance(ctx, quote.FromChainID, quote.FromToken, wallet.Address()); err == nil && balance != nil {
		if balance.Cmp(amount) < 0 {
			s.fail(exec, models.ExecErrInsufficientFunds, "insufficient balance for selected amount", false, nil)
			return
		}
	} else if err != nil {
		log.Printf("⚠️ Balance oracle unavailable at submission, proceeding: %v", err)
	}

	// The wallet must be on the quote's source chain before anything is
	// signed; unknown chains are added from the registry record.
	if err := s.ensureChain(ctx, wallet, quote.FromChainID); err != nil {
		s.fail(exec, models.ExecErrChainSwitchFailed, "chain switch rejected", true, err)
		return
	}

	// Conditional approval.
	if txData.Approval != nil && !utils.IsNativeToken(quote.FromToken) {
		needsApproval := true
		if allowance, err := s.balances.GetAllowance(ctx, quote.FromChainID, quote.FromToken, wallet.Address(), txData.Approval.Spender); err == nil && allowance != nil {
			needsApproval = allowance.Cmp(amount) < 0
		}
		if needsApproval {
			if err := s.approve(ctx, exec, wallet, quote, txData.Approval.Spender, amount); err != nil {
				return // approve already parked the error state
			}
		}
	}

	// Submit the bridge transaction.
	s.transition(exec, models.ExecStateBridging)
	txReq, err := buildTxRequest(txData)
	if err != nil {
		s.fail(exec, models.ExecErrProviderFailed, "malformed transaction data", true, err)
		return
	}
	hash, err := wallet.SendTransaction(ctx, txReq)
	if err != nil {
		if models.IsUserRejection(err) {
			s.fail(exec, models.ExecErrWalletRejected, "transaction rejected in wallet", true, err)
		} else {
			s.fail(exec, models.ExecErrRPC, "transaction submission failed", true, err)
		}
		return
	}

	exec.mu.Lock()
	exec.txHash = hash
	exec.mu.Unlock()

	s.telemetry.PublishExecutionEvent(events.ExecutionEvent{
		ExecutionID: exec.ID,
		IntentID:    exec.IntentID,
		Event:       events.ExecEventSubmitted,
		State:       string(models.ExecStateBridging),
		Provider:    quote.Provider,
		TxHash:      hash,
	})

	if exec.IntentID != "" {
		if _, err := s.intents.MarkProcessing(ctx, exec.IntentID, wallet.Address(), quote.FromChainID, quote.FromToken, hash, quote.Provider); err != nil {
			log.Printf("⚠️ Failed to mark intent %s processing: %v", exec.IntentID, err)
		}
	}

	// Await confirmation.
	s.transition(exec, models.ExecStateWaiting)
	s.awaitBridgeReceipt(ctx, exec, quote.FromChainID, hash)
}

// ensureChain switches the wallet to chainID, falling back to add-chain
// when the wallet reports the chain unknown.
func (s *BridgeExecutorService) ensureChain(ctx context.Context, wallet models.WalletProvider, chainID int64) error {
	current, err := wallet.ChainID(ctx)
	if err == nil && current == chainID {
		return nil
	}

	if err := wallet.SwitchChain(ctx, chainID); err != nil {
		if !models.IsUnknownChain(err) {
			return err
		}
		params, ok := ChainParamsFromRegistry(chainID)
		if !ok {
			return fmt.Errorf("chain %d not in registry: %w", chainID, err)
		}
		if err := wallet.AddChain(ctx, params); err != nil {
			return err
		}
	}
	return nil
}

// approve runs the allowance transaction and waits for its receipt.
// On failure the execution is parked in error and a non-nil error
// returned to stop the caller.
func (s *BridgeExecutorService) approve(ctx context.Context, exec *Execution, wallet models.WalletProvider, quote *models.BridgeQuote, spender string, amount *big.Int) error {
	s.transition(exec, models.ExecStateApproving)

	data, err := PackApprove(spender, amount)
	if err != nil {
		s.fail(exec, models.ExecErrApprovalReverted, "failed to build approval", true, err)
		return err
	}

	hash, err := wallet.SendTransaction(ctx, models.TxRequest{
		To:    quote.FromToken,
		Data:  data,
		Value: new(big.Int),
	})
	if err != nil {
		if models.IsUserRejection(err) {
			s.fail(exec, models.ExecErrWalletRejected, "approval rejected in wallet", true, err)
		} else {
			s.fail(exec, models.ExecErrRPC, "approval submission failed", true, err)
		}
		return err
	}

	receipt, err := s.pollReceipt(ctx, quote.FromChainID, hash)
	if err != nil {
		// Detached mid-approval; surface as a retryable error.
		s.fail(exec, models.ExecErrRPC, "approval confirmation interrupted", true, err)
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.fail(exec, models.ExecErrApprovalReverted, "approval transaction reverted", true, nil)
		return fmt.Errorf("approval reverted")
	}
	return nil
}

// awaitBridgeReceipt polls for the bridge receipt and finalizes the
// execution. Context cancellation detaches the observer and leaves the
// execution in waiting with its hash intact.
func (s *BridgeExecutorService) awaitBridgeReceipt(ctx context.Context, exec *Execution, chainID int64, hash string) {
	receipt, err := s.pollReceipt(ctx, chainID, hash)
	if err != nil {
		log.Printf("📡 Receipt polling detached for execution %s (tx %s)", exec.ID, hash)
		return
	}

	quote := exec.Hold.Quote
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.ExecutionsByOutcome.WithLabelValues("reverted").Inc()
		s.fail(exec, models.ExecErrTxReverted, "bridge transaction reverted", false, nil)
		return
	}

	if exec.IntentID != "" {
		exec.mu.Lock()
		payer := ""
		if exec.wallet != nil {
			payer = exec.wallet.Address()
		}
		exec.mu.Unlock()

		if _, err := s.intents.CompleteIntent(ctx, exec.IntentID, &CompletionProof{
			PayerAddress:   payer,
			DestTxHash:     hash,
			SourceChainID:  quote.FromChainID,
			SourceToken:    quote.FromToken,
			SourceTxHash:   hash,
			BridgeProvider: quote.Provider,
		}); err != nil {
			log.Printf("⚠️ Failed to complete intent %s: %v", exec.IntentID, err)
		}
	}

	s.transition(exec, models.ExecStateSuccess)
	metrics.ExecutionsByOutcome.WithLabelValues("success").Inc()
	if !exec.started.IsZero() {
		metrics.ExecutionDuration.Observe(time.Since(exec.started).Seconds())
	}
	s.telemetry.PublishExecutionEvent(events.ExecutionEvent{
		ExecutionID: exec.ID,
		IntentID:    exec.IntentID,
		Event:       events.ExecEventSuccess,
		State:       string(models.ExecStateSuccess),
		Provider:    quote.Provider,
		TxHash:      hash,
	})
	log.Printf("🎉 Execution %s confirmed: tx=%s", exec.ID, hash)
	s.resumeSession(exec)
}

// pollReceipt polls on a fixed interval with no timeout; only context
// cancellation stops it. RPC errors are logged and retried.
func (s *BridgeExecutorService) pollReceipt(ctx context.Context, chainID int64, hash string) (*types.Receipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.receipts.TransactionReceipt(ctx, chainID, hash)
		if err != nil {
			log.Printf("⚠️ Receipt query failed for %s: %v", hash, err)
		} else if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// buildTxRequest converts provider transaction data into a wallet call.
func buildTxRequest(txData *clients.TransactionData) (models.TxRequest, error) {
	var data []byte
	if txData.Data != "" {
		decoded, err := hexutil.Decode(ensureHexPrefix(txData.Data))
		if err != nil {
			return models.TxRequest{}, fmt.Errorf("invalid calldata: %w", err)
		}
		data = decoded
	}

	value := new(big.Int)
	if txData.Value != "" {
		var ok bool
		if strings.HasPrefix(txData.Value, "0x") || strings.HasPrefix(txData.Value, "0X") {
			value, ok = new(big.Int).SetString(txData.Value[2:], 16)
		} else {
			value, ok = new(big.Int).SetString(txData.Value, 10)
		}
		if !ok {
			return models.TxRequest{}, fmt.Errorf("invalid value: %s", txData.Value)
		}
	}

	return models.TxRequest{
		To:       txData.To,
		Data:     data,
		Value:    value,
		GasLimit: txData.GasLimit,
	}, nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
