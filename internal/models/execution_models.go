package models

import "fmt"

// ExecutionState is the tagged state of one bridge execution. Exactly one
// state is active at a time; waiting is the only state that carries a
// transaction hash.
type ExecutionState string

const (
	ExecStateIdle       ExecutionState = "idle"
	ExecStateConnecting ExecutionState = "connecting"
	ExecStateApproving  ExecutionState = "approving"
	ExecStateBridging   ExecutionState = "bridging"
	ExecStateWaiting    ExecutionState = "waiting"
	ExecStateSuccess    ExecutionState = "success"
	ExecStateError      ExecutionState = "error"
)

// Executor error codes, one per failure class in the taxonomy.
const (
	ExecErrQuoteExpired      = "quote_expired"
	ExecErrWalletRejected    = "wallet_rejected"
	ExecErrChainSwitchFailed = "chain_switch_failed"
	ExecErrInsufficientFunds = "insufficient_funds"
	ExecErrProviderFailed    = "provider_failed"
	ExecErrApprovalReverted  = "approval_reverted"
	ExecErrTxReverted        = "tx_reverted"
	ExecErrRPC               = "rpc_error"
)

// ExecutionError is the typed, user-facing error carried by the error
// state. Retryable errors offer "Try Again"; the rest show a terminal
// message.
type ExecutionError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Cause     error  `json:"-"`
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionError builds a typed executor error.
func NewExecutionError(code, message string, retryable bool, cause error) *ExecutionError {
	return &ExecutionError{Code: code, Message: message, Retryable: retryable, Cause: cause}
}

// ExecutionSnapshot is the externally visible view of one execution,
// exposed over the API and the status push channel.
type ExecutionSnapshot struct {
	ID       string          `json:"id"`
	IntentID string          `json:"intent_id,omitempty"`
	State    ExecutionState  `json:"state"`
	TxHash   string          `json:"tx_hash,omitempty"`
	Error    *ExecutionError `json:"error,omitempty"`
}
