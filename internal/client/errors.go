package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrCancelled is returned when the caller's context ends while the client
// is waiting on a transaction. The context error is wrapped alongside it.
var ErrCancelled = errors.New("operation cancelled")

// ErrNoContractAddress is returned when a deployment receipt carries no
// contract address.
var ErrNoContractAddress = errors.New("receipt has no contract address")

// CallError ties a failure to the RPC method that produced it. Err is one of
// the transport errors, a *jsonrpc.Error, a *jsonrpc.MalformedResponseError
// or a wrapped context error.
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// DeploymentTimeoutError is returned when no receipt appeared before the
// receipt timeout. The transaction may still be mined later.
type DeploymentTimeoutError struct {
	TxHash string
	Waited time.Duration
}

func (e *DeploymentTimeoutError) Error() string {
	return fmt.Sprintf("no receipt for transaction %s after %s", e.TxHash, e.Waited.Round(time.Millisecond))
}

// RevertedError is returned when a transaction was mined with a failure
// status.
type RevertedError struct {
	TxHash string
	Reason string
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("transaction %s reverted: %s", e.TxHash, e.Reason)
}
