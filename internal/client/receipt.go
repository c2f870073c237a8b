package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
)

// Receipt statuses.
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

const defaultRevertReason = "transaction reverted"

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	TxHash          string       `json:"transactionHash"`
	BlockHash       string       `json:"blockHash"`
	BlockNumber     uint64       `json:"blockNumber"`
	From            abi.Address  `json:"from"`
	To              *abi.Address `json:"to,omitempty"`
	ContractAddress *abi.Address `json:"contractAddress,omitempty"`
	GasUsed         uint64       `json:"gasUsed"`
	Status          uint64       `json:"status"`
	// RevertReason is reported by some nodes (Besu, Hyperledger-based
	// chains) for failed transactions.
	RevertReason string `json:"revertReason,omitempty"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool { return r.Status == ReceiptStatusSuccessful }

type rpcReceipt struct {
	TransactionHash string  `json:"transactionHash"`
	BlockHash       string  `json:"blockHash"`
	BlockNumber     string  `json:"blockNumber"`
	From            string  `json:"from"`
	To              *string `json:"to"`
	ContractAddress *string `json:"contractAddress"`
	GasUsed         string  `json:"gasUsed"`
	Status          *string `json:"status"`
	RevertReason    string  `json:"revertReason"`
}

func (r *rpcReceipt) parse() (*Receipt, error) {
	out := &Receipt{
		TxHash:       r.TransactionHash,
		BlockHash:    r.BlockHash,
		RevertReason: r.RevertReason,
		// Pre-Byzantium receipts carry no status; they only exist for
		// transactions that did not throw.
		Status: ReceiptStatusSuccessful,
	}
	var err error
	if out.BlockNumber, err = jsonrpc.ParseUint64(r.BlockNumber); err != nil {
		return nil, fmt.Errorf("blockNumber: %w", err)
	}
	if out.GasUsed, err = jsonrpc.ParseUint64(r.GasUsed); err != nil {
		return nil, fmt.Errorf("gasUsed: %w", err)
	}
	if r.Status != nil {
		if out.Status, err = jsonrpc.ParseUint64(*r.Status); err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
	}
	if r.From != "" {
		if out.From, err = abi.ParseAddress(r.From); err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
	}
	if out.To, err = optionalAddress(r.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if out.ContractAddress, err = optionalAddress(r.ContractAddress); err != nil {
		return nil, fmt.Errorf("contractAddress: %w", err)
	}
	return out, nil
}

func optionalAddress(s *string) (*abi.Address, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	a, err := abi.ParseAddress(*s)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// TransactionReceipt fetches the receipt for hash. It returns (nil, nil)
// while the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	const method = "eth_getTransactionReceipt"
	var raw *rpcReceipt
	if err := c.Call(ctx, method, &raw, hash); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	r, err := raw.parse()
	if err != nil {
		return nil, &CallError{Method: method, Err: &jsonrpc.MalformedResponseError{Reason: "bad receipt", Err: err}}
	}
	return r, nil
}

// WaitForReceipt polls for the receipt of hash every PollInterval until it
// appears or ReceiptTimeout elapses. A failed poll is logged and retried
// within the deadline.
//
// It returns *DeploymentTimeoutError when the deadline passes, ErrCancelled
// when ctx ends first, and *RevertedError (together with the receipt) when
// the transaction was mined but failed.
func (c *Client) WaitForReceipt(ctx context.Context, hash string) (*Receipt, error) {
	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	log := c.log.With(zap.String("tx", hash))
	log.Debug("waiting for receipt", zap.Duration("timeout", c.cfg.ReceiptTimeout))

	for attempt := 1; ; attempt++ {
		r, err := c.TransactionReceipt(waitCtx, hash)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, cancelled(ctx)
			}
			c.metrics.ObserveReceiptPoll("error")
			log.Warn("receipt poll failed", zap.Int("attempt", attempt), zap.Error(err))
		case r == nil:
			c.metrics.ObserveReceiptPoll("pending")
			log.Debug("transaction pending", zap.Int("attempt", attempt))
		default:
			c.metrics.ObserveReceiptPoll("found")
			if !r.Succeeded() {
				reason := c.revertReason(ctx, r)
				log.Debug("transaction reverted", zap.Uint64("block", r.BlockNumber), zap.String("reason", reason))
				return r, &RevertedError{TxHash: hash, Reason: reason}
			}
			log.Debug("transaction confirmed", zap.Uint64("block", r.BlockNumber), zap.Uint64("gasUsed", r.GasUsed))
			return r, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, cancelled(ctx)
			}
			log.Debug("receipt wait timed out", zap.Int("attempts", attempt))
			return nil, &DeploymentTimeoutError{TxHash: hash, Waited: time.Since(start)}
		case <-ticker.C:
		}
	}
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}

// revertReason explains a failed receipt: the node's revertReason field when
// present, otherwise the error from replaying the transaction with eth_call
// at its block.
func (c *Client) revertReason(ctx context.Context, r *Receipt) string {
	if r.RevertReason != "" {
		if data, err := jsonrpc.DecodeBytes(r.RevertReason); err == nil {
			if reason, ok := abi.UnpackRevert(data); ok {
				return reason
			}
		}
		return r.RevertReason
	}
	if reason := c.replayRevert(ctx, r); reason != "" {
		return reason
	}
	return defaultRevertReason
}

type rpcTransaction struct {
	Gas   string `json:"gas"`
	Value string `json:"value"`
	Input string `json:"input"`
}

func (c *Client) replayRevert(ctx context.Context, r *Receipt) string {
	var tx *rpcTransaction
	if err := c.Call(ctx, "eth_getTransactionByHash", &tx, r.TxHash); err != nil || tx == nil {
		return ""
	}
	req := &TxRequest{From: r.From, To: r.To}
	req.Gas, _ = jsonrpc.ParseUint64(tx.Gas)
	req.Value, _ = jsonrpc.ParseQuantity(tx.Value)
	req.Data, _ = jsonrpc.DecodeBytes(tx.Input)

	_, err := c.CallContractAt(ctx, req, new(big.Int).SetUint64(r.BlockNumber))
	return revertFromCallError(err)
}

// revertFromCallError pulls a reason out of a failed eth_call: the
// ABI-encoded payload in the error data, or the node's message.
func revertFromCallError(err error) string {
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) {
		return ""
	}
	if data, derr := jsonrpc.DecodeBytes(rpcErr.DataString()); derr == nil {
		if reason, ok := abi.UnpackRevert(data); ok {
			return reason
		}
	}
	msg := strings.TrimPrefix(rpcErr.Message, "execution reverted: ")
	if msg == "execution reverted" {
		return ""
	}
	return msg
}
