// Package client is a JSON-RPC client for Ethereum-style nodes.
//
// A Client issues typed calls (web3_clientVersion, eth_call,
// eth_sendTransaction, ...), waits for transaction receipts, and deploys or
// loads contracts described by an ABI. Every call is synchronous from the
// caller's point of view and a Client is safe for concurrent use.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
	"github.com/dmagro/eth-rpc-client/internal/metrics"
	"github.com/dmagro/eth-rpc-client/internal/transport"
)

// Client talks to one node endpoint.
type Client struct {
	cfg     Config
	t       transport.Transport
	log     *zap.Logger
	metrics *metrics.Collector

	// nextID hands out request ids; the first request gets 1.
	nextID atomic.Uint64
}

// New builds a Client for cfg.Endpoint, picking the HTTP or WebSocket
// transport from the URL scheme. No connection is made until the first call.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	t, err := transport.New(cfg.Endpoint, transport.Options{
		Timeout:         cfg.Timeout,
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
		Logger:          cfg.Logger,
		OnRateLimitWait: cfg.Metrics.ObserveRateLimitWait,
	})
	if err != nil {
		return nil, err
	}
	return NewWithTransport(cfg, t), nil
}

// NewWithTransport builds a Client over an existing transport.
func NewWithTransport(cfg Config, t transport.Transport) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		t:       t,
		log:     cfg.Logger.With(zap.String("endpoint", cfg.Endpoint)),
		metrics: cfg.Metrics,
	}
}

// Endpoint returns the node URL the client was configured with.
func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// Close releases the underlying transport.
func (c *Client) Close() error { return c.t.Close() }

// Call invokes method with params and decodes the JSON result into result,
// which may be nil to discard it. A JSON null result leaves result untouched.
//
// Errors are always *CallError; unwrap it to reach the transport, codec or
// node error underneath.
func (c *Client) Call(ctx context.Context, method string, result any, params ...any) error {
	id := c.nextID.Inc()
	body, err := jsonrpc.Encode(id, method, params)
	if err != nil {
		return &CallError{Method: method, Err: err}
	}

	start := time.Now()
	raw, err := c.t.Send(ctx, body)
	if err != nil {
		return c.fail(method, id, start, err)
	}

	resp, err := jsonrpc.Decode(raw)
	if err != nil {
		return c.fail(method, id, start, err)
	}
	if resp.ID != id {
		return c.fail(method, id, start, &jsonrpc.MalformedResponseError{
			Reason: fmt.Sprintf("response id %d does not match request id %d", resp.ID, id),
		})
	}
	if result != nil && !resp.IsNull() {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return c.fail(method, id, start, &jsonrpc.MalformedResponseError{Reason: "unexpected result shape", Err: err})
		}
	}

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, metrics.OutcomeOK, elapsed)
	c.log.Debug("rpc call",
		zap.String("method", method),
		zap.Uint64("id", id),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (c *Client) fail(method string, id uint64, start time.Time, err error) error {
	elapsed := time.Since(start)
	outcome := outcomeOf(err)
	c.metrics.ObserveRequest(method, outcome, elapsed)
	c.log.Debug("rpc call failed",
		zap.String("method", method),
		zap.Uint64("id", id),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
		zap.Error(err))
	return &CallError{Method: method, Err: err}
}

func outcomeOf(err error) string {
	var (
		timeoutErr   *transport.TimeoutError
		statusErr    *transport.HTTPStatusError
		rpcErr       *jsonrpc.Error
		malformedErr *jsonrpc.MalformedResponseError
	)
	switch {
	case errors.As(err, &rpcErr):
		return metrics.OutcomeRPCError
	case errors.As(err, &malformedErr):
		return metrics.OutcomeMalformed
	case errors.As(err, &timeoutErr):
		return metrics.OutcomeTimeout
	case errors.As(err, &statusErr):
		return metrics.OutcomeHTTPStatus
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCancelled
	}
	return metrics.OutcomeNetwork
}
