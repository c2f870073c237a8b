package client

import (
	"context"
	"math/big"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
)

// blockArg renders a block number parameter; nil means "latest".
func blockArg(n *big.Int) string {
	if n == nil {
		return "latest"
	}
	return jsonrpc.EncodeQuantity(n)
}

func (c *Client) callQuantity(ctx context.Context, method string, params ...any) (*big.Int, error) {
	var hex string
	if err := c.Call(ctx, method, &hex, params...); err != nil {
		return nil, err
	}
	n, err := jsonrpc.ParseQuantity(hex)
	if err != nil {
		return nil, &CallError{Method: method, Err: &jsonrpc.MalformedResponseError{Reason: "bad quantity", Err: err}}
	}
	return n, nil
}

func (c *Client) callUint64(ctx context.Context, method string, params ...any) (uint64, error) {
	n, err := c.callQuantity(ctx, method, params...)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, &CallError{Method: method, Err: &jsonrpc.MalformedResponseError{Reason: "quantity " + n.String() + " overflows uint64"}}
	}
	return n.Uint64(), nil
}

func (c *Client) callData(ctx context.Context, method string, params ...any) ([]byte, error) {
	var hex string
	if err := c.Call(ctx, method, &hex, params...); err != nil {
		return nil, err
	}
	b, err := jsonrpc.DecodeBytes(hex)
	if err != nil {
		return nil, &CallError{Method: method, Err: &jsonrpc.MalformedResponseError{Reason: "bad data", Err: err}}
	}
	return b, nil
}

// ClientVersion returns the node's software identifier.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	var v string
	if err := c.Call(ctx, "web3_clientVersion", &v); err != nil {
		return "", err
	}
	return v, nil
}

// ChainID returns the EIP-155 chain id.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_chainId")
}

// BlockNumber returns the height of the latest block.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, "eth_blockNumber")
}

// GasPrice returns the node's suggested legacy gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_gasPrice")
}

// BalanceAt returns the wei balance of addr at block (nil for latest).
func (c *Client) BalanceAt(ctx context.Context, addr abi.Address, block *big.Int) (*big.Int, error) {
	return c.callQuantity(ctx, "eth_getBalance", addr.Hex(), blockArg(block))
}

// NonceAt returns the next nonce for addr, counting pending transactions.
func (c *Client) NonceAt(ctx context.Context, addr abi.Address) (uint64, error) {
	return c.callUint64(ctx, "eth_getTransactionCount", addr.Hex(), "pending")
}

// EstimateGas asks the node how much gas tx would use.
func (c *Client) EstimateGas(ctx context.Context, tx *TxRequest) (uint64, error) {
	return c.callUint64(ctx, "eth_estimateGas", tx.arg())
}

// CallContract executes a read-only call against the latest state and
// returns the raw return data.
func (c *Client) CallContract(ctx context.Context, tx *TxRequest) ([]byte, error) {
	return c.CallContractAt(ctx, tx, nil)
}

// CallContractAt is CallContract against the state at block.
func (c *Client) CallContractAt(ctx context.Context, tx *TxRequest, block *big.Int) ([]byte, error) {
	return c.callData(ctx, "eth_call", tx.arg(), blockArg(block))
}

// SendTransaction submits tx for the node to sign with one of its own
// accounts and returns the transaction hash.
func (c *Client) SendTransaction(ctx context.Context, tx *TxRequest) (string, error) {
	var hash string
	if err := c.Call(ctx, "eth_sendTransaction", &hash, tx.arg()); err != nil {
		return "", err
	}
	return hash, nil
}

// SendRawTransaction submits an already signed transaction.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	var hash string
	if err := c.Call(ctx, "eth_sendRawTransaction", &hash, jsonrpc.EncodeBytes(raw)); err != nil {
		return "", err
	}
	return hash, nil
}
