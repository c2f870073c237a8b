// Package jsonrpc implements the JSON-RPC 2.0 envelope used to talk to
// Ethereum-style nodes: request encoding, response decoding and the
// hex-quantity helpers every eth_* method relies on.
//
// Ethereum's JSON-RPC returns every numeric value as a hex string ("0x1a2b").
// Quantities that can exceed 64 bits (balances, gas prices, token amounts)
// are always decoded into *big.Int, never into floats.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only JSON-RPC protocol version spoken by this package.
const Version = "2.0"

// Request is a single JSON-RPC 2.0 call.
//
//	{"jsonrpc":"2.0","id":7,"method":"eth_call","params":[{...},"latest"]}
//
// Params is always an array; nodes reject a missing params field for some
// methods, so nil is encoded as [].
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// Response is a decoded JSON-RPC 2.0 reply. Exactly one of Result and Error
// is set; Decode enforces this.
//
// Result keeps the raw JSON so the caller, who knows the method, picks the
// target type. A "result": null (a receipt for a pending transaction, for
// example) is kept as the literal null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsNull reports whether the response carried "result": null.
func (r *Response) IsNull() bool {
	return r.Error == nil && string(r.Result) == "null"
}

// Error is an error object reported by the node.
//
// Standard codes from the JSON-RPC 2.0 specification:
//
//	-32700  Parse error
//	-32600  Invalid request
//	-32601  Method not found
//	-32602  Invalid params
//	-32603  Internal error
//
// Ethereum nodes use -32000 for most execution and submission failures
// ("insufficient funds", "nonce too low") and 3 for "execution reverted",
// in which case Data holds the ABI-encoded revert payload.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s (data: %s)", e.Code, e.Message, string(e.Data))
}

// DataString returns Data when it is a JSON string (the usual form of a
// revert payload), or "" otherwise.
func (e *Error) DataString() string {
	var s string
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return ""
	}
	return s
}

// MalformedResponseError is returned when a node reply is not a valid
// JSON-RPC 2.0 response: invalid JSON, a missing id, or a result/error pair
// that is not exactly one of the two.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
