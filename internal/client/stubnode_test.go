package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
)

// handlerFunc answers one JSON-RPC method. Returning a non-nil *jsonrpc.Error
// sends an error object instead of a result.
type handlerFunc func(params []json.RawMessage) (any, *jsonrpc.Error)

// stubNode is a minimal JSON-RPC node over HTTP. Unknown methods get
// -32601.
type stubNode struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]handlerFunc
	calls    map[string]int
	params   map[string][]json.RawMessage
	ids      []uint64
}

func newStubNode(t *testing.T) *stubNode {
	t.Helper()
	n := &stubNode{
		t:        t,
		handlers: make(map[string]handlerFunc),
		calls:    make(map[string]int),
		params:   make(map[string][]json.RawMessage),
	}
	n.srv = httptest.NewServer(n)
	t.Cleanup(n.srv.Close)
	return n
}

func (n *stubNode) handle(method string, h handlerFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// result registers a handler that always returns v.
func (n *stubNode) result(method string, v any) {
	n.handle(method, func([]json.RawMessage) (any, *jsonrpc.Error) { return v, nil })
}

func (n *stubNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// lastParam decodes parameter i of the most recent call to method into v.
func (n *stubNode) lastParam(method string, i int, v any) {
	n.t.Helper()
	n.mu.Lock()
	params := n.params[method]
	n.mu.Unlock()
	require.Greater(n.t, len(params), i, "%s was not called with %d params", method, i+1)
	require.NoError(n.t, json.Unmarshal(params[i], v))
}

func (n *stubNode) seenIDs() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64(nil), n.ids...)
}

// client returns a Client with fast polling, adjusted by opts.
func (n *stubNode) client(opts ...func(*Config)) *Client {
	cfg := Config{
		Endpoint:       n.srv.URL,
		Timeout:        2 * time.Second,
		PollInterval:   10 * time.Millisecond,
		ReceiptTimeout: 2 * time.Second,
	}
	for _, o := range opts {
		o(&cfg)
	}
	c, err := New(cfg)
	require.NoError(n.t, err)
	n.t.Cleanup(func() { _ = c.Close() })
	return c
}

func (n *stubNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	n.params[req.Method] = req.Params
	n.ids = append(n.ids, req.ID)
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	reply := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		reply["error"] = &jsonrpc.Error{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
	} else if res, rpcErr := h(req.Params); rpcErr != nil {
		reply["error"] = rpcErr
	} else {
		reply["result"] = res
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

// callData extracts the "data" field of an eth_call style transaction
// object, or "" when there is none.
func callData(params []json.RawMessage) string {
	if len(params) == 0 {
		return ""
	}
	var tx map[string]string
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return ""
	}
	return tx["data"]
}

func receiptJSON(hash string, status string, contract any) map[string]any {
	return map[string]any{
		"transactionHash": hash,
		"blockHash":       "0x" + repeatHex("ab", 32),
		"blockNumber":     "0x10",
		"from":            "0x00000000000000000000000000000000000000f0",
		"to":              nil,
		"contractAddress": contract,
		"gasUsed":         "0x5208",
		"status":          status,
	}
}

func repeatHex(b string, n int) string {
	out := make([]byte, 0, len(b)*n)
	for i := 0; i < n; i++ {
		out = append(out, b...)
	}
	return string(out)
}
