package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
	"github.com/dmagro/eth-rpc-client/internal/metrics"
	"github.com/dmagro/eth-rpc-client/internal/transport"
)

func TestClientVersion(t *testing.T) {
	node := newStubNode(t)
	node.result("web3_clientVersion", "TestNode/1.0")

	v, err := node.client().ClientVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TestNode/1.0", v)
	assert.Equal(t, []uint64{1}, node.seenIDs())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultReceiptTimeout, cfg.ReceiptTimeout)
	assert.NotNil(t, cfg.Logger)

	_, err := New(Config{Endpoint: "ftp://node"})
	assert.Error(t, err)
}

func TestRPCErrorSurfaced(t *testing.T) {
	node := newStubNode(t)
	node.handle("eth_sendTransaction", func([]json.RawMessage) (any, *jsonrpc.Error) {
		return nil, &jsonrpc.Error{Code: -32000, Message: "insufficient funds"}
	})

	to := abi.MustParseAddress("0x00000000000000000000000000000000000000aa")
	_, err := node.client().SendTransaction(context.Background(), &TxRequest{To: &to})

	var callErr *CallError
	require.True(t, errors.As(err, &callErr), "got %v", err)
	assert.Equal(t, "eth_sendTransaction", callErr.Method)

	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Equal(t, "insufficient funds", rpcErr.Message)
}

func TestUnknownMethod(t *testing.T) {
	node := newStubNode(t)
	err := node.client().Call(context.Background(), "eth_nope", nil)

	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestConcurrentCallsUseDistinctIDs(t *testing.T) {
	node := newStubNode(t)
	node.result("web3_clientVersion", "TestNode/1.0")
	c := node.client()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ClientVersion(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ids := node.seenIDs()
	require.Len(t, ids, n)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, uint64(i+1), id)
	}
}

func TestResponseIDMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":999,"result":"TestNode/1.0"}`))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = c.ClientVersion(context.Background())

	var malformed *jsonrpc.MalformedResponseError
	require.True(t, errors.As(err, &malformed), "got %v", err)
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>bad gateway</html>`},
		{"both result and error", `{"jsonrpc":"2.0","id":1,"result":"x","error":{"code":1,"message":"y"}}`},
		{"neither", `{"jsonrpc":"2.0","id":1}`},
		{"missing id", `{"jsonrpc":"2.0","result":"x"}`},
		{"wrong result shape", `{"jsonrpc":"2.0","id":1,"result":{"version":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{Endpoint: srv.URL})
			require.NoError(t, err)
			_, err = c.ClientVersion(context.Background())

			var malformed *jsonrpc.MalformedResponseError
			require.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestQuantityMethods(t *testing.T) {
	node := newStubNode(t)
	node.result("eth_chainId", "0x539")
	node.result("eth_blockNumber", "0x10d4f")
	node.result("eth_gasPrice", "0x3b9aca00")
	node.result("eth_getTransactionCount", "0x7")
	node.result("eth_estimateGas", "0x5208")
	node.handle("eth_getBalance", func(params []json.RawMessage) (any, *jsonrpc.Error) {
		var addr, block string
		_ = json.Unmarshal(params[0], &addr)
		_ = json.Unmarshal(params[1], &block)
		if addr != "0xd323bfc8ed0d0e8fa923dc00df30848bd6721fb2" || block != "latest" {
			return nil, &jsonrpc.Error{Code: -32602, Message: "invalid params"}
		}
		// 2^200 wei: beyond uint64 and float64 precision.
		return "0x100000000000000000000000000000000000000000000000000", nil
	})

	c := node.client()
	ctx := context.Background()

	chainID, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1337", chainID.String())

	height, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(68943), height)

	price, err := c.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", price.String())

	holder := abi.MustParseAddress("0xD323BFC8ED0D0E8FA923DC00DF30848BD6721FB2")
	nonce, err := c.NonceAt(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	gas, err := c.EstimateGas(ctx, &TxRequest{From: holder})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)

	balance, err := c.BalanceAt(ctx, holder, nil)
	require.NoError(t, err)
	assert.Equal(t, 201, balance.BitLen())
}

func TestBadQuantity(t *testing.T) {
	node := newStubNode(t)
	node.result("eth_blockNumber", "0xnothex")

	_, err := node.client().BlockNumber(context.Background())
	var malformed *jsonrpc.MalformedResponseError
	require.True(t, errors.As(err, &malformed), "got %v", err)
}

func TestTransportErrorsAreWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = c.ClientVersion(context.Background())

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "web3_clientVersion", callErr.Method)
	var statusErr *transport.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)

	srv.Close()
	_, err = c.ClientVersion(context.Background())
	var netErr *transport.NetworkError
	assert.True(t, errors.As(err, &netErr), "got %v", err)
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	node := newStubNode(t)
	node.result("web3_clientVersion", "TestNode/1.0")
	c := node.client(func(cfg *Config) { cfg.Metrics = m })

	_, err = c.ClientVersion(context.Background())
	require.NoError(t, err)
	_, err = c.ChainID(context.Background())
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "ethrpc_requests_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			var method, outcome string
			for _, l := range metric.GetLabel() {
				switch l.GetName() {
				case "method":
					method = l.GetValue()
				case "outcome":
					outcome = l.GetValue()
				}
			}
			counts[method+"/"+outcome] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts["web3_clientVersion/"+metrics.OutcomeOK])
	assert.Equal(t, 1.0, counts["eth_chainId/"+metrics.OutcomeRPCError])
}
