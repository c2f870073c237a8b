package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

type wsReply struct {
	body []byte
	err  error
}

// WebSocket multiplexes concurrent calls over one connection.
//
//	goroutine-1 ──Send(id=1)──┐
//	goroutine-2 ──Send(id=2)──┼──▶ one ws conn ──▶ node
//	goroutine-3 ──Send(id=3)──┘
//
//	readLoop: ◀── reply(id=2) ──▶ pending[2] ──▶ goroutine-2 wakes up
//
// Replies are routed by their JSON-RPC id, so request ids must be unique
// among in-flight calls; the client's atomic counter guarantees that.
// The connection is dialed on first use and redialed after it drops.
type WebSocket struct {
	endpoint string
	opts     Options
	limiter  *rate.Limiter
	log      *zap.Logger
	dialer   *websocket.Dialer

	mu      sync.Mutex // guards conn, pending, closed
	conn    *websocket.Conn
	pending map[uint64]chan wsReply
	closed  bool

	writeMu sync.Mutex // gorilla allows one concurrent writer
}

// NewWebSocket returns a WebSocket transport for endpoint. Nothing is dialed
// until the first Send.
func NewWebSocket(endpoint string, opts Options) *WebSocket {
	opts = opts.withDefaults()
	return &WebSocket{
		endpoint: endpoint,
		opts:     opts,
		limiter:  opts.limiter(),
		log:      opts.Logger.With(zap.String("endpoint", endpoint)),
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.Timeout,
			ReadBufferSize:   64 << 10,
			WriteBufferSize:  16 << 10,
		},
		pending: make(map[uint64]chan wsReply),
	}
}

// Send implements Transport.
func (t *WebSocket) Send(ctx context.Context, body []byte) ([]byte, error) {
	if err := wait(ctx, t.limiter, t.endpoint, t.opts); err != nil {
		return nil, err
	}
	id, err := jsonrpc.ParseID(body)
	if err != nil {
		return nil, fmt.Errorf("websocket transport needs a request id: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	conn, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}

	reply := make(chan wsReply, 1)
	t.mu.Lock()
	if _, dup := t.pending[id]; dup {
		t.mu.Unlock()
		return nil, fmt.Errorf("request id %d already in flight", id)
	}
	t.pending[id] = reply
	t.mu.Unlock()

	t.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	err = conn.WriteMessage(websocket.TextMessage, body)
	t.writeMu.Unlock()
	if err != nil {
		t.forget(id)
		err = classify(ctx, t.endpoint, t.opts.Timeout, err)
		t.drop(conn, err)
		return nil, err
	}

	select {
	case r := <-reply:
		return r.body, r.err
	case <-ctx.Done():
		t.forget(id)
		return nil, classify(ctx, t.endpoint, t.opts.Timeout, ctx.Err())
	}
}

func (t *WebSocket) connect(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	if t.conn != nil {
		return t.conn, nil
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			}
		}
		return nil, classify(ctx, t.endpoint, t.opts.Timeout, err)
	}
	conn.SetReadLimit(maxResponseSize)
	t.conn = conn
	t.log.Debug("websocket connected")
	go t.readLoop(conn)
	return conn, nil
}

// readLoop is the only reader of conn. It exits when the connection fails
// or is closed, failing every call still waiting on it.
func (t *WebSocket) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.drop(conn, &NetworkError{Endpoint: t.endpoint, Err: err})
			return
		}
		id, err := jsonrpc.ParseID(msg)
		if err != nil {
			// Subscription notifications carry no id.
			t.log.Debug("ignoring message without id", zap.Int("bytes", len(msg)))
			continue
		}
		t.mu.Lock()
		reply, ok := t.pending[id]
		delete(t.pending, id)
		t.mu.Unlock()
		if ok {
			reply <- wsReply{body: msg}
		} else {
			t.log.Debug("reply for unknown id", zap.Uint64("id", id))
		}
	}
}

func (t *WebSocket) forget(id uint64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

// drop discards conn if it is still current and fails all pending calls.
func (t *WebSocket) drop(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
		t.failPending(cause)
		t.log.Debug("websocket dropped", zap.Error(cause))
	}
	t.mu.Unlock()
	_ = conn.Close()
}

// failPending must be called with t.mu held.
func (t *WebSocket) failPending(cause error) {
	for id, reply := range t.pending {
		reply <- wsReply{err: cause}
		delete(t.pending, id)
	}
}

// Close sends a close frame, tears down the connection and fails in-flight
// calls with ErrClosed.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.failPending(ErrClosed)
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	t.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()
	return conn.Close()
}
