// Package transport moves encoded JSON-RPC request bodies to a node and
// brings back the raw response bodies.
//
// Two implementations exist: HTTP (one POST per call, the default) and
// WebSocket (one long-lived connection multiplexed across callers). Both are
// safe for concurrent use. Neither retries: a failed Send is reported to the
// caller, who owns any retry policy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request when Options.Timeout is unset.
	DefaultTimeout = 10 * time.Second
	// maxResponseSize caps how much of a response body is read. Full blocks
	// with transactions on busy chains stay well below this.
	maxResponseSize = 64 << 20
)

// Transport sends one request body and returns the matching response body.
type Transport interface {
	Send(ctx context.Context, body []byte) ([]byte, error)
	Close() error
}

// Options configures a Transport. The zero value is usable.
type Options struct {
	// Timeout bounds one round trip. Defaults to DefaultTimeout.
	Timeout time.Duration
	// RateLimit is the sustained requests-per-second allowance. Zero
	// disables limiting.
	RateLimit float64
	// RateBurst is the limiter bucket size; defaults to 1 when RateLimit is
	// set.
	RateBurst int
	// MaxConnsPerHost limits HTTP connections per host. No limit by default.
	MaxConnsPerHost int
	Logger          *zap.Logger
	// OnRateLimitWait, when set, is told how long each Send waited for the
	// limiter.
	OnRateLimitWait func(time.Duration)
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RateLimit > 0 && o.RateBurst <= 0 {
		o.RateBurst = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), o.RateBurst)
}

// New picks a transport by endpoint scheme: http/https get HTTP, ws/wss get
// WebSocket. No network traffic happens until the first Send.
func New(endpoint string, opts Options) (Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTP(endpoint, opts), nil
	case "ws", "wss":
		return NewWebSocket(endpoint, opts), nil
	default:
		return nil, fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
}

// wait blocks on the limiter, if any, and reports the time spent. A token
// that cannot arrive before the caller's deadline is a timeout.
func wait(ctx context.Context, lim *rate.Limiter, endpoint string, opts Options) error {
	if lim == nil {
		return nil
	}
	start := time.Now()
	if err := lim.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("rate limiter for %s: %w", endpoint, err)
		}
		return &TimeoutError{Endpoint: endpoint, Err: err}
	}
	if opts.OnRateLimitWait != nil {
		opts.OnRateLimitWait(time.Since(start))
	}
	return nil
}
