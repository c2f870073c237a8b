package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// NetworkError means the request never produced an HTTP response: DNS
// failure, refused connection, reset, TLS failure or a dropped socket.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error talking to %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError means no response arrived within the configured duration or
// before the caller's deadline.
type TimeoutError struct {
	Endpoint string
	After    time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("no response from %s within %s", e.Endpoint, e.After)
	}
	return fmt.Sprintf("no response from %s before deadline", e.Endpoint)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for any non-2xx HTTP status. Body holds the
// start of the response body for diagnostics.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.Body)
}

// classify maps a low-level send error onto the transport taxonomy.
// Cancellation is passed through untouched so callers can match
// context.Canceled.
func classify(ctx context.Context, endpoint string, timeout time.Duration, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request to %s: %w", endpoint, context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Endpoint: endpoint, After: timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Endpoint: endpoint, After: timeout, Err: err}
	}
	return &NetworkError{Endpoint: endpoint, Err: err}
}
