package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const statusBodySnippet = 256

// HTTP posts each request body to the endpoint. The underlying http.Client
// pools connections and is shared by all goroutines using this transport.
type HTTP struct {
	endpoint string
	cli      *http.Client
	opts     Options
	limiter  *rate.Limiter
	log      *zap.Logger
}

// NewHTTP returns an HTTP transport for endpoint.
func NewHTTP(endpoint string, opts Options) *HTTP {
	opts = opts.withDefaults()
	return &HTTP{
		endpoint: endpoint,
		cli: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   opts.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxConnsPerHost:     opts.MaxConnsPerHost,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: opts.Timeout,
		},
		opts:    opts,
		limiter: opts.limiter(),
		log:     opts.Logger.With(zap.String("endpoint", endpoint)),
	}
}

// Endpoint returns the node URL this transport posts to.
func (t *HTTP) Endpoint() string { return t.endpoint }

// Send implements Transport.
func (t *HTTP) Send(ctx context.Context, body []byte) ([]byte, error) {
	if err := wait(ctx, t.limiter, t.endpoint, t.opts); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := t.cli.Do(req)
	if err != nil {
		err = classify(ctx, t.endpoint, t.opts.Timeout, err)
		t.log.Debug("request failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(ctx, t.endpoint, t.opts.Timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := respBody
		if len(snippet) > statusBodySnippet {
			snippet = snippet[:statusBodySnippet]
		}
		t.log.Debug("non-success status", zap.Int("status", resp.StatusCode))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(snippet)),
		}
	}

	t.log.Debug("request done", zap.Duration("took", time.Since(start)), zap.Int("bytes", len(respBody)))
	return respBody, nil
}

// Close releases idle connections.
func (t *HTTP) Close() error {
	t.cli.CloseIdleConnections()
	return nil
}
