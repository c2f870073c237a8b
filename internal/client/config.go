package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/dmagro/eth-rpc-client/internal/metrics"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultEndpoint       = "http://127.0.0.1:8545"
	DefaultTimeout        = 10 * time.Second
	DefaultPollInterval   = time.Second
	DefaultReceiptTimeout = 2 * time.Minute
)

// Config holds everything a Client needs. The zero value talks to a local
// node with the defaults above.
type Config struct {
	// Endpoint is an http(s):// or ws(s):// node URL.
	Endpoint string
	// Timeout bounds a single request.
	Timeout time.Duration
	// PollInterval is the delay between receipt polls.
	PollInterval time.Duration
	// ReceiptTimeout bounds the whole wait for a transaction receipt.
	ReceiptTimeout time.Duration

	// RateLimit caps outgoing requests per second; zero means unlimited.
	RateLimit float64
	RateBurst int

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ReceiptTimeout <= 0 {
		c.ReceiptTimeout = DefaultReceiptTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
