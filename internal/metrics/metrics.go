// Package metrics exposes Prometheus collectors for the RPC client.
//
// All methods are safe to call on a nil *Collector, so library users that do
// not care about metrics never have to construct one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ethrpc"

// Outcome labels for rpc_requests_total.
const (
	OutcomeOK         = "ok"
	OutcomeNetwork    = "network_error"
	OutcomeTimeout    = "timeout"
	OutcomeHTTPStatus = "http_status"
	OutcomeRPCError   = "rpc_error"
	OutcomeMalformed  = "malformed"
	OutcomeCancelled  = "cancelled"
)

// Collector groups the client's metrics.
type Collector struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	receiptPolls  *prometheus.CounterVec
	rateLimitWait prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which is handy in tests that build many clients.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of JSON-RPC requests.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		receiptPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_polls_total",
			Help:      "eth_getTransactionReceipt polls by result.",
		}, []string{"result"}),
		rateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the client-side rate limiter.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.requests, c.duration, c.receiptPolls, c.rateLimitWait} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRequest records one request round trip.
func (c *Collector) ObserveRequest(method, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, outcome).Inc()
	c.duration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveReceiptPoll records one receipt poll; result is "pending",
// "found" or "error".
func (c *Collector) ObserveReceiptPoll(result string) {
	if c == nil {
		return
	}
	c.receiptPolls.WithLabelValues(result).Inc()
}

// ObserveRateLimitWait records time spent blocked on the rate limiter.
func (c *Collector) ObserveRateLimitWait(d time.Duration) {
	if c == nil {
		return
	}
	c.rateLimitWait.Observe(d.Seconds())
}
