// Package stats summarizes latency samples.
package stats

import (
	"math"
	"sort"
	"time"
)

// TailLatency holds p50, p95, p99, and max latency values.
type TailLatency struct {
	Samples            int
	P50, P95, P99, Max time.Duration
}

// CalculateTailLatency computes nearest-rank percentiles over latencies.
// An empty slice yields the zero value. The input is not modified.
func CalculateTailLatency(latencies []time.Duration) TailLatency {
	if len(latencies) == 0 {
		return TailLatency{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return TailLatency{
		Samples: len(sorted),
		P50:     Percentile(sorted, 0.50),
		P95:     Percentile(sorted, 0.95),
		P99:     Percentile(sorted, 0.99),
		Max:     sorted[len(sorted)-1],
	}
}

// Percentile returns the value at percentile p (0..1) of an ascending slice,
// using index ceil(n*p)-1 clamped to the slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
