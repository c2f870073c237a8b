package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ms(vals ...int) []time.Duration {
	out := make([]time.Duration, len(vals))
	for i, v := range vals {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestCalculateTailLatency(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		want    TailLatency
	}{
		{"empty", nil, TailLatency{}},
		{
			"single",
			ms(7),
			TailLatency{Samples: 1, P50: 7 * time.Millisecond, P95: 7 * time.Millisecond, P99: 7 * time.Millisecond, Max: 7 * time.Millisecond},
		},
		{
			"small sample tails equal max",
			ms(40, 10, 30, 20),
			TailLatency{Samples: 4, P50: 20 * time.Millisecond, P95: 40 * time.Millisecond, P99: 40 * time.Millisecond, Max: 40 * time.Millisecond},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateTailLatency(tt.samples))
		})
	}
}

func TestCalculateTailLatencyHundred(t *testing.T) {
	var samples []time.Duration
	for i := 100; i >= 1; i-- {
		samples = append(samples, time.Duration(i)*time.Millisecond)
	}
	first := samples[0]

	tl := CalculateTailLatency(samples)
	assert.Equal(t, 50*time.Millisecond, tl.P50)
	assert.Equal(t, 95*time.Millisecond, tl.P95)
	assert.Equal(t, 99*time.Millisecond, tl.P99)
	assert.Equal(t, 100*time.Millisecond, tl.Max)
	assert.Equal(t, first, samples[0], "input must not be reordered")
}

func TestPercentileClamps(t *testing.T) {
	sorted := ms(1, 2, 3)
	assert.Equal(t, time.Millisecond, Percentile(sorted, 0))
	assert.Equal(t, 3*time.Millisecond, Percentile(sorted, 1.5))
	assert.Equal(t, time.Duration(0), Percentile(nil, 0.5))
}
