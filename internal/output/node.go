package output

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/stats"
)

// VersionReport describes the node behind an endpoint.
type VersionReport struct {
	Endpoint      string        `json:"endpoint"`
	ClientVersion string        `json:"clientVersion"`
	ChainID       *big.Int      `json:"chainId,omitempty"`
	BlockNumber   uint64        `json:"blockNumber,omitempty"`
	Latency       time.Duration `json:"-"`
}

// Version renders a VersionReport.
func (p *Printer) Version(r *VersionReport) error {
	if p.JSON() {
		return p.writeJSON(struct {
			*VersionReport
			ChainID   string  `json:"chainId,omitempty"`
			LatencyMs float64 `json:"latencyMs"`
		}{r, bigString(r.ChainID), millis(r.Latency)})
	}

	p.title("Node")
	p.field("Endpoint", r.Endpoint)
	p.field("Client", green(r.ClientVersion))
	if r.ChainID != nil {
		p.field("Chain ID", r.ChainID.String())
	}
	if r.BlockNumber > 0 {
		p.field("Block", fmt.Sprintf("%d", r.BlockNumber))
	}
	p.field("Latency", formatDuration(r.Latency))
	fmt.Fprintln(p.w)
	return nil
}

// PingReport summarizes repeated web3_clientVersion round trips.
type PingReport struct {
	Endpoint string
	Latency  stats.TailLatency
	Failures int
	// Errors holds distinct failure messages in first-seen order.
	Errors []string
}

// SuccessRate is the share of successful samples as a percentage.
func (r *PingReport) SuccessRate() float64 {
	total := r.Latency.Samples + r.Failures
	if total == 0 {
		return 0
	}
	return float64(r.Latency.Samples) / float64(total) * 100
}

// Ping renders a PingReport.
func (p *Printer) Ping(r *PingReport) error {
	if p.JSON() {
		return p.writeJSON(map[string]any{
			"endpoint":    r.Endpoint,
			"samples":     r.Latency.Samples + r.Failures,
			"failures":    r.Failures,
			"successRate": r.SuccessRate(),
			"latencyMs": map[string]float64{
				"p50": millis(r.Latency.P50),
				"p95": millis(r.Latency.P95),
				"p99": millis(r.Latency.P99),
				"max": millis(r.Latency.Max),
			},
			"errors": r.Errors,
		})
	}

	p.title("Latency")
	tbl := p.newTable("Endpoint", "p50", "p95", "p99", "Max", "Success")
	tbl.AddRow(
		r.Endpoint,
		formatDuration(r.Latency.P50),
		formatDuration(r.Latency.P95),
		formatDuration(r.Latency.P99),
		formatDuration(r.Latency.Max),
		formatSuccessRate(r.SuccessRate()),
	)
	tbl.Print()
	fmt.Fprintln(p.w)

	for _, e := range r.Errors {
		fmt.Fprintf(p.w, "  %s %s\n", red("✗"), e)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(p.w)
	}
	return nil
}

func formatSuccessRate(rate float64) string {
	str := fmt.Sprintf("%.1f%%", rate)
	if rate >= 99.0 {
		return green(str)
	}
	if rate >= 90.0 {
		return yellow(str)
	}
	return red(str)
}

func bigString(n *big.Int) string {
	if n == nil {
		return ""
	}
	return n.String()
}

// BalanceReport is an account balance at a block (nil for latest).
type BalanceReport struct {
	Address abi.Address
	Block   *big.Int
	Wei     *big.Int
}

// Ether converts a wei amount to ether without rounding.
func Ether(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}

// Balance renders a BalanceReport.
func (p *Printer) Balance(r *BalanceReport) error {
	block := "latest"
	if r.Block != nil {
		block = r.Block.String()
	}
	if p.JSON() {
		return p.writeJSON(map[string]string{
			"address": r.Address.Hex(),
			"block":   block,
			"wei":     bigString(r.Wei),
			"ether":   Ether(r.Wei).String(),
		})
	}

	p.title("Balance")
	p.field("Address", r.Address.Hex())
	p.field("Block", block)
	p.field("Ether", green(Ether(r.Wei).String()))
	p.field("Wei", bigString(r.Wei))
	fmt.Fprintln(p.w)
	return nil
}
