package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/output"
	"github.com/dmagro/eth-rpc-client/internal/stats"
)

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the node's client version, chain id and head block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd.Context(), a)
		},
	}
}

func runVersion(ctx context.Context, a *app) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	version, err := c.ClientVersion(ctx)
	if err != nil {
		return err
	}
	report := &output.VersionReport{
		Endpoint:      c.Endpoint(),
		ClientVersion: version,
		Latency:       time.Since(start),
	}

	// Chain id and head are informational; nodes that lack them still
	// answer the version query.
	if id, err := c.ChainID(ctx); err == nil {
		report.ChainID = id
	} else {
		a.log.Debug("eth_chainId unavailable", zap.Error(err))
	}
	if n, err := c.BlockNumber(ctx); err == nil {
		report.BlockNumber = n
	} else {
		a.log.Debug("eth_blockNumber unavailable", zap.Error(err))
	}
	return a.out.Version(report)
}

func pingCmd(a *app) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Measure round-trip latency to the node",
		Long: `Send sequential web3_clientVersion requests and report tail latency.

Examples:
  ethcli ping
  ethcli ping --samples 50 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if samples < 1 {
				return fmt.Errorf("--samples must be at least 1")
			}
			return runPing(cmd.Context(), a, samples)
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 10, "Number of requests to send")
	return cmd
}

func runPing(ctx context.Context, a *app, samples int) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	report := &output.PingReport{Endpoint: c.Endpoint()}
	var latencies []time.Duration
	seen := make(map[string]bool)

	for i := 0; i < samples; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		start := time.Now()
		_, err := c.ClientVersion(ctx)
		if err != nil {
			report.Failures++
			if msg := err.Error(); !seen[msg] {
				seen[msg] = true
				report.Errors = append(report.Errors, msg)
			}
			continue
		}
		latencies = append(latencies, time.Since(start))
	}

	report.Latency = stats.CalculateTailLatency(latencies)
	if err := a.out.Ping(report); err != nil {
		return err
	}
	if len(latencies) == 0 {
		return fmt.Errorf("all %d requests failed", samples)
	}
	return nil
}

func balanceCmd(a *app) *cobra.Command {
	var block string

	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Print an account's ether balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n *big.Int
			if block != "" && block != "latest" {
				v, ok := new(big.Int).SetString(block, 0)
				if !ok || v.Sign() < 0 {
					return fmt.Errorf("invalid --block %q", block)
				}
				n = v
			}
			return runBalance(cmd.Context(), a, args[0], n)
		},
	}
	cmd.Flags().StringVar(&block, "block", "latest", "Block number (decimal or 0x hex) or latest")
	return cmd
}

func runBalance(ctx context.Context, a *app, address string, block *big.Int) error {
	addr, err := abi.ParseAddress(address)
	if err != nil {
		return err
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	wei, err := c.BalanceAt(ctx, addr, block)
	if err != nil {
		return err
	}
	return a.out.Balance(&output.BalanceReport{Address: addr, Block: block, Wei: wei})
}
