// Command ethcli talks to an Ethereum node over JSON-RPC: it reports the node
// version and latency, reads contract state through an ABI, and sends and
// deploys contracts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmagro/eth-rpc-client/internal/client"
	"github.com/dmagro/eth-rpc-client/internal/config"
	"github.com/dmagro/eth-rpc-client/internal/logging"
	"github.com/dmagro/eth-rpc-client/internal/metrics"
	"github.com/dmagro/eth-rpc-client/internal/output"
)

// app is the state shared by every subcommand, built once in the root
// command's PersistentPreRunE.
type app struct {
	cfgPath   string
	envFile   string
	endpoint  string
	format    string
	logLevel  string
	dumpStats bool

	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	out      *output.Printer
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ethcli",
		Short: "Ethereum JSON-RPC client",
		Long: `Query an Ethereum node and interact with contracts through their ABI.

Examples:
  ethcli version
  ethcli ping --samples 20
  ethcli balance 0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266
  ethcli call 0xd323bfc8ed0d0e8fa923dc00df30848bd6721fb2 token.abi.json name
  ethcli deploy token.abi.json token.bin "TestToken" --gas-limit 2000000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "config.yaml", "Path to config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "Path to .env file")
	flags.StringVar(&a.endpoint, "endpoint", "", "Node URL (overrides config and "+config.EnvNodeURL+")")
	flags.StringVar(&a.format, "format", "terminal", "Output format: terminal|json")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (default from config)")
	flags.BoolVar(&a.dumpStats, "metrics", false, "Print request metrics to stderr on exit")

	cmd.AddCommand(
		versionCmd(a),
		pingCmd(a),
		balanceCmd(a),
		callCmd(a),
		inspectCmd(a),
		sendCmd(a),
		deployCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.endpoint != "" {
		cfg.Node.URL = a.endpoint
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}
	if !output.IsTerminal() {
		output.DisableColors()
	}
	a.out = output.NewPrinter(os.Stdout, format)

	if a.log, err = logging.New(cfg.LoggingConfig()); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		a.log.Warn(w)
	}

	a.registry = prometheus.NewRegistry()
	if a.metrics, err = metrics.New(a.registry); err != nil {
		return err
	}
	return nil
}

func (a *app) teardown() {
	if a.dumpStats && a.registry != nil {
		if families, err := a.registry.Gather(); err == nil {
			for _, mf := range families {
				_, _ = expfmt.MetricFamilyToText(os.Stderr, mf)
			}
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// client opens a client for the configured node.
func (a *app) client() (*client.Client, error) {
	c, err := client.New(a.cfg.ClientConfig(a.log, a.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := rootCmd(a).ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
