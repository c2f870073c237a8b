package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/client"
	"github.com/dmagro/eth-rpc-client/internal/output"
)

func callCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <address> <abi.json> <function> [args...]",
		Short: "Run a read-only contract call and print the decoded outputs",
		Long: `Run eth_call against the latest block. The function may be a bare name or
a full signature such as "mint(address,uint256)". Arguments are parsed per
the declared input types; arrays are written as JSON.

Examples:
  ethcli call 0xd323...1fb2 token.abi.json name
  ethcli call 0xd323...1fb2 token.abi.json balanceOf 0xf39f...2266`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd.Context(), a, args[0], args[1], args[2], args[3:])
		},
	}
}

func runCall(ctx context.Context, a *app, address, abiPath, fn string, texts []string) error {
	c, h, f, values, err := a.bind(address, abiPath, fn, texts)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	out, err := h.Call(ctx, f.Signature(), values...)
	if err != nil {
		return err
	}
	return a.out.Call(&output.CallReport{
		Contract: h.Address(),
		Function: f,
		Args:     values,
		Values:   out,
		Latency:  time.Since(start),
	})
}

func inspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <address> <abi.json>",
		Short: "Call every argument-free view function of a contract",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), a, args[0], args[1])
		},
	}
}

func runInspect(ctx context.Context, a *app, address, abiPath string) error {
	contract, err := readABI(abiPath)
	if err != nil {
		return err
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	h, err := c.LoadContract(address, contract)
	if err != nil {
		return err
	}
	results, err := h.CallViews(ctx)
	if err != nil {
		return err
	}
	return a.out.Views(h.Address(), results)
}

func sendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <address> <abi.json> <function> [args...]",
		Short: "Send a state-changing contract call and wait for the receipt",
		Long: `Send a transaction calling a contract function from the configured account
and wait until it is mined. The account comes from account.private_key or
account.from in the config (or ETH_PRIVATE_KEY / ETH_FROM).`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), a, args[0], args[1], args[2], args[3:])
		},
	}
}

func runSend(ctx context.Context, a *app, address, abiPath, fn string, texts []string) error {
	creds, err := a.cfg.Credentials()
	if err != nil {
		return err
	}
	c, h, f, values, err := a.bind(address, abiPath, fn, texts)
	if err != nil {
		return err
	}
	defer c.Close()

	r, err := h.Send(ctx, creds, f.Signature(), values...)
	if r != nil {
		if perr := a.out.Receipt(r, err); perr != nil {
			return perr
		}
	}
	return err
}

func deployCmd(a *app) *cobra.Command {
	var (
		gasLimit uint64
		gasPrice string
	)

	cmd := &cobra.Command{
		Use:   "deploy <abi.json> <bytecode-file> [constructor args...]",
		Short: "Deploy a contract and wait for its address",
		Long: `Deploy compiled bytecode with ABI-encoded constructor arguments.

The bytecode file holds hex text (with or without 0x), or a build artifact
JSON object with a "bytecode" field.

Examples:
  ethcli deploy token.abi.json token.bin TestToken TT 1000000
  ethcli deploy Token.json Token.json --gas-limit 3000000 --gas-price 1000000000`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var price *big.Int
			if gasPrice != "" {
				p, ok := new(big.Int).SetString(gasPrice, 0)
				if !ok || p.Sign() < 0 {
					return fmt.Errorf("invalid --gas-price %q", gasPrice)
				}
				price = p
			}
			return runDeploy(cmd.Context(), a, args[0], args[1], args[2:], gasLimit, price)
		},
	}
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 0, "Gas limit (default: node estimate)")
	cmd.Flags().StringVar(&gasPrice, "gas-price", "", "Gas price in wei (default: node price)")
	return cmd
}

func runDeploy(ctx context.Context, a *app, abiPath, codePath string, texts []string, gasLimit uint64, gasPrice *big.Int) error {
	creds, err := a.cfg.Credentials()
	if err != nil {
		return err
	}
	contract, err := readABI(abiPath)
	if err != nil {
		return err
	}
	code, err := readBytecode(codePath)
	if err != nil {
		return err
	}
	args, err := abi.ParseValues(contract.Constructor, texts)
	if err != nil {
		return fmt.Errorf("constructor: %w", err)
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	_, r, err := c.DeployContract(ctx, code, contract, args, creds, gasLimit, gasPrice)
	if err != nil {
		if r != nil {
			_ = a.out.Receipt(r, err)
		}
		return err
	}
	return a.out.Deployment(r)
}

// bind loads the ABI, opens a client, binds the contract and parses the
// textual arguments for fn. The caller closes the returned client.
func (a *app) bind(address, abiPath, fn string, texts []string) (*client.Client, *client.ContractHandle, *abi.Function, []any, error) {
	contract, err := readABI(abiPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	f, err := contract.Function(fn)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	values, err := abi.ParseValues(f.Inputs, texts)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%s: %w", f.Signature(), err)
	}

	c, err := a.client()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	h, err := c.LoadContract(address, contract)
	if err != nil {
		c.Close()
		return nil, nil, nil, nil, err
	}
	return c, h, f, values, nil
}

func readABI(path string) (*abi.ABI, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open abi: %w", err)
	}
	defer f.Close()
	return abi.Parse(f)
}

func readBytecode(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode: %w", err)
	}
	text := strings.TrimSpace(string(raw))

	if strings.HasPrefix(text, "{") {
		var artifact struct {
			Bytecode json.RawMessage `json:"bytecode"`
		}
		if err := json.Unmarshal([]byte(text), &artifact); err != nil {
			return nil, fmt.Errorf("parse bytecode artifact: %w", err)
		}
		text, err = artifactBytecode(artifact.Bytecode)
		if err != nil {
			return nil, err
		}
	}

	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		text = "0x" + text
	}
	code, err := hexutil.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode in %s: %w", path, err)
	}
	return code, nil
}

// artifactBytecode accepts both "bytecode": "0x..." and the solc standard
// JSON form "bytecode": {"object": "..."}.
func artifactBytecode(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Object == "" {
		return "", fmt.Errorf("artifact has no bytecode")
	}
	return strings.TrimSpace(obj.Object), nil
}
