package client

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/eth-rpc-client/internal/abi"
)

// viewConcurrency caps the parallel eth_call requests issued by CallViews.
const viewConcurrency = 8

// ContractHandle binds a deployed contract address to its ABI.
type ContractHandle struct {
	client  *Client
	address abi.Address
	abi     *abi.ABI
}

// LoadContract binds address to contract. It does not touch the network, so
// a wrong address or ABI only shows up on the first call.
func (c *Client) LoadContract(address string, contract *abi.ABI) (*ContractHandle, error) {
	addr, err := abi.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("load contract %s: nil abi", addr)
	}
	return &ContractHandle{client: c, address: addr, abi: contract}, nil
}

// DeployContract sends bytecode plus encoded constructor args as a contract
// creation from creds, waits for the receipt and returns a handle to the new
// contract.
//
// gasLimit 0 asks the node for an estimate; a nil gasPrice uses the node's
// current price. The receipt is returned alongside *RevertedError when the
// constructor fails.
func (c *Client) DeployContract(ctx context.Context, bytecode []byte, contract *abi.ABI, args []any,
	creds Credentials, gasLimit uint64, gasPrice *big.Int) (*ContractHandle, *Receipt, error) {
	if len(bytecode) == 0 {
		return nil, nil, fmt.Errorf("deploy: empty bytecode")
	}
	if contract == nil {
		contract = abi.New(nil)
	}
	ctor, err := contract.PackConstructor(args...)
	if err != nil {
		return nil, nil, fmt.Errorf("deploy: %w", err)
	}

	data := make([]byte, 0, len(bytecode)+len(ctor))
	data = append(data, bytecode...)
	data = append(data, ctor...)

	tx := &TxRequest{Gas: gasLimit, GasPrice: gasPrice, Data: data}
	hash, err := c.Transact(ctx, creds, tx)
	if err != nil {
		return nil, nil, fmt.Errorf("deploy: %w", err)
	}
	c.log.Info("contract deployment submitted", zap.String("tx", hash))

	r, err := c.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, r, fmt.Errorf("deploy: %w", err)
	}
	if r.ContractAddress == nil {
		return nil, r, fmt.Errorf("deploy %s: %w", hash, ErrNoContractAddress)
	}
	c.log.Info("contract deployed",
		zap.Stringer("address", r.ContractAddress),
		zap.Uint64("block", r.BlockNumber),
		zap.Uint64("gasUsed", r.GasUsed))
	return &ContractHandle{client: c, address: *r.ContractAddress, abi: contract}, r, nil
}

// Address returns the contract address.
func (h *ContractHandle) Address() abi.Address { return h.address }

// ABI returns the contract interface the handle was bound with.
func (h *ContractHandle) ABI() *abi.ABI { return h.abi }

// Call runs a read-only call of fn (a bare name or full signature) against
// the latest state and decodes the declared outputs.
func (h *ContractHandle) Call(ctx context.Context, fn string, args ...any) ([]any, error) {
	f, err := h.abi.Function(fn)
	if err != nil {
		return nil, err
	}
	call, err := f.Pack(args...)
	if err != nil {
		return nil, err
	}
	out, err := h.client.CallContract(ctx, &TxRequest{To: &h.address, Data: call.Data()})
	if err != nil {
		if reason := revertFromCallError(err); reason != "" {
			return nil, fmt.Errorf("call %s reverted: %s: %w", f.Signature(), reason, err)
		}
		return nil, fmt.Errorf("call %s: %w", f.Signature(), err)
	}
	return f.Unpack(out)
}

// CallInto runs h.Call and converts the single return value to T, e.g.
// CallInto[string](ctx, token, "name").
func CallInto[T any](ctx context.Context, h *ContractHandle, fn string, args ...any) (T, error) {
	var zero T
	values, err := h.Call(ctx, fn, args...)
	if err != nil {
		return zero, err
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("call %s: expected 1 return value, got %d", fn, len(values))
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("call %s: return value is %T, not %T", fn, values[0], zero)
	}
	return v, nil
}

// Send submits a state-changing call of fn from creds and waits for the
// receipt, with the same timeout and revert handling as WaitForReceipt.
func (h *ContractHandle) Send(ctx context.Context, creds Credentials, fn string, args ...any) (*Receipt, error) {
	f, err := h.abi.Function(fn)
	if err != nil {
		return nil, err
	}
	call, err := f.Pack(args...)
	if err != nil {
		return nil, err
	}
	r, err := h.client.SendAndWait(ctx, creds, &TxRequest{To: &h.address, Data: call.Data()})
	if err != nil {
		return r, fmt.Errorf("send %s: %w", f.Signature(), err)
	}
	return r, nil
}

// ViewResult is the outcome of one function run by CallViews.
type ViewResult struct {
	Function *abi.Function
	Values   []any
	Err      error
}

// CallViews calls every argument-free view or pure function concurrently and
// returns the results sorted by function name. A failing function is
// reported in its ViewResult; only cancellation of ctx fails the whole run.
func (h *ContractHandle) CallViews(ctx context.Context) ([]ViewResult, error) {
	var (
		mu      sync.Mutex
		results []ViewResult
		g       errgroup.Group
	)
	g.SetLimit(viewConcurrency)

	for _, f := range h.abi.Functions {
		if !f.IsReadOnly() || len(f.Inputs) != 0 {
			continue
		}
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values, err := h.Call(ctx, f.Signature())
			mu.Lock()
			results = append(results, ViewResult{Function: f, Values: values, Err: err})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Function.Name < results[j].Function.Name
	})
	return results, nil
}
