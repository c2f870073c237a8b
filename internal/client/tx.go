package client

import (
	"math/big"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/jsonrpc"
)

// TxRequest describes a transaction or a read-only call. Nil or zero
// fields are left for the node to fill in.
type TxRequest struct {
	From abi.Address
	// To is nil for contract creation.
	To       *abi.Address
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Nonce    *uint64
	Data     []byte
}

// IsCreate reports whether the request deploys a contract.
func (tx *TxRequest) IsCreate() bool { return tx.To == nil }

// txArg is the JSON object eth_call, eth_estimateGas and
// eth_sendTransaction take.
type txArg struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Value    string `json:"value,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	Data     string `json:"data,omitempty"`
}

func (tx *TxRequest) arg() txArg {
	var a txArg
	if !tx.From.IsZero() {
		a.From = tx.From.Hex()
	}
	if tx.To != nil {
		a.To = tx.To.Hex()
	}
	if tx.Gas != 0 {
		a.Gas = jsonrpc.EncodeUint64(tx.Gas)
	}
	if tx.GasPrice != nil {
		a.GasPrice = jsonrpc.EncodeQuantity(tx.GasPrice)
	}
	if tx.Value != nil {
		a.Value = jsonrpc.EncodeQuantity(tx.Value)
	}
	if tx.Nonce != nil {
		a.Nonce = jsonrpc.EncodeUint64(*tx.Nonce)
	}
	if len(tx.Data) > 0 {
		a.Data = jsonrpc.EncodeBytes(tx.Data)
	}
	return a
}
