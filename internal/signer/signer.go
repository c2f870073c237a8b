// Package signer provides client.Credentials implementations: a node-managed
// account, and a local private key whose signing is done by go-ethereum.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/client"
)

var (
	_ client.Credentials = NodeAccount{}
	_ client.TxSigner    = (*PrivateKey)(nil)
)

// NodeAccount is an account whose key lives in the node. Transactions from
// it are sent with eth_sendTransaction.
type NodeAccount struct {
	addr abi.Address
}

// NewNodeAccount parses a node-managed account address.
func NewNodeAccount(address string) (NodeAccount, error) {
	a, err := abi.ParseAddress(address)
	if err != nil {
		return NodeAccount{}, err
	}
	return NodeAccount{addr: a}, nil
}

// Address returns the account address.
func (n NodeAccount) Address() abi.Address { return n.addr }

// PrivateKey signs transactions locally as EIP-155 legacy transactions.
type PrivateKey struct {
	key  *ecdsa.PrivateKey
	addr abi.Address
}

// ParsePrivateKey reads a hex secp256k1 key, with or without 0x.
func ParsePrivateKey(hexKey string) (*PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &PrivateKey{key: key, addr: abi.Address(crypto.PubkeyToAddress(key.PublicKey))}, nil
}

// Address returns the address derived from the key.
func (k *PrivateKey) Address() abi.Address { return k.addr }

// SignTx signs tx for chainID and returns the raw transaction bytes for
// eth_sendRawTransaction.
func (k *PrivateKey) SignTx(tx *client.TxRequest, chainID *big.Int) ([]byte, error) {
	if tx.Nonce == nil {
		return nil, errors.New("sign: nonce not set")
	}
	if tx.GasPrice == nil {
		return nil, errors.New("sign: gas price not set")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("sign: invalid chain id %v", chainID)
	}

	var to *common.Address
	if tx.To != nil {
		a := common.Address(*tx.To)
		to = &a
	}
	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}

	signed, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    *tx.Nonce,
		GasPrice: tx.GasPrice,
		Gas:      tx.Gas,
		To:       to,
		Value:    value,
		Data:     tx.Data,
	}), types.NewEIP155Signer(chainID), k.key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return signed.MarshalBinary()
}
