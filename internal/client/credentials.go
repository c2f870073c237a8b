package client

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/dmagro/eth-rpc-client/internal/abi"
)

// Credentials identify the account a transaction is sent from.
type Credentials interface {
	Address() abi.Address
}

// TxSigner is implemented by credentials that sign locally. Transactions
// from such credentials go out through eth_sendRawTransaction; all others
// are handed to the node unsigned via eth_sendTransaction.
type TxSigner interface {
	Credentials
	// SignTx returns the RLP-encoded signed transaction. Nonce, Gas and
	// GasPrice are always set when SignTx is called.
	SignTx(tx *TxRequest, chainID *big.Int) ([]byte, error)
}

// Transact fills in the missing fields of tx, submits it from creds and
// returns the transaction hash without waiting for it to be mined.
//
// A zero Gas is estimated and a nil GasPrice is fetched from the node.
func (c *Client) Transact(ctx context.Context, creds Credentials, tx *TxRequest) (string, error) {
	if creds == nil {
		return "", fmt.Errorf("transact: no credentials")
	}
	tx.From = creds.Address()
	log := c.log.With(zap.Stringer("from", tx.From))

	if tx.Gas == 0 {
		gas, err := c.EstimateGas(ctx, tx)
		if err != nil {
			return "", fmt.Errorf("estimate gas: %w", err)
		}
		tx.Gas = gas
	}
	if tx.GasPrice == nil {
		price, err := c.GasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("fetch gas price: %w", err)
		}
		tx.GasPrice = price
	}
	log.Debug("transaction built",
		zap.Bool("create", tx.IsCreate()),
		zap.Uint64("gas", tx.Gas),
		zap.Stringer("gasPrice", tx.GasPrice),
		zap.Int("dataLen", len(tx.Data)))

	signer, ok := creds.(TxSigner)
	if !ok {
		hash, err := c.SendTransaction(ctx, tx)
		if err != nil {
			return "", err
		}
		log.Debug("transaction submitted", zap.String("tx", hash), zap.Bool("nodeSigned", true))
		return hash, nil
	}

	if tx.Nonce == nil {
		nonce, err := c.NonceAt(ctx, tx.From)
		if err != nil {
			return "", fmt.Errorf("fetch nonce: %w", err)
		}
		tx.Nonce = &nonce
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch chain id: %w", err)
	}
	raw, err := signer.SignTx(tx, chainID)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	log.Debug("transaction signed", zap.Uint64("nonce", *tx.Nonce), zap.Stringer("chainID", chainID))

	hash, err := c.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", err
	}
	log.Debug("transaction submitted", zap.String("tx", hash), zap.Bool("nodeSigned", false))
	return hash, nil
}

// SendAndWait is Transact followed by WaitForReceipt.
func (c *Client) SendAndWait(ctx context.Context, creds Credentials, tx *TxRequest) (*Receipt, error) {
	hash, err := c.Transact(ctx, creds, tx)
	if err != nil {
		return nil, err
	}
	return c.WaitForReceipt(ctx, hash)
}
