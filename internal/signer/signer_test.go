package signer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/client"
)

// First account of the well-known Hardhat/Anvil development mnemonic.
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
)

func TestParsePrivateKey(t *testing.T) {
	k, err := ParsePrivateKey(devKey)
	require.NoError(t, err)
	assert.Equal(t, devAddress, k.Address().Hex())

	k2, err := ParsePrivateKey(devKey[2:])
	require.NoError(t, err)
	assert.Equal(t, k.Address(), k2.Address())

	for _, bad := range []string{"", "0x1234", "zz" + devKey[4:]} {
		_, err := ParsePrivateKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestSignTx(t *testing.T) {
	k, err := ParsePrivateKey(devKey)
	require.NoError(t, err)

	to := abi.MustParseAddress("0x00000000000000000000000000000000000000aa")
	nonce := uint64(3)
	chainID := big.NewInt(1337)
	raw, err := k.SignTx(&client.TxRequest{
		To:       &to,
		Nonce:    &nonce,
		Gas:      21000,
		GasPrice: big.NewInt(1_000_000_000),
		Value:    big.NewInt(5),
		Data:     []byte{0xa9, 0x05, 0x9c, 0xbb},
	}, chainID)
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, nonce, tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, common.Address(to), *tx.To())
	assert.Equal(t, int64(5), tx.Value().Int64())
	assert.Equal(t, 0, tx.ChainId().Cmp(chainID))

	from, err := types.Sender(types.NewEIP155Signer(chainID), &tx)
	require.NoError(t, err)
	assert.Equal(t, devAddress, abi.Address(from).Hex())
}

func TestSignContractCreation(t *testing.T) {
	k, err := ParsePrivateKey(devKey)
	require.NoError(t, err)

	nonce := uint64(0)
	raw, err := k.SignTx(&client.TxRequest{
		Nonce:    &nonce,
		Gas:      2_000_000,
		GasPrice: big.NewInt(1),
		Data:     []byte{0x60, 0x80},
	}, big.NewInt(1))
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	assert.Nil(t, tx.To())
	assert.Equal(t, []byte{0x60, 0x80}, tx.Data())
}

func TestSignTxRequiresFilledFields(t *testing.T) {
	k, err := ParsePrivateKey(devKey)
	require.NoError(t, err)
	nonce := uint64(1)

	_, err = k.SignTx(&client.TxRequest{GasPrice: big.NewInt(1)}, big.NewInt(1))
	assert.Error(t, err, "missing nonce")
	_, err = k.SignTx(&client.TxRequest{Nonce: &nonce}, big.NewInt(1))
	assert.Error(t, err, "missing gas price")
	_, err = k.SignTx(&client.TxRequest{Nonce: &nonce, GasPrice: big.NewInt(1)}, nil)
	assert.Error(t, err, "missing chain id")
}

func TestNodeAccount(t *testing.T) {
	a, err := NewNodeAccount("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")
	require.NoError(t, err)
	assert.Equal(t, devAddress, a.Address().Hex())

	_, err = NewNodeAccount("nope")
	assert.Error(t, err)
}
