package jsonrpc

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseQuantity converts a hex quantity ("0x1bc16d674ec80000") into a
// *big.Int. Values up to and beyond 256 bits are preserved exactly.
//
// Parsing is lenient in the ways real nodes are sloppy: the 0x prefix is
// optional, leading zeros are accepted and "0x" alone means zero.
func ParseQuantity(s string) (*big.Int, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if hex == "" {
		return big.NewInt(0), nil
	}
	val, ok := new(big.Int).SetString(hex, 16)
	if !ok || val.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex quantity: %q", s)
	}
	return val, nil
}

// ParseUint64 converts a hex quantity that must fit in 64 bits, such as a
// block number, nonce or gas amount.
func ParseUint64(s string) (uint64, error) {
	val, err := ParseQuantity(s)
	if err != nil {
		return 0, err
	}
	if !val.IsUint64() {
		return 0, fmt.Errorf("hex quantity overflows uint64: %q", s)
	}
	return val.Uint64(), nil
}

// EncodeQuantity renders n as a JSON-RPC quantity (no leading zeros).
func EncodeQuantity(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(n)
}

// EncodeUint64 renders n as a JSON-RPC quantity.
func EncodeUint64(n uint64) string {
	return hexutil.EncodeUint64(n)
}

// EncodeBytes renders b as 0x-prefixed unformatted data.
func EncodeBytes(b []byte) string {
	return hexutil.Encode(b)
}

// DecodeBytes parses 0x-prefixed unformatted data. "0x" decodes to an empty
// slice.
func DecodeBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return b, nil
}
