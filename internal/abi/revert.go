package abi

import (
	"bytes"
	"fmt"
	"math/big"
)

var (
	errorSelector = Selector("Error(string)")
	panicSelector = Selector("Panic(uint256)")

	stringType  = Type{Kind: KindString}
	uint256Type = Type{Kind: KindUint, Size: 256}
)

// UnpackRevert extracts a human-readable reason from revert data.
// Error(string) payloads yield the string; Panic(uint256) payloads yield
// "panic: 0x11" style codes. ok is false for empty or custom-error data.
func UnpackRevert(data []byte) (reason string, ok bool) {
	if len(data) < 4 {
		return "", false
	}
	switch {
	case bytes.Equal(data[:4], errorSelector[:]):
		v, err := Decode([]Type{stringType}, data[4:])
		if err != nil {
			return "", false
		}
		return v[0].(string), true
	case bytes.Equal(data[:4], panicSelector[:]):
		v, err := Decode([]Type{uint256Type}, data[4:])
		if err != nil {
			return "", false
		}
		return fmt.Sprintf("panic: 0x%x", v[0].(*big.Int)), true
	}
	return "", false
}
