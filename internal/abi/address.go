package abi

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressLength is the size of an account or contract address in bytes.
const AddressLength = 20

// Address is a 20-byte account or contract address. Two addresses are equal
// when their bytes are equal, whatever case their text form used; Hex
// returns the canonical lowercase form.
type Address [AddressLength]byte

// InvalidAddressError is returned when text is not a well-formed 20-byte hex
// address.
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// ParseAddress parses a 40-hex-digit address. The 0x prefix is optional and
// mixed case is accepted; checksums are not enforced.
func ParseAddress(s string) (Address, error) {
	var a Address
	h := strings.TrimSpace(s)
	if strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X") {
		h = h[2:]
	}
	if len(h) != 2*AddressLength {
		return a, &InvalidAddressError{Input: s, Reason: fmt.Sprintf("expected 40 hex chars, got %d", len(h))}
	}
	if _, err := hex.Decode(a[:], []byte(h)); err != nil {
		return a, &InvalidAddressError{Input: s, Reason: "contains non-hex characters"}
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants; it panics on bad input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAddress uses the last 20 bytes of b, left-padding shorter input.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// Hex returns the canonical form: 0x followed by 40 lowercase hex digits.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

// Equal reports whether a and b are the same address.
func (a Address) Equal(b Address) bool { return a == b }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as its canonical hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON accepts any hex string ParseAddress accepts.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("address must be a JSON string: %w", err)
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
