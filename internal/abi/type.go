// Package abi encodes and decodes contract call data using the standard
// contract ABI: 4-byte function selectors followed by 32-byte aligned
// head/tail argument blocks.
//
// Supported parameter types are uintN/intN, address, bool, bytesN, bytes,
// string and arrays (T[] and T[k], nested). Tuples are not supported.
package abi

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the supported ABI type families.
type Kind int

const (
	KindUint Kind = iota
	KindInt
	KindAddress
	KindBool
	KindFixedBytes
	KindBytes
	KindString
	KindSlice
	KindArray
)

const wordSize = 32

// Type is a parsed ABI parameter type.
type Type struct {
	Kind Kind
	// Size is the bit width for KindUint/KindInt, the byte length for
	// KindFixedBytes and the element count for KindArray.
	Size int
	// Elem is the element type of KindSlice and KindArray.
	Elem *Type
}

// ParseType parses a canonical ABI type name such as "uint256",
// "address[]" or "bytes32[2][]". "uint" and "int" are read as their 256-bit
// forms.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, fmt.Errorf("empty type")
	}

	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open <= 0 {
			return Type{}, fmt.Errorf("malformed array type %q", s)
		}
		elem, err := ParseType(s[:open])
		if err != nil {
			return Type{}, err
		}
		inner := s[open+1 : len(s)-1]
		if inner == "" {
			return Type{Kind: KindSlice, Elem: &elem}, nil
		}
		n, err := strconv.Atoi(inner)
		if err != nil || n <= 0 {
			return Type{}, fmt.Errorf("bad array length in %q", s)
		}
		return Type{Kind: KindArray, Size: n, Elem: &elem}, nil
	}

	switch {
	case s == "address":
		return Type{Kind: KindAddress, Size: 160}, nil
	case s == "bool":
		return Type{Kind: KindBool}, nil
	case s == "string":
		return Type{Kind: KindString}, nil
	case s == "bytes":
		return Type{Kind: KindBytes}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(s[len("bytes"):])
		if err != nil || n < 1 || n > 32 {
			return Type{}, fmt.Errorf("unsupported type %q", s)
		}
		return Type{Kind: KindFixedBytes, Size: n}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := parseBits(s, "uint")
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindUint, Size: bits}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := parseBits(s, "int")
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindInt, Size: bits}, nil
	case strings.HasPrefix(s, "("), s == "tuple":
		return Type{}, fmt.Errorf("tuple types are not supported: %q", s)
	}
	return Type{}, fmt.Errorf("unsupported type %q", s)
}

// MustParseType is ParseType for constants; it panics on bad input.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTypes parses a list of type names.
func ParseTypes(names ...string) ([]Type, error) {
	types := make([]Type, len(names))
	for i, n := range names {
		t, err := ParseType(n)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func parseBits(s, prefix string) (int, error) {
	rest := s[len(prefix):]
	if rest == "" {
		return 256, nil
	}
	bits, err := strconv.Atoi(rest)
	if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
		return 0, fmt.Errorf("unsupported type %q", s)
	}
	return bits, nil
}

// String returns the canonical type name used in function signatures.
func (t Type) String() string {
	switch t.Kind {
	case KindUint:
		return "uint" + strconv.Itoa(t.Size)
	case KindInt:
		return "int" + strconv.Itoa(t.Size)
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindSlice:
		return t.Elem.String() + "[]"
	case KindArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	}
	return "unknown"
}

// IsDynamic reports whether values of t are stored in the tail and
// referenced by an offset from the head.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindSlice:
		return true
	case KindArray:
		return t.Elem.IsDynamic()
	}
	return false
}

// headSize is the number of bytes t occupies in the head of an enclosing
// block: one word for dynamic types, the full inline size for static ones.
func (t Type) headSize() int {
	if t.Kind == KindArray && !t.IsDynamic() {
		return t.Size * t.Elem.headSize()
	}
	return wordSize
}
