package abi

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
)

var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// EncodeError reports a value that cannot be encoded as its declared type.
type EncodeError struct {
	Index  int
	Type   string
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("abi encode argument %d (%s): %s", e.Index, e.Type, e.Reason)
}

// Encode packs values according to types using the head/tail layout.
// Offsets stored in heads count from the start of the returned block; the
// function selector is not part of it.
//
// Accepted Go values:
//
//	uintN, intN   *big.Int, big.Int, any Go integer, or a decimal/0x string
//	address       Address, [20]byte or a hex string
//	bool          bool
//	bytesN        []byte or [N]byte of exactly N bytes
//	bytes         []byte
//	string        string
//	T[], T[k]     any slice or array ([]any, []*big.Int, ...)
func Encode(types []Type, values []any) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("abi encode: %d types but %d values", len(types), len(values))
	}
	out, err := encodeTuple(types, values)
	if err != nil {
		if ee, ok := err.(*encodeFailure); ok {
			return nil, &EncodeError{Index: ee.index, Type: types[ee.index].String(), Reason: ee.reason}
		}
		return nil, err
	}
	return out, nil
}

// encodeFailure carries the top-level argument index up the recursion.
type encodeFailure struct {
	index  int
	reason string
}

func (e *encodeFailure) Error() string { return e.reason }

func encodeTuple(types []Type, values []any) ([]byte, error) {
	headLen := 0
	for _, t := range types {
		headLen += t.headSize()
	}

	head := make([]byte, 0, headLen)
	var tail []byte
	for i, t := range types {
		enc, err := encodeValue(t, values[i])
		if err != nil {
			return nil, &encodeFailure{index: i, reason: err.Error()}
		}
		if t.IsDynamic() {
			head = append(head, uintWord(uint64(headLen+len(tail)))...)
			tail = append(tail, enc...)
		} else {
			head = append(head, enc...)
		}
	}
	return append(head, tail...), nil
}

func encodeValue(t Type, v any) ([]byte, error) {
	switch t.Kind {
	case KindUint, KindInt:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return encodeInt(t, n)
	case KindAddress:
		a, err := toAddress(v)
		if err != nil {
			return nil, err
		}
		word := make([]byte, wordSize)
		copy(word[wordSize-AddressLength:], a[:])
		return word, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		word := make([]byte, wordSize)
		if b {
			word[wordSize-1] = 1
		}
		return word, nil
	case KindFixedBytes:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		word := make([]byte, wordSize)
		copy(word, b)
		return word, nil
	case KindBytes:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		return encodeDynamicBytes(b), nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return encodeDynamicBytes([]byte(s)), nil
	case KindSlice:
		elems, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		body, err := encodeTuple(repeat(*t.Elem, len(elems)), elems)
		if err != nil {
			return nil, unwrapFailure(err)
		}
		return append(uintWord(uint64(len(elems))), body...), nil
	case KindArray:
		elems, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		if len(elems) != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(elems))
		}
		body, err := encodeTuple(repeat(*t.Elem, len(elems)), elems)
		if err != nil {
			return nil, unwrapFailure(err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

// unwrapFailure turns a nested element failure into a plain error so the
// enclosing argument index is the one reported.
func unwrapFailure(err error) error {
	if f, ok := err.(*encodeFailure); ok {
		return fmt.Errorf("element %d: %s", f.index, f.reason)
	}
	return err
}

func repeat(t Type, n int) []Type {
	types := make([]Type, n)
	for i := range types {
		types[i] = t
	}
	return types
}

func encodeInt(t Type, n *big.Int) ([]byte, error) {
	if t.Kind == KindUint {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for unsigned type", n)
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s overflows %s", n, t)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		minVal := new(big.Int).Neg(limit)
		if n.Cmp(limit) >= 0 || n.Cmp(minVal) < 0 {
			return nil, fmt.Errorf("value %s overflows %s", n, t)
		}
	}
	word := make([]byte, wordSize)
	if n.Sign() < 0 {
		new(big.Int).Add(two256, n).FillBytes(word)
	} else {
		n.FillBytes(word)
	}
	return word, nil
}

func encodeDynamicBytes(b []byte) []byte {
	padded := (len(b) + wordSize - 1) / wordSize * wordSize
	out := make([]byte, wordSize+padded)
	copy(out, uintWord(uint64(len(b))))
	copy(out[wordSize:], b)
	return out
}

func uintWord(n uint64) []byte {
	word := make([]byte, wordSize)
	new(big.Int).SetUint64(n).FillBytes(word)
	return word
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		return n, nil
	case big.Int:
		return &n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		return parseIntString(n)
	}
	return nil, fmt.Errorf("expected integer, got %T", v)
}

func parseIntString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func toAddress(v any) (Address, error) {
	switch a := v.(type) {
	case Address:
		return a, nil
	case *Address:
		if a == nil {
			return Address{}, fmt.Errorf("nil *Address")
		}
		return *a, nil
	case [AddressLength]byte:
		return Address(a), nil
	case string:
		return ParseAddress(a)
	}
	return Address{}, fmt.Errorf("expected address, got %T", v)
}

func toBytes(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, nil
	}
	return nil, fmt.Errorf("expected bytes, got %T", v)
}

func toSlice(v any) ([]any, error) {
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected slice or array, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
