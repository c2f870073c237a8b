package abi

import (
	"fmt"
	"math/big"
)

// DecodeError is returned when return data does not match the declared
// types: an offset or length pointing outside the buffer, a truncated word,
// or a value whose padding is not valid for its type.
type DecodeError struct {
	// Op names the ABI operation, such as "outputs of name()". Empty for
	// direct Decode calls.
	Op     string
	Type   string
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("abi decode %s: %s at offset %d: %s", e.Op, e.Type, e.Offset, e.Reason)
	}
	return fmt.Sprintf("abi decode: %s at offset %d: %s", e.Type, e.Offset, e.Reason)
}

// Decode unpacks data into one Go value per type. Values come back as:
//
//	uintN, intN   *big.Int
//	address       Address
//	bool          bool
//	bytesN, bytes []byte
//	string        string
//	T[], T[k]     []any
//
// Every offset and length is checked against the buffer before use, so
// hostile or truncated return data yields a *DecodeError rather than a panic.
func Decode(types []Type, data []byte) ([]any, error) {
	d := decoder{buf: data}
	return d.tuple(types, 0)
}

type decoder struct {
	buf []byte
}

func (d *decoder) fail(t Type, at int, format string, args ...any) error {
	return &DecodeError{Type: t.String(), Offset: at, Reason: fmt.Sprintf(format, args...)}
}

// tuple decodes a head/tail block starting at base. Offsets inside the
// block are relative to base.
func (d *decoder) tuple(types []Type, base int) ([]any, error) {
	values := make([]any, len(types))
	pos := base
	for i, t := range types {
		if t.IsDynamic() {
			off, err := d.length(t, pos)
			if err != nil {
				return nil, err
			}
			start := base + off
			if start < base || start > len(d.buf) {
				return nil, d.fail(t, pos, "offset %d points outside %d-byte buffer", off, len(d.buf))
			}
			v, err := d.dynamic(t, start)
			if err != nil {
				return nil, err
			}
			values[i] = v
			pos += wordSize
			continue
		}
		v, err := d.static(t, pos)
		if err != nil {
			return nil, err
		}
		values[i] = v
		pos += t.headSize()
	}
	return values, nil
}

func (d *decoder) word(t Type, at int) ([]byte, error) {
	if at < 0 || at+wordSize > len(d.buf) {
		return nil, d.fail(t, at, "need 32 bytes, buffer has %d", len(d.buf)-at)
	}
	return d.buf[at : at+wordSize], nil
}

// length reads a word holding an offset or element count; it must fit in
// the buffer to be meaningful.
func (d *decoder) length(t Type, at int) (int, error) {
	w, err := d.word(t, at)
	if err != nil {
		return 0, err
	}
	n := new(big.Int).SetBytes(w)
	if !n.IsInt64() || n.Int64() > int64(len(d.buf)) {
		return 0, d.fail(t, at, "length or offset %s exceeds %d-byte buffer", n, len(d.buf))
	}
	return int(n.Int64()), nil
}

func (d *decoder) static(t Type, at int) (any, error) {
	if t.Kind == KindArray {
		elems, err := d.tuple(repeat(*t.Elem, t.Size), at)
		if err != nil {
			return nil, err
		}
		return elems, nil
	}

	w, err := d.word(t, at)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case KindUint:
		n := new(big.Int).SetBytes(w)
		if n.BitLen() > t.Size {
			return nil, d.fail(t, at, "value exceeds %d bits", t.Size)
		}
		return n, nil
	case KindInt:
		n := new(big.Int).SetBytes(w)
		if w[0]&0x80 != 0 {
			n.Sub(n, two256)
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, d.fail(t, at, "value is not a sign-extended %d-bit integer", t.Size)
		}
		return n, nil
	case KindAddress:
		if !allZero(w[:wordSize-AddressLength]) {
			return nil, d.fail(t, at, "dirty high-order bytes")
		}
		return BytesToAddress(w[wordSize-AddressLength:]), nil
	case KindBool:
		if !allZero(w[:wordSize-1]) || w[wordSize-1] > 1 {
			return nil, d.fail(t, at, "bool must be 0 or 1")
		}
		return w[wordSize-1] == 1, nil
	case KindFixedBytes:
		out := make([]byte, t.Size)
		copy(out, w[:t.Size])
		return out, nil
	}
	return nil, d.fail(t, at, "not a static type")
}

func (d *decoder) dynamic(t Type, at int) (any, error) {
	switch t.Kind {
	case KindBytes, KindString:
		n, err := d.length(t, at)
		if err != nil {
			return nil, err
		}
		start := at + wordSize
		if n > len(d.buf)-start {
			return nil, d.fail(t, at, "declared length %d exceeds remaining %d bytes", n, len(d.buf)-start)
		}
		raw := make([]byte, n)
		copy(raw, d.buf[start:start+n])
		if t.Kind == KindString {
			return string(raw), nil
		}
		return raw, nil
	case KindSlice:
		n, err := d.length(t, at)
		if err != nil {
			return nil, err
		}
		start := at + wordSize
		// Each element needs at least one head word.
		if n > (len(d.buf)-start)/wordSize {
			return nil, d.fail(t, at, "declared %d elements exceed remaining %d bytes", n, len(d.buf)-start)
		}
		return d.tuple(repeat(*t.Elem, n), start)
	case KindArray:
		return d.tuple(repeat(*t.Elem, t.Size), at)
	}
	return nil, d.fail(t, at, "not a dynamic type")
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
