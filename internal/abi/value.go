package abi

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParseValue converts command-line text into a Go value Encode accepts for
// t. Arrays are written as JSON arrays: [1,2,3] or ["0xab..","0xcd.."].
func ParseValue(t Type, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch t.Kind {
	case KindUint, KindInt:
		return parseIntString(s)
	case KindAddress:
		return ParseAddress(s)
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", s)
		}
		return b, nil
	case KindFixedBytes, KindBytes:
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q", s)
		}
		if t.Kind == KindFixedBytes && len(b) != t.Size {
			return nil, fmt.Errorf("%s needs %d bytes, got %d", t, t.Size, len(b))
		}
		return b, nil
	case KindString:
		return s, nil
	case KindSlice, KindArray:
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("%s expects a JSON array: %w", t, err)
		}
		if t.Kind == KindArray && len(raw) != t.Size {
			return nil, fmt.Errorf("%s needs %d elements, got %d", t, t.Size, len(raw))
		}
		out := make([]any, len(raw))
		for i, r := range raw {
			text := string(r)
			var str string
			if err := json.Unmarshal(r, &str); err == nil {
				text = str
			}
			v, err := ParseValue(*t.Elem, text)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

// ParseValues converts one string per argument.
func ParseValues(args []Argument, texts []string) ([]any, error) {
	if len(args) != len(texts) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(args), len(texts))
	}
	values := make([]any, len(args))
	for i, a := range args {
		v, err := ParseValue(a.Type, texts[i])
		if err != nil {
			name := a.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, a.Type, err)
		}
		values[i] = v
	}
	return values, nil
}

// FormatValue renders a decoded value for display: integers in decimal,
// bytes as 0x-hex, arrays as [a, b, c].
func FormatValue(v any) string {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case Address:
		return x.Hex()
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
