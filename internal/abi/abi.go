package abi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Argument is one named, typed function input or output.
type Argument struct {
	Name string
	Type Type
}

// Function is a contract function from the ABI artifact. Its signature and
// selector are computed once when the ABI is parsed.
type Function struct {
	Name            string
	Inputs          []Argument
	Outputs         []Argument
	StateMutability string

	signature string
	selector  [4]byte
}

// NewFunction builds a Function from type names, for callers that have no
// JSON artifact.
func NewFunction(name string, inputs, outputs []string, mutability string) (*Function, error) {
	in, err := arguments(inputs)
	if err != nil {
		return nil, fmt.Errorf("function %s inputs: %w", name, err)
	}
	out, err := arguments(outputs)
	if err != nil {
		return nil, fmt.Errorf("function %s outputs: %w", name, err)
	}
	return newFunction(name, in, out, mutability), nil
}

func newFunction(name string, in, out []Argument, mutability string) *Function {
	f := &Function{Name: name, Inputs: in, Outputs: out, StateMutability: mutability}
	names := make([]string, len(in))
	for i, a := range in {
		names[i] = a.Type.String()
	}
	f.signature = name + "(" + strings.Join(names, ",") + ")"
	f.selector = Selector(f.signature)
	return f
}

func arguments(types []string) ([]Argument, error) {
	args := make([]Argument, len(types))
	for i, name := range types {
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		args[i] = Argument{Type: t}
	}
	return args, nil
}

// Signature returns the canonical signature, e.g. "transfer(address,uint256)".
func (f *Function) Signature() string { return f.signature }

// Selector returns the function's 4-byte selector.
func (f *Function) Selector() [4]byte { return f.selector }

// IsReadOnly reports whether the function is declared view or pure.
func (f *Function) IsReadOnly() bool {
	return f.StateMutability == "view" || f.StateMutability == "pure"
}

// InputTypes returns the declared input types.
func (f *Function) InputTypes() []Type { return argTypes(f.Inputs) }

// OutputTypes returns the declared return types.
func (f *Function) OutputTypes() []Type { return argTypes(f.Outputs) }

func argTypes(args []Argument) []Type {
	types := make([]Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	return types
}

// FunctionCall is encoded call data: a selector plus the ABI-encoded
// argument block. It is a value; Data returns a fresh copy each time.
type FunctionCall struct {
	selector [4]byte
	args     []byte
}

// Selector returns the 4-byte function selector.
func (c FunctionCall) Selector() [4]byte { return c.selector }

// EncodedArgs returns a copy of the argument block.
func (c FunctionCall) EncodedArgs() []byte { return append([]byte(nil), c.args...) }

// Data returns selector || encoded args, ready for a transaction's data field.
func (c FunctionCall) Data() []byte {
	out := make([]byte, 0, 4+len(c.args))
	out = append(out, c.selector[:]...)
	return append(out, c.args...)
}

// Pack encodes args into a FunctionCall.
func (f *Function) Pack(args ...any) (FunctionCall, error) {
	if len(args) != len(f.Inputs) {
		return FunctionCall{}, fmt.Errorf("%s: expected %d arguments, got %d", f.signature, len(f.Inputs), len(args))
	}
	enc, err := Encode(f.InputTypes(), args)
	if err != nil {
		return FunctionCall{}, fmt.Errorf("%s: %w", f.signature, err)
	}
	return FunctionCall{selector: f.selector, args: enc}, nil
}

// Unpack decodes return data according to the declared outputs.
func (f *Function) Unpack(data []byte) ([]any, error) {
	values, err := Decode(f.OutputTypes(), data)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Op = "outputs of " + f.signature
			return nil, de
		}
		return nil, err
	}
	return values, nil
}

// UnpackInputs decodes call data (with or without the selector) according
// to the declared inputs.
func (f *Function) UnpackInputs(data []byte) ([]any, error) {
	if len(data) >= 4 && bytes.Equal(data[:4], f.selector[:]) {
		data = data[4:]
	}
	values, err := Decode(f.InputTypes(), data)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Op = "inputs of " + f.signature
			return nil, de
		}
		return nil, err
	}
	return values, nil
}

// ABI is a parsed contract interface: its functions and constructor.
type ABI struct {
	Constructor []Argument
	Functions   []*Function
	// Skipped lists functions whose types are not supported, with the reason.
	Skipped []string

	byName      map[string]*Function
	bySignature map[string]*Function
}

type jsonArgument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonEntry struct {
	Type            string         `json:"type"`
	Name            string         `json:"name"`
	Inputs          []jsonArgument `json:"inputs"`
	Outputs         []jsonArgument `json:"outputs"`
	StateMutability string         `json:"stateMutability"`
	Constant        bool           `json:"constant"`
}

// Parse reads a JSON ABI artifact as produced by solc or a build tool:
// an array of entries, or an object with an "abi" field. Events, errors,
// fallback and receive entries are skipped.
func Parse(r io.Reader) (*ABI, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read abi: %w", err)
	}
	return ParseJSON(raw)
}

// ParseJSON is Parse for an in-memory artifact.
func ParseJSON(raw []byte) (*ABI, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("parse abi artifact: %w", err)
		}
		if len(wrapped.ABI) == 0 {
			return nil, fmt.Errorf("parse abi artifact: no \"abi\" field")
		}
		raw = wrapped.ABI
	}

	var entries []jsonEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	a := &ABI{
		byName:      make(map[string]*Function),
		bySignature: make(map[string]*Function),
	}
	for _, e := range entries {
		switch e.Type {
		case "function", "":
			in, err := jsonArguments(e.Inputs)
			if err == nil {
				var out []Argument
				out, err = jsonArguments(e.Outputs)
				if err == nil {
					mutability := e.StateMutability
					if mutability == "" && e.Constant {
						mutability = "view"
					}
					a.add(newFunction(e.Name, in, out, mutability))
					continue
				}
			}
			// Functions using tuples stay uncallable rather than
			// rejecting the whole artifact.
			a.Skipped = append(a.Skipped, fmt.Sprintf("%s: %v", e.Name, err))
		case "constructor":
			in, err := jsonArguments(e.Inputs)
			if err != nil {
				return nil, fmt.Errorf("constructor inputs: %w", err)
			}
			a.Constructor = in
		}
	}
	return a, nil
}

// New assembles an ABI from already-built functions.
func New(constructor []Argument, functions ...*Function) *ABI {
	a := &ABI{
		Constructor: constructor,
		byName:      make(map[string]*Function),
		bySignature: make(map[string]*Function),
	}
	for _, f := range functions {
		a.add(f)
	}
	return a
}

func (a *ABI) add(f *Function) {
	a.Functions = append(a.Functions, f)
	// Overloads: the first declared wins a bare-name lookup.
	if _, ok := a.byName[f.Name]; !ok {
		a.byName[f.Name] = f
	}
	a.bySignature[f.signature] = f
}

func jsonArguments(in []jsonArgument) ([]Argument, error) {
	args := make([]Argument, len(in))
	for i, j := range in {
		t, err := ParseType(j.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, j.Name, err)
		}
		args[i] = Argument{Name: j.Name, Type: t}
	}
	return args, nil
}

// Function looks a function up by bare name or by full signature.
func (a *ABI) Function(name string) (*Function, error) {
	if f, ok := a.bySignature[name]; ok {
		return f, nil
	}
	if f, ok := a.byName[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("function %q not found in abi", name)
}

// PackConstructor encodes constructor arguments. Deployment data is the
// contract bytecode followed by this block.
func (a *ABI) PackConstructor(args ...any) ([]byte, error) {
	if len(args) != len(a.Constructor) {
		return nil, fmt.Errorf("constructor: expected %d arguments, got %d", len(a.Constructor), len(args))
	}
	if len(args) == 0 {
		return nil, nil
	}
	enc, err := Encode(argTypes(a.Constructor), args)
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	return enc, nil
}
