package abi

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTokenABI = `[
  {"type":"constructor","inputs":[{"name":"name_","type":"string"},{"name":"supply","type":"uint256"}],"stateMutability":"nonpayable"},
  {"type":"function","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
  {"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"},
  {"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"constant":true},
  {"type":"function","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
  {"type":"function","name":"mint","inputs":[{"name":"to","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"position","inputs":[],"outputs":[{"name":"","type":"tuple","components":[{"name":"x","type":"uint256"}]}],"stateMutability":"view"},
  {"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true}],"anonymous":false},
  {"type":"error","name":"Unauthorized","inputs":[]},
  {"type":"receive","stateMutability":"payable"}
]`

func TestSelector(t *testing.T) {
	tests := []struct {
		signature string
		want      string
	}{
		{"balanceOf(address)", "0x70a08231"},
		{"transfer(address,uint256)", "0xa9059cbb"},
		{"name()", "0x06fdde03"},
		{"totalSupply()", "0x18160ddd"},
		{"Error(string)", "0x08c379a0"},
		{"Panic(uint256)", "0x4e487b71"},
	}
	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectorHex(tt.signature))
			// Second lookup is served from the cache and must agree.
			assert.Equal(t, tt.want, SelectorHex(tt.signature))
		})
	}
}

func TestKeccak256(t *testing.T) {
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256(nil)))
}

func TestParseABI(t *testing.T) {
	a, err := Parse(strings.NewReader(testTokenABI))
	require.NoError(t, err)

	require.Len(t, a.Constructor, 2)
	assert.Equal(t, "string", a.Constructor[0].Type.String())
	assert.Len(t, a.Functions, 7)
	require.Len(t, a.Skipped, 1)
	assert.Contains(t, a.Skipped[0], "position")

	name, err := a.Function("name")
	require.NoError(t, err)
	assert.Equal(t, "name()", name.Signature())
	assert.True(t, name.IsReadOnly())

	supply, err := a.Function("totalSupply")
	require.NoError(t, err)
	assert.True(t, supply.IsReadOnly(), "legacy constant flag maps to view")

	transfer, err := a.Function("transfer")
	require.NoError(t, err)
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, transfer.Selector())
	assert.False(t, transfer.IsReadOnly())

	_, err = a.Function("Transfer")
	assert.Error(t, err, "events are not callable")
	_, err = a.Function("position")
	assert.Error(t, err)
}

func TestParseABIArtifact(t *testing.T) {
	a, err := ParseJSON([]byte(`{"contractName":"TestToken","abi":` + testTokenABI + `,"bytecode":"0x6080"}`))
	require.NoError(t, err)
	assert.Len(t, a.Functions, 7)

	_, err = ParseJSON([]byte(`{"contractName":"TestToken"}`))
	assert.Error(t, err)
	_, err = ParseJSON([]byte(`not json`))
	assert.Error(t, err)
	_, err = ParseJSON([]byte(`[{"type":"constructor","inputs":[{"name":"p","type":"fixed128x18"}]}]`))
	assert.Error(t, err)
}

func TestOverloadLookup(t *testing.T) {
	a, err := ParseJSON([]byte(testTokenABI))
	require.NoError(t, err)

	first, err := a.Function("mint")
	require.NoError(t, err)
	assert.Equal(t, "mint(address)", first.Signature())

	second, err := a.Function("mint(address,uint256)")
	require.NoError(t, err)
	assert.Len(t, second.Inputs, 2)
}

func TestFunctionPackUnpack(t *testing.T) {
	a, err := ParseJSON([]byte(testTokenABI))
	require.NoError(t, err)

	balanceOf, err := a.Function("balanceOf")
	require.NoError(t, err)

	call, err := balanceOf.Pack("0xD323BFC8ED0D0E8FA923DC00DF30848BD6721FB2")
	require.NoError(t, err)
	assert.Equal(t,
		"70a08231000000000000000000000000d323bfc8ed0d0e8fa923dc00df30848bd6721fb2",
		hex.EncodeToString(call.Data()))
	assert.Equal(t, [4]byte{0x70, 0xa0, 0x82, 0x31}, call.Selector())
	assert.Len(t, call.EncodedArgs(), 32)

	// Data returns a fresh copy.
	d := call.Data()
	d[0] = 0
	assert.Equal(t, byte(0x70), call.Data()[0])

	args, err := balanceOf.UnpackInputs(call.Data())
	require.NoError(t, err)
	assert.Equal(t, MustParseAddress("0xd323bfc8ed0d0e8fa923dc00df30848bd6721fb2"), args[0])

	out, err := balanceOf.Unpack(mustHex(t, words("3e8")))
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].(*big.Int).Cmp(big.NewInt(1000)))

	_, err = balanceOf.Pack()
	assert.Error(t, err)

	_, err = balanceOf.Unpack(nil)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "outputs of balanceOf(address)", decErr.Op)
}

func TestPackConstructor(t *testing.T) {
	a, err := ParseJSON([]byte(testTokenABI))
	require.NoError(t, err)

	enc, err := a.PackConstructor("TestToken", big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t,
		words("40", "3e8", "9")+rightPad(hex.EncodeToString([]byte("TestToken"))),
		hex.EncodeToString(enc))

	_, err = a.PackConstructor("TestToken")
	assert.Error(t, err)

	empty := New(nil)
	enc, err = empty.PackConstructor()
	require.NoError(t, err)
	assert.Empty(t, enc)
}

func TestNewFunction(t *testing.T) {
	f, err := NewFunction("transfer", []string{"address", "uint"}, []string{"bool"}, "nonpayable")
	require.NoError(t, err)
	assert.Equal(t, "transfer(address,uint256)", f.Signature())
	assert.Equal(t, Selector("transfer(address,uint256)"), f.Selector())

	_, err = NewFunction("bad", []string{"tuple"}, nil, "view")
	assert.Error(t, err)
}

func TestUnpackRevert(t *testing.T) {
	reason, err := Encode([]Type{MustParseType("string")}, []any{"insufficient balance"})
	require.NoError(t, err)
	sel := Selector("Error(string)")

	got, ok := UnpackRevert(append(sel[:], reason...))
	assert.True(t, ok)
	assert.Equal(t, "insufficient balance", got)

	code, err := Encode([]Type{MustParseType("uint256")}, []any{0x11})
	require.NoError(t, err)
	psel := Selector("Panic(uint256)")
	got, ok = UnpackRevert(append(psel[:], code...))
	assert.True(t, ok)
	assert.Equal(t, "panic: 0x11", got)

	custom := Selector("Unauthorized()")
	_, ok = UnpackRevert(custom[:])
	assert.False(t, ok)

	_, ok = UnpackRevert(nil)
	assert.False(t, ok)

	_, ok = UnpackRevert(sel[:])
	assert.False(t, ok, "truncated Error(string) payload")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ   string
		input string
		want  string
	}{
		{"uint256", "1000", "1000"},
		{"uint256", "0x3e8", "1000"},
		{"int64", "-7", "-7"},
		{"address", "0xD323BFC8ED0D0E8FA923DC00DF30848BD6721FB2", "0xd323bfc8ed0d0e8fa923dc00df30848bd6721fb2"},
		{"bool", "true", "true"},
		{"bytes", "0xDEADbeef", "0xdeadbeef"},
		{"bytes2", "abcd", "0xabcd"},
		{"string", "TestToken", "TestToken"},
		{"uint256[]", "[1, 2, \"0x3\"]", "[1, 2, 3]"},
		{"address[2]", `["0x00000000000000000000000000000000000000aa","0x00000000000000000000000000000000000000bb"]`,
			"[0x00000000000000000000000000000000000000aa, 0x00000000000000000000000000000000000000bb]"},
		{"string[]", `["a","b c"]`, "[a, b c]"},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.input, func(t *testing.T) {
			v, err := ParseValue(MustParseType(tt.typ), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatValue(v))

			_, err = Encode([]Type{MustParseType(tt.typ)}, []any{v})
			assert.NoError(t, err)
		})
	}
}

func TestParseValueRejects(t *testing.T) {
	tests := []struct {
		typ   string
		input string
	}{
		{"uint256", "ten"},
		{"bool", "maybe"},
		{"address", "0x12"},
		{"bytes", "0xzz"},
		{"bytes4", "0x01"},
		{"uint256[]", "1,2"},
		{"uint256[2]", "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.input, func(t *testing.T) {
			_, err := ParseValue(MustParseType(tt.typ), tt.input)
			assert.Error(t, err)
		})
	}

	_, err := ParseValues([]Argument{{Name: "to", Type: MustParseType("address")}}, nil)
	assert.Error(t, err)
}
