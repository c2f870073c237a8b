package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input     string
		canonical string
		dynamic   bool
	}{
		{"uint256", "uint256", false},
		{"uint", "uint256", false},
		{"int", "int256", false},
		{"uint8", "uint8", false},
		{"int128", "int128", false},
		{"address", "address", false},
		{"bool", "bool", false},
		{"bytes32", "bytes32", false},
		{"bytes1", "bytes1", false},
		{"bytes", "bytes", true},
		{"string", "string", true},
		{"uint[]", "uint256[]", true},
		{"address[3]", "address[3]", false},
		{"string[2]", "string[2]", true},
		{"bytes32[2][]", "bytes32[2][]", true},
		{"uint8[][4]", "uint8[][4]", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ty, err := ParseType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, ty.String())
			assert.Equal(t, tt.dynamic, ty.IsDynamic())
		})
	}
}

func TestParseTypeRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"uint7",
		"uint264",
		"int0",
		"bytes0",
		"bytes33",
		"[]",
		"uint256[0]",
		"uint256[x]",
		"(uint256,address)",
		"tuple",
		"fixed128x18",
		"function",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseType(input)
			assert.Error(t, err)
		})
	}
}

func TestHeadSize(t *testing.T) {
	assert.Equal(t, 32, MustParseType("uint256").headSize())
	assert.Equal(t, 96, MustParseType("address[3]").headSize())
	assert.Equal(t, 128, MustParseType("uint8[2][2]").headSize())
	assert.Equal(t, 32, MustParseType("string[2]").headSize())
	assert.Equal(t, 32, MustParseType("uint256[]").headSize())
}
