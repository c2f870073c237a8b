package abi

import (
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
)

// selectorCacheSize bounds the number of memoized signatures. Contracts
// rarely expose more than a few dozen functions.
const selectorCacheSize = 1024

var selectorCache = mustCache(selectorCacheSize)

func mustCache(size int) *lru.Cache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return c
}

// Keccak256 returns the legacy Keccak-256 hash used by Ethereum (not the
// finalized SHA3-256).
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// Selector computes the 4-byte function selector of a canonical signature,
// e.g. "balanceOf(address)" -> 0x70a08231. Results are memoized since the
// same few signatures are hashed on every call.
func Selector(signature string) [4]byte {
	if v, ok := selectorCache.Get(signature); ok {
		return v.([4]byte)
	}
	var sel [4]byte
	copy(sel[:], Keccak256([]byte(signature))[:4])
	selectorCache.Add(signature, sel)
	return sel
}

// SelectorHex returns the selector as 0x-prefixed hex.
func SelectorHex(signature string) string {
	sel := Selector(signature)
	return "0x" + hex.EncodeToString(sel[:])
}
