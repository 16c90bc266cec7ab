package weavetest

import (
	"bytes"
	"sort"
	"testing"

	"github.com/gagliardetto/solana-go"
)

// NewKey returns a new random ed25519 key.
func NewKey(t testing.TB) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("cannot generate a key: %s", err)
	}
	return key
}

// NewKeys returns n random keys ordered by their public key.
func NewKeys(t testing.TB, n int) []solana.PrivateKey {
	t.Helper()
	keys := make([]solana.PrivateKey, n)
	for i := range keys {
		keys[i] = NewKey(t)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i].PublicKey(), keys[j].PublicKey()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return keys
}

// PublicKeys returns the public part of all given keys.
func PublicKeys(keys ...solana.PrivateKey) []solana.PublicKey {
	res := make([]solana.PublicKey, len(keys))
	for i, k := range keys {
		res[i] = k.PublicKey()
	}
	return res
}

// SequenceKey returns a public key with all bytes set to zero except the
// last eight that hold n. Keys are valid but cannot sign.
func SequenceKey(n uint64) solana.PublicKey {
	var pk solana.PublicKey
	for i := 0; i < 8; i++ {
		pk[solana.PublicKeyLength-1-i] = byte(n >> (8 * uint(i)))
	}
	return pk
}
