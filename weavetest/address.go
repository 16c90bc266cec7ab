package weavetest

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

// ParsePublicKey takes an address in base58 format and returns its binary
// representation. The test fails if the address cannot be decoded.
func ParsePublicKey(t testing.TB, encoded string) solana.PublicKey {
	t.Helper()

	pk, err := solana.PublicKeyFromBase58(encoded)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encoded, err)
	}
	return pk
}
