package quorum

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestAccountPersistence(t *testing.T) {
	db := mapStore{}
	key := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	acc, err := LoadAccount(db, key)
	require.NoError(t, err)
	require.True(t, acc.IsEmpty())
	require.Equal(t, solana.SystemProgramID, acc.Owner)

	acc = &Account{Lamports: 1234, Owner: owner, Data: []byte("some data")}
	require.NoError(t, SaveAccount(db, key, acc))
	require.Len(t, db, 1)

	got, err := LoadAccount(db, key)
	require.NoError(t, err)
	require.Equal(t, acc, got)

	// Draining an account removes it from the store.
	require.NoError(t, SaveAccount(db, key, &Account{Owner: solana.SystemProgramID}))
	require.Len(t, db, 0)
}

func TestAccountInfoResize(t *testing.T) {
	info := AccountInfo{Data: []byte{1, 2, 3}}
	info.Resize(5)
	require.Equal(t, []byte{1, 2, 3, 0, 0}, info.Data)
	info.Resize(1)
	require.Equal(t, []byte{1}, info.Data)

	acc := info.Account()
	acc.Data[0] = 9
	require.Equal(t, byte(1), info.Data[0], "account must be a copy")
}

// mapStore is the simplest KVStore implementation, good enough to test
// the account persistence.
type mapStore map[string][]byte

func (m mapStore) Get(key []byte) ([]byte, error) { return m[string(key)], nil }

func (m mapStore) Has(key []byte) (bool, error) {
	_, ok := m[string(key)]
	return ok, nil
}

func (m mapStore) Set(key, value []byte) error {
	m[string(key)] = value
	return nil
}

func (m mapStore) Delete(key []byte) error {
	delete(m, string(key))
	return nil
}
