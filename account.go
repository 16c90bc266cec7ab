package quorum

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum/errors"
)

// accountKeyPrefix is prepended to the account address to create the
// storage key of an account.
const accountKeyPrefix = "acc:"

// Account is the persisted state of a single address.
type Account struct {
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// IsEmpty returns true if the account does not hold any lamports or data
// and is owned by the system program. Such account is never stored.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && a.Owner.Equals(solana.SystemProgramID)
}

func (a *Account) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(a.Lamports, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteBytes(a.Owner[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(a.Data)), binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBytes(a.Data, false)
}

func (a *Account) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	if a.Lamports, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	owner, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	a.Owner = solana.PublicKeyFromBytes(owner)
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return err
	}
	data, err := dec.ReadNBytes(int(n))
	if err != nil {
		return err
	}
	a.Data = append([]byte(nil), data...)
	return nil
}

// Marshal returns the binary representation of the account.
func (a *Account) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal loads the account state from its binary representation.
func (a *Account) Unmarshal(raw []byte) error {
	return a.UnmarshalWithDecoder(bin.NewBorshDecoder(raw))
}

// LoadAccount returns the account stored under given address. An account
// that was never stored is returned as an empty account owned by the system
// program.
func LoadAccount(db ReadOnlyKVStore, key solana.PublicKey) (*Account, error) {
	raw, err := db.Get(accountKey(key))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	acc := Account{Owner: solana.SystemProgramID}
	if raw == nil {
		return &acc, nil
	}
	if err := acc.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrState, "cannot unmarshal account %s: %s", key, err)
	}
	return &acc, nil
}

// SaveAccount persists given account state. Empty accounts are deleted.
func SaveAccount(db SetDeleter, key solana.PublicKey, acc *Account) error {
	if acc.IsEmpty() {
		return db.Delete(accountKey(key))
	}
	raw, err := acc.Marshal()
	if err != nil {
		return errors.Wrapf(errors.ErrState, "cannot marshal account %s: %s", key, err)
	}
	return db.Set(accountKey(key), raw)
}

func accountKey(key solana.PublicKey) []byte {
	return append([]byte(accountKeyPrefix), key[:]...)
}

// AccountInfo is an account as passed to a program handler. Handlers modify
// Lamports, Owner and Data in place.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool

	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// Meta returns the account reference that can be used to build an
// instruction for another program.
func (a *AccountInfo) Meta() *solana.AccountMeta {
	return &solana.AccountMeta{
		PublicKey:  a.Key,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
}

// Resize changes the length of the account data. Data is truncated or
// extended with zero bytes.
func (a *AccountInfo) Resize(size int) {
	switch {
	case size < len(a.Data):
		a.Data = a.Data[:size]
	case size > len(a.Data):
		a.Data = append(a.Data, make([]byte, size-len(a.Data))...)
	}
}

// Account returns a copy of the account state represented by this info.
func (a *AccountInfo) Account() *Account {
	return &Account{
		Lamports: a.Lamports,
		Owner:    a.Owner,
		Data:     append([]byte(nil), a.Data...),
	}
}
