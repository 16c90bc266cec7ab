package app

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

var (
	slotKey        = []byte("_l:slot")
	blockhashesKey = []byte("_l:blockhashes")
	signaturePfx   = []byte("_l:sig:")
)

// genesisBlockhash is the blockhash valid before any transaction was
// processed.
var genesisBlockhash = solana.Hash(sha256.Sum256([]byte("quorum genesis")))

// ledgerState holds the bookkeeping of processed slots. It is stored
// together with the accounts so that it is always consistent with them.
type ledgerState struct {
	Slot        uint64
	Blockhashes []solana.Hash // oldest first
}

func loadState(db quorum.ReadOnlyKVStore) (*ledgerState, error) {
	st := ledgerState{Blockhashes: []solana.Hash{genesisBlockhash}}

	raw, err := db.Get(slotKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw != nil {
		if len(raw) != 8 {
			return nil, errors.Wrap(errors.ErrState, "invalid slot")
		}
		st.Slot = binary.LittleEndian.Uint64(raw)
	}

	raw, err = db.Get(blockhashesKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw != nil {
		dec := bin.NewBorshDecoder(raw)
		n, err := dec.ReadUint32(binary.LittleEndian)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrState, "blockhashes: %s", err)
		}
		st.Blockhashes = make([]solana.Hash, 0, n)
		for i := uint32(0); i < n; i++ {
			b, err := dec.ReadNBytes(32)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrState, "blockhashes: %s", err)
			}
			st.Blockhashes = append(st.Blockhashes, solana.HashFromBytes(b))
		}
	}
	return &st, nil
}

func (st *ledgerState) save(db quorum.SetDeleter) error {
	slot := make([]byte, 8)
	binary.LittleEndian.PutUint64(slot, st.Slot)
	if err := db.Set(slotKey, slot); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint32(uint32(len(st.Blockhashes)), binary.LittleEndian); err != nil {
		return errors.Wrap(errors.ErrState, err.Error())
	}
	for _, h := range st.Blockhashes {
		if err := enc.WriteBytes(h[:], false); err != nil {
			return errors.Wrap(errors.ErrState, err.Error())
		}
	}
	return db.Set(blockhashesKey, buf.Bytes())
}

// Latest returns the most recent blockhash.
func (st *ledgerState) Latest() solana.Hash {
	return st.Blockhashes[len(st.Blockhashes)-1]
}

// IsRecent returns true if given blockhash can still be used by a
// transaction.
func (st *ledgerState) IsRecent(h solana.Hash) bool {
	for _, b := range st.Blockhashes {
		if b == h {
			return true
		}
	}
	return false
}

// Advance moves to the next slot. The new blockhash commits to the previous
// one and to the signature of the transaction that closed the slot.
func (st *ledgerState) Advance(sig solana.Signature, keep uint32) {
	st.Slot++

	prev := st.Latest()
	slot := make([]byte, 8)
	binary.LittleEndian.PutUint64(slot, st.Slot)

	hasher := sha256.New()
	hasher.Write(prev[:])
	hasher.Write(slot)
	hasher.Write(sig[:])
	st.Blockhashes = append(st.Blockhashes, solana.HashFromBytes(hasher.Sum(nil)))

	if n := len(st.Blockhashes); n > int(keep) {
		st.Blockhashes = append([]solana.Hash(nil), st.Blockhashes[n-int(keep):]...)
	}
}

func signatureKey(sig solana.Signature) []byte {
	return append(append([]byte(nil), signaturePfx...), sig[:]...)
}

func isProcessed(db quorum.ReadOnlyKVStore, sig solana.Signature) (bool, error) {
	ok, err := db.Has(signatureKey(sig))
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

func markProcessed(db quorum.SetDeleter, sig solana.Signature, slot uint64) error {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, slot)
	return db.Set(signatureKey(sig), raw)
}
