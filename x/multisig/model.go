package multisig

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

var (
	walletTag      = discriminator("account", "MultisigWallet")
	transactionTag = discriminator("account", "MultisigTransaction")
)

const (
	tagSize          = 8
	accountMetaSize  = solana.PublicKeyLength + 1 + 1
	optionalTimeSize = 1 + 8
)

// Wallet is the state of a multisig wallet account.
type Wallet struct {
	// Base is the public key the wallet address is derived from.
	Base solana.PublicKey
	// Members are the keys allowed to propose and approve transactions.
	Members []solana.PublicKey
	// Threshold is the number of approvals required to execute.
	Threshold uint16
	// TxNonce is used to derive the address of the next transaction.
	TxNonce uint64
	// MemberSetSeqno is incremented each time members change. It
	// invalidates all transactions proposed before the change.
	MemberSetSeqno uint32
	// Bump is the derivation bump of the wallet address.
	Bump uint8
}

// WalletSpace returns the size of the account data of a wallet with n
// members.
func WalletSpace(n int) int {
	return tagSize +
		solana.PublicKeyLength + // base
		4 + n*solana.PublicKeyLength + // members
		2 + // threshold
		8 + // tx nonce
		4 + // member set seqno
		1 // bump
}

// MemberIndex returns the position of given key in the member list or -1.
func (w *Wallet) MemberIndex(key solana.PublicKey) int {
	for i, m := range w.Members {
		if m == key {
			return i
		}
	}
	return -1
}

func (w *Wallet) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(walletTag[:], false); err != nil {
		return err
	}
	if err := writePublicKey(enc, w.Base); err != nil {
		return err
	}
	if err := writePublicKeys(enc, w.Members); err != nil {
		return err
	}
	if err := enc.WriteUint16(w.Threshold, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(w.TxNonce, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint32(w.MemberSetSeqno, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint8(w.Bump)
}

func (w *Wallet) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := readTag(dec, walletTag); err != nil {
		return err
	}
	var err error
	if w.Base, err = readPublicKey(dec); err != nil {
		return err
	}
	if w.Members, err = readPublicKeys(dec); err != nil {
		return err
	}
	if w.Threshold, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	if w.TxNonce, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	if w.MemberSetSeqno, err = dec.ReadUint32(binary.LittleEndian); err != nil {
		return err
	}
	w.Bump, err = dec.ReadUint8()
	return err
}

// Marshal returns the account data of the wallet.
func (w *Wallet) Marshal() ([]byte, error) {
	return marshal(w)
}

// Unmarshal loads the wallet from account data. Trailing bytes are
// ignored.
func (w *Wallet) Unmarshal(raw []byte) error {
	return unmarshal(raw, "wallet", w)
}

// AccountMeta describes an account referenced by a stored instruction.
type AccountMeta struct {
	PublicKey  solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a call to a program stored by a multisig transaction and
// issued on its execution.
type Instruction struct {
	ProgramID solana.PublicKey
	Keys      []AccountMeta
	Data      []byte
}

// NewInstruction returns a copy of given instruction that can be stored
// in a transaction.
func NewInstruction(ix solana.Instruction) (Instruction, error) {
	data, err := ix.Data()
	if err != nil {
		return Instruction{}, errors.Wrapf(errors.ErrInput, "instruction data: %s", err)
	}
	var keys []AccountMeta
	for _, m := range ix.Accounts() {
		keys = append(keys, AccountMeta{
			PublicKey:  m.PublicKey,
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	return Instruction{
		ProgramID: ix.ProgramID(),
		Keys:      keys,
		Data:      append([]byte(nil), data...),
	}, nil
}

// Space returns the encoded size of the instruction.
func (ix *Instruction) Space() int {
	return solana.PublicKeyLength +
		4 + len(ix.Keys)*accountMetaSize +
		4 + len(ix.Data)
}

// Solana returns the instruction in a form accepted by the runtime.
func (ix *Instruction) Solana() solana.Instruction {
	metas := make(solana.AccountMetaSlice, len(ix.Keys))
	for i, k := range ix.Keys {
		metas[i] = &solana.AccountMeta{
			PublicKey:  k.PublicKey,
			IsSigner:   k.IsSigner,
			IsWritable: k.IsWritable,
		}
	}
	return solana.NewInstruction(ix.ProgramID, metas, ix.Data)
}

func (ix *Instruction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := writePublicKey(enc, ix.ProgramID); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(ix.Keys)), binary.LittleEndian); err != nil {
		return err
	}
	for _, k := range ix.Keys {
		if err := writePublicKey(enc, k.PublicKey); err != nil {
			return err
		}
		if err := enc.WriteBool(k.IsSigner); err != nil {
			return err
		}
		if err := enc.WriteBool(k.IsWritable); err != nil {
			return err
		}
	}
	return enc.WriteBytes(ix.Data, true)
}

func (ix *Instruction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	if ix.ProgramID, err = readPublicKey(dec); err != nil {
		return err
	}
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return err
	}
	ix.Keys = nil
	for i := uint32(0); i < n; i++ {
		var k AccountMeta
		if k.PublicKey, err = readPublicKey(dec); err != nil {
			return err
		}
		if k.IsSigner, err = dec.ReadBool(); err != nil {
			return err
		}
		if k.IsWritable, err = dec.ReadBool(); err != nil {
			return err
		}
		ix.Keys = append(ix.Keys, k)
	}
	size, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return err
	}
	data, err := dec.ReadNBytes(int(size))
	if err != nil {
		return err
	}
	ix.Data = append([]byte(nil), data...)
	return nil
}

func writeInstructions(enc *bin.Encoder, ixs []Instruction) error {
	if err := enc.WriteUint32(uint32(len(ixs)), binary.LittleEndian); err != nil {
		return err
	}
	for i := range ixs {
		if err := ixs[i].MarshalWithEncoder(enc); err != nil {
			return err
		}
	}
	return nil
}

func readInstructions(dec *bin.Decoder) ([]Instruction, error) {
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	var ixs []Instruction
	for i := uint32(0); i < n; i++ {
		var ix Instruction
		if err := ix.UnmarshalWithDecoder(dec); err != nil {
			return nil, err
		}
		ixs = append(ixs, ix)
	}
	return ixs, nil
}

// Transaction is the state of a proposed operation: a list of
// instructions executed on behalf of the wallet once enough members
// approve it.
type Transaction struct {
	Instructions []Instruction
	// Wallet is the address of the multisig wallet this transaction
	// belongs to.
	Wallet solana.PublicKey
	// Approved holds one slot per wallet member, in member order. A set
	// slot is the time of the approval.
	Approved []*quorum.UnixTime
	// MemberSetSeqno is the wallet member set version at proposal time.
	MemberSetSeqno uint32
	CreatedAt      quorum.UnixTime
	Proposer       solana.PublicKey
	Executor       *solana.PublicKey
	ExecutedAt     *quorum.UnixTime
}

// TransactionSpace returns the maximum encoded size of a transaction
// holding given instructions, proposed to a wallet with n members.
func TransactionSpace(ixs []Instruction, n int) int {
	space := tagSize + 4
	for i := range ixs {
		space += ixs[i].Space()
	}
	return space +
		solana.PublicKeyLength + // wallet
		4 + n*optionalTimeSize + // approved
		4 + // member set seqno
		8 + // created at
		solana.PublicKeyLength + // proposer
		1 + solana.PublicKeyLength + // executor
		optionalTimeSize // executed at
}

// IsExecuted returns true once the transaction was executed.
func (t *Transaction) IsExecuted() bool {
	return t.Executor != nil || t.ExecutedAt != nil
}

// Approvals returns the number of members that approved the transaction.
func (t *Transaction) Approvals() int {
	var n int
	for _, a := range t.Approved {
		if a != nil {
			n++
		}
	}
	return n
}

func (t *Transaction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(transactionTag[:], false); err != nil {
		return err
	}
	if err := writeInstructions(enc, t.Instructions); err != nil {
		return err
	}
	if err := writePublicKey(enc, t.Wallet); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(t.Approved)), binary.LittleEndian); err != nil {
		return err
	}
	for _, a := range t.Approved {
		if err := writeOptionalTime(enc, a); err != nil {
			return err
		}
	}
	if err := enc.WriteUint32(t.MemberSetSeqno, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteInt64(int64(t.CreatedAt), binary.LittleEndian); err != nil {
		return err
	}
	if err := writePublicKey(enc, t.Proposer); err != nil {
		return err
	}
	if t.Executor == nil {
		if err := enc.WriteOption(false); err != nil {
			return err
		}
	} else {
		if err := enc.WriteOption(true); err != nil {
			return err
		}
		if err := writePublicKey(enc, *t.Executor); err != nil {
			return err
		}
	}
	return writeOptionalTime(enc, t.ExecutedAt)
}

func (t *Transaction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := readTag(dec, transactionTag); err != nil {
		return err
	}
	var err error
	if t.Instructions, err = readInstructions(dec); err != nil {
		return err
	}
	if t.Wallet, err = readPublicKey(dec); err != nil {
		return err
	}
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return err
	}
	t.Approved = nil
	for i := uint32(0); i < n; i++ {
		a, err := readOptionalTime(dec)
		if err != nil {
			return err
		}
		t.Approved = append(t.Approved, a)
	}
	if t.MemberSetSeqno, err = dec.ReadUint32(binary.LittleEndian); err != nil {
		return err
	}
	created, err := dec.ReadInt64(binary.LittleEndian)
	if err != nil {
		return err
	}
	t.CreatedAt = quorum.UnixTime(created)
	if t.Proposer, err = readPublicKey(dec); err != nil {
		return err
	}
	hasExecutor, err := dec.ReadOption()
	if err != nil {
		return err
	}
	t.Executor = nil
	if hasExecutor {
		executor, err := readPublicKey(dec)
		if err != nil {
			return err
		}
		t.Executor = &executor
	}
	t.ExecutedAt, err = readOptionalTime(dec)
	return err
}

// Marshal returns the account data of the transaction.
func (t *Transaction) Marshal() ([]byte, error) {
	return marshal(t)
}

// Unmarshal loads the transaction from account data. Trailing bytes are
// ignored.
func (t *Transaction) Unmarshal(raw []byte) error {
	return unmarshal(raw, "transaction", t)
}

type entity interface {
	MarshalWithEncoder(*bin.Encoder) error
	UnmarshalWithDecoder(*bin.Decoder) error
}

func marshal(m entity) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, errors.Wrap(errors.ErrState, err.Error())
	}
	return buf.Bytes(), nil
}

func unmarshal(raw []byte, name string, m entity) error {
	if len(raw) < tagSize {
		return errors.Wrapf(errors.ErrInvalidType, "not a %s", name)
	}
	if err := m.UnmarshalWithDecoder(bin.NewBorshDecoder(raw)); err != nil {
		if errors.ErrInvalidType.Is(err) {
			return errors.Wrapf(err, "not a %s", name)
		}
		return errors.Wrapf(errors.ErrState, "cannot decode %s: %s", name, err)
	}
	return nil
}

func readTag(dec *bin.Decoder, want [8]byte) error {
	tag, err := dec.ReadNBytes(tagSize)
	if err != nil {
		return err
	}
	if !bytes.Equal(tag, want[:]) {
		return errors.ErrInvalidType
	}
	return nil
}

// writeEntity writes the encoded entity into the allocated account data. The
// rest of the allocation is zeroed.
func writeEntity(data []byte, m entity) error {
	raw, err := marshal(m)
	if err != nil {
		return err
	}
	if len(raw) > len(data) {
		return errors.Wrapf(errors.ErrHuman, "encoded size %d exceeds allocated %d bytes", len(raw), len(data))
	}
	n := copy(data, raw)
	for i := n; i < len(data); i++ {
		data[i] = 0
	}
	return nil
}
