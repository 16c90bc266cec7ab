package multisig

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum/errors"
)

var (
	newMultisigTag     = discriminator("global", "new_multisig")
	newTransactionTag  = discriminator("global", "new_transaction")
	approveTag         = discriminator("global", "approve")
	unapproveTag       = discriminator("global", "unapprove")
	executeTag         = discriminator("global", "execute")
	changeThresholdTag = discriminator("global", "change_threshold")
	changeMembersTag   = discriminator("global", "change_members")
)

// Msg is the decoded instruction data of the multisig program.
type Msg interface {
	MarshalWithEncoder(*bin.Encoder) error
	UnmarshalWithDecoder(*bin.Decoder) error
	tag() [8]byte
}

// NewMultisigMsg creates a new wallet.
type NewMultisigMsg struct {
	Threshold uint16
	Members   []solana.PublicKey
}

func (*NewMultisigMsg) tag() [8]byte { return newMultisigTag }

func (m *NewMultisigMsg) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint16(m.Threshold, binary.LittleEndian); err != nil {
		return err
	}
	return writePublicKeys(enc, m.Members)
}

func (m *NewMultisigMsg) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	if m.Threshold, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	m.Members, err = readPublicKeys(dec)
	return err
}

// Validate checks the threshold against the member list.
func (m *NewMultisigMsg) Validate() error {
	return validateMembers(m.Threshold, m.Members)
}

// NewTransactionMsg proposes instructions to be executed by the wallet.
type NewTransactionMsg struct {
	Instructions []Instruction
}

func (*NewTransactionMsg) tag() [8]byte { return newTransactionTag }

func (m *NewTransactionMsg) MarshalWithEncoder(enc *bin.Encoder) error {
	return writeInstructions(enc, m.Instructions)
}

func (m *NewTransactionMsg) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	m.Instructions, err = readInstructions(dec)
	return err
}

// ApproveMsg records the approval of the signing member.
type ApproveMsg struct{}

func (*ApproveMsg) tag() [8]byte { return approveTag }
func (*ApproveMsg) MarshalWithEncoder(*bin.Encoder) error { return nil }
func (*ApproveMsg) UnmarshalWithDecoder(*bin.Decoder) error { return nil }

// UnapproveMsg withdraws the approval of the signing member.
type UnapproveMsg struct{}

func (*UnapproveMsg) tag() [8]byte { return unapproveTag }
func (*UnapproveMsg) MarshalWithEncoder(*bin.Encoder) error { return nil }
func (*UnapproveMsg) UnmarshalWithDecoder(*bin.Decoder) error { return nil }

// ExecuteMsg executes an approved transaction.
type ExecuteMsg struct{}

func (*ExecuteMsg) tag() [8]byte { return executeTag }
func (*ExecuteMsg) MarshalWithEncoder(*bin.Encoder) error { return nil }
func (*ExecuteMsg) UnmarshalWithDecoder(*bin.Decoder) error { return nil }

// ChangeThresholdMsg sets a new approval threshold of the wallet. It must
// be signed by the wallet itself.
type ChangeThresholdMsg struct {
	Threshold uint16
}

func (*ChangeThresholdMsg) tag() [8]byte { return changeThresholdTag }

func (m *ChangeThresholdMsg) MarshalWithEncoder(enc *bin.Encoder) error {
	return enc.WriteUint16(m.Threshold, binary.LittleEndian)
}

func (m *ChangeThresholdMsg) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	m.Threshold, err = dec.ReadUint16(binary.LittleEndian)
	return err
}

// ChangeMembersMsg replaces the members of the wallet. It must be signed
// by the wallet itself.
type ChangeMembersMsg struct {
	Members []solana.PublicKey
}

func (*ChangeMembersMsg) tag() [8]byte { return changeMembersTag }

func (m *ChangeMembersMsg) MarshalWithEncoder(enc *bin.Encoder) error {
	return writePublicKeys(enc, m.Members)
}

func (m *ChangeMembersMsg) UnmarshalWithDecoder(dec *bin.Decoder) error {
	var err error
	m.Members, err = readPublicKeys(dec)
	return err
}

// MarshalMsg returns the instruction data of given message.
func MarshalMsg(m Msg) ([]byte, error) {
	var buf bytes.Buffer
	tag := m.tag()
	buf.Write(tag[:])
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return buf.Bytes(), nil
}

// UnmarshalMsg decodes instruction data of the multisig program.
func UnmarshalMsg(data []byte) (Msg, error) {
	if len(data) < tagSize {
		return nil, errors.Wrap(errors.ErrInput, "instruction data too short")
	}
	var tag [8]byte
	copy(tag[:], data)

	var msg Msg
	switch tag {
	case newMultisigTag:
		msg = &NewMultisigMsg{}
	case newTransactionTag:
		msg = &NewTransactionMsg{}
	case approveTag:
		msg = &ApproveMsg{}
	case unapproveTag:
		msg = &UnapproveMsg{}
	case executeTag:
		msg = &ExecuteMsg{}
	case changeThresholdTag:
		msg = &ChangeThresholdMsg{}
	case changeMembersTag:
		msg = &ChangeMembersMsg{}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown instruction %x", tag)
	}
	if err := msg.UnmarshalWithDecoder(bin.NewBorshDecoder(data[tagSize:])); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode instruction: %s", err)
	}
	return msg, nil
}

// validateMembers checks the threshold and member list of a new wallet.
func validateMembers(threshold uint16, members []solana.PublicKey) error {
	if threshold == 0 || int(threshold) > len(members) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d, %d members", threshold, len(members))
	}
	return checkUnique(members)
}

func checkUnique(members []solana.PublicKey) error {
	seen := make(map[solana.PublicKey]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m]; ok {
			return errors.Wrapf(ErrDuplicateMembers, "member %s", m)
		}
		seen[m] = struct{}{}
	}
	return nil
}
