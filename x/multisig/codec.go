package multisig

import (
	"crypto/sha256"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
)

// discriminator returns the 8 byte prefix identifying a type of account or
// an instruction.
func discriminator(namespace, name string) [8]byte {
	var d [8]byte
	h := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], h[:8])
	return d
}

func writePublicKey(enc *bin.Encoder, key solana.PublicKey) error {
	return enc.WriteBytes(key[:], false)
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func writePublicKeys(enc *bin.Encoder, keys []solana.PublicKey) error {
	if err := enc.WriteUint32(uint32(len(keys)), binary.LittleEndian); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writePublicKey(enc, k); err != nil {
			return err
		}
	}
	return nil
}

func readPublicKeys(dec *bin.Decoder) ([]solana.PublicKey, error) {
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	var keys []solana.PublicKey
	for i := uint32(0); i < n; i++ {
		k, err := readPublicKey(dec)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func writeOptionalTime(enc *bin.Encoder, t *quorum.UnixTime) error {
	if t == nil {
		return enc.WriteOption(false)
	}
	if err := enc.WriteOption(true); err != nil {
		return err
	}
	return enc.WriteInt64(int64(*t), binary.LittleEndian)
}

func readOptionalTime(dec *bin.Decoder) (*quorum.UnixTime, error) {
	ok, err := dec.ReadOption()
	if err != nil || !ok {
		return nil, err
	}
	unix, err := dec.ReadInt64(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	t := quorum.UnixTime(unix)
	return &t, nil
}
