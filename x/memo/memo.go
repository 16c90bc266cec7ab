/*
Package memo implements a program that records a text message signed by
all accounts passed to the instruction. It has no state.

Memos are the simplest payload a multisig wallet can execute and are used
to record decisions that need a quorum of signatures.
*/
package memo

import (
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// ProgramID is the address the memo program is registered under.
var ProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// MaxLength is the longest accepted memo in bytes.
const MaxLength = 566

// RegisterRoutes will instantiate and register the memo program.
func RegisterRoutes(r quorum.Registry) {
	r.Handle(ProgramID, NewHandler())
}

// NewInstruction returns an instruction recording given text. All signers
// must sign the transaction, or be derived addresses of the invoking
// program.
func NewInstruction(text string, signers ...solana.PublicKey) solana.Instruction {
	metas := make([]*solana.AccountMeta, len(signers))
	for i, s := range signers {
		metas[i] = solana.Meta(s).SIGNER()
	}
	return solana.NewInstruction(ProgramID, metas, []byte(text))
}

type Handler struct{}

var _ quorum.Handler = Handler{}

func NewHandler() Handler {
	return Handler{}
}

func (Handler) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env) error {
	data := env.Data()
	if len(data) > MaxLength {
		return errors.Wrapf(errors.ErrInput, "memo longer than %d bytes", MaxLength)
	}
	if !utf8.Valid(data) {
		return errors.Wrap(errors.ErrInput, "memo is not valid utf8")
	}
	for _, a := range env.Accounts() {
		if !a.IsSigner {
			return errors.Wrapf(errors.ErrUnauthorized, "missing signature of %s", a.Key)
		}
	}
	env.Log("Memo (len %d): %q", len(data), string(data))
	return nil
}
