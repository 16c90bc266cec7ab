package weavetest

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
)

// Env is a mock implementation of the quorum.Env interface. It allows to
// test a program handler without running the ledger.
//
// Invocations of other programs are recorded and never executed unless
// InvokeFn is set.
type Env struct {
	Program  solana.PublicKey
	Infos    []*quorum.AccountInfo
	Payload  []byte
	Level    int
	// RentPerByte is used to compute MinimumBalance.
	RentPerByte uint64
	InvokeFn func(ix solana.Instruction, signerSeeds [][][]byte) error

	invocations []Invocation
	logs        []string
}

var _ quorum.Env = (*Env)(nil)

// Invocation is a single cross program call recorded by the Env.
type Invocation struct {
	ProgramID   solana.PublicKey
	Accounts    []*solana.AccountMeta
	Data        []byte
	SignerSeeds [][][]byte
}

// NewEnv returns an environment of a top level instruction.
func NewEnv(programID solana.PublicKey, data []byte, accounts ...*quorum.AccountInfo) *Env {
	return &Env{
		Program: programID,
		Infos:   accounts,
		Payload: data,
	}
}

func (e *Env) ProgramID() solana.PublicKey { return e.Program }
func (e *Env) Accounts() []*quorum.AccountInfo { return e.Infos }
func (e *Env) Data() []byte { return e.Payload }
func (e *Env) Depth() int { return e.Level }
func (e *Env) MinimumBalance(size int) uint64 {
	return uint64(128+size) * e.RentPerByte
}
func (e *Env) Invocations() []Invocation { return e.invocations }
func (e *Env) Logs() []string { return e.logs }
func (e *Env) Log(format string, args ...interface{}) {
	e.logs = append(e.logs, fmt.Sprintf(format, args...))
}

func (e *Env) Invoke(ctx quorum.Context, ix solana.Instruction, signerSeeds ...[][]byte) error {
	data, err := ix.Data()
	if err != nil {
		return err
	}
	e.invocations = append(e.invocations, Invocation{
		ProgramID:   ix.ProgramID(),
		Accounts:    ix.Accounts(),
		Data:        data,
		SignerSeeds: signerSeeds,
	})
	if e.InvokeFn != nil {
		return e.InvokeFn(ix, signerSeeds)
	}
	return nil
}

// Account returns an account info that can be passed to NewEnv.
func Account(key solana.PublicKey, signer, writable bool) *quorum.AccountInfo {
	return &quorum.AccountInfo{
		Key:        key,
		IsSigner:   signer,
		IsWritable: writable,
		Owner:      solana.SystemProgramID,
	}
}
