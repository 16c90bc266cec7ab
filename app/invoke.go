package app

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// executor runs instructions of a single transaction against a cache wrap
// of the ledger store.
type executor struct {
	db      quorum.KVStore
	handler quorum.Handler
	conf    *Configuration
	logs    []string
}

// run processes a single instruction and persists all account changes made
// by the program, once they are verified.
func (x *executor) run(ctx quorum.Context, programID solana.PublicKey, metas []*solana.AccountMeta, data []byte, depth int) error {
	inv, err := x.load(programID, metas, data, depth)
	if err != nil {
		return err
	}
	if err := x.handler.Process(ctx, x.db, inv); err != nil {
		return err
	}
	return inv.flush()
}

// load returns an environment for given instruction. An account referenced
// more than once is loaded once and its flags are combined.
func (x *executor) load(programID solana.PublicKey, metas []*solana.AccountMeta, data []byte, depth int) (*invocation, error) {
	inv := &invocation{
		exec:      x,
		programID: programID,
		data:      data,
		depth:     depth,
		infos:     make([]*quorum.AccountInfo, len(metas)),
		byKey:     make(map[solana.PublicKey]*quorum.AccountInfo, len(metas)),
	}
	for i, m := range metas {
		if info, ok := inv.byKey[m.PublicKey]; ok {
			info.IsSigner = info.IsSigner || m.IsSigner
			info.IsWritable = info.IsWritable || m.IsWritable
			inv.infos[i] = info
			continue
		}
		acc, err := quorum.LoadAccount(x.db, m.PublicKey)
		if err != nil {
			return nil, err
		}
		info := &quorum.AccountInfo{
			Key:        m.PublicKey,
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
			Lamports:   acc.Lamports,
			Owner:      acc.Owner,
			Data:       acc.Data,
		}
		inv.infos[i] = info
		inv.byKey[m.PublicKey] = info
		inv.unique = append(inv.unique, info)
	}
	inv.snapshot()
	return inv, nil
}

// invocation implements quorum.Env for a single program call.
type invocation struct {
	exec      *executor
	programID solana.PublicKey
	data      []byte
	depth     int

	infos  []*quorum.AccountInfo
	unique []*quorum.AccountInfo
	byKey  map[solana.PublicKey]*quorum.AccountInfo
	// pre holds the state of each unique account as last persisted.
	pre []*quorum.Account
}

var _ quorum.Env = (*invocation)(nil)

func (inv *invocation) ProgramID() solana.PublicKey {
	return inv.programID
}

func (inv *invocation) Accounts() []*quorum.AccountInfo {
	return inv.infos
}

func (inv *invocation) Data() []byte {
	return inv.data
}

func (inv *invocation) Depth() int {
	return inv.depth
}

func (inv *invocation) MinimumBalance(size int) uint64 {
	return inv.exec.conf.MinimumBalance(size)
}

func (inv *invocation) Log(format string, args ...interface{}) {
	inv.exec.logs = append(inv.exec.logs, fmt.Sprintf(format, args...))
}

func (inv *invocation) Invoke(ctx quorum.Context, ix solana.Instruction, signerSeeds ...[][]byte) error {
	if inv.depth+1 >= int(inv.exec.conf.MaxInvokeDepth) {
		return errors.Wrapf(errors.ErrInvokeDepth, "max depth %d", inv.exec.conf.MaxInvokeDepth)
	}
	data, err := ix.Data()
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "instruction data: %s", err)
	}

	pdas := make(map[solana.PublicKey]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(seeds, inv.programID)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "signer seeds: %s", err)
		}
		pdas[pda] = struct{}{}
	}

	metas := ix.Accounts()
	for _, m := range metas {
		info, ok := inv.byKey[m.PublicKey]
		if !ok {
			return errors.Wrapf(errors.ErrUnauthorized, "account %s not available to the caller", m.PublicKey)
		}
		if m.IsSigner && !info.IsSigner {
			if _, ok := pdas[m.PublicKey]; !ok {
				return errors.Wrapf(errors.ErrUnauthorized, "account %s did not sign", m.PublicKey)
			}
		}
		if m.IsWritable && !info.IsWritable {
			return errors.Wrapf(errors.ErrUnauthorized, "account %s is not writable", m.PublicKey)
		}
	}

	if err := inv.flush(); err != nil {
		return err
	}
	if err := inv.exec.run(ctx, ix.ProgramID(), metas, data, inv.depth+1); err != nil {
		return err
	}
	return inv.reload()
}

// snapshot remembers the current state of all accounts.
func (inv *invocation) snapshot() {
	inv.pre = make([]*quorum.Account, len(inv.unique))
	for i, info := range inv.unique {
		inv.pre[i] = info.Account()
	}
}

// flush verifies all changes made since the last snapshot and writes
// modified accounts to the store.
func (inv *invocation) flush() error {
	conf := inv.exec.conf
	var before, after uint64
	for i, info := range inv.unique {
		pre := inv.pre[i]
		before += pre.Lamports
		after += info.Lamports

		dataChanged := !bytes.Equal(pre.Data, info.Data)
		changed := dataChanged || pre.Lamports != info.Lamports || pre.Owner != info.Owner
		if !changed {
			continue
		}
		if !info.IsWritable {
			return errors.Wrapf(errors.ErrUnauthorized, "readonly account %s modified", info.Key)
		}
		owned := pre.Owner == inv.programID
		if pre.Owner != info.Owner && !owned {
			return errors.Wrapf(errors.ErrUnauthorized, "owner of %s changed by a program not owning it", info.Key)
		}
		if dataChanged && !owned {
			return errors.Wrapf(errors.ErrUnauthorized, "data of %s changed by a program not owning it", info.Key)
		}
		if info.Lamports < pre.Lamports && !owned {
			return errors.Wrapf(errors.ErrUnauthorized, "lamports of %s debited by a program not owning it", info.Key)
		}
		if uint64(len(info.Data)) > conf.MaxAccountDataSize {
			return errors.Wrapf(errors.ErrInput, "account %s data too big", info.Key)
		}
		acc := info.Account()
		if !acc.IsEmpty() {
			if min := conf.MinimumBalance(len(acc.Data)); acc.Lamports < min {
				return errors.Wrapf(errors.ErrInsufficientAmount,
					"account %s not rent exempt: %d < %d lamports", info.Key, acc.Lamports, min)
			}
		}
	}
	if before != after {
		return errors.Wrapf(errors.ErrState, "lamports not balanced: %d before, %d after", before, after)
	}

	for i, info := range inv.unique {
		acc := info.Account()
		pre := inv.pre[i]
		if acc.Lamports == pre.Lamports && acc.Owner == pre.Owner && bytes.Equal(acc.Data, pre.Data) {
			continue
		}
		if err := quorum.SaveAccount(inv.exec.db, info.Key, acc); err != nil {
			return errors.Wrapf(err, "save %s", info.Key)
		}
		inv.pre[i] = acc
	}
	return nil
}

// reload updates all accounts in place with their stored state. Called
// after a nested invocation that could have modified them.
func (inv *invocation) reload() error {
	for _, info := range inv.unique {
		acc, err := quorum.LoadAccount(inv.exec.db, info.Key)
		if err != nil {
			return err
		}
		info.Lamports = acc.Lamports
		info.Owner = acc.Owner
		info.Data = acc.Data
	}
	inv.snapshot()
	return nil
}
