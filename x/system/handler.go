package system

import (
	"github.com/gagliardetto/solana-go"
	sysprog "github.com/gagliardetto/solana-go/programs/system"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// RegisterRoutes will instantiate and register the system program.
func RegisterRoutes(r quorum.Registry) {
	r.Handle(solana.SystemProgramID, NewHandler())
}

// Handler processes system program instructions.
type Handler struct{}

var _ quorum.Handler = Handler{}

// NewHandler returns the system program handler.
func NewHandler() Handler {
	return Handler{}
}

func (h Handler) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env) error {
	accounts := env.Accounts()
	metas := make([]*solana.AccountMeta, len(accounts))
	for i, a := range accounts {
		metas[i] = a.Meta()
	}
	inst, err := sysprog.DecodeInstruction(metas, env.Data())
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "decode: %s", err)
	}

	switch ix := inst.Impl.(type) {
	case *sysprog.CreateAccount:
		if len(accounts) < 2 {
			return errors.Wrap(errors.ErrInput, "create account requires funder and new account")
		}
		if ix.Lamports == nil || ix.Space == nil || ix.Owner == nil {
			return errors.Wrap(errors.ErrInput, "missing create account parameters")
		}
		return createAccount(accounts[0], accounts[1], *ix.Lamports, *ix.Space, *ix.Owner)
	case *sysprog.Transfer:
		if len(accounts) < 2 {
			return errors.Wrap(errors.ErrInput, "transfer requires source and destination")
		}
		if ix.Lamports == nil {
			return errors.Wrap(errors.ErrInput, "missing transfer amount")
		}
		return transfer(accounts[0], accounts[1], *ix.Lamports)
	case *sysprog.Assign:
		if len(accounts) < 1 || ix.Owner == nil {
			return errors.Wrap(errors.ErrInput, "assign requires an account and owner")
		}
		return assign(accounts[0], *ix.Owner)
	case *sysprog.Allocate:
		if len(accounts) < 1 || ix.Space == nil {
			return errors.Wrap(errors.ErrInput, "allocate requires an account and space")
		}
		return allocate(accounts[0], *ix.Space)
	default:
		return errors.Wrapf(errors.ErrInput, "unsupported instruction %T", inst.Impl)
	}
}

func createAccount(funder, acc *quorum.AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if !acc.IsSigner {
		return errors.Wrapf(errors.ErrUnauthorized, "new account %s must sign", acc.Key)
	}
	if acc.Lamports != 0 || len(acc.Data) != 0 || !acc.Owner.Equals(solana.SystemProgramID) {
		return errors.Wrapf(errors.ErrDuplicate, "account %s already in use", acc.Key)
	}
	if err := transfer(funder, acc, lamports); err != nil {
		return err
	}
	acc.Data = make([]byte, space)
	acc.Owner = owner
	return nil
}

func transfer(from, to *quorum.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return errors.Wrapf(errors.ErrUnauthorized, "source %s must sign", from.Key)
	}
	if len(from.Data) != 0 {
		return errors.Wrapf(errors.ErrInput, "source %s must not carry data", from.Key)
	}
	if from.Lamports < lamports {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s has %d lamports, need %d", from.Key, from.Lamports, lamports)
	}
	if to.Lamports+lamports < to.Lamports {
		return errors.Wrap(errors.ErrOverflow, "destination lamports")
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func assign(acc *quorum.AccountInfo, owner solana.PublicKey) error {
	if acc.Owner.Equals(owner) {
		return nil
	}
	if !acc.IsSigner {
		return errors.Wrapf(errors.ErrUnauthorized, "account %s must sign", acc.Key)
	}
	acc.Owner = owner
	return nil
}

func allocate(acc *quorum.AccountInfo, space uint64) error {
	if !acc.IsSigner {
		return errors.Wrapf(errors.ErrUnauthorized, "account %s must sign", acc.Key)
	}
	if len(acc.Data) != 0 || !acc.Owner.Equals(solana.SystemProgramID) {
		return errors.Wrapf(errors.ErrDuplicate, "account %s already in use", acc.Key)
	}
	acc.Data = make([]byte, space)
	return nil
}
