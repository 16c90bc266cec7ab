package multisig

import (
	"github.com/gagliardetto/solana-go"
	sysprog "github.com/gagliardetto/solana-go/programs/system"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// RegisterRoutes will instantiate and register the multisig program.
func RegisterRoutes(r quorum.Registry) {
	r.Handle(ProgramID, NewHandler())
}

// Handler processes all instructions of the multisig program.
type Handler struct{}

var _ quorum.Handler = Handler{}

// NewHandler returns the multisig program handler.
func NewHandler() Handler {
	return Handler{}
}

func (h Handler) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env) error {
	msg, err := UnmarshalMsg(env.Data())
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case *NewMultisigMsg:
		return h.newMultisig(ctx, db, env, m)
	case *NewTransactionMsg:
		return h.newTransaction(ctx, db, env, m)
	case *ApproveMsg:
		return h.approve(ctx, env)
	case *UnapproveMsg:
		return h.unapprove(ctx, env)
	case *ExecuteMsg:
		return h.execute(ctx, env)
	case *ChangeThresholdMsg:
		return h.changeThreshold(env, m)
	case *ChangeMembersMsg:
		return h.changeMembers(db, env, m)
	default:
		return errors.Wrapf(errors.ErrHuman, "unhandled message %T", msg)
	}
}

func (h Handler) newMultisig(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env, msg *NewMultisigMsg) error {
	accounts, err := requireAccounts(env, 3)
	if err != nil {
		return err
	}
	base, payer, walletAcc := accounts[0], accounts[1], accounts[2]

	if err := msg.Validate(); err != nil {
		return err
	}
	conf, err := loadConfiguration(db)
	if err != nil {
		return err
	}
	if len(msg.Members) > int(conf.MaxMembers) {
		return errors.Wrapf(errors.ErrInput, "%d members, at most %d allowed", len(msg.Members), conf.MaxMembers)
	}
	if !base.IsSigner {
		return errors.Wrapf(errors.ErrUnauthorized, "base %s must sign", base.Key)
	}
	addr, bump, err := WalletAddress(base.Key)
	if err != nil {
		return err
	}
	if addr != walletAcc.Key {
		return errors.Wrapf(errors.ErrInput, "wallet address %s, want %s", walletAcc.Key, addr)
	}

	space := WalletSpace(len(msg.Members))
	create := sysprog.NewCreateAccountInstruction(
		env.MinimumBalance(space), uint64(space), ProgramID, payer.Key, walletAcc.Key).Build()
	if err := env.Invoke(ctx, create, withBump(walletSeeds(base.Key), bump)); err != nil {
		return errors.Wrap(err, "create wallet account")
	}

	wallet := Wallet{
		Base:      base.Key,
		Members:   msg.Members,
		Threshold: msg.Threshold,
		Bump:      bump,
	}
	if err := writeEntity(walletAcc.Data, &wallet); err != nil {
		return err
	}
	quorum.GetLogger(ctx).Debug("wallet created", "wallet", walletAcc.Key.String(), "members", len(msg.Members))
	return nil
}

func (h Handler) newTransaction(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env, msg *NewTransactionMsg) error {
	accounts, err := requireAccounts(env, 3)
	if err != nil {
		return err
	}
	proposer, walletAcc, txAcc := accounts[0], accounts[1], accounts[2]

	wallet, err := loadWallet(walletAcc)
	if err != nil {
		return err
	}
	if !proposer.IsSigner {
		return errors.Wrapf(errors.ErrUnauthorized, "proposer %s must sign", proposer.Key)
	}
	if wallet.MemberIndex(proposer.Key) < 0 {
		return errors.Wrapf(ErrNotAMember, "proposer %s", proposer.Key)
	}
	conf, err := loadConfiguration(db)
	if err != nil {
		return err
	}
	if len(msg.Instructions) > int(conf.MaxInstructions) {
		return errors.Wrapf(errors.ErrInput, "%d instructions, at most %d allowed", len(msg.Instructions), conf.MaxInstructions)
	}
	seeds := transactionSeeds(walletAcc.Key, wallet.TxNonce)
	addr, bump, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if addr != txAcc.Key {
		return errors.Wrapf(errors.ErrInput, "transaction address %s, want %s", txAcc.Key, addr)
	}
	if wallet.TxNonce+1 < wallet.TxNonce {
		return errors.Wrap(errors.ErrOverflow, "transaction nonce")
	}
	now, err := quorum.BlockTime(ctx)
	if err != nil {
		return err
	}

	space := TransactionSpace(msg.Instructions, len(wallet.Members))
	create := sysprog.NewCreateAccountInstruction(
		env.MinimumBalance(space), uint64(space), ProgramID, proposer.Key, txAcc.Key).Build()
	if err := env.Invoke(ctx, create, withBump(seeds, bump)); err != nil {
		return errors.Wrap(err, "create transaction account")
	}

	tx := Transaction{
		Instructions:   msg.Instructions,
		Wallet:         walletAcc.Key,
		Approved:       make([]*quorum.UnixTime, len(wallet.Members)),
		MemberSetSeqno: wallet.MemberSetSeqno,
		CreatedAt:      quorum.AsUnixTime(now),
		Proposer:       proposer.Key,
	}
	if err := writeEntity(txAcc.Data, &tx); err != nil {
		return err
	}
	wallet.TxNonce++
	return writeEntity(walletAcc.Data, wallet)
}

// loadApproval runs the checks shared by approve, unapprove and execute.
// It returns the wallet, the transaction and the member slot.
func loadApproval(env quorum.Env) (*approval, error) {
	accounts, err := requireAccounts(env, 3)
	if err != nil {
		return nil, err
	}
	member, walletAcc, txAcc := accounts[0], accounts[1], accounts[2]
	if !member.IsSigner {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "member %s must sign", member.Key)
	}

	wallet, err := loadWallet(walletAcc)
	if err != nil {
		return nil, err
	}
	tx, err := loadTransaction(txAcc)
	if err != nil {
		return nil, err
	}
	if tx.Wallet != walletAcc.Key {
		return nil, errors.Wrapf(ErrInvalidMultisigReference, "transaction wallet %s", tx.Wallet)
	}
	idx := wallet.MemberIndex(member.Key)
	if idx < 0 {
		return nil, errors.Wrapf(ErrNotAMember, "signer %s", member.Key)
	}
	if tx.IsExecuted() {
		return nil, ErrAlreadyExecuted
	}
	if tx.MemberSetSeqno != wallet.MemberSetSeqno {
		return nil, errors.Wrapf(ErrInvalidMemberSetSeqno, "transaction %d, wallet %d", tx.MemberSetSeqno, wallet.MemberSetSeqno)
	}
	if idx >= len(tx.Approved) {
		return nil, errors.Wrapf(errors.ErrState, "no approval slot %d", idx)
	}
	return &approval{
		member:    member,
		walletAcc: walletAcc,
		txAcc:     txAcc,
		wallet:    wallet,
		tx:        tx,
		slot:      idx,
	}, nil
}

type approval struct {
	member    *quorum.AccountInfo
	walletAcc *quorum.AccountInfo
	txAcc     *quorum.AccountInfo
	wallet    *Wallet
	tx        *Transaction
	slot      int
}

func (h Handler) approve(ctx quorum.Context, env quorum.Env) error {
	a, err := loadApproval(env)
	if err != nil {
		return err
	}
	if a.tx.Approved[a.slot] != nil {
		return ErrAlreadyApproved
	}
	now, err := quorum.BlockTime(ctx)
	if err != nil {
		return err
	}
	at := quorum.AsUnixTime(now)
	a.tx.Approved[a.slot] = &at
	return writeEntity(a.txAcc.Data, a.tx)
}

func (h Handler) unapprove(ctx quorum.Context, env quorum.Env) error {
	a, err := loadApproval(env)
	if err != nil {
		return err
	}
	if a.tx.Approved[a.slot] == nil {
		return ErrAlreadyUnapproved
	}
	a.tx.Approved[a.slot] = nil
	return writeEntity(a.txAcc.Data, a.tx)
}

func (h Handler) execute(ctx quorum.Context, env quorum.Env) error {
	a, err := loadApproval(env)
	if err != nil {
		return err
	}
	if got := a.tx.Approvals(); got < int(a.wallet.Threshold) {
		return errors.Wrapf(ErrNotEnoughApprovals, "%d of %d", got, a.wallet.Threshold)
	}

	seeds := a.wallet.signerSeeds()
	for i := range a.tx.Instructions {
		ix := &a.tx.Instructions[i]
		if err := env.Invoke(ctx, ix.Solana(), seeds); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}

	// Invoke reloads the wallet account. Executed instructions may have
	// changed its members or threshold and it must still decode.
	wallet, err := loadWallet(a.walletAcc)
	if err != nil {
		return err
	}
	now, err := quorum.BlockTime(ctx)
	if err != nil {
		return err
	}
	executor := a.member.Key
	at := quorum.AsUnixTime(now)
	a.tx.Executor = &executor
	a.tx.ExecutedAt = &at
	if err := writeEntity(a.txAcc.Data, a.tx); err != nil {
		return err
	}
	quorum.GetLogger(ctx).Debug("transaction executed",
		"transaction", a.txAcc.Key.String(), "instructions", len(a.tx.Instructions),
		"threshold", wallet.Threshold, "member_set_seqno", wallet.MemberSetSeqno)
	return nil
}

func requireAccounts(env quorum.Env, n int) ([]*quorum.AccountInfo, error) {
	accounts := env.Accounts()
	if len(accounts) < n {
		return nil, errors.Wrapf(errors.ErrInput, "want at least %d accounts, got %d", n, len(accounts))
	}
	return accounts, nil
}

func loadWallet(acc *quorum.AccountInfo) (*Wallet, error) {
	if acc.Owner != ProgramID {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "wallet %s not owned by the multisig program", acc.Key)
	}
	var w Wallet
	if err := w.Unmarshal(acc.Data); err != nil {
		return nil, errors.Wrapf(err, "account %s", acc.Key)
	}
	return &w, nil
}

func loadTransaction(acc *quorum.AccountInfo) (*Transaction, error) {
	if acc.Owner != ProgramID {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "transaction %s not owned by the multisig program", acc.Key)
	}
	var t Transaction
	if err := t.Unmarshal(acc.Data); err != nil {
		return nil, errors.Wrapf(err, "account %s", acc.Key)
	}
	return &t, nil
}
