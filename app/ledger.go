package app

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
	"github.com/tendermint/tendermint/libs/log"
)

// Ledger processes signed transactions and keeps the state of all accounts.
// Every transaction closes a slot. A Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	db      quorum.CacheableKVStore
	handler quorum.Handler
	logger  log.Logger
	clock   func() time.Time
	debug   bool
}

// NewLedger returns a ledger that is dispatching all instructions to given
// handler, usually a Router wrapped with decorators.
func NewLedger(db quorum.CacheableKVStore, handler quorum.Handler) *Ledger {
	return &Ledger{
		db:      db,
		handler: handler,
		logger:  quorum.DefaultLogger,
		clock:   time.Now,
	}
}

// WithLogger sets the logger passed to all programs.
func (l *Ledger) WithLogger(logger log.Logger) *Ledger {
	l.logger = logger
	return l
}

// WithDebug controls how instruction errors are returned by Submit. Unless
// debug is set, errors not registered in the errors package are replaced
// with a generic internal error.
func (l *Ledger) WithDebug(debug bool) *Ledger {
	l.debug = debug
	return l
}

// WithClock sets the source of the block time.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// InitChain loads the ledger configuration and passes genesis options to
// all initializers. It can be called only once for a given store.
func (l *Ledger) InitChain(chainID string, opts quorum.Options, inits ...quorum.Initializer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cache := l.db.CacheWrap()
	defer cache.Discard()

	if err := saveChainID(cache, chainID); err != nil {
		return err
	}
	conf := DefaultConfiguration()
	if err := gconf.InitConfig(cache, opts, configurationPkg, &conf); err != nil && !errors.ErrNotFound.Is(err) {
		return err
	}
	if err := ChainInitializers(inits...).FromGenesis(opts, cache); err != nil {
		return errors.Wrap(err, "genesis")
	}
	st, err := loadState(cache)
	if err != nil {
		return err
	}
	if err := st.save(cache); err != nil {
		return err
	}
	l.logger.Info("chain initialized", "chain", chainID)
	return cache.Write()
}

// ChainID returns the chain ID set by InitChain.
func (l *Ledger) ChainID() (string, error) {
	return loadChainID(l.db)
}

// Submit verifies and processes a signed transaction. The fee is charged
// to the first signer as soon as the transaction is accepted, even if one
// of its instructions fails. Instructions are executed atomically: either
// all changes are persisted or none.
//
// A receipt is returned for every accepted transaction, together with the
// instruction error if any.
func (l *Ledger) Submit(ctx quorum.Context, tx *solana.Transaction) (*quorum.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := &tx.Message
	nsig := int(msg.Header.NumRequiredSignatures)
	if nsig == 0 || len(tx.Signatures) != nsig || len(msg.AccountKeys) < nsig {
		return nil, errors.Wrapf(errors.ErrSignature, "want %d signatures, got %d", nsig, len(tx.Signatures))
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, errors.Wrap(errors.ErrSignature, err.Error())
	}
	sig := tx.Signatures[0]

	conf, err := loadConfiguration(l.db)
	if err != nil {
		return nil, err
	}
	st, err := loadState(l.db)
	if err != nil {
		return nil, err
	}
	if !st.IsRecent(msg.RecentBlockhash) {
		return nil, errors.Wrapf(errors.ErrExpired, "blockhash %s", msg.RecentBlockhash)
	}
	if done, err := isProcessed(l.db, sig); err != nil {
		return nil, err
	} else if done {
		return nil, errors.Wrapf(errors.ErrDuplicate, "transaction %s already processed", sig)
	}

	cache := l.db.CacheWrap()
	defer cache.Discard()

	payer := msg.AccountKeys[0]
	fee := conf.LamportsPerSignature * uint64(nsig)
	acc, err := quorum.LoadAccount(cache, payer)
	if err != nil {
		return nil, err
	}
	if acc.Lamports < fee {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "fee payer %s cannot pay %d lamports", payer, fee)
	}
	acc.Lamports -= fee
	if err := quorum.SaveAccount(cache, payer, acc); err != nil {
		return nil, err
	}

	slot := st.Slot + 1
	ctx = quorum.WithSlot(ctx, slot)
	ctx = quorum.WithBlockTime(ctx, l.clock())
	ctx = quorum.WithLogger(ctx, l.logger.With("tx", sig.String()))

	run := cache.CacheWrap()
	exec := &executor{db: run, handler: l.handler, conf: conf}
	txErr := l.execute(ctx, exec, msg)
	if txErr == nil {
		if err := run.Write(); err != nil {
			return nil, err
		}
	} else {
		run.Discard()
	}

	if err := markProcessed(cache, sig, slot); err != nil {
		return nil, err
	}
	st.Advance(sig, conf.MaxRecentBlockhashes)
	if err := st.save(cache); err != nil {
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, err
	}

	receipt := &quorum.Receipt{
		Signature: sig,
		Slot:      slot,
		Fee:       fee,
		Logs:      exec.logs,
	}
	return receipt, errors.Redact(txErr, l.debug)
}

func (l *Ledger) execute(ctx quorum.Context, exec *executor, msg *solana.Message) error {
	n := len(msg.AccountKeys)
	for i, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= n {
			return errors.Wrapf(errors.ErrInput, "instruction %d: program index out of range", i)
		}
		metas := make([]*solana.AccountMeta, len(ci.Accounts))
		for j, idx := range ci.Accounts {
			if int(idx) >= n {
				return errors.Wrapf(errors.ErrInput, "instruction %d: account index out of range", i)
			}
			metas[j] = &solana.AccountMeta{
				PublicKey:  msg.AccountKeys[idx],
				IsSigner:   int(idx) < int(msg.Header.NumRequiredSignatures),
				IsWritable: isWritable(msg.Header, n, int(idx)),
			}
		}
		programID := msg.AccountKeys[ci.ProgramIDIndex]
		if err := exec.run(ctx, programID, metas, ci.Data, 0); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

// isWritable tells if the account at given position of the message account
// list can be modified.
func isWritable(h solana.MessageHeader, total, idx int) bool {
	signers := int(h.NumRequiredSignatures)
	if idx < signers {
		return idx < signers-int(h.NumReadonlySignedAccounts)
	}
	return idx < total-int(h.NumReadonlyUnsignedAccounts)
}

// Airdrop credits given account with lamports out of thin air.
func (l *Ledger) Airdrop(key solana.PublicKey, lamports uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cache := l.db.CacheWrap()
	defer cache.Discard()

	acc, err := quorum.LoadAccount(cache, key)
	if err != nil {
		return err
	}
	if acc.Lamports+lamports < acc.Lamports {
		return errors.Wrap(errors.ErrOverflow, "lamports")
	}
	acc.Lamports += lamports
	if err := quorum.SaveAccount(cache, key, acc); err != nil {
		return err
	}
	return cache.Write()
}

// Account returns the current state of given account.
func (l *Ledger) Account(key solana.PublicKey) (*quorum.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return quorum.LoadAccount(l.db, key)
}

// LatestBlockhash returns the blockhash new transactions should reference.
func (l *Ledger) LatestBlockhash() (solana.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := loadState(l.db)
	if err != nil {
		return solana.Hash{}, err
	}
	return st.Latest(), nil
}

// Slot returns the last closed slot.
func (l *Ledger) Slot() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := loadState(l.db)
	if err != nil {
		return 0, err
	}
	return st.Slot, nil
}

// MinimumBalance returns the amount of lamports an account holding size
// bytes of data must keep.
func (l *Ledger) MinimumBalance(size int) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	conf, err := loadConfiguration(l.db)
	if err != nil {
		return 0, err
	}
	return conf.MinimumBalance(size), nil
}
