package multisig_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	sysprog "github.com/gagliardetto/solana-go/programs/system"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/weavetest"
	"github.com/iov-one/quorum/x/memo"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/iov-one/quorum/x/system"
	"github.com/iov-one/quorum/x/utils"
	"github.com/stretchr/testify/require"
)

const sol = 1000000000

var blockTime = time.Unix(1600000000, 0)

func newLedger(t testing.TB, opts quorum.Options) *app.Ledger {
	t.Helper()
	r := app.NewRouter()
	system.RegisterRoutes(r)
	memo.RegisterRoutes(r)
	multisig.RegisterRoutes(r)
	h := app.ChainDecorators(utils.NewLogging(), utils.NewRecovery()).WithHandler(r)
	l := app.NewLedger(store.MemStore(), h).
		WithClock(func() time.Time { return blockTime })
	require.NoError(t, l.InitChain("multisig-test", opts, system.Initializer{}, multisig.Initializer{}))
	return l
}

// setup returns a ledger with a two of three wallet and a client for each
// member.
func setup(t testing.TB) (*app.Ledger, solana.PublicKey, []*multisig.Client) {
	t.Helper()
	l := newLedger(t, quorum.Options{})
	keys := weavetest.NewKeys(t, 3)
	clients := make([]*multisig.Client, len(keys))
	for i, k := range keys {
		require.NoError(t, l.Airdrop(k.PublicKey(), 10*sol))
		clients[i] = multisig.NewClient(l, k)
	}
	wallet, _, err := clients[0].CreateWallet(context.Background(), 2, weavetest.PublicKeys(keys...))
	require.NoError(t, err)
	return l, wallet, clients
}

func proposeMemo(t testing.TB, c *multisig.Client, wallet solana.PublicKey, text string) solana.PublicKey {
	t.Helper()
	tx, _, err := c.Propose(context.Background(), wallet, memo.NewInstruction(text, wallet))
	require.NoError(t, err)
	return tx
}

func TestCreateWallet(t *testing.T) {
	l, wallet, clients := setup(t)
	x := clients[0]

	w, err := x.Wallet(wallet)
	require.NoError(t, err)
	require.Equal(t, uint16(2), w.Threshold)
	require.Len(t, w.Members, 3)
	require.Equal(t, uint64(0), w.TxNonce)
	require.Equal(t, uint32(0), w.MemberSetSeqno)

	addr, bump, err := multisig.WalletAddress(w.Base)
	require.NoError(t, err)
	require.Equal(t, wallet, addr)
	require.Equal(t, bump, w.Bump)

	acc, err := l.Account(wallet)
	require.NoError(t, err)
	require.Equal(t, multisig.ProgramID, acc.Owner)
	require.Len(t, acc.Data, multisig.WalletSpace(3))
	rent, err := l.MinimumBalance(multisig.WalletSpace(3))
	require.NoError(t, err)
	require.Equal(t, rent, acc.Lamports)

	cases := map[string]struct {
		Threshold uint16
		Members   []solana.PublicKey
		WantErr   *errors.Error
	}{
		"zero threshold": {
			Threshold: 0,
			Members:   w.Members,
			WantErr:   multisig.ErrInvalidThreshold,
		},
		"threshold above member count": {
			Threshold: 4,
			Members:   w.Members,
			WantErr:   multisig.ErrInvalidThreshold,
		},
		"duplicated members": {
			Threshold: 1,
			Members:   []solana.PublicKey{w.Members[0], w.Members[0]},
			WantErr:   multisig.ErrDuplicateMembers,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			before := balanceOf(t, l, x.PublicKey())
			_, receipt, err := x.CreateWallet(context.Background(), tc.Threshold, tc.Members)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			// Only the fee is charged.
			require.Equal(t, before-receipt.Fee, balanceOf(t, l, x.PublicKey()))
		})
	}
}

func balanceOf(t testing.TB, l *app.Ledger, key solana.PublicKey) uint64 {
	t.Helper()
	acc, err := l.Account(key)
	require.NoError(t, err)
	return acc.Lamports
}

func TestPropose(t *testing.T) {
	_, wallet, clients := setup(t)
	x, y := clients[0], clients[1]

	for nonce := uint64(0); nonce < 3; nonce++ {
		next, err := y.NextTransactionAddress(wallet)
		require.NoError(t, err)
		want, _, err := multisig.TransactionAddress(wallet, nonce)
		require.NoError(t, err)
		require.Equal(t, want, next)

		tx := proposeMemo(t, y, wallet, "hello")
		require.Equal(t, want, tx)
	}

	w, err := x.Wallet(wallet)
	require.NoError(t, err)
	require.Equal(t, uint64(3), w.TxNonce)

	tx, err := x.Transaction(mustTransactionAddress(t, wallet, 1))
	require.NoError(t, err)
	require.Equal(t, wallet, tx.Wallet)
	require.Equal(t, y.PublicKey(), tx.Proposer)
	require.Equal(t, quorum.AsUnixTime(blockTime), tx.CreatedAt)
	require.Len(t, tx.Approved, 3)
	require.Equal(t, 0, tx.Approvals())
}

func mustTransactionAddress(t testing.TB, wallet solana.PublicKey, nonce uint64) solana.PublicKey {
	t.Helper()
	addr, _, err := multisig.TransactionAddress(wallet, nonce)
	require.NoError(t, err)
	return addr
}

func TestProposeByOutsider(t *testing.T) {
	l, wallet, _ := setup(t)
	key := weavetest.NewKey(t)
	require.NoError(t, l.Airdrop(key.PublicKey(), sol))
	outsider := multisig.NewClient(l, key)

	_, _, err := outsider.Propose(context.Background(), wallet, memo.NewInstruction("hi", wallet))
	require.True(t, multisig.ErrNotAMember.Is(err), "%+v", err)
}

func TestScenarioApproveAndExecute(t *testing.T) {
	ctx := context.Background()
	_, wallet, clients := setup(t)
	x, y, z := clients[0], clients[1], clients[2]

	tx := proposeMemo(t, x, wallet, "hello")
	_, err := x.Approve(ctx, wallet, tx)
	require.NoError(t, err)
	_, err = y.Approve(ctx, wallet, tx)
	require.NoError(t, err)

	state, err := x.Transaction(tx)
	require.NoError(t, err)
	require.Equal(t, 2, state.Approvals())

	receipt, err := y.Execute(ctx, wallet, tx)
	require.NoError(t, err)
	require.Contains(t, receipt.Logs, `Memo (len 5): "hello"`)

	state, err = x.Transaction(tx)
	require.NoError(t, err)
	require.True(t, state.IsExecuted())
	require.Equal(t, y.PublicKey(), *state.Executor)
	require.Equal(t, quorum.AsUnixTime(blockTime), *state.ExecutedAt)

	// The executed transaction is terminal.
	_, err = z.Approve(ctx, wallet, tx)
	require.True(t, multisig.ErrAlreadyExecuted.Is(err), "%+v", err)
	_, err = x.Unapprove(ctx, wallet, tx)
	require.True(t, multisig.ErrAlreadyExecuted.Is(err), "%+v", err)
	_, err = x.Execute(ctx, wallet, tx)
	require.True(t, multisig.ErrAlreadyExecuted.Is(err), "%+v", err)
}

func TestScenarioNotEnoughApprovals(t *testing.T) {
	ctx := context.Background()
	_, wallet, clients := setup(t)
	x := clients[0]

	tx := proposeMemo(t, x, wallet, "hello")
	_, err := x.Approve(ctx, wallet, tx)
	require.NoError(t, err)

	receipt, err := x.Execute(ctx, wallet, tx)
	require.True(t, multisig.ErrNotEnoughApprovals.Is(err), "%+v", err)
	require.NotNil(t, receipt)
	require.Empty(t, receipt.Logs)

	state, err := x.Transaction(tx)
	require.NoError(t, err)
	require.False(t, state.IsExecuted())
}

func TestScenarioUnapprove(t *testing.T) {
	ctx := context.Background()
	_, wallet, clients := setup(t)
	x, y := clients[0], clients[1]

	tx := proposeMemo(t, x, wallet, "hello")
	_, err := x.Approve(ctx, wallet, tx)
	require.NoError(t, err)
	_, err = x.Approve(ctx, wallet, tx)
	require.True(t, multisig.ErrAlreadyApproved.Is(err), "%+v", err)

	_, err = x.Unapprove(ctx, wallet, tx)
	require.NoError(t, err)
	_, err = x.Unapprove(ctx, wallet, tx)
	require.True(t, multisig.ErrAlreadyUnapproved.Is(err), "%+v", err)

	_, err = y.Approve(ctx, wallet, tx)
	require.NoError(t, err)
	_, err = y.Execute(ctx, wallet, tx)
	require.True(t, multisig.ErrNotEnoughApprovals.Is(err), "%+v", err)
}

func TestCompoundOperations(t *testing.T) {
	ctx := context.Background()
	_, wallet, clients := setup(t)
	x, y := clients[0], clients[1]

	tx, _, err := x.CreateAndApprove(ctx, wallet, memo.NewInstruction("together", wallet))
	require.NoError(t, err)
	state, err := x.Transaction(tx)
	require.NoError(t, err)
	require.Equal(t, 1, state.Approvals())

	receipt, err := y.ApproveAndExecute(ctx, wallet, tx)
	require.NoError(t, err)
	require.Contains(t, receipt.Logs, `Memo (len 8): "together"`)

	state, err = x.Transaction(tx)
	require.NoError(t, err)
	require.Equal(t, 2, state.Approvals())
	require.True(t, state.IsExecuted())
}

// approveAll approves the transaction by all given members and executes it
// by the last one.
func approveAll(t testing.TB, wallet, tx solana.PublicKey, clients ...*multisig.Client) error {
	t.Helper()
	ctx := context.Background()
	for _, c := range clients[:len(clients)-1] {
		_, err := c.Approve(ctx, wallet, tx)
		require.NoError(t, err)
	}
	_, err := clients[len(clients)-1].ApproveAndExecute(ctx, wallet, tx)
	return err
}

func TestChangeThreshold(t *testing.T) {
	ctx := context.Background()
	_, wallet, clients := setup(t)
	x, y, z := clients[0], clients[1], clients[2]

	invalid, _, err := x.ProposeChangeThreshold(ctx, wallet, 4)
	require.NoError(t, err)
	err = approveAll(t, wallet, invalid, x, y)
	require.True(t, multisig.ErrInvalidThreshold.Is(err), "%+v", err)

	tx, _, err := x.ProposeChangeThreshold(ctx, wallet, 3)
	require.NoError(t, err)
	require.NoError(t, approveAll(t, wallet, tx, x, y))

	w, err := x.Wallet(wallet)
	require.NoError(t, err)
	require.Equal(t, uint16(3), w.Threshold)
	require.Equal(t, uint32(0), w.MemberSetSeqno)

	// Two approvals are no longer enough.
	next := proposeMemo(t, x, wallet, "three")
	_, err = x.Approve(ctx, wallet, next)
	require.NoError(t, err)
	_, err = y.ApproveAndExecute(ctx, wallet, next)
	require.True(t, multisig.ErrNotEnoughApprovals.Is(err), "%+v", err)
	_, err = y.Approve(ctx, wallet, next)
	require.NoError(t, err)
	_, err = z.ApproveAndExecute(ctx, wallet, next)
	require.NoError(t, err)
}

func TestChangeMembers(t *testing.T) {
	ctx := context.Background()
	l, wallet, clients := setup(t)
	x, y, z := clients[0], clients[1], clients[2]

	pending := proposeMemo(t, z, wallet, "pending")
	_, err := z.Approve(ctx, wallet, pending)
	require.NoError(t, err)

	newcomer := weavetest.NewKey(t)
	require.NoError(t, l.Airdrop(newcomer.PublicKey(), sol))
	w := multisig.NewClient(l, newcomer)
	members := []solana.PublicKey{x.PublicKey(), y.PublicKey(), w.PublicKey(), z.PublicKey()}

	grow, _, err := x.ProposeChangeMembers(ctx, wallet, members)
	require.NoError(t, err)
	// The wallet does not hold the rent of the bigger account.
	err = approveAll(t, wallet, grow, x, y)
	require.True(t, errors.ErrInsufficientAmount.Is(err), "%+v", err)
	state, err := x.Transaction(grow)
	require.NoError(t, err)
	require.False(t, state.IsExecuted())

	rent, err := l.MinimumBalance(multisig.WalletSpace(len(members)))
	require.NoError(t, err)
	transfer(t, l, newcomer, wallet, rent-balanceOf(t, l, wallet))
	// The failed execution reverted the approval of y.
	_, err = y.ApproveAndExecute(ctx, wallet, grow)
	require.NoError(t, err)

	got, err := x.Wallet(wallet)
	require.NoError(t, err)
	require.Equal(t, members, got.Members)
	require.Equal(t, uint32(1), got.MemberSetSeqno)
	acc, err := l.Account(wallet)
	require.NoError(t, err)
	require.Len(t, acc.Data, multisig.WalletSpace(4))

	// Proposals made before the change cannot be used anymore.
	_, err = x.Approve(ctx, wallet, pending)
	require.True(t, multisig.ErrInvalidMemberSetSeqno.Is(err), "%+v", err)

	// Remove z.
	shrink, _, err := w.ProposeChangeMembers(ctx, wallet, members[:3])
	require.NoError(t, err)
	require.NoError(t, approveAll(t, wallet, shrink, y, w))

	tx := proposeMemo(t, x, wallet, "after")
	_, err = z.Approve(ctx, wallet, tx)
	require.True(t, multisig.ErrNotAMember.Is(err), "%+v", err)
	_, _, err = z.Propose(ctx, wallet, memo.NewInstruction("z", wallet))
	require.True(t, multisig.ErrNotAMember.Is(err), "%+v", err)

	// Too few members for the threshold.
	few, _, err := x.ProposeChangeMembers(ctx, wallet, members[:1])
	require.NoError(t, err)
	err = approveAll(t, wallet, few, x, y)
	require.True(t, multisig.ErrTooFewMembers.Is(err), "%+v", err)
}

func transfer(t testing.TB, l *app.Ledger, from solana.PrivateKey, to solana.PublicKey, lamports uint64) {
	t.Helper()
	bh, err := l.LatestBlockhash()
	require.NoError(t, err)
	tx, err := solana.NewTransaction([]solana.Instruction{
		sysprog.NewTransferInstruction(lamports, from.PublicKey(), to).Build(),
	}, bh, solana.TransactionPayer(from.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(from.PublicKey()) {
			return &from
		}
		return nil
	})
	require.NoError(t, err)
	_, err = l.Submit(context.Background(), tx)
	require.NoError(t, err)
}

func TestGenesisWallets(t *testing.T) {
	keys := weavetest.NewKeys(t, 2)
	base := weavetest.SequenceKey(42)
	raw, err := json.Marshal(map[string]interface{}{
		"multisig": []multisig.GenesisWallet{
			{Base: base, Members: weavetest.PublicKeys(keys...), Threshold: 1, Lamports: sol},
		},
		"conf": map[string]interface{}{
			"multisig": multisig.Configuration{MaxMembers: 2, MaxInstructions: 1},
		},
	})
	require.NoError(t, err)
	var opts quorum.Options
	require.NoError(t, json.Unmarshal(raw, &opts))

	l := newLedger(t, opts)
	for _, k := range keys {
		require.NoError(t, l.Airdrop(k.PublicKey(), sol))
	}
	c := multisig.NewClient(l, keys[0])
	wallet, _, err := multisig.WalletAddress(base)
	require.NoError(t, err)

	w, err := c.Wallet(wallet)
	require.NoError(t, err)
	require.Equal(t, uint16(1), w.Threshold)
	require.Equal(t, weavetest.PublicKeys(keys...), w.Members)

	// A single approval executes.
	tx, _, err := c.CreateAndApprove(context.Background(), wallet, memo.NewInstruction("genesis", wallet))
	require.NoError(t, err)
	_, err = c.Execute(context.Background(), wallet, tx)
	require.NoError(t, err)

	// Configured limits apply.
	_, _, err = c.Propose(context.Background(), wallet,
		memo.NewInstruction("a", wallet), memo.NewInstruction("b", wallet))
	require.True(t, errors.ErrInput.Is(err), "%+v", err)
	_, _, err = c.CreateWallet(context.Background(), 1, append(weavetest.PublicKeys(keys...), base))
	require.True(t, errors.ErrInput.Is(err), "%+v", err)
}
