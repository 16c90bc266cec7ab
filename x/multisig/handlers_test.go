package multisig

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/weavetest"
	"github.com/iov-one/quorum/x/memo"
	"github.com/iov-one/quorum/x/system"
	"github.com/stretchr/testify/require"
)

const rentPerByte = 10

var testNow = time.Unix(1600000000, 0)

func testContext() quorum.Context {
	return quorum.WithBlockTime(context.Background(), testNow)
}

// programAccount returns an account owned by the multisig program holding
// given entity in an allocation of size bytes.
func programAccount(t testing.TB, key solana.PublicKey, size int, e entity) *quorum.AccountInfo {
	t.Helper()
	acc := weavetest.Account(key, false, true)
	acc.Owner = ProgramID
	acc.Data = make([]byte, size)
	acc.Lamports = uint64(128+size) * rentPerByte
	require.NoError(t, writeEntity(acc.Data, e))
	return acc
}

func fundedAccount(key solana.PublicKey, lamports uint64) *quorum.AccountInfo {
	acc := weavetest.Account(key, true, true)
	acc.Lamports = lamports
	return acc
}

// invokeSystem returns an invocation function processing system program
// instructions with the account infos of the calling env.
func invokeSystem(t testing.TB, env *weavetest.Env) func(solana.Instruction, [][][]byte) error {
	return func(ix solana.Instruction, _ [][][]byte) error {
		require.Equal(t, solana.SystemProgramID, ix.ProgramID())
		lookup := func(key solana.PublicKey) *quorum.AccountInfo {
			for _, info := range env.Infos {
				if info.Key == key {
					return info
				}
			}
			t.Fatalf("account %s not passed to the caller", key)
			return nil
		}

		metas := ix.Accounts()
		nested := make([]*quorum.AccountInfo, len(metas))
		for i, m := range metas {
			cp := *lookup(m.PublicKey)
			cp.IsSigner = m.IsSigner
			cp.IsWritable = m.IsWritable
			nested[i] = &cp
		}
		data, err := ix.Data()
		require.NoError(t, err)
		if err := system.NewHandler().Process(testContext(), nil, weavetest.NewEnv(solana.SystemProgramID, data, nested...)); err != nil {
			return err
		}
		for i, m := range metas {
			caller := lookup(m.PublicKey)
			caller.Lamports = nested[i].Lamports
			caller.Owner = nested[i].Owner
			caller.Data = nested[i].Data
		}
		return nil
	}
}

func TestNewMultisigHandler(t *testing.T) {
	base := weavetest.SequenceKey(1000)
	payer := weavetest.SequenceKey(1001)
	walletAddr, bump, err := WalletAddress(base)
	require.NoError(t, err)
	members := testMembers(3)

	cases := map[string]struct {
		Msg       NewMultisigMsg
		Wallet    solana.PublicKey
		NotSigned bool
		InUse     bool
		WantErr   *errors.Error
	}{
		"two of three": {
			Msg: NewMultisigMsg{Threshold: 2, Members: members},
		},
		"one of one": {
			Msg: NewMultisigMsg{Threshold: 1, Members: members[:1]},
		},
		"zero threshold": {
			Msg:     NewMultisigMsg{Threshold: 0, Members: members},
			WantErr: ErrInvalidThreshold,
		},
		"threshold above member count": {
			Msg:     NewMultisigMsg{Threshold: 4, Members: members},
			WantErr: ErrInvalidThreshold,
		},
		"duplicated member": {
			Msg:     NewMultisigMsg{Threshold: 2, Members: append(members, members[1])},
			WantErr: ErrDuplicateMembers,
		},
		"too many members": {
			Msg:     NewMultisigMsg{Threshold: 2, Members: testMembers(65)},
			WantErr: errors.ErrInput,
		},
		"wallet address not derived from base": {
			Msg:     NewMultisigMsg{Threshold: 2, Members: members},
			Wallet:  weavetest.SequenceKey(1),
			WantErr: errors.ErrInput,
		},
		"base did not sign": {
			Msg:       NewMultisigMsg{Threshold: 2, Members: members},
			NotSigned: true,
			WantErr:   errors.ErrUnauthorized,
		},
		"wallet already exists": {
			Msg:     NewMultisigMsg{Threshold: 2, Members: members},
			InUse:   true,
			WantErr: errors.ErrDuplicate,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			wallet := walletAddr
			if tc.Wallet != (solana.PublicKey{}) {
				wallet = tc.Wallet
			}
			walletAcc := weavetest.Account(wallet, false, true)
			if tc.InUse {
				walletAcc.Lamports = 1
			}
			payerAcc := fundedAccount(payer, 1000000)
			data, err := MarshalMsg(&tc.Msg)
			require.NoError(t, err)

			env := weavetest.NewEnv(ProgramID, data,
				weavetest.Account(base, !tc.NotSigned, false),
				payerAcc,
				walletAcc,
				weavetest.Account(solana.SystemProgramID, false, false),
			)
			env.RentPerByte = rentPerByte
			env.InvokeFn = invokeSystem(t, env)

			err = NewHandler().Process(testContext(), store.MemStore(), env)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}

			space := WalletSpace(len(tc.Msg.Members))
			rent := uint64(128+space) * rentPerByte
			require.Equal(t, ProgramID, walletAcc.Owner)
			require.Equal(t, rent, walletAcc.Lamports)
			require.Equal(t, uint64(1000000)-rent, payerAcc.Lamports)
			require.Len(t, walletAcc.Data, space)

			invocations := env.Invocations()
			require.Len(t, invocations, 1)
			require.Equal(t, [][][]byte{{[]byte("MultisigWallet"), base[:], {bump}}}, invocations[0].SignerSeeds)

			var w Wallet
			require.NoError(t, w.Unmarshal(walletAcc.Data))
			require.Equal(t, Wallet{
				Base:      base,
				Members:   tc.Msg.Members,
				Threshold: tc.Msg.Threshold,
				Bump:      bump,
			}, w)
		})
	}
}

func TestNewTransactionHandler(t *testing.T) {
	members := testMembers(3)
	outsider := weavetest.SequenceKey(99)
	ixs := []Instruction{testMemo(t)}

	cases := map[string]struct {
		Proposer  solana.PublicKey
		NotSigned bool
		Nonce     uint64
		Ixs       []Instruction
		Prepare   func(walletAcc *quorum.AccountInfo)
		WantErr   *errors.Error
	}{
		"member proposes": {
			Proposer: members[1],
			Ixs:      ixs,
		},
		"empty proposal": {
			Proposer: members[0],
		},
		"not a member": {
			Proposer: outsider,
			Ixs:      ixs,
			WantErr:  ErrNotAMember,
		},
		"proposer did not sign": {
			Proposer:  members[0],
			NotSigned: true,
			Ixs:       ixs,
			WantErr:   errors.ErrUnauthorized,
		},
		"address of another nonce": {
			Proposer: members[0],
			Nonce:    1,
			Ixs:      ixs,
			WantErr:  errors.ErrInput,
		},
		"too many instructions": {
			Proposer: members[0],
			Ixs:      make([]Instruction, 17),
			WantErr:  errors.ErrInput,
		},
		"wallet not owned by the program": {
			Proposer: members[0],
			Ixs:      ixs,
			Prepare:  func(acc *quorum.AccountInfo) { acc.Owner = solana.SystemProgramID },
			WantErr:  errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			wallet := Wallet{Base: weavetest.SequenceKey(1000), Members: members, Threshold: 2, MemberSetSeqno: 5}
			walletAddr, bump, err := WalletAddress(wallet.Base)
			require.NoError(t, err)
			wallet.Bump = bump
			walletAcc := programAccount(t, walletAddr, WalletSpace(3), &wallet)
			if tc.Prepare != nil {
				tc.Prepare(walletAcc)
			}
			txAddr, txBump, err := TransactionAddress(walletAddr, tc.Nonce)
			require.NoError(t, err)
			txAcc := weavetest.Account(txAddr, false, true)
			proposerAcc := fundedAccount(tc.Proposer, 10000000)
			proposerAcc.IsSigner = !tc.NotSigned

			data, err := MarshalMsg(&NewTransactionMsg{Instructions: tc.Ixs})
			require.NoError(t, err)
			env := weavetest.NewEnv(ProgramID, data, proposerAcc, walletAcc, txAcc,
				weavetest.Account(solana.SystemProgramID, false, false))
			env.RentPerByte = rentPerByte
			env.InvokeFn = invokeSystem(t, env)

			err = NewHandler().Process(testContext(), store.MemStore(), env)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}

			require.Equal(t, ProgramID, txAcc.Owner)
			require.Len(t, txAcc.Data, TransactionSpace(tc.Ixs, 3))
			invocations := env.Invocations()
			require.Len(t, invocations, 1)
			nonce := make([]byte, 8)
			require.Equal(t, [][][]byte{{[]byte("MultisigTransaction"), walletAddr[:], nonce, {txBump}}}, invocations[0].SignerSeeds)

			var tx Transaction
			require.NoError(t, tx.Unmarshal(txAcc.Data))
			require.Equal(t, tc.Ixs, tx.Instructions)
			require.Equal(t, walletAddr, tx.Wallet)
			require.Equal(t, make([]*quorum.UnixTime, 3), tx.Approved)
			require.Equal(t, uint32(5), tx.MemberSetSeqno)
			require.Equal(t, quorum.AsUnixTime(testNow), tx.CreatedAt)
			require.Equal(t, tc.Proposer, tx.Proposer)
			require.False(t, tx.IsExecuted())

			var w Wallet
			require.NoError(t, w.Unmarshal(walletAcc.Data))
			require.Equal(t, uint64(1), w.TxNonce)
		})
	}
}

func testMemo(t testing.TB) Instruction {
	ix, err := NewInstruction(memo.NewInstruction("hello"))
	require.NoError(t, err)
	return ix
}

func TestApprovalHandlers(t *testing.T) {
	members := testMembers(3)
	outsider := weavetest.SequenceKey(99)
	now := quorum.AsUnixTime(testNow)
	earlier := now - 100

	cases := map[string]struct {
		Msg       Msg
		Member    solana.PublicKey
		NotSigned bool
		Approved  []bool
		Prepare   func(w *Wallet, tx *Transaction)
		Mutate    func(walletAcc, txAcc *quorum.AccountInfo)
		InvokeErr error
		WantErr   *errors.Error
		Check     func(t *testing.T, tx *Transaction, env *weavetest.Env)
	}{
		"approve": {
			Msg:    &ApproveMsg{},
			Member: members[1],
			Check: func(t *testing.T, tx *Transaction, env *weavetest.Env) {
				require.Nil(t, tx.Approved[0])
				require.Equal(t, &now, tx.Approved[1])
				require.Nil(t, tx.Approved[2])
			},
		},
		"approve twice": {
			Msg:      &ApproveMsg{},
			Member:   members[1],
			Approved: []bool{false, true, false},
			WantErr:  ErrAlreadyApproved,
		},
		"approve by an outsider": {
			Msg:     &ApproveMsg{},
			Member:  outsider,
			WantErr: ErrNotAMember,
		},
		"approve without a signature": {
			Msg:       &ApproveMsg{},
			Member:    members[0],
			NotSigned: true,
			WantErr:   errors.ErrUnauthorized,
		},
		"approve a transaction of another wallet": {
			Msg:     &ApproveMsg{},
			Member:  members[0],
			Prepare: func(w *Wallet, tx *Transaction) { tx.Wallet = weavetest.SequenceKey(7) },
			WantErr: ErrInvalidMultisigReference,
		},
		"wallet reference is checked before membership": {
			Msg:     &ApproveMsg{},
			Member:  outsider,
			Prepare: func(w *Wallet, tx *Transaction) { tx.Wallet = weavetest.SequenceKey(7) },
			WantErr: ErrInvalidMultisigReference,
		},
		"approve an executed transaction": {
			Msg:    &ApproveMsg{},
			Member: members[2],
			Prepare: func(w *Wallet, tx *Transaction) {
				tx.Executor = &members[0]
				tx.ExecutedAt = &earlier
			},
			WantErr: ErrAlreadyExecuted,
		},
		"approve after a member change": {
			Msg:     &ApproveMsg{},
			Member:  members[0],
			Prepare: func(w *Wallet, tx *Transaction) { w.MemberSetSeqno = 1 },
			WantErr: ErrInvalidMemberSetSeqno,
		},
		"execution is checked before member set": {
			Msg:    &ApproveMsg{},
			Member: members[0],
			Prepare: func(w *Wallet, tx *Transaction) {
				w.MemberSetSeqno = 1
				tx.Executor = &members[1]
				tx.ExecutedAt = &earlier
			},
			WantErr: ErrAlreadyExecuted,
		},
		"wallet not owned by the program": {
			Msg:     &ApproveMsg{},
			Member:  members[0],
			Mutate:  func(walletAcc, txAcc *quorum.AccountInfo) { walletAcc.Owner = solana.SystemProgramID },
			WantErr: errors.ErrUnauthorized,
		},
		"wallet passed as the transaction": {
			Msg:     &ApproveMsg{},
			Member:  members[0],
			Mutate:  func(walletAcc, txAcc *quorum.AccountInfo) { txAcc.Data = walletAcc.Data },
			WantErr: errors.ErrInvalidType,
		},
		"unapprove": {
			Msg:      &UnapproveMsg{},
			Member:   members[0],
			Approved: []bool{true, true, false},
			Check: func(t *testing.T, tx *Transaction, env *weavetest.Env) {
				require.Nil(t, tx.Approved[0])
				require.NotNil(t, tx.Approved[1])
			},
		},
		"unapprove twice": {
			Msg:      &UnapproveMsg{},
			Member:   members[0],
			Approved: []bool{false, true, false},
			WantErr:  ErrAlreadyUnapproved,
		},
		"unapprove an executed transaction": {
			Msg:      &UnapproveMsg{},
			Member:   members[0],
			Approved: []bool{true, true, false},
			Prepare: func(w *Wallet, tx *Transaction) {
				tx.Executor = &members[0]
				tx.ExecutedAt = &earlier
			},
			WantErr: ErrAlreadyExecuted,
		},
		"execute": {
			Msg:      &ExecuteMsg{},
			Member:   members[2],
			Approved: []bool{true, true, false},
			Check: func(t *testing.T, tx *Transaction, env *weavetest.Env) {
				require.Equal(t, &members[2], tx.Executor)
				require.Equal(t, &now, tx.ExecutedAt)

				invocations := env.Invocations()
				require.Len(t, invocations, 1)
				require.Equal(t, memo.ProgramID, invocations[0].ProgramID)
				w, err := loadWallet(env.Infos[1])
				require.NoError(t, err)
				require.Equal(t, [][][]byte{w.signerSeeds()}, invocations[0].SignerSeeds)
			},
		},
		"execute without enough approvals": {
			Msg:      &ExecuteMsg{},
			Member:   members[0],
			Approved: []bool{true, false, false},
			WantErr:  ErrNotEnoughApprovals,
		},
		"execute twice": {
			Msg:      &ExecuteMsg{},
			Member:   members[0],
			Approved: []bool{true, true, true},
			Prepare: func(w *Wallet, tx *Transaction) {
				tx.Executor = &members[1]
				tx.ExecutedAt = &earlier
			},
			WantErr: ErrAlreadyExecuted,
		},
		"failing instruction aborts execution": {
			Msg:       &ExecuteMsg{},
			Member:    members[0],
			Approved:  []bool{true, true, false},
			InvokeErr: errors.ErrInsufficientAmount,
			WantErr:   errors.ErrInsufficientAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			wallet := Wallet{Base: weavetest.SequenceKey(1000), Members: members, Threshold: 2, TxNonce: 1}
			walletAddr, bump, err := WalletAddress(wallet.Base)
			require.NoError(t, err)
			wallet.Bump = bump
			txAddr, _, err := TransactionAddress(walletAddr, 0)
			require.NoError(t, err)

			tx := Transaction{
				Instructions: []Instruction{testMemo(t)},
				Wallet:       walletAddr,
				Approved:     make([]*quorum.UnixTime, len(members)),
				CreatedAt:    earlier,
				Proposer:     members[0],
			}
			for i, ok := range tc.Approved {
				if ok {
					tx.Approved[i] = &earlier
				}
			}
			if tc.Prepare != nil {
				tc.Prepare(&wallet, &tx)
			}
			walletAcc := programAccount(t, walletAddr, WalletSpace(len(members)), &wallet)
			txAcc := programAccount(t, txAddr, TransactionSpace(tx.Instructions, len(members)), &tx)
			if tc.Mutate != nil {
				tc.Mutate(walletAcc, txAcc)
			}
			before := append([]byte(nil), txAcc.Data...)

			data, err := MarshalMsg(tc.Msg)
			require.NoError(t, err)
			env := weavetest.NewEnv(ProgramID, data, weavetest.Account(tc.Member, !tc.NotSigned, true), walletAcc, txAcc)
			env.InvokeFn = func(solana.Instruction, [][][]byte) error { return tc.InvokeErr }

			err = NewHandler().Process(testContext(), store.MemStore(), env)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				require.Equal(t, before, txAcc.Data)
				return
			}

			var got Transaction
			require.NoError(t, got.Unmarshal(txAcc.Data))
			if tc.Check != nil {
				tc.Check(t, &got, env)
			}
		})
	}
}

// executeEnv returns an env executing a memo transaction of a wallet with
// given threshold. Members flagged in approved have approved it.
func executeEnv(t *testing.T, members []solana.PublicKey, threshold uint16, approved []bool) (env *weavetest.Env, walletAcc, txAcc *quorum.AccountInfo) {
	t.Helper()
	wallet := Wallet{Base: weavetest.SequenceKey(1000), Members: members, Threshold: threshold, TxNonce: 1}
	walletAddr, bump, err := WalletAddress(wallet.Base)
	require.NoError(t, err)
	wallet.Bump = bump
	txAddr, _, err := TransactionAddress(walletAddr, 0)
	require.NoError(t, err)

	at := quorum.AsUnixTime(testNow) - 100
	tx := Transaction{
		Instructions: []Instruction{testMemo(t)},
		Wallet:       walletAddr,
		Approved:     make([]*quorum.UnixTime, len(members)),
		CreatedAt:    at,
		Proposer:     members[0],
	}
	for i, ok := range approved {
		if ok {
			tx.Approved[i] = &at
		}
	}
	walletAcc = programAccount(t, walletAddr, WalletSpace(len(members)), &wallet)
	txAcc = programAccount(t, txAddr, TransactionSpace(tx.Instructions, len(members)), &tx)

	data, err := MarshalMsg(&ExecuteMsg{})
	require.NoError(t, err)
	env = weavetest.NewEnv(ProgramID, data, weavetest.Account(members[0], true, true), walletAcc, txAcc)
	return env, walletAcc, txAcc
}

func TestExecuteRequiresThreshold(t *testing.T) {
	members := testMembers(4)
	for threshold := 1; threshold <= len(members); threshold++ {
		for subset := 0; subset < 1<<len(members); subset++ {
			approved := make([]bool, len(members))
			count := 0
			for i := range approved {
				if subset&(1<<i) != 0 {
					approved[i] = true
					count++
				}
			}

			env, _, txAcc := executeEnv(t, members, uint16(threshold), approved)
			err := NewHandler().Process(testContext(), store.MemStore(), env)

			if count < threshold {
				if !ErrNotEnoughApprovals.Is(err) {
					t.Fatalf("threshold %d, approvals %v: unexpected error: %+v", threshold, approved, err)
				}
				require.Empty(t, env.Invocations())
				continue
			}
			if err != nil {
				t.Fatalf("threshold %d, approvals %v: unexpected error: %+v", threshold, approved, err)
			}
			require.Len(t, env.Invocations(), 1)
			tx, err := loadTransaction(txAcc)
			require.NoError(t, err)
			require.True(t, tx.IsExecuted())
			require.Equal(t, count, tx.Approvals())
		}
	}
}

func TestExecuteReloadsWallet(t *testing.T) {
	members := testMembers(3)
	approved := []bool{true, true, false}

	cases := map[string]struct {
		Invoke  func(walletAcc *quorum.AccountInfo) error
		WantErr *errors.Error
	}{
		"wallet changed by the executed instruction": {
			Invoke: func(walletAcc *quorum.AccountInfo) error {
				w, err := loadWallet(walletAcc)
				if err != nil {
					return err
				}
				w.Threshold = 3
				return writeEntity(walletAcc.Data, w)
			},
		},
		"wallet no longer decodes": {
			Invoke: func(walletAcc *quorum.AccountInfo) error {
				copy(walletAcc.Data, make([]byte, 8))
				return nil
			},
			WantErr: errors.ErrInvalidType,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			env, walletAcc, txAcc := executeEnv(t, members, 2, approved)
			env.InvokeFn = func(solana.Instruction, [][][]byte) error { return tc.Invoke(walletAcc) }
			before := append([]byte(nil), txAcc.Data...)

			err := NewHandler().Process(testContext(), store.MemStore(), env)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				require.Equal(t, before, txAcc.Data)
				return
			}
			tx, err := loadTransaction(txAcc)
			require.NoError(t, err)
			require.True(t, tx.IsExecuted())
			w, err := loadWallet(walletAcc)
			require.NoError(t, err)
			require.Equal(t, uint16(3), w.Threshold)
		})
	}
}

func TestAdministrationHandlers(t *testing.T) {
	members := testMembers(3)

	cases := map[string]struct {
		Msg       Msg
		NotSigned bool
		Lamports  uint64
		WantErr   *errors.Error
		Check     func(t *testing.T, w *Wallet, acc *quorum.AccountInfo)
	}{
		"change threshold": {
			Msg: &ChangeThresholdMsg{Threshold: 3},
			Check: func(t *testing.T, w *Wallet, acc *quorum.AccountInfo) {
				require.Equal(t, uint16(3), w.Threshold)
				require.Equal(t, uint32(0), w.MemberSetSeqno)
			},
		},
		"zero threshold": {
			Msg:     &ChangeThresholdMsg{Threshold: 0},
			WantErr: ErrInvalidThreshold,
		},
		"threshold above member count": {
			Msg:     &ChangeThresholdMsg{Threshold: 4},
			WantErr: ErrInvalidThreshold,
		},
		"change threshold without the wallet signature": {
			Msg:       &ChangeThresholdMsg{Threshold: 1},
			NotSigned: true,
			WantErr:   errors.ErrUnauthorized,
		},
		"remove a member": {
			Msg: &ChangeMembersMsg{Members: members[1:]},
			Check: func(t *testing.T, w *Wallet, acc *quorum.AccountInfo) {
				require.Equal(t, members[1:], w.Members)
				require.Equal(t, uint32(1), w.MemberSetSeqno)
				require.Len(t, acc.Data, WalletSpace(2))
			},
		},
		"add members": {
			Msg:      &ChangeMembersMsg{Members: testMembers(5)},
			Lamports: uint64(128+WalletSpace(5)) * rentPerByte,
			Check: func(t *testing.T, w *Wallet, acc *quorum.AccountInfo) {
				require.Equal(t, testMembers(5), w.Members)
				require.Equal(t, uint16(2), w.Threshold)
				require.Len(t, acc.Data, WalletSpace(5))
			},
		},
		"add members without funding the wallet": {
			Msg:     &ChangeMembersMsg{Members: testMembers(5)},
			WantErr: errors.ErrInsufficientAmount,
		},
		"too few members": {
			Msg:     &ChangeMembersMsg{Members: members[:1]},
			WantErr: ErrTooFewMembers,
		},
		"duplicated members": {
			Msg:     &ChangeMembersMsg{Members: []solana.PublicKey{members[0], members[1], members[0]}},
			WantErr: ErrDuplicateMembers,
		},
		"too many members": {
			Msg:      &ChangeMembersMsg{Members: testMembers(65)},
			Lamports: 1 << 40,
			WantErr:  errors.ErrInput,
		},
		"change members without the wallet signature": {
			Msg:       &ChangeMembersMsg{Members: members[1:]},
			NotSigned: true,
			WantErr:   errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			wallet := Wallet{Base: weavetest.SequenceKey(1000), Members: members, Threshold: 2, TxNonce: 4}
			walletAddr, bump, err := WalletAddress(wallet.Base)
			require.NoError(t, err)
			wallet.Bump = bump
			acc := programAccount(t, walletAddr, WalletSpace(len(members)), &wallet)
			acc.IsSigner = !tc.NotSigned
			if tc.Lamports != 0 {
				acc.Lamports = tc.Lamports
			}

			data, err := MarshalMsg(tc.Msg)
			require.NoError(t, err)
			env := weavetest.NewEnv(ProgramID, data, acc)
			env.RentPerByte = rentPerByte

			err = NewHandler().Process(testContext(), store.MemStore(), env)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}
			w, err := loadWallet(acc)
			require.NoError(t, err)
			require.Equal(t, uint64(4), w.TxNonce)
			if tc.Check != nil {
				tc.Check(t, w, acc)
			}
		})
	}
}
