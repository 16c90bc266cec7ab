package multisig

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// NewMultisigInstruction returns the instruction creating a wallet derived
// from given base key. The base and the payer must sign.
func NewMultisigInstruction(base, payer solana.PublicKey, threshold uint16, members []solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	wallet, _, err := WalletAddress(base)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	data, err := MarshalMsg(&NewMultisigMsg{Threshold: threshold, Members: members})
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	metas := solana.AccountMetaSlice{
		solana.Meta(base).SIGNER(),
		solana.Meta(payer).SIGNER().WRITE(),
		solana.Meta(wallet).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(ProgramID, metas, data), wallet, nil
}

// NewTransactionInstruction returns the instruction proposing given
// instructions to the wallet. Nonce must be the current transaction nonce
// of the wallet.
func NewTransactionInstruction(proposer, wallet solana.PublicKey, nonce uint64, ixs []Instruction) (solana.Instruction, solana.PublicKey, error) {
	tx, _, err := TransactionAddress(wallet, nonce)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	data, err := MarshalMsg(&NewTransactionMsg{Instructions: ixs})
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	metas := solana.AccountMetaSlice{
		solana.Meta(proposer).SIGNER().WRITE(),
		solana.Meta(wallet).WRITE(),
		solana.Meta(tx).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(ProgramID, metas, data), tx, nil
}

// ApproveInstruction returns the instruction approving a transaction.
func ApproveInstruction(member, wallet, tx solana.PublicKey) (solana.Instruction, error) {
	return approvalInstruction(&ApproveMsg{}, member, wallet, tx, nil)
}

// UnapproveInstruction returns the instruction withdrawing an approval.
func UnapproveInstruction(member, wallet, tx solana.PublicKey) (solana.Instruction, error) {
	return approvalInstruction(&UnapproveMsg{}, member, wallet, tx, nil)
}

// ExecuteInstruction returns the instruction executing the transaction.
// All accounts used by the stored instructions are passed along.
func ExecuteInstruction(member, wallet, txAddr solana.PublicKey, tx *Transaction) (solana.Instruction, error) {
	var remaining solana.AccountMetaSlice
	for _, ix := range tx.Instructions {
		remaining = append(remaining, solana.Meta(ix.ProgramID))
		for _, k := range ix.Keys {
			if k.PublicKey == wallet {
				continue
			}
			remaining = append(remaining, &solana.AccountMeta{
				PublicKey:  k.PublicKey,
				IsSigner:   k.IsSigner,
				IsWritable: k.IsWritable,
			})
		}
	}
	remaining = append(remaining, solana.Meta(wallet).WRITE())
	return approvalInstruction(&ExecuteMsg{}, member, wallet, txAddr, remaining)
}

func approvalInstruction(msg Msg, member, wallet, tx solana.PublicKey, remaining solana.AccountMetaSlice) (solana.Instruction, error) {
	data, err := MarshalMsg(msg)
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.Meta(member).SIGNER().WRITE(),
		solana.Meta(wallet).WRITE(),
		solana.Meta(tx).WRITE(),
	}
	return solana.NewInstruction(ProgramID, append(metas, remaining...), data), nil
}

// ChangeThresholdInstruction returns the instruction setting a new
// threshold. It is valid only as part of a proposed transaction.
func ChangeThresholdInstruction(wallet solana.PublicKey, threshold uint16) (Instruction, error) {
	return adminInstruction(&ChangeThresholdMsg{Threshold: threshold}, wallet)
}

// ChangeMembersInstruction returns the instruction replacing members of
// the wallet. It is valid only as part of a proposed transaction.
func ChangeMembersInstruction(wallet solana.PublicKey, members []solana.PublicKey) (Instruction, error) {
	return adminInstruction(&ChangeMembersMsg{Members: members}, wallet)
}

func adminInstruction(msg Msg, wallet solana.PublicKey) (Instruction, error) {
	data, err := MarshalMsg(msg)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		ProgramID: ProgramID,
		Keys:      []AccountMeta{{PublicKey: wallet, IsSigner: true, IsWritable: true}},
		Data:      data,
	}, nil
}

// Ledger is the part of the ledger API used by the Client.
type Ledger interface {
	Submit(ctx quorum.Context, tx *solana.Transaction) (*quorum.Receipt, error)
	Account(key solana.PublicKey) (*quorum.Account, error)
	LatestBlockhash() (solana.Hash, error)
}

// Client sends multisig instructions signed by a member. The member pays
// all fees and rent.
type Client struct {
	ledger Ledger
	member solana.PrivateKey
}

// NewClient returns a client acting as given member.
func NewClient(ledger Ledger, member solana.PrivateKey) *Client {
	return &Client{ledger: ledger, member: member}
}

// PublicKey returns the key of the member using this client.
func (c *Client) PublicKey() solana.PublicKey {
	return c.member.PublicKey()
}

// CreateWallet creates a wallet derived from a new random base key.
func (c *Client) CreateWallet(ctx quorum.Context, threshold uint16, members []solana.PublicKey) (solana.PublicKey, *quorum.Receipt, error) {
	base, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	ix, wallet, err := NewMultisigInstruction(base.PublicKey(), c.PublicKey(), threshold, members)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	receipt, err := c.send(ctx, []solana.Instruction{ix}, base)
	return wallet, receipt, err
}

// Wallet returns the state of given wallet.
func (c *Client) Wallet(addr solana.PublicKey) (*Wallet, error) {
	acc, err := c.account(addr)
	if err != nil {
		return nil, err
	}
	var w Wallet
	if err := w.Unmarshal(acc.Data); err != nil {
		return nil, err
	}
	return &w, nil
}

// Transaction returns the state of given transaction.
func (c *Client) Transaction(addr solana.PublicKey) (*Transaction, error) {
	acc, err := c.account(addr)
	if err != nil {
		return nil, err
	}
	var t Transaction
	if err := t.Unmarshal(acc.Data); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) account(addr solana.PublicKey) (*quorum.Account, error) {
	acc, err := c.ledger.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc.Owner != ProgramID {
		return nil, errors.Wrapf(errors.ErrNotFound, "no multisig account %s", addr)
	}
	return acc, nil
}

// NextTransactionAddress returns the address the next transaction
// proposed to the wallet will be stored under.
func (c *Client) NextTransactionAddress(wallet solana.PublicKey) (solana.PublicKey, error) {
	w, err := c.Wallet(wallet)
	if err != nil {
		return solana.PublicKey{}, err
	}
	addr, _, err := TransactionAddress(wallet, w.TxNonce)
	return addr, err
}

// Propose creates a transaction of given instructions, to be executed on
// behalf of the wallet.
func (c *Client) Propose(ctx quorum.Context, wallet solana.PublicKey, ixs ...solana.Instruction) (solana.PublicKey, *quorum.Receipt, error) {
	ix, tx, err := c.proposal(wallet, ixs)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	receipt, err := c.send(ctx, []solana.Instruction{ix})
	return tx, receipt, err
}

// ProposeChangeThreshold proposes a new threshold of the wallet.
func (c *Client) ProposeChangeThreshold(ctx quorum.Context, wallet solana.PublicKey, threshold uint16) (solana.PublicKey, *quorum.Receipt, error) {
	ix, err := ChangeThresholdInstruction(wallet, threshold)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return c.Propose(ctx, wallet, ix.Solana())
}

// ProposeChangeMembers proposes a new member set of the wallet.
func (c *Client) ProposeChangeMembers(ctx quorum.Context, wallet solana.PublicKey, members []solana.PublicKey) (solana.PublicKey, *quorum.Receipt, error) {
	ix, err := ChangeMembersInstruction(wallet, members)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return c.Propose(ctx, wallet, ix.Solana())
}

// Approve approves the transaction as the client member.
func (c *Client) Approve(ctx quorum.Context, wallet, tx solana.PublicKey) (*quorum.Receipt, error) {
	ix, err := ApproveInstruction(c.PublicKey(), wallet, tx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, []solana.Instruction{ix})
}

// Unapprove withdraws the approval of the client member.
func (c *Client) Unapprove(ctx quorum.Context, wallet, tx solana.PublicKey) (*quorum.Receipt, error) {
	ix, err := UnapproveInstruction(c.PublicKey(), wallet, tx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, []solana.Instruction{ix})
}

// Execute executes an approved transaction.
func (c *Client) Execute(ctx quorum.Context, wallet, tx solana.PublicKey) (*quorum.Receipt, error) {
	ix, err := c.execution(wallet, tx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, []solana.Instruction{ix})
}

// CreateAndApprove proposes the instructions and approves the proposal in
// a single ledger transaction.
func (c *Client) CreateAndApprove(ctx quorum.Context, wallet solana.PublicKey, ixs ...solana.Instruction) (solana.PublicKey, *quorum.Receipt, error) {
	propose, tx, err := c.proposal(wallet, ixs)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	approve, err := ApproveInstruction(c.PublicKey(), wallet, tx)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	receipt, err := c.send(ctx, []solana.Instruction{propose, approve})
	return tx, receipt, err
}

// ApproveAndExecute approves the transaction and executes it in a single
// ledger transaction. The approval must be the last one missing.
func (c *Client) ApproveAndExecute(ctx quorum.Context, wallet, tx solana.PublicKey) (*quorum.Receipt, error) {
	approve, err := ApproveInstruction(c.PublicKey(), wallet, tx)
	if err != nil {
		return nil, err
	}
	execute, err := c.execution(wallet, tx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, []solana.Instruction{approve, execute})
}

func (c *Client) proposal(wallet solana.PublicKey, ixs []solana.Instruction) (solana.Instruction, solana.PublicKey, error) {
	w, err := c.Wallet(wallet)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	stored := make([]Instruction, len(ixs))
	for i, ix := range ixs {
		if stored[i], err = NewInstruction(ix); err != nil {
			return nil, solana.PublicKey{}, errors.Wrapf(err, "instruction %d", i)
		}
	}
	return NewTransactionInstruction(c.PublicKey(), wallet, w.TxNonce, stored)
}

func (c *Client) execution(wallet, txAddr solana.PublicKey) (solana.Instruction, error) {
	tx, err := c.Transaction(txAddr)
	if err != nil {
		return nil, err
	}
	return ExecuteInstruction(c.PublicKey(), wallet, txAddr, tx)
}

// send signs the instructions with the member key and all given signers
// and submits them to the ledger.
func (c *Client) send(ctx quorum.Context, ixs []solana.Instruction, signers ...solana.PrivateKey) (*quorum.Receipt, error) {
	bh, err := c.ledger.LatestBlockhash()
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(ixs, bh, solana.TransactionPayer(c.PublicKey()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	keys := map[solana.PublicKey]solana.PrivateKey{c.PublicKey(): c.member}
	for _, s := range signers {
		keys[s.PublicKey()] = s
	}
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if k, ok := keys[pk]; ok {
			return &k
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrSignature, err.Error())
	}
	return c.ledger.Submit(ctx, tx)
}
