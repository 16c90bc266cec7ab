package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/x/memo"
	"github.com/iov-one/quorum/x/multisig"
)

func cmdNewMultisig(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create a new multisig wallet. Members are given as arguments, each being a
base58 public key or a keypair file.

  $ quorumcli new-multisig -threshold 2 -include-signer bob.json 9xQe...
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		thresholdFl = fl.Uint("threshold", 1, "Number of approvals required to execute a transaction.")
		includeFl   = fl.Bool("include-signer", false, "Add the signer to the members.")
	)
	fl.Parse(args)

	threshold, err := flThreshold(*thresholdFl)
	if err != nil {
		return err
	}
	members, err := parsePublicKeys(fl.Args())
	if err != nil {
		return err
	}
	client, _, release, err := openClient(conf)
	if err != nil {
		return err
	}
	defer release()

	if *includeFl {
		members = append(members, client.PublicKey())
	}
	wallet, receipt, err := client.CreateWallet(context.Background(), threshold, members)
	printReceipt(output, receipt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "wallet: %s\n", wallet)
	return err
}

func cmdProposeMemo(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Propose a transaction recording a memo signed by the wallet.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		walletFl  = fl.String("wallet", "", "Multisig wallet address.")
		memoFl    = fl.String("memo", "", "Text of the memo.")
		approveFl = fl.Bool("approve", false, "Approve the transaction as well.")
	)
	fl.Parse(args)

	wallet, err := parsePublicKey(*walletFl)
	if err != nil {
		return fmt.Errorf("invalid wallet: %s", err)
	}
	client, _, release, err := openClient(conf)
	if err != nil {
		return err
	}
	defer release()

	ix := memo.NewInstruction(*memoFl, wallet)
	propose := client.Propose
	if *approveFl {
		propose = client.CreateAndApprove
	}
	tx, receipt, err := propose(context.Background(), wallet, ix)
	return printProposal(output, tx, receipt, err)
}

func cmdProposeThreshold(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Propose a transaction changing the number of approvals required by the
wallet.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		walletFl    = fl.String("wallet", "", "Multisig wallet address.")
		thresholdFl = fl.Uint("threshold", 1, "New threshold.")
	)
	fl.Parse(args)

	wallet, err := parsePublicKey(*walletFl)
	if err != nil {
		return fmt.Errorf("invalid wallet: %s", err)
	}
	threshold, err := flThreshold(*thresholdFl)
	if err != nil {
		return err
	}
	client, _, release, err := openClient(conf)
	if err != nil {
		return err
	}
	defer release()

	tx, receipt, err := client.ProposeChangeThreshold(context.Background(), wallet, threshold)
	return printProposal(output, tx, receipt, err)
}

func cmdProposeMembers(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Propose a transaction replacing all members of the wallet. New members are
given as arguments, each being a base58 public key or a keypair file.

Executing this transaction invalidates all other pending transactions of
the wallet.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		walletFl = fl.String("wallet", "", "Multisig wallet address.")
	)
	fl.Parse(args)

	wallet, err := parsePublicKey(*walletFl)
	if err != nil {
		return fmt.Errorf("invalid wallet: %s", err)
	}
	members, err := parsePublicKeys(fl.Args())
	if err != nil {
		return err
	}
	client, _, release, err := openClient(conf)
	if err != nil {
		return err
	}
	defer release()

	tx, receipt, err := client.ProposeChangeMembers(context.Background(), wallet, members)
	return printProposal(output, tx, receipt, err)
}

func cmdApprove(input io.Reader, output io.Writer, args []string) error {
	return approval(output, args, `
Approve a pending transaction of the wallet.
`, (*multisig.Client).Approve)
}

func cmdUnapprove(input io.Reader, output io.Writer, args []string) error {
	return approval(output, args, `
Withdraw an approval of a pending transaction.
`, (*multisig.Client).Unapprove)
}

func cmdExecute(input io.Reader, output io.Writer, args []string) error {
	return approval(output, args, `
Execute a transaction that collected enough approvals. The signer must be
a member of the wallet.
`, (*multisig.Client).Execute)
}

// approval implements all commands acting on an existing transaction.
func approval(
	output io.Writer,
	args []string,
	usage string,
	op func(*multisig.Client, quorum.Context, solana.PublicKey, solana.PublicKey) (*quorum.Receipt, error),
) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		walletFl = fl.String("wallet", "", "Multisig wallet address.")
		txFl     = fl.String("tx", "", "Transaction address.")
	)
	fl.Parse(args)

	wallet, err := parsePublicKey(*walletFl)
	if err != nil {
		return fmt.Errorf("invalid wallet: %s", err)
	}
	tx, err := parsePublicKey(*txFl)
	if err != nil {
		return fmt.Errorf("invalid transaction: %s", err)
	}
	client, _, release, err := openClient(conf)
	if err != nil {
		return err
	}
	defer release()

	receipt, err := op(client, context.Background(), wallet, tx)
	printReceipt(output, receipt)
	return err
}

func cmdShowWallet(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the state of a multisig wallet in JSON format.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		walletFl = fl.String("wallet", "", "Multisig wallet address.")
	)
	fl.Parse(args)

	addr, err := parsePublicKey(*walletFl)
	if err != nil {
		return fmt.Errorf("invalid wallet: %s", err)
	}
	l, release, err := openLedger(conf)
	if err != nil {
		return err
	}
	defer release()

	client := multisig.NewClient(l, nil)
	w, err := client.Wallet(addr)
	if err != nil {
		return err
	}
	acc, err := l.Account(addr)
	if err != nil {
		return err
	}
	next, err := client.NextTransactionAddress(addr)
	if err != nil {
		return err
	}
	return printJSON(output, walletView{
		Address:         addr,
		Base:            w.Base,
		Members:         w.Members,
		Threshold:       w.Threshold,
		TxNonce:         w.TxNonce,
		MemberSetSeqno:  w.MemberSetSeqno,
		NextTransaction: next,
		Lamports:        acc.Lamports,
	})
}

type walletView struct {
	Address         solana.PublicKey   `json:"address"`
	Base            solana.PublicKey   `json:"base"`
	Members         []solana.PublicKey `json:"members"`
	Threshold       uint16             `json:"threshold"`
	TxNonce         uint64             `json:"tx_nonce"`
	MemberSetSeqno  uint32             `json:"member_set_seqno"`
	NextTransaction solana.PublicKey   `json:"next_transaction"`
	Lamports        uint64             `json:"lamports"`
}

func cmdShowTransaction(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the state of a proposed transaction in JSON format.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		txFl = fl.String("tx", "", "Transaction address.")
	)
	fl.Parse(args)

	addr, err := parsePublicKey(*txFl)
	if err != nil {
		return fmt.Errorf("invalid transaction: %s", err)
	}
	l, release, err := openLedger(conf)
	if err != nil {
		return err
	}
	defer release()

	client := multisig.NewClient(l, nil)
	tx, err := client.Transaction(addr)
	if err != nil {
		return err
	}
	view := transactionView{
		Address:        addr,
		Wallet:         tx.Wallet,
		Proposer:       tx.Proposer,
		CreatedAt:      tx.CreatedAt.Time().UTC(),
		MemberSetSeqno: tx.MemberSetSeqno,
		Approvals:      tx.Approvals(),
		Executor:       tx.Executor,
	}
	if tx.ExecutedAt != nil {
		at := tx.ExecutedAt.Time().UTC()
		view.ExecutedAt = &at
	}

	// Members can be resolved only if the member set did not change since
	// the proposal.
	var members []solana.PublicKey
	if w, err := client.Wallet(tx.Wallet); err == nil && w.MemberSetSeqno == tx.MemberSetSeqno {
		members = w.Members
	}
	for i, at := range tx.Approved {
		a := approvalView{Slot: i}
		if i < len(members) {
			m := members[i]
			a.Member = &m
		}
		if at != nil {
			t := at.Time().UTC()
			a.ApprovedAt = &t
		}
		view.Approved = append(view.Approved, a)
	}
	for _, ix := range tx.Instructions {
		view.Instructions = append(view.Instructions, instructionView{
			ProgramID: ix.ProgramID,
			Keys:      ix.Keys,
			Data:      hex.EncodeToString(ix.Data),
		})
	}
	return printJSON(output, view)
}

type transactionView struct {
	Address        solana.PublicKey  `json:"address"`
	Wallet         solana.PublicKey  `json:"wallet"`
	Proposer       solana.PublicKey  `json:"proposer"`
	CreatedAt      time.Time         `json:"created_at"`
	MemberSetSeqno uint32            `json:"member_set_seqno"`
	Instructions   []instructionView `json:"instructions"`
	Approvals      int               `json:"approvals"`
	Approved       []approvalView    `json:"approved"`
	Executor       *solana.PublicKey `json:"executor,omitempty"`
	ExecutedAt     *time.Time        `json:"executed_at,omitempty"`
}

type instructionView struct {
	ProgramID solana.PublicKey       `json:"program_id"`
	Keys      []multisig.AccountMeta `json:"keys"`
	Data      string                 `json:"data"`
}

type approvalView struct {
	Slot       int               `json:"slot"`
	Member     *solana.PublicKey `json:"member,omitempty"`
	ApprovedAt *time.Time        `json:"approved_at,omitempty"`
}

func flThreshold(v uint) (uint16, error) {
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("threshold %d too big", v)
	}
	return uint16(v), nil
}

func printProposal(out io.Writer, tx solana.PublicKey, receipt *quorum.Receipt, err error) error {
	printReceipt(out, receipt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "transaction: %s\n", tx)
	return err
}

func printJSON(out io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot serialize: %s", err)
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}
