package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	sysprog "github.com/gagliardetto/solana-go/programs/system"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/iov-one/quorum/x/system"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create a new ledger in the home directory.

A genesis file can provide initial balances, wallets and configuration.
This command fails if the ledger already exists.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		genesisFl = fl.String("genesis", "", "Path to a genesis file in JSON format.")
		chainIDFl = fl.String("chain-id", "quorum-local", "Chain ID used when not provided by the genesis file.")
	)
	fl.Parse(args)

	gen := &app.Genesis{ChainID: *chainIDFl}
	if *genesisFl != "" {
		var err error
		if gen, err = app.LoadGenesis(*genesisFl); err != nil {
			return err
		}
		if gen.ChainID == "" {
			gen.ChainID = *chainIDFl
		}
	}

	l, release, err := newLedger(conf)
	if err != nil {
		return err
	}
	defer release()

	if err := l.InitChain(gen.ChainID, gen.AppOptions, system.Initializer{}, multisig.Initializer{}); err != nil {
		return fmt.Errorf("cannot initialize ledger: %s", err)
	}
	_, err = fmt.Fprintf(output, "ledger %q created in %s\n", gen.ChainID, conf.Home)
	return err
}

func cmdAirdrop(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Credit an account with lamports created out of thin air.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		toFl       = fl.String("to", "", "Recipient public key or keypair file. Defaults to the signer.")
		lamportsFl = fl.Uint64("lamports", 0, "Amount to credit.")
	)
	fl.Parse(args)

	to, err := recipient(conf, *toFl)
	if err != nil {
		return err
	}
	l, release, err := openLedger(conf)
	if err != nil {
		return err
	}
	defer release()

	if err := l.Airdrop(to, *lamportsFl); err != nil {
		return fmt.Errorf("cannot airdrop: %s", err)
	}
	return printBalance(output, l, to)
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the balance of an account.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		accountFl = fl.String("account", "", "Public key or keypair file. Defaults to the signer.")
	)
	fl.Parse(args)

	key, err := recipient(conf, *accountFl)
	if err != nil {
		return err
	}
	l, release, err := openLedger(conf)
	if err != nil {
		return err
	}
	defer release()
	return printBalance(output, l, key)
}

func cmdTransfer(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Transfer lamports from the signer to another account.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		toFl       = fl.String("to", "", "Recipient public key or keypair file.")
		lamportsFl = fl.Uint64("lamports", 0, "Amount to transfer.")
	)
	fl.Parse(args)

	to, err := parsePublicKey(*toFl)
	if err != nil {
		return fmt.Errorf("invalid recipient: %s", err)
	}
	key, err := loadKeypair(conf.keypairPath())
	if err != nil {
		return err
	}
	l, release, err := openLedger(conf)
	if err != nil {
		return err
	}
	defer release()

	ix := sysprog.NewTransferInstruction(*lamportsFl, key.PublicKey(), to).Build()
	receipt, err := submit(l, key, ix)
	printReceipt(output, receipt)
	return err
}

// recipient returns the public key given as a flag value or the public key
// of the signer if the value is empty.
func recipient(conf *config, value string) (solana.PublicKey, error) {
	if value != "" {
		return parsePublicKey(value)
	}
	key, err := loadKeypair(conf.keypairPath())
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}

// submit signs given instructions with the key paying the fee and sends
// them to the ledger in a single transaction.
func submit(l *app.Ledger, key solana.PrivateKey, ixs ...solana.Instruction) (*quorum.Receipt, error) {
	bh, err := l.LatestBlockhash()
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(ixs, bh, solana.TransactionPayer(key.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("cannot build transaction: %s", err)
	}
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("cannot sign transaction: %s", err)
	}
	return l.Submit(context.Background(), tx)
}

func printBalance(out io.Writer, l *app.Ledger, key solana.PublicKey) error {
	acc, err := l.Account(key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: %d lamports\n", key, acc.Lamports)
	return err
}

// printReceipt writes out the receipt of a processed transaction together
// with all program logs. Nothing is written for a nil receipt.
func printReceipt(out io.Writer, r *quorum.Receipt) {
	if r == nil {
		return
	}
	fmt.Fprintf(out, "signature: %s\n", r.Signature)
	fmt.Fprintf(out, "slot: %d\n", r.Slot)
	fmt.Fprintf(out, "fee: %d\n", r.Fee)
	for _, line := range r.Logs {
		fmt.Fprintf(out, "log: %s\n", line)
	}
}
