package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iov-one/quorum"
)

// commands is a register of all availables commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// When a cmd function is called it is given stdin, stdout and command line
// arguments except the program name and this command name. It is the
// responsibility of the command function to parse the arguments. Use
// os.Stderr to write error messages.
//
// All commands operate on a ledger kept in the home directory. Create it
// with the init command first:
//
//   $ quorumcli init
//   $ quorumcli keygen -keypair alice.json
//   $ quorumcli airdrop -keypair alice.json -lamports 1000000000
//   $ quorumcli new-multisig -keypair alice.json -threshold 2 -include-signer bob.json carol.json
//
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"airdrop":           cmdAirdrop,
	"approve":           cmdApprove,
	"balance":           cmdBalance,
	"execute":           cmdExecute,
	"init":              cmdInit,
	"keygen":            cmdKeygen,
	"new-multisig":      cmdNewMultisig,
	"propose-members":   cmdProposeMembers,
	"propose-memo":      cmdProposeMemo,
	"propose-threshold": cmdProposeThreshold,
	"pubkey":            cmdPubkey,
	"show-tx":           cmdShowTransaction,
	"show-wallet":       cmdShowWallet,
	"transfer":          cmdTransfer,
	"unapprove":         cmdUnapprove,
	"version":           cmdVersion,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s is a command line client for a local multisig ledger.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	// Skip two first arguments. Second argument is the command name that
	// we just consumed.
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, quorum.Version())
	return nil
}
