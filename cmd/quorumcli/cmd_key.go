package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
)

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate a new keypair.

The keypair is written as a JSON array of the 64 secret key bytes. This
command fails if the keypair file already exists.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	fl.Parse(args)

	path := conf.keypairPath()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		// Do not allow to overwrite an already existing keypair. User
		// must manually delete it first.
		return fmt.Errorf("keypair file %q already exists, delete this file and try again", path)
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("cannot generate ed25519 key: %s", err)
	}
	if err := writeKeypair(path, key); err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, key.PublicKey())
	return err
}

func writeKeypair(path string, key solana.PrivateKey) error {
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("cannot serialize keypair: %s", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("cannot create keypair directory: %s", err)
	}
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot create keypair file: %s", err)
	}
	defer fd.Close()

	if _, err := fd.Write(raw); err != nil {
		return fmt.Errorf("cannot write keypair: %s", err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("cannot close keypair file: %s", err)
	}
	return nil
}

func cmdPubkey(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the base58 public key of the keypair.
`)
		fl.PrintDefaults()
	}
	conf := flConfig(fl)
	var (
		secretFl = fl.Bool("secret", false, "Print the base58 encoded secret key instead.")
	)
	fl.Parse(args)

	key, err := loadKeypair(conf.keypairPath())
	if err != nil {
		return err
	}
	if *secretFl {
		_, err = fmt.Fprintln(output, base58.Encode(key))
		return err
	}
	_, err = fmt.Fprintln(output, key.PublicKey())
	return err
}

// loadKeypair reads a private key. Given value is either a path to a keypair
// file or a base58 encoded secret key.
func loadKeypair(s string) (solana.PrivateKey, error) {
	if _, err := os.Stat(s); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(s)
		if err != nil {
			return nil, fmt.Errorf("cannot read keypair file %q: %s", s, err)
		}
		if len(key) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("invalid keypair length in %q: %d", s, len(key))
		}
		return key, nil
	}
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%q is neither a keypair file nor a base58 secret key", s)
	}
	return solana.PrivateKey(raw), nil
}

// parsePublicKey accepts a base58 public key or a path to a keypair file.
func parsePublicKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("empty public key")
	}
	if _, err := os.Stat(s); err == nil {
		key, err := loadKeypair(s)
		if err != nil {
			return solana.PublicKey{}, err
		}
		return key.PublicKey(), nil
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid public key %q: %s", s, err)
	}
	return pk, nil
}

func parsePublicKeys(args []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(args))
	for _, a := range args {
		pk, err := parsePublicKey(a)
		if err != nil {
			return nil, err
		}
		keys = append(keys, pk)
	}
	return keys, nil
}
