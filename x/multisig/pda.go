package multisig

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum/errors"
)

// ProgramID is the address of the multisig program.
var ProgramID = solana.MustPublicKeyFromBase58("H1wPJB59dvpLrMmdcJ6dxQSMmXsm6TSRxkNUtC4CFDs1")

const (
	walletSeed      = "MultisigWallet"
	transactionSeed = "MultisigTransaction"
)

// WalletAddress returns the address of the wallet derived from given base
// key, together with the derivation bump.
func WalletAddress(base solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(walletSeeds(base), ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, errors.Wrap(errors.ErrInput, err.Error())
	}
	return addr, bump, nil
}

// TransactionAddress returns the address of the transaction proposed to
// the wallet with given nonce, together with the derivation bump.
func TransactionAddress(wallet solana.PublicKey, nonce uint64) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(transactionSeeds(wallet, nonce), ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, errors.Wrap(errors.ErrInput, err.Error())
	}
	return addr, bump, nil
}

func walletSeeds(base solana.PublicKey) [][]byte {
	return [][]byte{[]byte(walletSeed), base.Bytes()}
}

func transactionSeeds(wallet solana.PublicKey, nonce uint64) [][]byte {
	n := make([]byte, 8)
	binary.LittleEndian.PutUint64(n, nonce)
	return [][]byte{[]byte(transactionSeed), wallet.Bytes(), n}
}

// withBump returns the signer seeds of an address found with given seeds.
func withBump(seeds [][]byte, bump uint8) [][]byte {
	return append(seeds, []byte{bump})
}

// signerSeeds returns the seeds the program signs with as the wallet.
func (w *Wallet) signerSeeds() [][]byte {
	return withBump(walletSeeds(w.Base), w.Bump)
}
