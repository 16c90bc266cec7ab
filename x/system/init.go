package system

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

const optKey = "system"

// GenesisAccount is used to parse the json from genesis file. Address is
// base58 encoded.
type GenesisAccount struct {
	Address  solana.PublicKey `json:"address"`
	Lamports uint64           `json:"lamports"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ quorum.Initializer = Initializer{}

// FromGenesis will parse initial account balances from genesis
// and save them to the database
func (Initializer) FromGenesis(opts quorum.Options, kv quorum.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis: %s", err)
	}
	for i, a := range accts {
		acc, err := quorum.LoadAccount(kv, a.Address)
		if err != nil {
			return err
		}
		if !acc.IsEmpty() {
			return errors.Wrapf(errors.ErrDuplicate, "genesis account %d: %s", i, a.Address)
		}
		acc.Lamports = a.Lamports
		if err := quorum.SaveAccount(kv, a.Address, acc); err != nil {
			return err
		}
	}
	return nil
}
