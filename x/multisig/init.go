package multisig

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
)

const optKey = "multisig"

// GenesisWallet is used to parse a wallet from the genesis file. Keys are
// base58 encoded. Lamports must cover the rent of the wallet account.
type GenesisWallet struct {
	Base      solana.PublicKey   `json:"base"`
	Members   []solana.PublicKey `json:"members"`
	Threshold uint16             `json:"threshold"`
	Lamports  uint64             `json:"lamports"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ quorum.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial wallets from genesis and save them to
// the database. The multisig configuration is loaded as well.
func (Initializer) FromGenesis(opts quorum.Options, kv quorum.KVStore) error {
	conf := DefaultConfiguration()
	if err := gconf.InitConfig(kv, opts, configurationPkg, &conf); err != nil && !errors.ErrNotFound.Is(err) {
		return err
	}

	var wallets []GenesisWallet
	if err := opts.ReadOptions(optKey, &wallets); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis: %s", err)
	}
	for i, g := range wallets {
		if err := createGenesisWallet(kv, &conf, g); err != nil {
			return errors.Wrapf(err, "genesis wallet %d", i)
		}
	}
	return nil
}

func createGenesisWallet(kv quorum.KVStore, conf *Configuration, g GenesisWallet) error {
	if err := validateMembers(g.Threshold, g.Members); err != nil {
		return err
	}
	if len(g.Members) > int(conf.MaxMembers) {
		return errors.Wrapf(errors.ErrInput, "%d members, at most %d allowed", len(g.Members), conf.MaxMembers)
	}
	if g.Lamports == 0 {
		return errors.Field("Lamports", errors.ErrEmpty, "must cover the wallet rent")
	}
	addr, bump, err := WalletAddress(g.Base)
	if err != nil {
		return err
	}
	acc, err := quorum.LoadAccount(kv, addr)
	if err != nil {
		return err
	}
	if !acc.IsEmpty() {
		return errors.Wrapf(errors.ErrDuplicate, "wallet %s", addr)
	}

	wallet := Wallet{
		Base:      g.Base,
		Members:   g.Members,
		Threshold: g.Threshold,
		Bump:      bump,
	}
	acc.Data = make([]byte, WalletSpace(len(g.Members)))
	if err := writeEntity(acc.Data, &wallet); err != nil {
		return err
	}
	acc.Owner = ProgramID
	acc.Lamports = g.Lamports
	return quorum.SaveAccount(kv, addr, acc)
}
