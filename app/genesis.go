package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Genesis file format. AppOptions is passed to all initializers.
type Genesis struct {
	ChainID    string         `json:"chain_id"`
	AppOptions quorum.Options `json:"app_options"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return &gen, nil
}

//------ init state -----

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...quorum.Initializer) quorum.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []quorum.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts quorum.Options, kv quorum.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}

//------- storing chainID ---------

const chainIDKey = "_l:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(kv quorum.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set
func saveChainID(kv quorum.KVStore, chainID string) error {
	k := []byte(chainIDKey)
	if has, err := kv.Has(k); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	} else if has {
		return errors.Wrap(errors.ErrState, "chain already initialized")
	}
	return kv.Set(k, []byte(chainID))
}
