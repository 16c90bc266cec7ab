package multisig

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
)

const configurationPkg = "multisig"

// Configuration limits the size of wallets and proposed transactions. It
// is stored using gconf and can be set in the genesis file under
// conf.multisig.
type Configuration struct {
	MaxMembers      uint32 `json:"max_members"`
	MaxInstructions uint32 `json:"max_instructions"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration returns the configuration used when none was
// stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxMembers:      64,
		MaxInstructions: 16,
	}
}

func (c *Configuration) Validate() error {
	var errs error
	if c.MaxMembers == 0 {
		errs = errors.AppendField(errs, "MaxMembers", errors.ErrInput)
	}
	if c.MaxInstructions == 0 {
		errs = errors.AppendField(errs, "MaxInstructions", errors.ErrInput)
	}
	return errs
}

func (c *Configuration) Marshal() ([]byte, error) {
	return bin.MarshalBorsh(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return bin.UnmarshalBorsh(c, raw)
}

func loadConfiguration(db gconf.ReadStore) (*Configuration, error) {
	conf := DefaultConfiguration()
	if err := gconf.LoadOrDefault(db, configurationPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "multisig configuration")
	}
	return &conf, nil
}
