package app

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
)

const configurationPkg = "ledger"

// accountStorageOverhead is the number of bytes added to the data length
// of an account when computing its rent.
const accountStorageOverhead = 128

// Configuration holds the parameters of the ledger runtime. It is stored
// using gconf and can be set in the genesis file under conf.ledger.
type Configuration struct {
	LamportsPerSignature uint64 `json:"lamports_per_signature"`
	LamportsPerByteYear  uint64 `json:"lamports_per_byte_year"`
	ExemptionThreshold   uint64 `json:"exemption_threshold"`
	MaxInvokeDepth       uint32 `json:"max_invoke_depth"`
	MaxAccountDataSize   uint64 `json:"max_account_data_size"`
	MaxRecentBlockhashes uint32 `json:"max_recent_blockhashes"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration returns the configuration used when none was
// stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		LamportsPerSignature: 5000,
		LamportsPerByteYear:  3480,
		ExemptionThreshold:   2,
		MaxInvokeDepth:       4,
		MaxAccountDataSize:   10 * 1024 * 1024,
		MaxRecentBlockhashes: 150,
	}
}

func (c *Configuration) Validate() error {
	var errs error
	if c.MaxInvokeDepth == 0 {
		errs = errors.AppendField(errs, "MaxInvokeDepth", errors.ErrInput)
	}
	if c.MaxAccountDataSize == 0 {
		errs = errors.AppendField(errs, "MaxAccountDataSize", errors.ErrInput)
	}
	if c.MaxRecentBlockhashes == 0 {
		errs = errors.AppendField(errs, "MaxRecentBlockhashes", errors.ErrInput)
	}
	return errs
}

func (c *Configuration) Marshal() ([]byte, error) {
	return bin.MarshalBorsh(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return bin.UnmarshalBorsh(c, raw)
}

// MinimumBalance returns the lowest amount of lamports an account holding
// size bytes of data must have to be exempt from rent.
func (c *Configuration) MinimumBalance(size int) uint64 {
	return (accountStorageOverhead + uint64(size)) * c.LamportsPerByteYear * c.ExemptionThreshold
}

func loadConfiguration(db gconf.ReadStore) (*Configuration, error) {
	conf := DefaultConfiguration()
	if err := gconf.LoadOrDefault(db, configurationPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "ledger configuration")
	}
	return &conf, nil
}
