package quorum

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

// Handler is a program running on the ledger. It processes a single
// instruction: the accounts passed to it, together with the opaque
// instruction data, are available through the Env.
//
// Any change made to the accounts is verified and persisted by the ledger
// only if Process returns no error.
type Handler interface {
	Process(ctx Context, db ReadOnlyKVStore, env Env) error
}

// Decorator wraps a Handler to provide common functionality
// like logging or panic recovery, to many Handlers
type Decorator interface {
	Process(ctx Context, db ReadOnlyKVStore, env Env, next Handler) error
}

// Registry is an interface to register your program handler,
// the setup side of a Router
type Registry interface {
	Handle(programID solana.PublicKey, h Handler)
}

// Env is the view of the ledger given to a program while processing a
// single instruction.
type Env interface {
	// ProgramID returns the address of the program being invoked.
	ProgramID() solana.PublicKey

	// Accounts returns the accounts passed to the instruction, in the
	// instruction order. An account referenced more than once is
	// represented by the same pointer.
	Accounts() []*AccountInfo

	// Data returns the opaque instruction data.
	Data() []byte

	// Depth returns 0 for an instruction of a transaction and is
	// incremented by each nested invocation.
	Depth() int

	// Invoke processes given instruction by another (or the same) program.
	// All accounts of the instruction must have been passed to the
	// current instruction. An account can be a signer of the invoked
	// instruction if it is a signer of the current instruction or if it
	// is the address derived from one of the signer seeds and the
	// current program ID.
	//
	// Pending changes of the current accounts are verified and persisted
	// before the call. All account infos are reloaded afterwards.
	Invoke(ctx Context, ix solana.Instruction, signerSeeds ...[][]byte) error

	// MinimumBalance returns the amount of lamports an account holding
	// size bytes of data must keep to be rent exempt.
	MinimumBalance(size int) uint64

	// Log appends a message to the program logs of the transaction.
	Log(format string, args ...interface{})
}

// Options are the genesis options.
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// Receipt describes a processed transaction.
type Receipt struct {
	Signature solana.Signature
	Slot      uint64
	Fee       uint64
	// Logs contains messages written by programs using Env.Log.
	Logs []string
}
