package weavetest

import "github.com/iov-one/quorum"

// Handler is a mock implementation of the quorum.Handler interface.
//
// Set ProcessErr to force an error response. Set Fn to modify the accounts
// of the processed instruction. Each call is counted.
type Handler struct {
	calls int
	// ProcessErr if set is returned by the Process method. Fn is not
	// called in that case.
	ProcessErr error
	// Fn if set is called with the environment of each processed
	// instruction and its result is returned.
	Fn func(env quorum.Env) error
}

var _ quorum.Handler = (*Handler)(nil)

func (h *Handler) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env) error {
	h.calls++
	if h.ProcessErr != nil {
		return h.ProcessErr
	}
	if h.Fn != nil {
		return h.Fn(env)
	}
	return nil
}

func (h *Handler) CallCount() int {
	return h.calls
}
