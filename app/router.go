package app

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Router allows us to register many programs with different addresses and
// dispatches each instruction to the program it is addressed to.
type Router struct {
	routes map[solana.PublicKey]quorum.Handler
}

var _ quorum.Registry = (*Router)(nil)
var _ quorum.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[solana.PublicKey]quorum.Handler),
	}
}

// Handle adds a new program under given address. It panics if an address
// is already registered. The system program lives at the zero address.
func (r *Router) Handle(programID solana.PublicKey, h quorum.Handler) {
	if _, ok := r.routes[programID]; ok {
		panic("re-registering program " + programID.String())
	}
	r.routes[programID] = h
}

// Handler returns the program registered under given address. If none is
// found, a handler that always returns ErrNotFound is returned.
func (r *Router) Handler(programID solana.PublicKey) quorum.Handler {
	if h, ok := r.routes[programID]; ok {
		return h
	}
	return notFoundHandler(programID)
}

// Process dispatches the instruction to the program it is addressed to.
func (r *Router) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env) error {
	return r.Handler(env.ProgramID()).Process(ctx, db, env)
}

type notFoundHandler solana.PublicKey

func (h notFoundHandler) Process(quorum.Context, quorum.ReadOnlyKVStore, quorum.Env) error {
	return errors.Wrapf(errors.ErrNotFound, "program %s", solana.PublicKey(h))
}
