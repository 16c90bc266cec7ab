package weavetest

import "github.com/iov-one/quorum"

// Decorator is a mock implementation of the quorum.Decorator interface.
//
// Set ProcessErr to force error response. If it is not set then the wrapped
// handler is called and its result returned. Each method call is counted.
// Regardless of the method call result the counter is incremented.
type Decorator struct {
	calls int
	// ProcessErr if set is returned by the Process method before calling
	// the wrapped handler.
	ProcessErr error
}

var _ quorum.Decorator = (*Decorator)(nil)

func (d *Decorator) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env, next quorum.Handler) error {
	d.calls++
	if d.ProcessErr != nil {
		return d.ProcessErr
	}
	return next.Process(ctx, db, env)
}

func (d *Decorator) CallCount() int {
	return d.calls
}

// Decorate wraps given handler with a single decorator.
func Decorate(h quorum.Handler, d quorum.Decorator) quorum.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn quorum.Handler
	dc quorum.Decorator
}

var _ quorum.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env) error {
	return d.dc.Process(ctx, db, env, d.hn)
}
