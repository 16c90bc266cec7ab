package utils

import "github.com/iov-one/quorum"

//--------------- expose helpers -----

// TestHelpers returns helper objects for tests,
// encapsulated in one object to be easily imported in other packages
type TestHelpers struct{}

// CountingDecorator passes the instruction along, and counts how many times
// it was called. Adds one on input down, one on output up,
// to differentiate panic from error
func (TestHelpers) CountingDecorator() CountingDecorator {
	return &countingDecorator{}
}

// CountingHandler returns success and counts times called
func (TestHelpers) CountingHandler() CountingHandler {
	return &countingHandler{}
}

// PanicAtSlotDecorator will panic if the slot in the context is greater
// than s
func (TestHelpers) PanicAtSlotDecorator(s uint64) quorum.Decorator {
	return panicAtSlotDecorator{s}
}

// PanicHandler always panics with the given error when called
func (TestHelpers) PanicHandler(err error) quorum.Handler {
	return panicHandler{err}
}

// CountingDecorator keeps track of number of times called.
// 2x per call, 1x per call with panic inside
type CountingDecorator interface {
	GetCount() int
	quorum.Decorator
}

// CountingHandler keeps track of number of times called.
// 1x per call
type CountingHandler interface {
	GetCount() int
	quorum.Handler
}

//-------------- counting -------------------------

type countingDecorator struct {
	called int
}

var _ quorum.Decorator = (*countingDecorator)(nil)

func (c *countingDecorator) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore,
	env quorum.Env, next quorum.Handler) error {

	c.called++
	err := next.Process(ctx, db, env)
	c.called++
	return err
}

func (c *countingDecorator) GetCount() int {
	return c.called
}

// countingHandler counts how many times it was called
type countingHandler struct {
	called int
}

var _ quorum.Handler = (*countingHandler)(nil)

func (c *countingHandler) Process(quorum.Context, quorum.ReadOnlyKVStore, quorum.Env) error {
	c.called++
	return nil
}

func (c *countingHandler) GetCount() int {
	return c.called
}

// panicAtSlotDecorator panics if ctx.slot > p.slot
type panicAtSlotDecorator struct {
	slot uint64
}

var _ quorum.Decorator = panicAtSlotDecorator{}

func (p panicAtSlotDecorator) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore,
	env quorum.Env, next quorum.Handler) error {

	if val, _ := quorum.GetSlot(ctx); val > p.slot {
		panic("too high")
	}
	return next.Process(ctx, db, env)
}

// panicHandler always panics
type panicHandler struct {
	err error
}

var _ quorum.Handler = panicHandler{}

func (p panicHandler) Process(quorum.Context, quorum.ReadOnlyKVStore, quorum.Env) error {
	panic(p.err)
}
