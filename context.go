/*
Package quorum defines all common interfaces to tie together the ledger
runtime, the programs running on it and the stores keeping their state.

We pass context through context.Context between the ledger, decorators and
program handlers. To do so, quorum defines some common keys to store info,
such as the slot and the block time of the transaction being processed.

There should exist two functions for every XYZ of type T that we want to
support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level
modules overwriting the value.
*/
package quorum

import (
	"context"
	"time"

	"github.com/iov-one/quorum/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain
type Context = context.Context

type contextKey int // local to the quorum module

const (
	contextKeySlot contextKey = iota
	contextKeyTime
	contextKeyLogger
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()
)

// WithSlot sets the slot of the transaction being processed.
// Panics if the slot is already set.
func WithSlot(ctx Context, slot uint64) Context {
	if _, ok := ctx.Value(contextKeySlot).(uint64); ok {
		panic("slot already set")
	}
	return context.WithValue(ctx, contextKeySlot, slot)
}

// GetSlot returns the current slot as seen by the ledger.
func GetSlot(ctx Context) (uint64, bool) {
	val, ok := ctx.Value(contextKeySlot).(uint64)
	return val, ok
}

// WithBlockTime sets the block time for the context. Block time is always
// represented in UTC.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyTime, t.UTC())
}

// BlockTime returns current block wall clock time as declared in the context.
// An error is returned if a block time is not present in the context.
func BlockTime(ctx Context) (time.Time, error) {
	t, ok := ctx.Value(contextKeyTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	return t, nil
}

// WithLogger sets the logger for this context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}
