package utils

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Recovery is a decorator to recover from panics in programs,
// so we can log them as errors
type Recovery struct{}

var _ quorum.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Process turns panics into normal errors
func (r Recovery) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env, next quorum.Handler) (err error) {
	defer errors.Recover(&err)
	return next.Process(ctx, db, env)
}
