package utils

import (
	"time"

	"github.com/iov-one/quorum"
)

// Logging is a decorator to log instructions as they pass through
type Logging struct{}

var _ quorum.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Process logs error -> error, success -> info. Nested invocations are
// logged with debug level.
func (r Logging) Process(ctx quorum.Context, db quorum.ReadOnlyKVStore, env quorum.Env, next quorum.Handler) error {
	start := time.Now()
	err := next.Process(ctx, db, env)
	logDuration(ctx, env, start, err)
	return err
}

// logDuration writes information about the time and result to the logger
func logDuration(ctx quorum.Context, env quorum.Env, start time.Time, err error) {
	delta := time.Since(start)
	logger := quorum.GetLogger(ctx).With(
		"program", env.ProgramID().String(),
		"depth", env.Depth(),
		"duration", delta/time.Microsecond,
	)

	switch {
	case err != nil:
		logger.Error("instruction failed", "err", err)
	case env.Depth() > 0:
		logger.Debug("instruction processed")
	default:
		logger.Info("instruction processed")
	}
}
