package pipeline

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

var nopLog = zerolog.Nop()

func log(ctx context.Context) *zerolog.Logger {
	logger := ctx.Value(logKey{})
	if logger == nil {
		return &nopLog
	}
	return logger.(*zerolog.Logger)
}

// WithLogger attaches the given logger to the context. Pipeline runs log
// their commands through it.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}
