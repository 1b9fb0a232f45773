// Package logging configures the process logger and carries it through
// contexts. The rest of the codebase only sees logr.Logger; zap is the
// backing sink.
package logging

import (
	"context"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// traceLevel is the verbosity used for per-feature diagnostics such as
// denylist skips. Enabled only in debug mode.
const traceLevel = 2

// Setup builds the root logger. Debug lowers the level so V(2) traces are
// emitted and, on a terminal, switches to the console encoder; otherwise
// output is JSON so collectors always see structured lines.
func Setup(debug bool) logr.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-traceLevel))
		if term.IsTerminal(int(os.Stderr.Fd())) {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-traceLevel))
		}
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zl, err := cfg.Build()
	if err != nil {
		// A broken logging config should not take the process down.
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

// FromContext returns the logger carried by ctx, or a discard logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

// WithContext returns a context carrying the logger.
func WithContext(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// Trace returns the logger at the diagnostic verbosity.
func Trace(logger logr.Logger) logr.Logger {
	return logger.V(traceLevel)
}
