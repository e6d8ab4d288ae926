// Package cli implements the flowcanvas command-line interface: an
// interactive terminal canvas for editing pipelines, plus commands for
// converting, laying out, serving, and snapshotting pipeline graphs.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at the given level, with
// "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// ctxKey is a private context key type to avoid collisions.
type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches a logger to the context for subcommands.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger installed by the root command.
// Falls back to the package default so commands never nil-check.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
