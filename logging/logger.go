// Package logging holds the *slog.Logger used for diagnostics while
// loading, rendering and extracting text. Output is discarded until a
// logger is installed with SetLogger.
package logging

import (
	"log/slog"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

var discard = slog.New(slog.DiscardHandler)

// SetLogger installs sl as the package logger. A nil logger restores
// the discarding default. Safe for concurrent use.
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(sl *slog.Logger) {
	current.Store(sl)
}

// Logger returns the installed logger, or a discarding logger.
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return discard
}

// For returns the package logger tagged with a component attribute,
// for example logging.For("reader").
func For(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}
