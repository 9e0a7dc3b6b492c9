package skin

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that SetLogger
// can be called while draw-time readers log from other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for skin and its sub-packages.
// By default skin produces no log output. Pass nil to restore silence.
//
// Log levels used by skin:
//   - [slog.LevelDebug]: per-set load summaries, packing layout, draw-time misses
//   - [slog.LevelInfo]: generation commits and discarded reloads
//   - [slog.LevelWarn]: theme entries that can never be selected
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (ebitenskin, raster)
// call this to share one logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
