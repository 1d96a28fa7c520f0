// Package diag is the diagnostic sink the core reports to (spec §6, §7):
// raise_error for fatal compose aborts, raise_debug for trace-level
// detail. By default it is silent; callers opt in with SetLogger, the
// same atomic-swap idiom the rest of this module's ambient stack uses
// for its logger.
package diag

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger every compose in this process reports
// through. Pass nil to restore the silent default. Safe for concurrent
// use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently in effect.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// Kind classifies a fatal compose error per spec §7.
type Kind string

const (
	SanityCheckFailure Kind = "sanity_check_failure"
	TopologyError      Kind = "topology_error"
	FormatMismatch     Kind = "format_mismatch"
	TransportFailure   Kind = "transport_failure"
)

// Session tags every diagnostic raised during one compose with a shared
// correlation id, so a raise_error and the raise_debug breadcrumbs that
// led to it can be tied together in log output.
type Session struct {
	id string
}

// NewSession starts a diagnostic session with a fresh correlation id.
func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

// RaiseError reports a fatal compose-aborting condition and returns it
// as an error for the caller to propagate.
func (s *Session) RaiseError(kind Kind, msg string, args ...any) error {
	attrs := append([]any{"session", s.id, "kind", string(kind)}, args...)
	Logger().Error(msg, attrs...)
	return &Error{Kind: kind, Msg: msg}
}

// RaiseDebug emits a non-fatal trace breadcrumb.
func (s *Session) RaiseDebug(msg string, args ...any) {
	attrs := append([]any{"session", s.id}, args...)
	Logger().Debug(msg, attrs...)
}

// Error is the error type RaiseError returns, carrying the spec §7
// failure kind for callers that want to branch on it.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Msg }
