// Package log contains the engine's logging related types, constants and
// functions. Components embed [LoggerInjectable] to gain a structured
// [Logger] without forcing a concrete logging library on callers; the
// default is a [log/slog] logger discarding everything.
package log

import (
	"log/slog"
)

// Null is a no-op logger used until a real one is injected.
var Null Logger = slog.New(NopHandler)

const (
	// KeyHost is the host alias or address a log line concerns.
	KeyHost = "host"

	// KeyError is an error value.
	KeyError = "error"

	// KeyCommand is the shell command being executed.
	KeyCommand = "command"

	// KeyFile is a file or path name.
	KeyFile = "file"

	// KeyMarker is the per-command completion sentinel.
	KeyMarker = "marker"

	// KeyDuration is the duration of an operation.
	KeyDuration = "duration"

	// KeyElevation indicates an elevation-password prompt was handled.
	KeyElevation = "elevation"

	// KeyComponent names the subsystem emitting the log line (resolver,
	// establisher, executor, registry).
	KeyComponent = "component"
)

// ErrorAttr returns an error log attribute, or an empty string if err is nil.
func ErrorAttr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// HostAttr returns a host log attribute.
func HostAttr(alias string) slog.Attr {
	return slog.String(KeyHost, alias)
}

// Logger is implemented by *slog.Logger and anything else structured-logging
// shaped. Calls are not sprintf-style: keysAndValues are key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type withAttrs struct {
	logger Logger
	attrs  []any
}

func (w *withAttrs) kv(kv []any) []any {
	return append(w.attrs, kv...)
}

func (w *withAttrs) Debug(msg string, keysAndValues ...any) { w.logger.Debug(msg, w.kv(keysAndValues)...) }
func (w *withAttrs) Info(msg string, keysAndValues ...any)  { w.logger.Info(msg, w.kv(keysAndValues)...) }
func (w *withAttrs) Warn(msg string, keysAndValues ...any)  { w.logger.Warn(msg, w.kv(keysAndValues)...) }
func (w *withAttrs) Error(msg string, keysAndValues ...any) { w.logger.Error(msg, w.kv(keysAndValues)...) }

// WithAttrs returns a logger that prepends the given attributes to all log messages.
func WithAttrs(logger Logger, attrs ...any) Logger {
	return &withAttrs{logger, attrs}
}

// LoggerInjectable is embedded in engine components to provide a logger and
// a setter for it, without every component needing its own plumbing.
type LoggerInjectable struct {
	logger Logger
}

// Log is implemented by anything embedding LoggerInjectable.
type Log interface {
	Log() Logger
}

type injectable interface {
	SetLogger(logger Logger)
	Log() Logger
}

// InjectLogger sets the logger on obj if it implements the injectable
// interface, optionally scoped with extra attributes.
func InjectLogger(l Logger, obj any, attrs ...any) {
	o, ok := obj.(injectable)
	if !ok {
		return
	}
	if len(attrs) > 0 {
		o.SetLogger(WithAttrs(l, attrs...))
		return
	}
	o.SetLogger(l)
}

// InjectLoggerTo sets the logger for obj based on the current logger,
// optionally with extra attributes, if this object has a logger set.
func (li *LoggerInjectable) InjectLoggerTo(obj any, attrs ...any) {
	if li.HasLogger() {
		InjectLogger(li.logger, obj, attrs...)
	}
}

// SetLogger sets the logger for the embedding object.
func (li *LoggerInjectable) SetLogger(logger Logger) {
	li.logger = logger
}

// HasLogger returns true if a non-null logger has been set.
func (li *LoggerInjectable) HasLogger() bool {
	return li.logger != nil && li.logger != Null
}

// Log returns the logger for the embedding object, or Null if none was set.
func (li *LoggerInjectable) Log() Logger {
	if li.logger == nil {
		return Null
	}
	return li.logger
}

// LogWithAttrs returns the embedding object's logger with attrs applied.
func (li *LoggerInjectable) LogWithAttrs(attrs ...any) Logger {
	return WithAttrs(li.Log(), attrs...)
}
