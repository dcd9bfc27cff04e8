// Package log provides structured logging for the plume toolchain,
// built on [log/slog] with a trace level below debug, selectable text
// and JSON formats, and colorized terminal output.
//
// A [Logger] is a value type wrapping [slog.Logger]; the zero value
// discards all messages, so components can log unconditionally without
// nil checks. Configuration is applied with functional options and can
// be overridden per derived logger with [Logger.Wrap].
package log
