package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/plume/lang/lexer"
	"github.com/ardnew/plume/lang/parser"
)

// Predefined errors (sentinel values).
var (
	ErrLoad           = NewError("template load failed")
	ErrNotFound       = NewError("template not found")
	ErrMixinUndefined = NewError("undefined mixin")
	ErrFilterUnknown  = NewError("unknown include filter")
	ErrCodegen        = NewError("code generation failed")
	ErrDataConvert    = NewError("data conversion failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches attributed or wrapping copies against their base sentinel.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)

	return ok && e.msg == te.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError is a structured lex or parse failure: an error code, the
// failure position, and optionally the offending source line with a
// caret marker, the token kinds that would have been accepted, and a
// suggested fix.
type ParseError struct {
	Code     string
	Msg      string
	Line     int
	Column   int
	Path     string   // Resolved path of the failing template, if loaded
	Source   string   // The original template source
	Snippet  string   // Optional excerpt of the source
	Expected []string // Optional expected tokens
	Fix      string   // Optional suggested fix
}

// NewParseError adapts a lexer or parser error, attaching the template
// source so the message can carry a caret-underlined excerpt. Other
// errors pass through unchanged.
func NewParseError(err error, source string) error {
	if err == nil {
		return nil
	}

	le := &lexer.Error{}
	if errors.As(err, &le) {
		return &ParseError{
			Code:   le.Code,
			Msg:    le.Msg,
			Line:   le.Line,
			Column: le.Column,
			Source: source,
		}
	}

	pe := &parser.Error{}
	if errors.As(err, &pe) {
		return &ParseError{
			Code:     pe.Code,
			Msg:      pe.Msg,
			Line:     pe.Line,
			Column:   pe.Column,
			Source:   source,
			Expected: pe.Expected,
		}
	}

	return err
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Msg)
	buf.WriteString(" at line ")
	buf.WriteString(strconv.Itoa(e.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Column))

	if e.Path != "" {
		buf.WriteString(" in ")
		buf.WriteString(strconv.Quote(e.Path))
	}

	if e.Source != "" {
		e.Snippet = formatSnippet(e.Source, e.Line, e.Column)

		if e.Snippet != "" {
			buf.WriteString(":\n")
			buf.WriteString(e.Snippet)
		}
	}

	if len(e.Expected) > 0 {
		buf.WriteString("\texpected: ")
		buf.WriteString(strings.Join(e.Expected, ", "))
	}

	if e.Fix != "" {
		buf.WriteString("\n\t")
		buf.WriteString(e.Fix)
	}

	return buf.String()
}

// formatSnippet renders the offending source line with a caret marking
// the failure column.
func formatSnippet(source string, line, col int) string {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}

	var src strings.Builder

	text := lines[line-1]

	src.WriteString("  ")
	src.WriteString(strconv.Itoa(line))
	src.WriteString(" | ")
	src.WriteString(text)
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(line))+5)
	if col > 0 {
		padding += strings.Repeat(" ", col-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}
