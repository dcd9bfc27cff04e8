// Package lexer converts plume template source into a token stream.
//
// The lexer is line-oriented. At each line start it measures leading
// whitespace against an indent-level stack: equal depth emits a newline
// token, greater depth pushes a level and emits indent, and lesser depth
// pops one or more levels, emitting one dedent per pop. Unterminated
// depth at end of source is closed with synthetic dedents. Inside a raw
// block (a trailing-dot element or a comment with an indented body) each
// deeper line is captured verbatim as a single raw text token.
package lexer

import (
	"fmt"
	"strings"

	"github.com/ardnew/plume/lang/token"
)

// Error codes reported by the lexer.
const (
	CodeIndent        = "inconsistent-indentation"
	CodeString        = "unterminated-string"
	CodeBracket       = "unterminated-bracket"
	CodeInvalidName   = "invalid-name"
	CodeMissingClause = "missing-clause"
)

// Error is a structured lexical error with its source position.
type Error struct {
	Code   string
	Msg    string
	Line   int
	Column int
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Msg }

// Lexer scans plume source into tokens.
type Lexer struct {
	src    string
	tokens []token.Token
	err    *Error

	indents []int // widths of open indentation levels

	line int // 1-based line of the line being scanned
	col  int // 1-based column within the line being scanned

	// Raw block capture state. rawDepth is the indentation width of the
	// line that opened the block; rawBase is the width of its first
	// captured line, preserved so deeper lines keep relative indentation.
	raw      bool
	rawDepth int
	rawBase  int
}

// New creates a lexer for the given source text.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 0}
}

// Scan tokenizes the entire source. It returns the token stream,
// terminated by an EOF token, or the first error encountered.
func (l *Lexer) Scan() ([]token.Token, error) {
	rest := l.src

	for len(rest) > 0 {
		line := rest

		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i]
			rest = rest[i+1:]
		} else {
			rest = ""
		}

		l.line++

		line = strings.TrimRight(line, "\r")

		if err := l.scanSourceLine(line); err != nil {
			return nil, err
		}

		if l.err != nil {
			return nil, l.err
		}
	}

	l.raw = false

	// Close any open indentation levels.
	for range l.indents {
		l.emit(token.Dedent, "")
	}

	l.indents = l.indents[:0]

	l.emit(token.EOF, "")

	return l.tokens, nil
}

// scanSourceLine handles one physical line: raw capture, indentation
// bookkeeping, then content scanning.
func (l *Lexer) scanSourceLine(line string) error {
	width := indentWidth(line)
	blank := width == len(line)

	if l.raw {
		if blank {
			l.emit(token.RawText, "")

			return nil
		}

		if width > l.rawDepth {
			if l.rawBase == 0 {
				l.rawBase = width
			}

			cut := min(l.rawBase, width)
			l.emit(token.RawText, line[cut:])

			return nil
		}

		// Dedented back to or below the block origin.
		l.raw = false
	}

	if blank {
		return nil
	}

	if err := l.scanIndent(width); err != nil {
		return err
	}

	l.col = width + 1

	return l.scanLine(line[width:], width)
}

// scanIndent compares the line's indentation width against the stack and
// emits the structural tokens that separate statements.
func (l *Lexer) scanIndent(width int) error {
	depth := 0
	if len(l.indents) > 0 {
		depth = l.indents[len(l.indents)-1]
	}

	switch {
	case width == depth:
		l.emit(token.Newline, "")

	case width > depth:
		l.indents = append(l.indents, width)
		l.emit(token.Indent, "")

	default:
		for len(l.indents) > 0 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(token.Dedent, "")
		}

		depth = 0
		if len(l.indents) > 0 {
			depth = l.indents[len(l.indents)-1]
		}

		if depth != width {
			return l.errorf(CodeIndent,
				"inconsistent indentation: %d does not match any open level",
				width)
		}

		l.emit(token.Newline, "")
	}

	return nil
}

// enterRaw switches the lexer into raw capture mode for the block opened
// at the given indentation width.
func (l *Lexer) enterRaw(width int) {
	l.raw = true
	l.rawDepth = width
	l.rawBase = 0
}

// emit appends a token at the current position.
func (l *Lexer) emit(kind token.Kind, text string) {
	l.tokens = append(l.tokens, token.Token{
		Kind:   kind,
		Text:   text,
		Line:   l.line,
		Column: l.col,
	})
	l.col += len(text)
}

// emitAt appends a token at an explicit column.
func (l *Lexer) emitAt(kind token.Kind, text string, col int) {
	l.tokens = append(l.tokens, token.Token{
		Kind:   kind,
		Text:   text,
		Line:   l.line,
		Column: col,
	})
}

// errorf records and returns a structured error at the current position.
func (l *Lexer) errorf(code, format string, args ...any) *Error {
	e := &Error{
		Code:   code,
		Msg:    fmt.Sprintf(format, args...),
		Line:   l.line,
		Column: l.col,
	}
	l.err = e

	return e
}

// indentWidth counts the leading whitespace characters of a line.
// Tabs and spaces each count one column; a level is matched only if the
// resulting width lands exactly on a previously pushed level.
func indentWidth(line string) int {
	for i := range len(line) {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}

	return len(line)
}
