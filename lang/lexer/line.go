package lexer

import (
	"strings"

	"github.com/ardnew/plume/lang/token"
)

// scanLine dispatches on the leading characters of a line's content.
// width is the indentation width of the line, used as the origin depth
// when a raw block is opened.
func (l *Lexer) scanLine(content string, width int) error {
	switch {
	case content == "":
		return nil

	case strings.HasPrefix(content, "//-"):
		l.emit(token.SilentComment, content[3:])
		l.enterRaw(width)

		return nil

	case strings.HasPrefix(content, "//"):
		l.emit(token.Comment, content[2:])
		l.enterRaw(width)

		return nil

	case content[0] == '|':
		l.emit(token.Pipe, "|")

		rest := content[1:]
		if strings.HasPrefix(rest, " ") {
			rest = rest[1:]
			l.col++
		}

		return l.scanInlineText(rest)

	case content[0] == '+':
		return l.scanMixinCall(content)
	}

	if kind, word, rest := leadingKeyword(content); kind != token.Word {
		return l.scanKeywordLine(kind, word, rest, width)
	}

	return l.scanElement(content, width)
}

// leadingKeyword extracts the first word of a statement and classifies
// it. The remainder of the line follows, with one leading separator
// consumed.
func leadingKeyword(content string) (token.Kind, string, string) {
	end := 0
	for end < len(content) && isWordChar(content[end]) {
		end++
	}

	word := content[:end]
	kind := token.Lookup(word)

	if kind == token.Word {
		return token.Word, word, ""
	}

	// A keyword must be delimited from what follows: "each x in xs" is a
	// loop, but "eachother" is a tag name.
	rest := content[end:]
	switch {
	case rest == "":
	case rest[0] == ' ':
		rest = rest[1:]
		end++
	case rest[0] == '(' && kind == token.Mixin:
	case rest[0] == ':' && (kind == token.When ||
		kind == token.Default || kind == token.Include):
	default:
		return token.Word, word, ""
	}

	return kind, word, rest
}

// scanKeywordLine tokenizes a statement that opens with a keyword.
func (l *Lexer) scanKeywordLine(
	kind token.Kind,
	word, rest string,
	width int,
) error {
	start := l.col
	l.emit(kind, word)

	switch kind {
	case token.Doctype:
		if rest != "" {
			l.emit(token.Word, rest)
		}

		return nil

	case token.If, token.Unless, token.While:
		if strings.TrimSpace(rest) == "" {
			l.col = start

			return l.errorf(CodeMissingClause,
				"%s requires a condition", word)
		}

		return l.scanWords(rest)

	case token.Else:
		if sub, tail, ok := chainedConditional(rest); ok {
			l.emit(token.Lookup(sub), sub)
			l.col++ // separator space

			return l.scanWords(tail)
		}

		if strings.TrimSpace(rest) != "" {
			return l.scanWords(rest)
		}

		return nil

	case token.Each:
		return l.scanEachClause(word, rest)

	case token.Case:
		if strings.TrimSpace(rest) == "" {
			l.col = start

			return l.errorf(CodeMissingClause, "case requires an expression")
		}

		return l.scanWords(rest)

	case token.When:
		return l.scanWhenClause(rest, width)

	case token.Default:
		return l.scanExpansionTail(rest, width)

	case token.Break:
		return nil

	case token.Mixin:
		return l.scanMixinDef(rest)

	case token.Block:
		return l.scanBlockClause(rest)

	case token.Append, token.Prepend:
		name := strings.TrimSpace(rest)
		if name == "" {
			return l.errorf(CodeMissingClause,
				"%s requires a block name", word)
		}

		l.emit(token.Word, name)

		return nil

	case token.Extends, token.Include:
		return l.scanPathClause(kind, word, rest)

	default:
		return nil
	}
}

// chainedConditional recognizes "else if cond" and "else unless cond".
func chainedConditional(rest string) (string, string, bool) {
	for _, sub := range []string{"if", "unless"} {
		if tail, ok := strings.CutPrefix(rest, sub+" "); ok {
			return sub, tail, true
		}
	}

	return "", "", false
}

// scanEachClause tokenizes "each value[, index] in collection".
// The collection sub-expression is required.
func (l *Lexer) scanEachClause(word, rest string) error {
	idx := topLevelIndex(rest, " in ")
	if idx < 0 {
		return l.errorf(CodeMissingClause,
			"%s requires 'in' followed by a collection", word)
	}

	if strings.TrimSpace(rest[idx+4:]) == "" {
		return l.errorf(CodeMissingClause,
			"%s requires a collection expression", word)
	}

	if err := l.scanWords(rest[:idx]); err != nil {
		return err
	}

	l.emit(token.Word, "in")

	return l.scanWords(rest[idx+4:])
}

// scanWhenClause tokenizes "when value[: statement]".
func (l *Lexer) scanWhenClause(rest string, width int) error {
	if strings.TrimSpace(rest) == "" {
		return l.errorf(CodeMissingClause, "when requires a value")
	}

	if idx := topLevelIndex(rest, ":"); idx >= 0 {
		if err := l.scanWords(rest[:idx]); err != nil {
			return err
		}

		return l.scanExpansionTail(rest[idx:], width)
	}

	return l.scanWords(rest)
}

// scanExpansionTail handles an optional ": statement" block expansion
// suffix, recursing into statement scanning for the inlined child.
func (l *Lexer) scanExpansionTail(rest string, width int) error {
	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return nil
	}

	if rest[0] != ':' {
		return l.scanWords(rest)
	}

	l.emit(token.Colon, ":")

	return l.scanLine(strings.TrimLeft(rest[1:], " "), width)
}

// scanBlockClause tokenizes "block [append|prepend] [name]".
func (l *Lexer) scanBlockClause(rest string) error {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		// Bare placeholder inside a mixin body.
		return nil
	}

	for _, mode := range []string{"append", "prepend"} {
		if tail, ok := strings.CutPrefix(rest, mode+" "); ok {
			l.emit(token.Lookup(mode), mode)
			l.col++

			rest = strings.TrimSpace(tail)

			break
		}
	}

	if rest != "" {
		l.emit(token.Word, rest)
	}

	return nil
}

// scanPathClause tokenizes "extends path" and "include[:filter] path".
func (l *Lexer) scanPathClause(kind token.Kind, word, rest string) error {
	if kind == token.Include && strings.HasPrefix(rest, ":") {
		end := 1
		for end < len(rest) && isWordChar(rest[end]) {
			end++
		}

		l.emit(token.Colon, ":")
		l.emit(token.Word, rest[1:end])

		rest = rest[end:]
	}

	path := strings.TrimSpace(rest)
	if path == "" {
		return l.errorf(CodeMissingClause, "%s requires a path", word)
	}

	l.emit(token.Word, path)

	return nil
}

// scanMixinDef tokenizes the name and parameter list of a mixin
// definition.
func (l *Lexer) scanMixinDef(rest string) error {
	end := 0
	for end < len(rest) && isWordChar(rest[end]) {
		end++
	}

	if end == 0 {
		return l.errorf(CodeMissingClause, "mixin requires a name")
	}

	l.emit(token.Word, rest[:end])
	rest = rest[end:]

	if strings.HasPrefix(rest, "(") {
		return l.scanArgList(rest)
	}

	return nil
}

// scanMixinCall tokenizes "+name[(args)][(attrs)][.class][#id][&attributes(...)]".
// Argument and attribute groups share one scanner; the parser decides
// which role each parenthesized group plays.
func (l *Lexer) scanMixinCall(content string) error {
	end := 1
	for end < len(content) && isWordChar(content[end]) {
		end++
	}

	if end == 1 {
		return l.errorf(CodeMissingClause, "mixin call requires a name")
	}

	l.emit(token.MixinCall, content[1:end])
	l.col++ // account for the consumed '+'

	rest := content[end:]

	for strings.HasPrefix(rest, "(") {
		group, remain, err := l.splitGroup(rest, '(', ')')
		if err != nil {
			return err
		}

		if err := l.scanArgList(group); err != nil {
			return err
		}

		rest = remain
	}

	return l.scanSelectorTail(rest)
}

// scanArgList tokenizes a parenthesized, comma-separated list, emitting
// one Arg token per top-level item.
func (l *Lexer) scanArgList(s string) error {
	l.emit(token.LParen, "(")

	body, ok := matchGroup(s, '(', ')')
	if !ok {
		return l.errorf(CodeBracket, "unterminated argument list")
	}

	for _, item := range splitTopLevel(body, ',') {
		item = strings.TrimSpace(item)
		if item != "" {
			l.emit(token.Arg, item)
		}
	}

	l.emit(token.RParen, ")")

	return nil
}

// splitGroup returns the balanced "(...)" prefix of s and the remainder.
func (l *Lexer) splitGroup(s string, open, closing byte) (string, string, error) {
	depth := 0

	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[:i+1], s[i+1:], nil
			}
		}
	}

	if quote != 0 {
		return "", "", l.errorf(CodeString, "unterminated string")
	}

	return "", "", l.errorf(CodeBracket, "unterminated bracket")
}

// isWordChar reports whether c may appear in a tag, mixin, attribute, or
// keyword name.
func isWordChar(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// hasLetter reports whether the name contains at least one letter, the
// minimum for a valid class or id name.
func hasLetter(s string) bool {
	for i := range len(s) {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}

	return false
}
