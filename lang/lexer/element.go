package lexer

import (
	"strings"

	"github.com/ardnew/plume/lang/token"
)

// scanElement tokenizes an element statement: an optional tag name,
// class/id shorthand, an attribute list, and one of several tails
// (inline text, buffered code, block expansion, raw dot block).
func (l *Lexer) scanElement(content string, width int) error {
	rest := content

	end := 0
	for end < len(rest) && isWordChar(rest[end]) {
		end++
	}

	if end > 0 {
		l.emit(token.Tag, rest[:end])
		rest = rest[end:]
	} else if rest[0] != '.' && rest[0] != '#' {
		return l.errorf(CodeInvalidName,
			"unexpected character %q at start of statement", rest[0])
	}

	return l.scanElementTail(rest, width)
}

// scanSelectorTail tokenizes class/id shorthand and an optional
// &attributes spread following a mixin call.
func (l *Lexer) scanSelectorTail(rest string) error {
	for rest != "" {
		switch {
		case rest[0] == '.' || rest[0] == '#':
			var err error

			rest, err = l.scanShorthand(rest)
			if err != nil {
				return err
			}

		case strings.HasPrefix(rest, "&attributes("):
			var err error

			rest, err = l.scanSpread(rest)
			if err != nil {
				return err
			}

		case rest[0] == ' ':
			// Trailing inline text after a mixin call is ignored by the
			// grammar; treat anything left as plain text.
			l.col++

			return l.scanInlineText(rest[1:])

		default:
			return l.errorf(CodeInvalidName,
				"unexpected character %q after mixin call", rest[0])
		}
	}

	return nil
}

// scanElementTail continues an element after its tag name.
func (l *Lexer) scanElementTail(rest string, width int) error {
	for rest != "" {
		switch {
		case rest[0] == '.' && isTrailingDot(rest):
			// Raw text block: "tag." followed by an indented region.
			l.emit(token.Dot, ".")
			l.enterRaw(width)

			return nil

		case rest[0] == '.' || rest[0] == '#':
			var err error

			rest, err = l.scanShorthand(rest)
			if err != nil {
				return err
			}

		case rest[0] == '(':
			group, remain, err := l.splitGroup(rest, '(', ')')
			if err != nil {
				return err
			}

			if err := l.scanAttrs(group); err != nil {
				return err
			}

			rest = remain

		case strings.HasPrefix(rest, "&attributes("):
			var err error

			rest, err = l.scanSpread(rest)
			if err != nil {
				return err
			}

		case rest[0] == '/':
			l.emit(token.Word, "/")

			rest = rest[1:]

		case strings.HasPrefix(rest, "!="):
			l.emit(token.AssignRaw, "!=")

			return l.scanWords(rest[2:])

		case rest[0] == '=':
			l.emit(token.Assign, "=")

			return l.scanWords(rest[1:])

		case rest[0] == ':':
			l.emit(token.Colon, ":")

			return l.scanLine(strings.TrimLeft(rest[1:], " "), width)

		case rest[0] == ' ':
			l.col++

			return l.scanInlineText(rest[1:])

		default:
			return l.errorf(CodeInvalidName,
				"unexpected character %q in element", rest[0])
		}
	}

	return nil
}

// scanShorthand tokenizes one ".class" or "#id" selector part.
func (l *Lexer) scanShorthand(rest string) (string, error) {
	marker := rest[0]

	end := 1
	for end < len(rest) && isWordChar(rest[end]) {
		end++
	}

	name := rest[1:end]
	if !hasLetter(name) {
		kind := "class"
		if marker == '#' {
			kind = "id"
		}

		return "", l.errorf(CodeInvalidName, "invalid %s name %q", kind, name)
	}

	if marker == '#' {
		l.emit(token.ID, name)
	} else {
		l.emit(token.Class, name)
	}

	l.col++ // account for the consumed marker

	return rest[end:], nil
}

// scanSpread tokenizes "&attributes(expr)".
func (l *Lexer) scanSpread(rest string) (string, error) {
	group, remain, err := l.splitGroup(rest[len("&attributes"):], '(', ')')
	if err != nil {
		return "", err
	}

	inner, _ := matchGroup(group, '(', ')')
	l.emit(token.AttrSpread, strings.TrimSpace(inner))

	return remain, nil
}

// scanAttrs tokenizes a balanced "(...)" attribute list. Values are
// scanned with a quote- and nesting-aware machine so embedded commas and
// parentheses inside object or array literals do not terminate them.
func (l *Lexer) scanAttrs(group string) error {
	l.emit(token.LParen, "(")

	body, ok := matchGroup(group, '(', ')')
	if !ok {
		return l.errorf(CodeBracket, "unterminated attribute list")
	}

	rest := body

	for {
		rest = strings.TrimLeft(rest, " \t,")
		if rest == "" {
			break
		}

		end := 0
		for end < len(rest) && isAttrNameChar(rest[end]) {
			end++
		}

		if end == 0 {
			return l.errorf(CodeInvalidName,
				"invalid attribute name at %q", rest)
		}

		l.emit(token.AttrName, rest[:end])
		rest = strings.TrimLeft(rest[end:], " \t")

		switch {
		case strings.HasPrefix(rest, "!="):
			l.emit(token.AssignRaw, "!=")

			rest = strings.TrimLeft(rest[2:], " \t")

		case strings.HasPrefix(rest, "="):
			l.emit(token.Assign, "=")

			rest = strings.TrimLeft(rest[1:], " \t")

		default:
			// Boolean attribute with no value.
			continue
		}

		value, remain, err := l.scanAttrValue(rest)
		if err != nil {
			return err
		}

		l.emit(token.AttrValue, value)

		rest = remain
	}

	l.emit(token.RParen, ")")

	return nil
}

// scanAttrValue captures one attribute value expression, stopping at a
// top-level comma or whitespace. Whitespace beside a top-level +
// operator stays inside the value so concatenation expressions scan as
// one term.
func (l *Lexer) scanAttrValue(s string) (string, string, error) {
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

		case c == '(' || c == '{' || c == '[':
			depth++

		case c == ')' || c == '}' || c == ']':
			depth--

		case depth == 0 && (c == ',' || c == ' ' || c == '\t'):
			if c != ',' && concatJoined(s, i) {
				continue
			}

			return s[:i], s[i:], nil
		}
	}

	if quote != 0 {
		return "", "", l.errorf(CodeString, "unterminated string")
	}

	if depth != 0 {
		return "", "", l.errorf(CodeBracket, "unterminated bracket")
	}

	return s, "", nil
}

// concatJoined reports whether the whitespace at s[i] adjoins a
// top-level + operator on either side.
func concatJoined(s string, i int) bool {
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}

	if j < len(s) && s[j] == '+' {
		return true
	}

	k := i - 1
	for k >= 0 && (s[k] == ' ' || s[k] == '\t') {
		k--
	}

	return k >= 0 && s[k] == '+'
}

// scanInlineText tokenizes a text run, recognizing escaped (#{...}),
// unescaped (!{...}), and inline-tag (#[...]) interpolation markers.
func (l *Lexer) scanInlineText(s string) error {
	lit := 0

	flush := func(upto int) {
		if upto > lit {
			l.emit(token.Text, s[lit:upto])
		}
	}

	i := 0
	for i < len(s) {
		var (
			kind    token.Kind
			closing byte
		)

		switch {
		case strings.HasPrefix(s[i:], `\#{`) || strings.HasPrefix(s[i:], `\!{`):
			// Escaped marker: emit the literal without the backslash.
			flush(i)
			l.emit(token.Text, s[i+1:i+3])

			i += 3
			lit = i

			continue

		case strings.HasPrefix(s[i:], "#{"):
			kind, closing = token.InterpEscaped, '}'

		case strings.HasPrefix(s[i:], "!{"):
			kind, closing = token.InterpUnescaped, '}'

		case strings.HasPrefix(s[i:], "#["):
			kind, closing = token.InterpTag, ']'

		default:
			i++

			continue
		}

		end, ok := findBalanced(s[i+2:], closing)
		if !ok {
			return l.errorf(CodeBracket, "unterminated interpolation")
		}

		flush(i)
		l.emitAt(kind, s[i+2:i+2+end], l.col+i+2)

		i += 2 + end + 1
		lit = i
	}

	flush(len(s))

	return nil
}

// scanWords tokenizes the rest of a line as space-separated words,
// keeping quoted strings intact and emitting top-level commas as their
// own tokens.
func (l *Lexer) scanWords(s string) error {
	i := 0

	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
			l.col++
		}

		if i >= len(s) {
			break
		}

		if s[i] == ',' {
			l.emit(token.Comma, ",")

			i++

			continue
		}

		start := i
		depth := 0

		var quote byte

	word:
		for i < len(s) {
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

			case c == '(' || c == '{' || c == '[':
				depth++

			case c == ')' || c == '}' || c == ']':
				depth--

			case depth == 0 && (c == ' ' || c == '\t' || c == ','):
				break word
			}

			i++
		}

		if quote != 0 {
			return l.errorf(CodeString, "unterminated string")
		}

		l.emit(token.Word, s[start:i])
	}

	return nil
}

// isTrailingDot reports whether a '.' at the start of rest is a raw
// block marker (end of line or whitespace) rather than a class selector.
func isTrailingDot(rest string) bool {
	return rest == "." || (len(rest) > 1 && !isWordChar(rest[1]))
}

// isAttrNameChar matches the characters legal in attribute names,
// including namespaced and data attributes.
func isAttrNameChar(c byte) bool {
	return isWordChar(c) || c == ':' || c == '@' || c == '.'
}

// matchGroup returns the interior of a balanced group that starts s.
func matchGroup(s string, open, closing byte) (string, bool) {
	if len(s) == 0 || s[0] != open {
		return "", false
	}

	end, ok := findBalanced(s[1:], closing)
	if !ok {
		return "", false
	}

	return s[1 : 1+end], true
}

// findBalanced locates the closing delimiter matching an already-consumed
// opener, honoring quote state and nested groups of all three kinds.
func findBalanced(s string, closing byte) (int, bool) {
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

		case c == '(' || c == '{' || c == '[':
			depth++

		case c == ')' || c == '}' || c == ']':
			if depth == 0 {
				if c == closing {
					return i, true
				}

				return 0, false
			}

			depth--
		}
	}

	return 0, false
}

// topLevelIndex finds the first occurrence of sub in s outside quotes
// and bracket nesting, or -1.
func topLevelIndex(s, sub string) int {
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

		case c == '(' || c == '{' || c == '[':
			depth++

		case c == ')' || c == '}' || c == ']':
			depth--

		case depth == 0 && strings.HasPrefix(s[i:], sub):
			return i
		}
	}

	return -1
}

// splitTopLevel splits s on a separator that appears outside quotes and
// bracket nesting.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		quote byte
	)

	depth, start := 0, 0

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

		case c == '(' || c == '{' || c == '[':
			depth++

		case c == ')' || c == '}' || c == ']':
			depth--

		case depth == 0 && c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}
