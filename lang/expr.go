package lang

import (
	"strconv"
	"strings"
)

// The embedded expression language is a restricted, string-classified
// subset, not a general expression grammar: quoted literals, integer
// literals, boolean and null keywords, dotted field access, a single
// level of == / != comparison against a quoted literal, and + for
// string concatenation. Both backends evaluate expressions through this
// one classifier so their semantics cannot drift apart.

// exprKind classifies one opaque expression string.
type exprKind int

const (
	exprEmpty exprKind = iota
	exprString
	exprInt
	exprBool
	exprNull
	exprConcat
	exprCompare
	exprPath
)

// expr is the structural interpretation of one expression string.
type expr struct {
	kind exprKind

	str  string // unquoted literal for exprString, path for exprPath
	num  int64
	flag bool

	// left and right hold the operands of exprConcat; for exprCompare,
	// left is the operand and str the literal it compares against.
	left  *expr
	right *expr

	negate bool // != for exprCompare
}

// classify interprets an opaque expression string structurally. The
// split points are located outside quotes: first a top-level == or !=
// followed by a quoted literal, then the first top-level unquoted +.
func classify(source string) expr {
	source = strings.TrimSpace(source)

	if source == "" {
		return expr{kind: exprEmpty}
	}

	for _, op := range []string{"==", "!="} {
		idx := indexOutsideQuotes(source, op)
		if idx < 0 {
			continue
		}

		rhs := strings.TrimSpace(source[idx+2:])
		if lit, ok := unquote(rhs); ok {
			left := classify(source[:idx])

			return expr{
				kind:   exprCompare,
				left:   &left,
				str:    lit,
				negate: op == "!=",
			}
		}
	}

	if idx := indexOutsideQuotes(source, "+"); idx > 0 {
		left := classify(source[:idx])
		right := classify(source[idx+1:])

		return expr{kind: exprConcat, left: &left, right: &right}
	}

	if lit, ok := unquote(source); ok {
		return expr{kind: exprString, str: lit}
	}

	if num, err := strconv.ParseInt(source, 10, 64); err == nil {
		return expr{kind: exprInt, num: num}
	}

	switch source {
	case "true", "false":
		return expr{kind: exprBool, flag: source == "true"}

	case "null", "nil":
		return expr{kind: exprNull}
	}

	return expr{kind: exprPath, str: source}
}

// splitPath separates the base name of a dotted path from the remaining
// path, which is appended unchanged once the base resolves.
func splitPath(path string) (string, string) {
	base, rest, _ := strings.Cut(path, ".")

	return base, rest
}

// unquote strips one level of matching quotes, reporting whether the
// string was a quoted literal.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}

	first, last := s[0], s[len(s)-1]
	if first != last || (first != '"' && first != '\'' && first != '`') {
		return "", false
	}

	if first == '"' {
		if out, err := strconv.Unquote(s); err == nil {
			return out, true
		}
	}

	return s[1 : len(s)-1], true
}

// indexOutsideQuotes finds the first occurrence of op in s that is not
// inside a string literal, or -1.
func indexOutsideQuotes(s, op string) int {
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

		case strings.HasPrefix(s[i:], op):
			return i
		}
	}

	return -1
}

// literalKind classifies an attribute value's literal shape.
type literalKind int

const (
	literalNone literalKind = iota
	literalObject
	literalArray
)

// literalShape reports whether an attribute value is an object or array
// literal.
func literalShape(source string) literalKind {
	source = strings.TrimSpace(source)

	switch {
	case strings.HasPrefix(source, "{") && strings.HasSuffix(source, "}"):
		return literalObject

	case strings.HasPrefix(source, "[") && strings.HasSuffix(source, "]"):
		return literalArray

	default:
		return literalNone
	}
}

// objectPair is one key:value entry of an object-literal attribute.
type objectPair struct {
	key   string
	value string // raw expression text
}

// parseObjectLiteral splits "{k1: v1, k2: v2}" into pairs on top-level
// commas and colons.
func parseObjectLiteral(source string) []objectPair {
	source = strings.TrimSpace(source)
	source = strings.TrimPrefix(source, "{")
	source = strings.TrimSuffix(source, "}")

	var pairs []objectPair

	for _, item := range splitOutsideQuotes(source, ',') {
		key, val, found := cutOutsideQuotes(item, ':')
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if lit, ok := unquote(key); ok {
			key = lit
		}

		if key == "" {
			continue
		}

		pairs = append(pairs, objectPair{
			key:   key,
			value: strings.TrimSpace(val),
		})
	}

	return pairs
}

// parseArrayLiteral splits "[a, b, c]" into element expressions.
func parseArrayLiteral(source string) []string {
	source = strings.TrimSpace(source)
	source = strings.TrimPrefix(source, "[")
	source = strings.TrimSuffix(source, "]")

	var items []string

	for _, item := range splitOutsideQuotes(source, ',') {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}

	return items
}

// splitOutsideQuotes splits s on a separator outside quotes and bracket
// nesting.
func splitOutsideQuotes(s string, sep byte) []string {
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

// cutOutsideQuotes cuts s at the first separator outside quotes.
func cutOutsideQuotes(s string, sep byte) (string, string, bool) {
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

		case c == sep:
			return s[:i], s[i+1:], true
		}
	}

	return s, "", false
}

// isStaticExpr reports whether an expression can be fully evaluated at
// generation time: literals and concatenations of literals.
func isStaticExpr(e expr) bool {
	switch e.kind {
	case exprEmpty, exprString, exprInt, exprBool, exprNull:
		return true

	case exprConcat:
		return isStaticExpr(*e.left) && isStaticExpr(*e.right)

	default:
		return false
	}
}

// staticString folds a static expression into its rendered text.
func staticString(e expr) string {
	switch e.kind {
	case exprString:
		return e.str

	case exprInt:
		return strconv.FormatInt(e.num, 10)

	case exprBool:
		return strconv.FormatBool(e.flag)

	case exprConcat:
		return staticString(*e.left) + staticString(*e.right)

	default:
		return ""
	}
}
