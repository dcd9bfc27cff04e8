// Package token defines the lexical token contract shared by the lexer
// and parser for the plume template language.
package token

import "strconv"

// Kind identifies the lexical class of a token.
type Kind int

// Token kinds. Structural kinds carry no text; all others hold a slice of
// the source line they were scanned from.
const (
	EOF Kind = iota
	Newline
	Indent
	Dedent

	Tag
	Class
	ID

	LParen
	RParen
	Assign    // = (escaped attribute value or buffered code)
	AssignRaw // != (unescaped attribute value or buffered code)
	AttrName
	AttrValue
	AttrSpread // &attributes(...) with the inner expression as text
	Arg        // one top-level comma-separated mixin argument or parameter

	Text
	InterpEscaped   // #{expr}
	InterpUnescaped // !{expr}
	InterpTag       // #[tag ...] with the bracket interior as text

	Pipe
	Dot
	Colon
	Comma
	Word

	Comment       // //
	SilentComment // //-
	RawText       // one verbatim line captured inside a dot block

	Doctype
	If
	Unless
	Else
	Each
	While
	Case
	When
	Default
	Break
	Mixin
	MixinCall // +name with the name as text
	Block
	Extends
	Include
	Append
	Prepend
)

// Token is a single lexical unit with its source position.
// Line and Column are 1-based.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

// Position reports the token's source location as "line:column".
func (t Token) Position() string {
	return strconv.Itoa(t.Line) + ":" + strconv.Itoa(t.Column)
}

// keywords maps statement-leading words to their token kinds.
// Only the first word of a statement is subject to keyword lookup;
// the same words are ordinary text anywhere else.
var keywords = map[string]Kind{
	"doctype": Doctype,
	"if":      If,
	"unless":  Unless,
	"else":    Else,
	"each":    Each,
	"for":     Each,
	"while":   While,
	"case":    Case,
	"when":    When,
	"default": Default,
	"break":   Break,
	"mixin":   Mixin,
	"block":   Block,
	"extends": Extends,
	"include": Include,
	"append":  Append,
	"prepend": Prepend,
}

// Lookup returns the keyword kind for word, or Word if it is not a
// statement keyword.
func Lookup(word string) Kind {
	if kind, ok := keywords[word]; ok {
		return kind
	}

	return Word
}

// IsKeyword reports whether kind is a statement keyword.
func IsKeyword(kind Kind) bool {
	return kind >= Doctype && kind <= Prepend
}

// String returns a printable name for the token kind, used in error
// messages and parser expectations.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

var kindNames = map[Kind]string{
	EOF:             "end of source",
	Newline:         "newline",
	Indent:          "indent",
	Dedent:          "dedent",
	Tag:             "tag",
	Class:           "class",
	ID:              "id",
	LParen:          "(",
	RParen:          ")",
	Assign:          "=",
	AssignRaw:       "!=",
	AttrName:        "attribute name",
	AttrValue:       "attribute value",
	AttrSpread:      "&attributes",
	Arg:             "argument",
	Text:            "text",
	InterpEscaped:   "interpolation",
	InterpUnescaped: "unescaped interpolation",
	InterpTag:       "tag interpolation",
	Pipe:            "|",
	Dot:             ".",
	Colon:           ":",
	Comma:           ",",
	Word:            "word",
	Comment:         "comment",
	SilentComment:   "silent comment",
	RawText:         "raw text",
	Doctype:         "doctype",
	If:              "if",
	Unless:          "unless",
	Else:            "else",
	Each:            "each",
	While:           "while",
	Case:            "case",
	When:            "when",
	Default:         "default",
	Break:           "break",
	Mixin:           "mixin",
	MixinCall:       "mixin call",
	Block:           "block",
	Extends:         "extends",
	Include:         "include",
	Append:          "append",
	Prepend:         "prepend",
}
