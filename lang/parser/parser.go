// Package parser builds the typed AST from the lexer's token stream.
//
// The parser is recursive descent with one token of lookahead and an
// explicit push-back queue in front of the stream, which lets a
// provisional parse be undone by returning already-consumed tokens.
// Every construct with a body reuses one generic block production that
// expects an indent, parses statements until the matching dedent, and
// consumes the dedent.
package parser

import (
	"fmt"
	"strings"

	"github.com/ardnew/plume/lang/ast"
	"github.com/ardnew/plume/lang/lexer"
	"github.com/ardnew/plume/lang/token"
)

// Error codes reported by the parser.
const (
	CodeUnexpected = "unexpected-token"
	CodeMissing    = "missing-clause"
	CodeDuplicate  = "duplicate-attribute"
	CodeScope      = "scope-violation"
	CodeStructure  = "misplaced-statement"
)

// Error is a structured parse error with its source position and the
// token kinds that would have been accepted.
type Error struct {
	Code     string
	Msg      string
	Line     int
	Column   int
	Expected []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Msg, e.Line, e.Column)
}

// Parser consumes a token stream and produces a document.
type Parser struct {
	tokens   []token.Token
	pos      int
	pushback []token.Token

	// mixinDepth tracks nesting inside mixin bodies so a bare block
	// placeholder outside any mixin can be rejected.
	mixinDepth int
}

// Parse lexes and parses source into a document.
func Parse(source string) (*ast.Document, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, err
	}

	return ParseTokens(tokens)
}

// ParseTokens parses an already-lexed token stream.
func ParseTokens(tokens []token.Token) (*ast.Document, error) {
	p := &Parser{tokens: tokens}

	return p.parseDocument()
}

// next consumes and returns the next token, draining the push-back
// queue first.
func (p *Parser) next() token.Token {
	if n := len(p.pushback); n > 0 {
		t := p.pushback[n-1]
		p.pushback = p.pushback[:n-1]

		return t
	}

	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}

	t := p.tokens[p.pos]
	p.pos++

	return t
}

// peek returns the next token without consuming it.
func (p *Parser) peek() token.Token {
	if n := len(p.pushback); n > 0 {
		return p.pushback[n-1]
	}

	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}

	return p.tokens[p.pos]
}

// unread returns a token to the front of the stream.
func (p *Parser) unread(t token.Token) {
	p.pushback = append(p.pushback, t)
}

// accept consumes the next token if it has the given kind.
func (p *Parser) accept(kind token.Kind) (token.Token, bool) {
	if p.peek().Kind == kind {
		return p.next(), true
	}

	return token.Token{}, false
}

// expect consumes the next token, failing unless it has the given kind.
func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	t := p.next()
	if t.Kind != kind {
		return t, p.errorExpected(t, kind.String())
	}

	return t, nil
}

// skipNewlines consumes consecutive newline tokens.
func (p *Parser) skipNewlines() {
	for p.peek().Kind == token.Newline {
		p.next()
	}
}

func (p *Parser) errorf(
	t token.Token,
	code, format string,
	args ...any,
) *Error {
	return &Error{
		Code:   code,
		Msg:    fmt.Sprintf(format, args...),
		Line:   t.Line,
		Column: t.Column,
	}
}

func (p *Parser) errorExpected(t token.Token, expected ...string) *Error {
	return &Error{
		Code:     CodeUnexpected,
		Msg:      fmt.Sprintf("unexpected %s", t.Kind),
		Line:     t.Line,
		Column:   t.Column,
		Expected: expected,
	}
}

// parseDocument parses the whole token stream. An extends statement is
// legal only as the first statement.
func (p *Parser) parseDocument() (*ast.Document, error) {
	doc := &ast.Document{Src: ast.MakeSrc(1, 1)}

	p.skipNewlines()

	if _, ok := p.accept(token.Extends); ok {
		path, err := p.expect(token.Word)
		if err != nil {
			return nil, err
		}

		doc.ExtendsPath = path.Text
	}

	for {
		p.skipNewlines()

		if p.peek().Kind == token.EOF {
			break
		}

		if t := p.peek(); t.Kind == token.Extends {
			return nil, p.errorf(t, CodeStructure,
				"extends must be the first statement")
		}

		node, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		if node != nil {
			doc.Nodes = append(doc.Nodes, node)
		}
	}

	return doc, nil
}

// parseBody is the generic block production: an indented region of
// statements. It expects an indent token, parses statements until the
// matching dedent, and consumes the dedent. When no indent follows, the
// construct simply has no body.
func (p *Parser) parseBody() ([]ast.Node, error) {
	if _, ok := p.accept(token.Indent); !ok {
		return nil, nil
	}

	var nodes []ast.Node

	for {
		p.skipNewlines()

		switch p.peek().Kind {
		case token.Dedent:
			p.next()

			return nodes, nil

		case token.EOF:
			// Synthetic dedents guarantee this is unreachable for
			// well-formed lexer output, but guard against truncation.
			return nodes, nil
		}

		node, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		if node != nil {
			nodes = append(nodes, node)
		}
	}
}

// parseStatement dispatches on the leading token of one statement.
func (p *Parser) parseStatement() (ast.Node, error) {
	t := p.peek()

	switch t.Kind {
	case token.Doctype:
		return p.parseDoctype()

	case token.If, token.Unless:
		return p.parseConditional()

	case token.Each:
		return p.parseEach()

	case token.While:
		return p.parseWhile()

	case token.Case:
		return p.parseCase()

	case token.Mixin:
		return p.parseMixinDef()

	case token.MixinCall:
		return p.parseMixinCall()

	case token.Block, token.Append, token.Prepend:
		return p.parseNamedBlock()

	case token.Include:
		return p.parseInclude()

	case token.Comment, token.SilentComment:
		return p.parseComment()

	case token.Pipe:
		return p.parsePipeText()

	case token.Tag, token.Class, token.ID:
		return p.parseElement()

	case token.Else:
		return nil, p.errorf(t, CodeStructure,
			"else without a preceding conditional")

	default:
		return nil, p.errorExpected(t, "statement")
	}
}

// parseDoctype parses "doctype [value]".
func (p *Parser) parseDoctype() (ast.Node, error) {
	t := p.next()

	node := &ast.Doctype{Src: ast.MakeSrc(t.Line, t.Column)}
	if w, ok := p.accept(token.Word); ok {
		node.Value = w.Text
	}

	return node, nil
}

// parseConditional parses an if/unless chain with optional else-if
// links and a trailing else.
func (p *Parser) parseConditional() (ast.Node, error) {
	t := p.next()

	node := &ast.Conditional{Src: ast.MakeSrc(t.Line, t.Column)}

	for {
		branch := ast.Branch{
			Condition: p.restExpr(),
			IsUnless:  t.Kind == token.Unless,
		}

		children, err := p.parseBody()
		if err != nil {
			return nil, err
		}

		branch.Children = children
		node.Branches = append(node.Branches, branch)

		if !p.acceptChained(token.Else) {
			break
		}

		if sub, ok := p.accept(token.If); ok {
			t = sub

			continue
		}

		if sub, ok := p.accept(token.Unless); ok {
			t = sub

			continue
		}

		// Trailing else branch.
		children, err = p.parseBody()
		if err != nil {
			return nil, err
		}

		node.Branches = append(node.Branches, ast.Branch{Children: children})

		break
	}

	return node, nil
}

// acceptChained consumes a statement of the given kind that follows the
// previous construct at the same indentation level, undoing the newline
// consumption when the next statement is something else.
func (p *Parser) acceptChained(kind token.Kind) bool {
	var skipped []token.Token

	for p.peek().Kind == token.Newline {
		skipped = append(skipped, p.next())
	}

	if _, ok := p.accept(kind); ok {
		return true
	}

	for i := len(skipped) - 1; i >= 0; i-- {
		p.unread(skipped[i])
	}

	return false
}

// parseEach parses "each value[, index] in collection" with an optional
// trailing else branch for empty collections.
func (p *Parser) parseEach() (ast.Node, error) {
	t := p.next()

	node := &ast.Each{Src: ast.MakeSrc(t.Line, t.Column)}

	name, err := p.expect(token.Word)
	if err != nil {
		return nil, err
	}

	node.ValueName = name.Text

	if _, ok := p.accept(token.Comma); ok {
		index, err := p.expect(token.Word)
		if err != nil {
			return nil, err
		}

		node.IndexName = index.Text
	}

	in, err := p.expect(token.Word)
	if err != nil {
		return nil, err
	}

	if in.Text != "in" {
		return nil, p.errorExpected(in, "in")
	}

	node.Collection = p.restExpr()
	if node.Collection == "" {
		return nil, p.errorf(t, CodeMissing,
			"each requires a collection expression")
	}

	node.Children, err = p.parseBody()
	if err != nil {
		return nil, err
	}

	if p.acceptChained(token.Else) {
		node.ElseChildren, err = p.parseBody()
		if err != nil {
			return nil, err
		}
	}

	return node, nil
}

// parseWhile parses "while condition".
func (p *Parser) parseWhile() (ast.Node, error) {
	t := p.next()

	node := &ast.While{
		Src:       ast.MakeSrc(t.Line, t.Column),
		Condition: p.restExpr(),
	}

	if node.Condition == "" {
		return nil, p.errorf(t, CodeMissing, "while requires a condition")
	}

	var err error

	node.Children, err = p.parseBody()

	return node, err
}

// parseCase parses a case dispatch with when arms and an optional
// default.
func (p *Parser) parseCase() (ast.Node, error) {
	t := p.next()

	node := &ast.Case{
		Src:  ast.MakeSrc(t.Line, t.Column),
		Expr: p.restExpr(),
	}

	if node.Expr == "" {
		return nil, p.errorf(t, CodeMissing, "case requires an expression")
	}

	if _, ok := p.accept(token.Indent); !ok {
		return node, nil
	}

	for {
		p.skipNewlines()

		switch p.peek().Kind {
		case token.Dedent:
			p.next()

			return node, nil

		case token.EOF:
			return node, nil

		case token.When:
			when, err := p.parseWhen()
			if err != nil {
				return nil, err
			}

			node.Whens = append(node.Whens, when)

		case token.Default:
			p.next()

			children, _, err := p.parseArmBody()
			if err != nil {
				return nil, err
			}

			node.DefaultChildren = children

		default:
			return nil, p.errorExpected(p.peek(), "when", "default")
		}
	}
}

// parseWhen parses one "when value" arm. A body holding only an
// explicit break marks the arm as output-suppressing; an empty body
// falls through to the next arm.
func (p *Parser) parseWhen() (ast.When, error) {
	p.next()

	when := ast.When{Value: p.restExpr()}

	// Inline expansion: "when v: statement" or "when v: break".
	if _, ok := p.accept(token.Colon); ok {
		if _, isBreak := p.accept(token.Break); isBreak {
			when.HasBreak = true

			return when, nil
		}

		child, err := p.parseStatement()
		if err != nil {
			return when, err
		}

		when.Children = []ast.Node{child}

		return when, nil
	}

	children, hasBreak, err := p.parseArmBody()
	if err != nil {
		return when, err
	}

	when.Children = children
	when.HasBreak = hasBreak

	return when, nil
}

// parseArmBody parses an indented case-arm body. A body consisting of a
// lone break statement is reported as the explicit-break form and
// produces no children.
func (p *Parser) parseArmBody() ([]ast.Node, bool, error) {
	if _, ok := p.accept(token.Indent); !ok {
		return nil, false, nil
	}

	var (
		nodes    []ast.Node
		hasBreak bool
	)

	for {
		p.skipNewlines()

		switch p.peek().Kind {
		case token.Dedent:
			p.next()

			return nodes, hasBreak && len(nodes) == 0, nil

		case token.EOF:
			return nodes, hasBreak && len(nodes) == 0, nil

		case token.Break:
			p.next()

			hasBreak = true

			continue
		}

		node, err := p.parseStatement()
		if err != nil {
			return nil, false, err
		}

		if node != nil {
			nodes = append(nodes, node)
		}
	}
}

// parseNamedBlock parses "block [append|prepend] name" or the shorthand
// "append name"/"prepend name". A bare block with no name is the mixin
// body placeholder and is a scope error outside a mixin.
func (p *Parser) parseNamedBlock() (ast.Node, error) {
	t := p.next()

	node := &ast.Block{Src: ast.MakeSrc(t.Line, t.Column)}

	switch t.Kind {
	case token.Append:
		node.Mode = ast.BlockAppend

	case token.Prepend:
		node.Mode = ast.BlockPrepend

	default:
		if _, ok := p.accept(token.Append); ok {
			node.Mode = ast.BlockAppend
		} else if _, ok := p.accept(token.Prepend); ok {
			node.Mode = ast.BlockPrepend
		}
	}

	if name, ok := p.accept(token.Word); ok {
		node.Name = name.Text
	}

	if node.Name == "" {
		if t.Kind != token.Block {
			return nil, p.errorf(t, CodeMissing,
				"%s requires a block name", t.Kind)
		}

		if p.mixinDepth == 0 {
			return nil, p.errorf(t, CodeScope,
				"block placeholder outside a mixin body")
		}
	}

	var err error

	node.Children, err = p.parseBody()

	return node, err
}

// parseInclude parses "include[:filter] path".
func (p *Parser) parseInclude() (ast.Node, error) {
	t := p.next()

	node := &ast.Include{Src: ast.MakeSrc(t.Line, t.Column)}

	if _, ok := p.accept(token.Colon); ok {
		filter, err := p.expect(token.Word)
		if err != nil {
			return nil, err
		}

		node.Filter = filter.Text
	}

	path, err := p.expect(token.Word)
	if err != nil {
		return nil, err
	}

	node.Path = path.Text

	return node, nil
}

// parseComment parses a rendered (//) or silent (//-) comment together
// with its captured raw body lines.
func (p *Parser) parseComment() (ast.Node, error) {
	t := p.next()

	node := &ast.Comment{
		Src:      ast.MakeSrc(t.Line, t.Column),
		Content:  t.Text,
		Rendered: t.Kind == token.Comment,
	}

	for {
		raw, ok := p.accept(token.RawText)
		if !ok {
			break
		}

		node.Children = append(node.Children, &ast.RawText{
			Src:     ast.MakeSrc(raw.Line, raw.Column),
			Content: raw.Text,
		})
	}

	return node, nil
}

// parsePipeText parses "| literal text" into a text node.
func (p *Parser) parsePipeText() (ast.Node, error) {
	t := p.next()

	segments, err := p.parseSegments()
	if err != nil {
		return nil, err
	}

	return &ast.Text{
		Src:      ast.MakeSrc(t.Line, t.Column),
		Segments: segments,
	}, nil
}

// restExpr joins the remaining expression tokens of the current line
// into one opaque expression string, normalizing separators to single
// spaces. The string is interpreted structurally by the backends.
func (p *Parser) restExpr() string {
	var parts []string

	for {
		switch p.peek().Kind {
		case token.Word:
			parts = append(parts, p.next().Text)

		case token.Comma:
			p.next()

			if n := len(parts); n > 0 {
				parts[n-1] += ","
			}

		default:
			return strings.Join(parts, " ")
		}
	}
}
