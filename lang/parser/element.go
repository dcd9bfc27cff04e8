package parser

import (
	"strings"

	"github.com/ardnew/plume/lang/ast"
	"github.com/ardnew/plume/lang/token"
)

// parseElement parses one element statement. A statement opening with
// class or id shorthand and no tag name defaults to "div".
func (p *Parser) parseElement() (ast.Node, error) {
	t := p.peek()

	node := &ast.Element{
		Src: ast.MakeSrc(t.Line, t.Column),
		Tag: "div",
	}

	if tag, ok := p.accept(token.Tag); ok {
		node.Tag = tag.Text
	}

	if err := p.parseSelector(node); err != nil {
		return nil, err
	}

	if err := p.parseElementTail(node); err != nil {
		return nil, err
	}

	children, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	node.Children = append(node.Children, children...)

	return node, nil
}

// parseSelector consumes class/id shorthand, the attribute list, the
// &attributes spread, and the self-closing marker.
func (p *Parser) parseSelector(node *ast.Element) error {
	for {
		switch t := p.peek(); t.Kind {
		case token.Class:
			p.next()
			node.Classes = append(node.Classes, t.Text)

		case token.ID:
			p.next()

			if node.ID != "" {
				return p.errorf(t, CodeDuplicate, "duplicate id %q", t.Text)
			}

			node.ID = t.Text

		case token.LParen:
			attrs, err := p.parseAttrList()
			if err != nil {
				return err
			}

			if err := mergeAttributes(p, node, attrs, t); err != nil {
				return err
			}

		case token.AttrSpread:
			p.next()
			node.SpreadAttributes = t.Text

		case token.Word:
			if t.Text != "/" {
				return nil
			}

			p.next()
			node.SelfClosing = true

		default:
			return nil
		}
	}
}

// mergeAttributes folds a parsed attribute list into the element,
// rejecting duplicate non-class attributes.
func mergeAttributes(
	p *Parser,
	node *ast.Element,
	attrs []ast.Attribute,
	at token.Token,
) error {
	for _, attr := range attrs {
		if attr.Name != "class" {
			for _, seen := range node.Attributes {
				if seen.Name == attr.Name {
					return p.errorf(at, CodeDuplicate,
						"duplicate attribute %q", attr.Name)
				}
			}

			if attr.Name == "id" && node.ID != "" {
				return p.errorf(at, CodeDuplicate, "duplicate id")
			}
		}

		node.Attributes = append(node.Attributes, attr)
	}

	return nil
}

// parseAttrList parses LParen (AttrName [=|!= AttrValue])* RParen.
func (p *Parser) parseAttrList() ([]ast.Attribute, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	var attrs []ast.Attribute

	for {
		switch t := p.next(); t.Kind {
		case token.RParen:
			return attrs, nil

		case token.AttrName:
			attr := ast.Attribute{Name: t.Text, Escaped: true}

			switch p.peek().Kind {
			case token.Assign:
				p.next()

				value, err := p.expect(token.AttrValue)
				if err != nil {
					return nil, err
				}

				attr.Value = value.Text

			case token.AssignRaw:
				p.next()

				value, err := p.expect(token.AttrValue)
				if err != nil {
					return nil, err
				}

				attr.Value = value.Text
				attr.Escaped = false
			}

			attrs = append(attrs, attr)

		default:
			return nil, p.errorExpected(t, "attribute name", ")")
		}
	}
}

// parseElementTail handles what follows an element's selector: buffered
// code, block expansion, inline text, or a raw dot block.
func (p *Parser) parseElementTail(node *ast.Element) error {
	switch t := p.peek(); t.Kind {
	case token.Assign, token.AssignRaw:
		p.next()

		node.BufferedCode = p.restExpr()
		node.Escaped = t.Kind == token.Assign

		if node.BufferedCode == "" {
			return p.errorf(t, CodeMissing,
				"buffered code requires an expression")
		}

		return nil

	case token.Colon:
		p.next()

		child, err := p.parseStatement()
		if err != nil {
			return err
		}

		node.Children = append(node.Children, child)

		return nil

	case token.Dot:
		p.next()

		return p.parseRawBlock(node)

	case token.Text, token.InterpEscaped, token.InterpUnescaped,
		token.InterpTag:
		segments, err := p.parseSegments()
		if err != nil {
			return err
		}

		node.InlineText = segments

		return nil

	default:
		return nil
	}
}

// parseRawBlock collects the verbatim lines captured by the lexer for a
// trailing-dot element.
func (p *Parser) parseRawBlock(node *ast.Element) error {
	p.skipNewlines()

	for {
		raw, ok := p.accept(token.RawText)
		if !ok {
			return nil
		}

		node.Children = append(node.Children, &ast.RawText{
			Src:     ast.MakeSrc(raw.Line, raw.Column),
			Content: raw.Text,
		})
	}
}

// parseSegments consumes a run of text and interpolation tokens.
func (p *Parser) parseSegments() ([]ast.Segment, error) {
	var segments []ast.Segment

	for {
		switch t := p.peek(); t.Kind {
		case token.Text:
			p.next()
			segments = append(segments, ast.Segment{
				Kind: ast.SegmentLiteral,
				Text: t.Text,
			})

		case token.InterpEscaped:
			p.next()
			segments = append(segments, ast.Segment{
				Kind: ast.SegmentEscaped,
				Text: strings.TrimSpace(t.Text),
			})

		case token.InterpUnescaped:
			p.next()
			segments = append(segments, ast.Segment{
				Kind: ast.SegmentUnescaped,
				Text: strings.TrimSpace(t.Text),
			})

		case token.InterpTag:
			element, err := p.parseInlineTag(t)
			if err != nil {
				return nil, err
			}

			p.next()
			segments = append(segments, ast.Segment{
				Kind: ast.SegmentTag,
				Tag:  element,
			})

		default:
			return segments, nil
		}
	}
}

// parseInlineTag parses the interior of a #[tag ...] interpolation as a
// one-line element with its own nested document.
func (p *Parser) parseInlineTag(t token.Token) (*ast.Element, error) {
	doc, err := Parse(t.Text)
	if err != nil {
		return nil, p.errorf(t, CodeUnexpected,
			"invalid tag interpolation: %v", err)
	}

	if len(doc.Nodes) != 1 {
		return nil, p.errorf(t, CodeUnexpected,
			"tag interpolation must contain exactly one element")
	}

	element, ok := doc.Nodes[0].(*ast.Element)
	if !ok {
		return nil, p.errorf(t, CodeUnexpected,
			"tag interpolation must contain an element")
	}

	return element, nil
}

// parseMixinDef parses "mixin name(params)" and its body. Parameters
// may carry default literals, and a trailing "...rest" parameter
// collects surplus call arguments.
func (p *Parser) parseMixinDef() (ast.Node, error) {
	t := p.next()

	name, err := p.expect(token.Word)
	if err != nil {
		return nil, err
	}

	node := &ast.MixinDef{
		Src:  ast.MakeSrc(t.Line, t.Column),
		Name: name.Text,
	}

	if _, ok := p.accept(token.LParen); ok {
		for {
			arg, ok := p.accept(token.Arg)
			if !ok {
				break
			}

			if rest, ok := strings.CutPrefix(arg.Text, "..."); ok {
				node.HasRest = true
				node.RestName = rest

				continue
			}

			if node.HasRest {
				return nil, p.errorf(arg, CodeStructure,
					"rest parameter must be last")
			}

			param, deflt, _ := strings.Cut(arg.Text, "=")
			node.Params = append(node.Params, strings.TrimSpace(param))
			node.Defaults = append(node.Defaults, strings.TrimSpace(deflt))
		}

		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}

	p.mixinDepth++

	node.Children, err = p.parseBody()

	p.mixinDepth--

	return node, err
}

// parseMixinCall parses "+name(...)" with optional attribute-style
// arguments, selector shorthand, an &attributes spread, and a nested
// block.
//
// A single parenthesized group is ambiguous between positional
// arguments and attributes. The group is provisionally read as
// attributes; when any item fails the name=value shape, the consumed
// tokens are pushed back and the group is re-read as positional
// arguments.
func (p *Parser) parseMixinCall() (ast.Node, error) {
	t := p.next()

	node := &ast.MixinCall{
		Src:  ast.MakeSrc(t.Line, t.Column),
		Name: t.Text,
	}

	if p.peek().Kind == token.LParen {
		args, attrs := p.parseCallGroup()
		node.Args = args
		node.Attributes = attrs
	}

	// A second group is always attributes.
	if p.peek().Kind == token.LParen && node.Attributes == nil {
		_, attrs := p.parseCallGroup()
		node.Attributes = attrs

		if attrs == nil {
			return nil, p.errorf(p.peek(), CodeUnexpected,
				"second argument group must hold attributes")
		}
	}

	for {
		switch s := p.peek(); s.Kind {
		case token.Class:
			p.next()
			node.Classes = append(node.Classes, s.Text)

		case token.ID:
			p.next()
			node.ID = s.Text

		case token.AttrSpread:
			p.next()
			node.Spread = s.Text

		default:
			var err error

			node.BlockChildren, err = p.parseBody()

			return node, err
		}
	}
}

// parseCallGroup reads one parenthesized group from a mixin call.
// It returns either positional arguments or attributes, never both.
func (p *Parser) parseCallGroup() ([]string, []ast.Attribute) {
	var (
		consumed []token.Token
		attrs    []ast.Attribute
	)

	attrShaped := true

	consumed = append(consumed, p.next()) // LParen

	for attrShaped {
		t := p.next()
		consumed = append(consumed, t)

		if t.Kind == token.RParen {
			break
		}

		if t.Kind != token.Arg {
			attrShaped = false

			break
		}

		name, value, found := cutAttrItem(t.Text)
		if !found {
			attrShaped = false

			break
		}

		attrs = append(attrs, ast.Attribute{
			Name:    name,
			Value:   value,
			Escaped: true,
		})
	}

	if attrShaped && len(attrs) > 0 {
		return nil, attrs
	}

	// The provisional attribute parse failed: return every consumed
	// token to the stream and re-read the group as positional arguments.
	for i := len(consumed) - 1; i >= 0; i-- {
		p.unread(consumed[i])
	}

	p.next() // LParen

	var items []string

	for {
		t := p.next()

		if t.Kind == token.Arg {
			items = append(items, t.Text)

			continue
		}

		if t.Kind == token.RParen || t.Kind == token.EOF {
			return items, nil
		}
	}
}

// cutAttrItem splits "name=value" when name is a plain identifier,
// reporting whether the item has attribute shape.
func cutAttrItem(item string) (string, string, bool) {
	name, value, found := strings.Cut(item, "=")
	if !found {
		return "", "", false
	}

	// A second '=' marks a comparison operator, not an assignment.
	if strings.HasPrefix(value, "=") {
		return "", "", false
	}

	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, "!") {
		return "", "", false
	}

	for i := range len(name) {
		c := name[i]
		if !(c == '_' || c == '-' ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9')) {
			return "", "", false
		}
	}

	return name, strings.TrimSpace(value), true
}
