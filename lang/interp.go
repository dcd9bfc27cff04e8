package lang

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/ardnew/plume/lang/ast"
	"github.com/ardnew/plume/lang/value"
)

// Runtime tree-walks a resolved template against a data context. A
// Runtime is cheap to construct and holds per-render state; it must not
// be shared across concurrent renders.
type Runtime struct {
	resolved *Resolved
	cfg      config

	data       value.Value
	scopes     []scope
	blockStack []blockFrame
	truncated  int
}

// scope is one frame of variable bindings. Lookup searches frames
// innermost to outermost before falling back to the data context.
type scope map[string]value.Value

// blockFrame captures a mixin call site's nested block content together
// with the scope depth it was captured at, so the content renders in
// the caller's bindings rather than the mixin's.
type blockFrame struct {
	nodes []ast.Node
	depth int
}

// NewRuntime returns a runtime for one resolved template.
func NewRuntime(resolved *Resolved, opts ...Option) *Runtime {
	return &Runtime{
		resolved: resolved,
		cfg:      apply(defaultConfig(), opts...),
	}
}

// Render walks the resolved template once, appending output to buf.
// The data argument is converted to the internal value model; see
// [value.Of].
func (rt *Runtime) Render(buf *bytes.Buffer, data any) error {
	rt.data = value.Of(data)
	rt.scopes = rt.scopes[:0]
	rt.blockStack = rt.blockStack[:0]

	return rt.renderNodes(buf, rt.resolved.Nodes)
}

// TruncatedLoops reports how many while loops were stopped by the
// iteration cap during renders on this runtime.
func (rt *Runtime) TruncatedLoops() int { return rt.truncated }

// Render resolves and renders in one call using a fresh runtime.
func Render(buf *bytes.Buffer, resolved *Resolved, data any, opts ...Option) error {
	return NewRuntime(resolved, opts...).Render(buf, data)
}

// RenderSource compiles and renders source text in one call.
func RenderSource(buf *bytes.Buffer, source string, data any, opts ...Option) error {
	cfg := apply(defaultConfig(), opts...)

	resolved, err := NewResolver(cfg.loader, cfg.mixinDir).ResolveSource(source, "")
	if err != nil {
		return err
	}

	return Render(buf, resolved, data, opts...)
}

func (rt *Runtime) pushScope(sc scope) { rt.scopes = append(rt.scopes, sc) }
func (rt *Runtime) popScope()          { rt.scopes = rt.scopes[:len(rt.scopes)-1] }

// lookup resolves a bare name: innermost scope frame first, then the
// outer data context. Absent names are null, never an error.
func (rt *Runtime) lookup(name string) value.Value {
	for i := len(rt.scopes) - 1; i >= 0; i-- {
		if v, ok := rt.scopes[i][name]; ok {
			return v
		}
	}

	return rt.data.Field(name)
}

// path resolves a dotted path: the base name through lookup, the
// remainder appended unchanged.
func (rt *Runtime) path(p string) value.Value {
	base, rest := splitPath(p)

	v := rt.lookup(base)
	if rest != "" {
		v = v.Path(rest)
	}

	return v
}

// eval evaluates one classified expression. Failed lookups and type
// mismatches degrade to null.
func (rt *Runtime) eval(e expr) value.Value {
	switch e.kind {
	case exprString:
		return value.String(e.str)

	case exprInt:
		return value.Int(e.num)

	case exprBool:
		return value.Bool(e.flag)

	case exprConcat:
		return value.String(rt.eval(*e.left).Render() + rt.eval(*e.right).Render())

	case exprCompare:
		match := rt.eval(*e.left).Render() == e.str
		if e.negate {
			match = !match
		}

		return value.Bool(match)

	case exprPath:
		return rt.path(e.str)

	default:
		return value.Null
	}
}

func (rt *Runtime) evalString(source string) value.Value {
	return rt.eval(classify(source))
}

// text renders one expression string to output text.
func (rt *Runtime) text(source string) string {
	return rt.evalString(source).Render()
}

func (rt *Runtime) renderNodes(buf *bytes.Buffer, nodes []ast.Node) error {
	prevRaw := false

	for _, n := range nodes {
		// Raw lines of one dot block are siblings; rejoin them with the
		// newlines the source had, without a trailing one.
		_, isRaw := n.(*ast.RawText)
		if isRaw && prevRaw {
			buf.WriteByte('\n')
		}

		prevRaw = isRaw

		if err := rt.renderNode(buf, n); err != nil {
			return err
		}
	}

	return nil
}

func (rt *Runtime) renderNode(buf *bytes.Buffer, n ast.Node) error {
	switch n := n.(type) {
	case *ast.Doctype:
		buf.WriteString(doctypeFor(n.Value))

	case *ast.Element:
		return rt.renderElement(buf, n)

	case *ast.Text:
		return rt.renderSegments(buf, n.Segments)

	case *ast.RawText:
		buf.WriteString(n.Content)

	case *ast.Conditional:
		return rt.renderConditional(buf, n)

	case *ast.Each:
		return rt.renderEach(buf, n)

	case *ast.While:
		return rt.renderWhile(buf, n)

	case *ast.Case:
		return rt.renderCase(buf, n)

	case *ast.MixinDef:
		// Definitions produce no output.

	case *ast.MixinCall:
		return rt.renderMixinCall(buf, n)

	case *ast.Block:
		return rt.renderBlock(buf, n)

	case *ast.Comment:
		return rt.renderComment(buf, n)

	case *ast.Include:
		return NewError(fmt.Sprintf("unresolved include %q", n.Path)).
			Wrap(ErrLoad).
			With(slog.String("path", n.Path))

	case *ast.Document:
		return rt.renderNodes(buf, n.Nodes)
	}

	return nil
}

func (rt *Runtime) renderConditional(buf *bytes.Buffer, n *ast.Conditional) error {
	for _, br := range n.Branches {
		if br.Condition == "" {
			return rt.renderNodes(buf, br.Children)
		}

		hit := rt.evalString(br.Condition).Truthy()
		if br.IsUnless {
			hit = !hit
		}

		if hit {
			return rt.renderNodes(buf, br.Children)
		}
	}

	return nil
}

func (rt *Runtime) renderEach(buf *bytes.Buffer, n *ast.Each) error {
	coll := rt.evalString(n.Collection)

	iterate := func(bind func(sc scope, i int)) error {
		for i := 0; i < coll.Len(); i++ {
			sc := scope{}
			bind(sc, i)
			rt.pushScope(sc)

			err := rt.renderNodes(buf, n.Children)

			rt.popScope()

			if err != nil {
				return err
			}
		}

		return nil
	}

	switch {
	case coll.Kind() == value.KindArray && coll.Len() > 0:
		items := coll.Items()

		return iterate(func(sc scope, i int) {
			sc[n.ValueName] = items[i]
			if n.IndexName != "" {
				sc[n.IndexName] = value.Int(int64(i))
			}
		})

	case coll.Kind() == value.KindObject && coll.Len() > 0:
		keys := coll.Keys()

		return iterate(func(sc scope, i int) {
			sc[n.ValueName] = coll.Field(keys[i])
			if n.IndexName != "" {
				sc[n.IndexName] = value.String(keys[i])
			}
		})

	default:
		return rt.renderNodes(buf, n.ElseChildren)
	}
}

func (rt *Runtime) renderWhile(buf *bytes.Buffer, n *ast.While) error {
	for i := 0; ; i++ {
		if i >= rt.cfg.whileLimit {
			// Runaway-loop valve: stop without error, count the event.
			rt.truncated++

			return nil
		}

		if !rt.evalString(n.Condition).Truthy() {
			return nil
		}

		if err := rt.renderNodes(buf, n.Children); err != nil {
			return err
		}
	}
}

func (rt *Runtime) renderCase(buf *bytes.Buffer, n *ast.Case) error {
	subject := rt.evalString(n.Expr)

	match := -1

	for i, arm := range n.Whens {
		if value.Equal(subject, rt.evalString(arm.Value)) {
			match = i

			break
		}
	}

	if match < 0 {
		return rt.renderNodes(buf, n.DefaultChildren)
	}

	// First-match-wins with fallthrough on empty arms: walk forward from
	// the match to the first arm with a body; an explicit break on an
	// empty arm suppresses output entirely.
	for i := match; i < len(n.Whens); i++ {
		arm := n.Whens[i]

		if len(arm.Children) > 0 {
			return rt.renderNodes(buf, arm.Children)
		}

		if arm.HasBreak {
			return nil
		}
	}

	return rt.renderNodes(buf, n.DefaultChildren)
}

func (rt *Runtime) renderMixinCall(buf *bytes.Buffer, call *ast.MixinCall) error {
	def, err := rt.resolved.Mixin(call.Name)
	if err != nil {
		return err
	}

	// Arguments and defaults evaluate in the caller's bindings, before
	// the mixin scope exists.
	sc := scope{}

	for i, param := range def.Params {
		switch {
		case i < len(call.Args):
			sc[param] = rt.evalString(call.Args[i])

		case def.Defaults[i] != "":
			sc[param] = rt.evalString(def.Defaults[i])

		default:
			sc[param] = value.Null
		}
	}

	if def.HasRest {
		var rest []value.Value

		for _, arg := range call.Args[min(len(def.Params), len(call.Args)):] {
			rest = append(rest, rt.evalString(arg))
		}

		sc[def.RestName] = value.Array(rest...)
	}

	sc["attributes"] = rt.callAttributes(call)

	rt.blockStack = append(rt.blockStack, blockFrame{
		nodes: call.BlockChildren,
		depth: len(rt.scopes),
	})
	rt.pushScope(sc)

	err = rt.renderNodes(buf, def.Children)

	rt.popScope()
	rt.blockStack = rt.blockStack[:len(rt.blockStack)-1]

	return err
}

// callAttributes builds the synthetic attributes record visible inside
// a mixin body: class, id, and style are always present, plus every
// named attribute from the call site and any spread record.
func (rt *Runtime) callAttributes(call *ast.MixinCall) value.Value {
	fields := map[string]value.Value{
		"class": value.String(""),
		"id":    value.String(call.ID),
		"style": value.String(""),
	}

	classAttr := ""

	for _, attr := range call.Attributes {
		text := attrValueText(attr.Name, attr.Value, rt.text)
		if attr.Value == "" {
			text = attr.Name
		}

		if attr.Name == "class" {
			classAttr = text

			continue
		}

		fields[attr.Name] = value.String(text)
	}

	if call.Spread != "" {
		for name, v := range rt.spreadFields(call.Spread) {
			switch name {
			case "class":
				classAttr = mergeClass([]string{classAttr}, v.Render())

			default:
				fields[name] = v
			}
		}
	}

	fields["class"] = value.String(mergeClass(call.Classes, classAttr))

	return value.Object(fields)
}

// spreadFields evaluates an &attributes(...) expression to a field map.
// Non-object results contribute nothing.
func (rt *Runtime) spreadFields(source string) map[string]value.Value {
	if literalShape(source) == literalObject {
		fields := map[string]value.Value{}

		for _, p := range parseObjectLiteral(source) {
			fields[p.key] = rt.evalString(p.value)
		}

		return fields
	}

	return rt.evalString(source).Fields()
}

func (rt *Runtime) renderBlock(buf *bytes.Buffer, n *ast.Block) error {
	if n.Name != "" {
		// Named blocks are expanded by the resolver; a remaining one is
		// a standalone document's own region.
		return rt.renderNodes(buf, n.Children)
	}

	if len(rt.blockStack) == 0 {
		// Placeholder without an enclosing mixin call renders nothing.
		return nil
	}

	frame := rt.blockStack[len(rt.blockStack)-1]
	rt.blockStack = rt.blockStack[:len(rt.blockStack)-1]

	// Call-site content renders in the caller's bindings. Clone so the
	// restored stack cannot alias frames pushed during this render.
	saved := rt.scopes
	rt.scopes = slices.Clone(rt.scopes[:frame.depth])

	err := rt.renderNodes(buf, frame.nodes)

	rt.scopes = saved
	rt.blockStack = append(rt.blockStack, frame)

	return err
}

func (rt *Runtime) renderComment(buf *bytes.Buffer, n *ast.Comment) error {
	if !n.Rendered {
		return nil
	}

	buf.WriteString("<!--")
	buf.WriteString(n.Content)

	for _, child := range n.Children {
		if raw, ok := child.(*ast.RawText); ok {
			buf.WriteByte('\n')
			buf.WriteString(raw.Content)
		}
	}

	buf.WriteString("-->")

	return nil
}

func (rt *Runtime) renderSegments(buf *bytes.Buffer, segs []ast.Segment) error {
	for _, seg := range segs {
		switch seg.Kind {
		case ast.SegmentLiteral:
			buf.WriteString(seg.Text)

		case ast.SegmentEscaped:
			buf.WriteString(escapeHTML(rt.text(seg.Text)))

		case ast.SegmentUnescaped:
			buf.WriteString(rt.text(seg.Text))

		case ast.SegmentTag:
			if seg.Tag != nil {
				if err := rt.renderElement(buf, seg.Tag); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// renderedAttr is one attribute ready for emission.
type renderedAttr struct {
	name    string
	text    string
	boolean bool
}

func (rt *Runtime) renderElement(buf *bytes.Buffer, el *ast.Element) error {
	buf.WriteByte('<')
	buf.WriteString(el.Tag)

	for _, attr := range rt.composeAttrs(el) {
		buf.WriteByte(' ')
		buf.WriteString(attr.name)

		if !attr.boolean {
			buf.WriteString(`="`)
			buf.WriteString(attr.text)
			buf.WriteByte('"')
		}
	}

	if el.SelfClosing || voidElements[el.Tag] {
		buf.WriteString("/>")

		return nil
	}

	buf.WriteByte('>')

	if el.BufferedCode != "" {
		text := rt.text(el.BufferedCode)
		if el.Escaped {
			text = escapeHTML(text)
		}

		buf.WriteString(text)
	}

	if err := rt.renderSegments(buf, el.InlineText); err != nil {
		return err
	}

	if err := rt.renderNodes(buf, el.Children); err != nil {
		return err
	}

	buf.WriteString("</")
	buf.WriteString(el.Tag)
	buf.WriteByte('>')

	return nil
}

// composeAttrs builds the final attribute list of one element: merged
// class first, then id, then the remaining written attributes in source
// order, then spread extras in sorted order.
func (rt *Runtime) composeAttrs(el *ast.Element) []renderedAttr {
	var (
		out       []renderedAttr
		named     []renderedAttr
		classAttr string
	)

	id := el.ID

	for _, attr := range el.Attributes {
		if attr.Name == "class" {
			// The merged class list is escaped once, on emission.
			classAttr = mergeClass([]string{classAttr}, attrValueText(attr.Name, attr.Value, rt.text))

			continue
		}

		rendered, ok := rt.renderAttr(attr)
		if !ok {
			continue
		}

		named = append(named, rendered)
	}

	spread := map[string]value.Value{}
	if el.SpreadAttributes != "" {
		spread = rt.spreadFields(el.SpreadAttributes)
	}

	if v, ok := spread["class"]; ok {
		classAttr = mergeClass([]string{classAttr}, v.Render())
		delete(spread, "class")
	}

	if v, ok := spread["id"]; ok {
		if id == "" {
			id = v.Render()
		}

		delete(spread, "id")
	}

	if class := mergeClass(el.Classes, classAttr); class != "" {
		out = append(out, renderedAttr{name: "class", text: escapeHTML(class)})
	}

	if id != "" {
		out = append(out, renderedAttr{name: "id", text: escapeHTML(id)})
	}

	out = append(out, named...)

	keys := make([]string, 0, len(spread))
	for name := range spread {
		keys = append(keys, name)
	}

	sort.Strings(keys)

	for _, name := range keys {
		v := spread[name]

		switch {
		case v.IsNull(), v.Kind() == value.KindBool && !v.Bool():
		case v.Kind() == value.KindBool:
			out = append(out, renderedAttr{name: name, boolean: true})

		default:
			out = append(out, renderedAttr{name: name, text: escapeHTML(v.Render())})
		}
	}

	return out
}

// attrText composes one attribute's value text, escaping per its form.
func (rt *Runtime) attrText(attr ast.Attribute) string {
	text := attrValueText(attr.Name, attr.Value, rt.text)
	if attr.Escaped {
		text = escapeHTML(text)
	}

	return text
}

// renderAttr renders one non-class attribute. Null and false values
// drop the attribute; true yields a bare boolean attribute, as does an
// attribute written without a value.
func (rt *Runtime) renderAttr(attr ast.Attribute) (renderedAttr, bool) {
	if attr.Value == "" {
		return renderedAttr{name: attr.Name, boolean: true}, true
	}

	if literalShape(attr.Value) == literalNone {
		v := rt.evalString(attr.Value)

		switch {
		case v.IsNull(), v.Kind() == value.KindBool && !v.Bool():
			return renderedAttr{}, false

		case v.Kind() == value.KindBool:
			return renderedAttr{name: attr.Name, boolean: true}, true
		}
	}

	return renderedAttr{name: attr.Name, text: rt.attrText(attr)}, true
}
