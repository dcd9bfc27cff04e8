package lang

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ardnew/plume/lang/ast"
)

// Generate writes a Go source file containing one renderer function for
// the resolved template. The renderer's signature is
//
//	func(buf *bytes.Buffer, data value.Value)
//
// and its only failure mode is buffer growth. Templates with no visible
// output compile to an empty stub; fully static templates compile to a
// single constant write; everything else compiles to a sequence of
// buffered appends, one per static run, interleaved with control flow.
func Generate(w io.Writer, resolved *Resolved, opts ...Option) error {
	return generate(w, resolved, apply(defaultConfig(), opts...))
}

func generate(w io.Writer, resolved *Resolved, cfg config) error {
	g := &generator{
		resolved: resolved,
		cfg:      cfg,
		seq:      map[string]int{},
	}

	g.genNodes(resolved.Nodes)

	if g.err != nil {
		return g.err
	}

	return g.write(w)
}

// generator accumulates the body of one renderer. Literal output is
// gathered into a pending static run and flushed as a single append
// whenever runtime code must interleave; a template that never flushes
// is fully static.
type generator struct {
	resolved *Resolved
	cfg      config

	body    bytes.Buffer
	static  strings.Builder
	depth   int
	seq     map[string]int
	dynamic bool
	usesRT  bool

	bindings    []map[string]string
	blockFrames []genBlockFrame
	expanding   []string

	err error
}

// genBlockFrame captures a mixin call site's block content with the
// binding depth it was captured at.
type genBlockFrame struct {
	nodes []ast.Node
	depth int
}

// fresh returns a unique variable name with the given prefix.
func (g *generator) fresh(prefix string) string {
	n := g.seq[prefix]
	g.seq[prefix]++

	return fmt.Sprintf("%s%d", prefix, n)
}

// staticText appends literal output to the pending static run.
func (g *generator) staticText(s string) {
	g.static.WriteString(s)
}

// flush emits the pending static run as one append.
func (g *generator) flush() {
	if g.static.Len() == 0 {
		return
	}

	g.line("buf.WriteString(%s)", strconv.Quote(g.static.String()))
	g.static.Reset()
}

// line writes one indented statement without flushing.
func (g *generator) line(format string, args ...any) {
	g.body.WriteString(strings.Repeat("\t", g.depth+1))
	fmt.Fprintf(&g.body, format, args...)
	g.body.WriteByte('\n')
}

// stmt flushes pending static output and writes one runtime statement.
func (g *generator) stmt(format string, args ...any) {
	g.flush()
	g.dynamic = true
	g.line(format, args...)
}

func (g *generator) open(format string, args ...any) {
	g.stmt(format, args...)
	g.depth++
}

func (g *generator) close() {
	g.flush()
	g.depth--
	g.line("}")
}

// chain closes the current branch and opens the next at the same depth,
// for else-if chains and switch arms.
func (g *generator) chain(format string, args ...any) {
	g.flush()
	g.depth--
	g.line(format, args...)
	g.depth++
}

// rt marks use of the runtime support helpers and returns the qualified
// name.
func (g *generator) rt(name string) string {
	g.usesRT = true

	return "lang." + name
}

// lookupName resolves a bare template name to a Go expression of type
// value.Value: innermost binding frame first, then the data context.
func (g *generator) lookupName(name string) string {
	for i := len(g.bindings) - 1; i >= 0; i-- {
		if expr, ok := g.bindings[i][name]; ok {
			return expr
		}
	}

	return fmt.Sprintf("data.Field(%s)", strconv.Quote(name))
}

// genPath emits a dotted-path lookup: the base resolves through the
// binding frames, the remainder is appended unchanged.
func (g *generator) genPath(path string) string {
	base, rest := splitPath(path)

	expr := g.lookupName(base)
	if rest != "" {
		expr = fmt.Sprintf("%s.Path(%s)", expr, strconv.Quote(rest))
	}

	return expr
}

// genValue emits a Go expression of type value.Value for one
// classified expression.
func (g *generator) genValue(e expr) string {
	switch e.kind {
	case exprString:
		return fmt.Sprintf("value.String(%s)", strconv.Quote(e.str))

	case exprInt:
		return fmt.Sprintf("value.Int(%d)", e.num)

	case exprBool:
		return fmt.Sprintf("value.Bool(%t)", e.flag)

	case exprConcat:
		return fmt.Sprintf("value.String(%s)", g.genText(e))

	case exprCompare:
		op := "=="
		if e.negate {
			op = "!="
		}

		return fmt.Sprintf("value.Bool((%s) %s %s)",
			g.genText(*e.left), op, strconv.Quote(e.str))

	case exprPath:
		return g.genPath(e.str)

	default:
		return "value.Null"
	}
}

// genText emits a Go expression of type string for one classified
// expression.
func (g *generator) genText(e expr) string {
	if isStaticExpr(e) {
		return strconv.Quote(staticString(e))
	}

	switch e.kind {
	case exprConcat:
		return g.genText(*e.left) + " + " + g.genText(*e.right)

	case exprPath:
		return g.genPath(e.str) + ".Render()"

	default:
		return g.genValue(e) + ".Render()"
	}
}

// writeExprText emits the output of one expression in text position.
// Static expressions fold into the pending static run.
func (g *generator) writeExprText(raw string, escape bool) {
	e := classify(raw)

	if isStaticExpr(e) {
		text := staticString(e)
		if escape {
			text = escapeHTML(text)
		}

		g.staticText(text)

		return
	}

	text := g.genText(e)
	if escape {
		text = fmt.Sprintf("%s(%s)", g.rt("EscapeHTML"), text)
	}

	g.stmt("buf.WriteString(%s)", text)
}

func (g *generator) genNodes(nodes []ast.Node) {
	prevRaw := false

	for _, n := range nodes {
		if g.err != nil {
			return
		}

		_, isRaw := n.(*ast.RawText)
		if isRaw && prevRaw {
			g.staticText("\n")
		}

		prevRaw = isRaw

		g.genNode(n)
	}
}

func (g *generator) genNode(n ast.Node) {
	switch n := n.(type) {
	case *ast.Doctype:
		g.staticText(doctypeFor(n.Value))

	case *ast.RawText:
		g.staticText(n.Content)

	case *ast.Text:
		g.genSegments(n.Segments)

	case *ast.Element:
		g.genElement(n)

	case *ast.Conditional:
		g.genConditional(n)

	case *ast.Each:
		g.genEach(n)

	case *ast.While:
		g.genWhile(n)

	case *ast.Case:
		g.genCase(n)

	case *ast.MixinDef:
		// Definitions produce no output.

	case *ast.MixinCall:
		g.genMixinCall(n)

	case *ast.Block:
		g.genBlock(n)

	case *ast.Comment:
		g.genComment(n)

	case *ast.Include:
		g.err = NewError(fmt.Sprintf("unresolved include %q", n.Path)).
			Wrap(ErrCodegen).
			With(slog.String("path", n.Path))

	case *ast.Document:
		g.genNodes(n.Nodes)
	}
}

func (g *generator) genSegments(segs []ast.Segment) {
	for _, seg := range segs {
		switch seg.Kind {
		case ast.SegmentLiteral:
			g.staticText(seg.Text)

		case ast.SegmentEscaped:
			g.writeExprText(seg.Text, true)

		case ast.SegmentUnescaped:
			g.writeExprText(seg.Text, false)

		case ast.SegmentTag:
			if seg.Tag != nil {
				g.genElement(seg.Tag)
			}
		}
	}
}

func (g *generator) genConditional(n *ast.Conditional) {
	opened := false

	for i, br := range n.Branches {
		switch {
		case br.Condition == "":
			g.chain("} else {")

		case i == 0:
			g.open("if %s {", g.genCondition(br))
			opened = true

		default:
			g.chain("} else if %s {", g.genCondition(br))
		}

		g.genNodes(br.Children)
	}

	if opened {
		g.close()
	}
}

func (g *generator) genCondition(br ast.Branch) string {
	cond := g.genValue(classify(br.Condition)) + ".Truthy()"
	if br.IsUnless {
		cond = "!" + cond
	}

	return cond
}

func (g *generator) genEach(n *ast.Each) {
	coll := g.fresh("c")
	item := g.fresh("v")
	key := g.fresh("k")

	g.open("{")
	g.stmt("%s := %s", coll, g.genValue(classify(n.Collection)))
	g.open("switch {")
	g.chain("case %s.Kind() == value.KindArray && %s.Len() > 0:", coll, coll)

	if n.IndexName != "" {
		idx := g.fresh("i")
		g.open("for %s, %s := range %s.Items() {", idx, item, coll)
		g.genScoped(n.Children, map[string]string{
			n.ValueName: item,
			n.IndexName: fmt.Sprintf("value.Int(int64(%s))", idx),
		})
	} else {
		g.open("for _, %s := range %s.Items() {", item, coll)
		g.genScoped(n.Children, map[string]string{n.ValueName: item})
	}

	g.close()

	g.chain("case %s.Kind() == value.KindObject && %s.Len() > 0:", coll, coll)
	g.open("for _, %s := range %s.Keys() {", key, coll)

	names := map[string]string{
		n.ValueName: fmt.Sprintf("%s.Field(%s)", coll, key),
	}
	if n.IndexName != "" {
		names[n.IndexName] = fmt.Sprintf("value.String(%s)", key)
	}

	g.genScoped(n.Children, names)
	g.close()

	if len(n.ElseChildren) > 0 {
		g.chain("default:")
		g.genNodes(n.ElseChildren)
	}

	g.close()
	g.close()
}

// genScoped generates a node list with one extra binding frame.
func (g *generator) genScoped(nodes []ast.Node, names map[string]string) {
	g.bindings = append(g.bindings, names)
	g.genNodes(nodes)
	g.bindings = g.bindings[:len(g.bindings)-1]
}

func (g *generator) genWhile(n *ast.While) {
	i := g.fresh("w")

	g.open("for %s := 0; %s < %d; %s++ {", i, i, g.cfg.whileLimit, i)
	g.open("if !%s.Truthy() {", g.genValue(classify(n.Condition)))
	g.stmt("break")
	g.close()
	g.genNodes(n.Children)
	g.close()
}

func (g *generator) genCase(n *ast.Case) {
	subject := g.fresh("c")

	g.open("{")
	g.stmt("%s := %s", subject, g.genValue(classify(n.Expr)))
	g.open("switch {")

	for i, arm := range n.Whens {
		g.chain("case value.Equal(%s, %s):",
			subject, g.genValue(classify(arm.Value)))

		// Fallthrough is structural, so it folds at generation time:
		// the arm's effective body is the first non-empty body at or
		// after it, nothing on an explicit break, else the default.
		g.genNodes(caseArmBody(n, i))
	}

	if len(n.DefaultChildren) > 0 {
		g.chain("default:")
		g.genNodes(n.DefaultChildren)
	}

	g.close()
	g.close()
}

// caseArmBody resolves fallthrough for the arm at start.
func caseArmBody(n *ast.Case, start int) []ast.Node {
	for i := start; i < len(n.Whens); i++ {
		arm := n.Whens[i]

		if len(arm.Children) > 0 {
			return arm.Children
		}

		if arm.HasBreak {
			return nil
		}
	}

	return n.DefaultChildren
}

func (g *generator) genMixinCall(call *ast.MixinCall) {
	def, err := g.resolved.Mixin(call.Name)
	if err != nil {
		g.err = err

		return
	}

	if slices.Contains(g.expanding, call.Name) {
		g.err = NewError(fmt.Sprintf("mixin %q expands recursively", call.Name)).
			Wrap(ErrCodegen).
			With(slog.String("mixin", call.Name))

		return
	}

	// Arguments and defaults are generated against the caller's
	// bindings before the mixin frame is pushed.
	names := map[string]string{}

	for i, param := range def.Params {
		switch {
		case i < len(call.Args):
			names[param] = "(" + g.genValue(classify(call.Args[i])) + ")"

		case def.Defaults[i] != "":
			names[param] = "(" + g.genValue(classify(def.Defaults[i])) + ")"

		default:
			names[param] = "value.Null"
		}
	}

	if def.HasRest {
		var rest []string

		for _, arg := range call.Args[min(len(def.Params), len(call.Args)):] {
			rest = append(rest, g.genValue(classify(arg)))
		}

		names[def.RestName] = fmt.Sprintf("value.Array(%s)", strings.Join(rest, ", "))
	}

	// Each call site gets its own scope block and an attributes record
	// numbered by expansion depth, so repeated and nested calls cannot
	// collide.
	attrsVar := fmt.Sprintf("attrs%d", len(g.expanding))
	names["attributes"] = attrsVar

	g.open("{")
	g.stmt("%s := %s", attrsVar, g.genCallAttributes(call))
	g.stmt("_ = %s", attrsVar)

	g.blockFrames = append(g.blockFrames, genBlockFrame{
		nodes: call.BlockChildren,
		depth: len(g.bindings),
	})
	g.expanding = append(g.expanding, call.Name)

	g.genScoped(def.Children, names)

	g.expanding = g.expanding[:len(g.expanding)-1]
	g.blockFrames = g.blockFrames[:len(g.blockFrames)-1]

	g.close()
}

// genCallAttributes builds the synthetic attributes record for one call
// site: class, id, and style always present, plus the call's named
// attributes, with any spread record merged over the top.
func (g *generator) genCallAttributes(call *ast.MixinCall) string {
	entries := map[string]string{
		"class": "",
		"id":    fmt.Sprintf("value.String(%s)", strconv.Quote(call.ID)),
		"style": `value.String("")`,
	}

	var classParts []string

	for _, c := range call.Classes {
		classParts = append(classParts, strconv.Quote(c))
	}

	for _, attr := range call.Attributes {
		text := g.genAttrValueText(attr.Name, attr.Value)
		if attr.Value == "" {
			text = strconv.Quote(attr.Name)
		}

		if attr.Name == "class" {
			classParts = append(classParts, text)

			continue
		}

		entries[attr.Name] = fmt.Sprintf("value.String(%s)", text)
	}

	switch len(classParts) {
	case 0:
		entries["class"] = `value.String("")`

	case 1:
		entries["class"] = fmt.Sprintf("value.String(%s)", classParts[0])

	default:
		entries["class"] = fmt.Sprintf("value.String(%s(%s))",
			g.rt("SpaceJoin"), strings.Join(classParts, ", "))
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var sb strings.Builder

	sb.WriteString("value.Object(map[string]value.Value{")

	for i, key := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}

		fmt.Fprintf(&sb, "%s: %s", strconv.Quote(key), entries[key])
	}

	sb.WriteString("})")

	record := sb.String()
	if call.Spread != "" {
		record = fmt.Sprintf("%s(%s, %s)",
			g.rt("MergeAttributes"), record, g.genSpreadValue(call.Spread))
	}

	return record
}

// genSpreadValue emits the record expression of one &attributes(...)
// argument.
func (g *generator) genSpreadValue(source string) string {
	if literalShape(source) == literalObject {
		pairs := parseObjectLiteral(source)

		var sb strings.Builder

		sb.WriteString("value.Object(map[string]value.Value{")

		for i, p := range pairs {
			if i > 0 {
				sb.WriteString(", ")
			}

			fmt.Fprintf(&sb, "%s: %s",
				strconv.Quote(p.key), g.genValue(classify(p.value)))
		}

		sb.WriteString("})")

		return sb.String()
	}

	return g.genValue(classify(source))
}

func (g *generator) genBlock(n *ast.Block) {
	if n.Name != "" {
		g.genNodes(n.Children)

		return
	}

	if len(g.blockFrames) == 0 {
		return
	}

	// Call-site block content expands against the caller's bindings.
	frame := g.blockFrames[len(g.blockFrames)-1]
	g.blockFrames = g.blockFrames[:len(g.blockFrames)-1]

	saved := g.bindings
	g.bindings = slices.Clone(g.bindings[:frame.depth])

	g.genNodes(frame.nodes)

	g.bindings = saved
	g.blockFrames = append(g.blockFrames, frame)
}

func (g *generator) genComment(n *ast.Comment) {
	if !n.Rendered {
		return
	}

	g.staticText("<!--")
	g.staticText(n.Content)

	for _, child := range n.Children {
		if raw, ok := child.(*ast.RawText); ok {
			g.staticText("\n")
			g.staticText(raw.Content)
		}
	}

	g.staticText("-->")
}

func (g *generator) genElement(el *ast.Element) {
	g.staticText("<" + el.Tag)

	if el.SpreadAttributes == "" {
		g.genPlainAttrs(el)
	} else {
		g.genSpreadAttrs(el)
	}

	if el.SelfClosing || voidElements[el.Tag] {
		g.staticText("/>")

		return
	}

	g.staticText(">")

	if el.BufferedCode != "" {
		g.writeExprText(el.BufferedCode, el.Escaped)
	}

	g.genSegments(el.InlineText)
	g.genNodes(el.Children)

	g.staticText("</" + el.Tag + ">")
}

// genPlainAttrs emits the attributes of an element without a spread
// record: merged class first, then id, then the written attributes in
// source order. Static values fold into the static run.
func (g *generator) genPlainAttrs(el *ast.Element) {
	staticClasses := append([]string{}, el.Classes...)

	var dynClasses []string

	for _, attr := range el.Attributes {
		if attr.Name != "class" {
			continue
		}

		if text, ok := g.staticAttrText(attr.Name, attr.Value); ok {
			staticClasses = append(staticClasses, text)
		} else {
			dynClasses = append(dynClasses, g.genAttrValueText(attr.Name, attr.Value))
		}
	}

	if len(dynClasses) == 0 {
		if class := mergeClass(staticClasses, ""); class != "" {
			g.staticText(` class="` + escapeHTML(class) + `"`)
		}
	} else {
		parts := make([]string, 0, len(staticClasses)+len(dynClasses))
		for _, c := range staticClasses {
			parts = append(parts, strconv.Quote(c))
		}

		parts = append(parts, dynClasses...)

		g.stmt("%s(buf, %s(%s))",
			g.rt("WriteClass"), g.rt("SpaceJoin"), strings.Join(parts, ", "))
	}

	if el.ID != "" {
		g.staticText(` id="` + escapeHTML(el.ID) + `"`)
	}

	for _, attr := range el.Attributes {
		if attr.Name != "class" {
			g.genAttr(attr)
		}
	}
}

// genSpreadAttrs emits the attributes of an element carrying an
// &attributes(...) record. The record's class merges into the class
// attribute, its id applies when the element declares none, and its
// remaining fields append after the written attributes.
func (g *generator) genSpreadAttrs(el *ast.Element) {
	spread := g.fresh("s")

	g.open("{")
	g.stmt("%s := %s", spread, g.genSpreadValue(el.SpreadAttributes))

	parts := make([]string, 0, len(el.Classes)+2)
	for _, c := range el.Classes {
		parts = append(parts, strconv.Quote(c))
	}

	for _, attr := range el.Attributes {
		if attr.Name == "class" {
			parts = append(parts, g.genAttrValueText(attr.Name, attr.Value))
		}
	}

	parts = append(parts, fmt.Sprintf(`%s.Field("class").Render()`, spread))

	g.stmt("%s(buf, %s(%s))",
		g.rt("WriteClass"), g.rt("SpaceJoin"), strings.Join(parts, ", "))

	if el.ID != "" {
		g.staticText(` id="` + escapeHTML(el.ID) + `"`)
	} else {
		g.stmt("%s(buf, %s.Field(\"id\").Render())", g.rt("WriteID"), spread)
	}

	for _, attr := range el.Attributes {
		if attr.Name != "class" {
			g.genAttr(attr)
		}
	}

	g.stmt(`%s(buf, %s, "class", "id")`, g.rt("WriteSpread"), spread)
	g.close()
}

// genAttr emits one written attribute, folding static values and
// applying the null/false drop rules.
func (g *generator) genAttr(attr ast.Attribute) {
	if attr.Value == "" {
		g.staticText(" " + attr.Name)

		return
	}

	if literalShape(attr.Value) == literalNone {
		e := classify(attr.Value)

		if isStaticExpr(e) {
			g.genStaticAttr(attr, e)

			return
		}

		g.stmt("%s(buf, %s, %s, %t)",
			g.rt("WriteAttr"), strconv.Quote(attr.Name), g.genValue(e), attr.Escaped)

		return
	}

	// Object and array literal values always emit.
	if text, ok := g.staticAttrText(attr.Name, attr.Value); ok {
		if attr.Escaped {
			text = escapeHTML(text)
		}

		g.staticText(` ` + attr.Name + `="` + text + `"`)

		return
	}

	text := g.genAttrValueText(attr.Name, attr.Value)
	if attr.Escaped {
		text = fmt.Sprintf("%s(%s)", g.rt("EscapeHTML"), text)
	}

	g.staticText(` ` + attr.Name + `="`)
	g.stmt("buf.WriteString(%s)", text)
	g.staticText(`"`)
}

// genStaticAttr folds a static scalar attribute at generation time.
func (g *generator) genStaticAttr(attr ast.Attribute, e expr) {
	switch e.kind {
	case exprEmpty, exprNull:
		return

	case exprBool:
		if e.flag {
			g.staticText(" " + attr.Name)
		}

		return
	}

	text := staticString(e)
	if attr.Escaped {
		text = escapeHTML(text)
	}

	g.staticText(` ` + attr.Name + `="` + text + `"`)
}

// staticAttrText folds one attribute value when every inner expression
// is static, reporting whether the fold applies.
func (g *generator) staticAttrText(name, raw string) (string, bool) {
	static := true

	fold := func(s string) string {
		e := classify(s)
		if !isStaticExpr(e) {
			static = false

			return ""
		}

		return staticString(e)
	}

	text := attrValueText(name, raw, fold)

	return text, static
}

// genAttrValueText emits a Go string expression composing one attribute
// value at runtime, honoring the object, style, and array forms.
func (g *generator) genAttrValueText(name, raw string) string {
	textOf := func(s string) string {
		return g.genText(classify(s))
	}

	switch literalShape(raw) {
	case literalObject:
		pairs := parseObjectLiteral(raw)

		args := make([]string, len(pairs))
		for i, p := range pairs {
			args[i] = fmt.Sprintf("%s{Key: %s, Text: %s}",
				g.rt("KeyText"), strconv.Quote(p.key), textOf(p.value))
		}

		helper := "CondKeys"
		if name == "style" {
			helper = "StyleDecls"
		}

		return fmt.Sprintf("%s(%s)", g.rt(helper), strings.Join(args, ", "))

	case literalArray:
		items := parseArrayLiteral(raw)

		args := make([]string, len(items))
		for i, item := range items {
			args[i] = textOf(item)
		}

		return fmt.Sprintf("%s(%s)", g.rt("SpaceJoin"), strings.Join(args, ", "))

	default:
		return textOf(raw)
	}
}

// write assembles the final source file.
func (g *generator) write(w io.Writer) error {
	var out bytes.Buffer

	out.WriteString("// Code generated by plume; DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", g.cfg.genPackage)

	out.WriteString("import (\n\t\"bytes\"\n\n")

	if g.usesRT {
		out.WriteString("\t\"github.com/ardnew/plume/lang\"\n")
	}

	out.WriteString("\t\"github.com/ardnew/plume/lang/value\"\n)\n\n")

	switch {
	case !g.dynamic && g.static.Len() == 0:
		fmt.Fprintf(&out, "// %s renders the %s template, which produces no output.\n",
			g.cfg.genFunc, g.cfg.genName)
		fmt.Fprintf(&out, "func %s(buf *bytes.Buffer, data value.Value) {}\n",
			g.cfg.genFunc)

	case !g.dynamic:
		constName := lowerFirst(g.cfg.genFunc) + "Static"

		fmt.Fprintf(&out, "// %s is the fully static output of the %s template.\n",
			constName, g.cfg.genName)
		fmt.Fprintf(&out, "const %s = %s\n\n",
			constName, strconv.Quote(g.static.String()))
		fmt.Fprintf(&out, "// %s renders the %s template.\n",
			g.cfg.genFunc, g.cfg.genName)
		fmt.Fprintf(&out, "func %s(buf *bytes.Buffer, data value.Value) {\n",
			g.cfg.genFunc)
		fmt.Fprintf(&out, "\tbuf.WriteString(%s)\n}\n", constName)

	default:
		g.flush()

		fmt.Fprintf(&out, "// %s renders the %s template.\n",
			g.cfg.genFunc, g.cfg.genName)
		fmt.Fprintf(&out, "func %s(buf *bytes.Buffer, data value.Value) {\n",
			g.cfg.genFunc)
		out.Write(g.body.Bytes())
		out.WriteString("}\n")
	}

	_, err := w.Write(out.Bytes())
	if err != nil {
		return NewError("write generated source").Wrap(err)
	}

	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}

	return strings.ToLower(s[:1]) + s[1:]
}
