package lang

import (
	"bytes"
	"strings"

	"github.com/ardnew/plume/lang/value"
)

// Output semantics shared by the runtime interpreter and by generated
// renderers: HTML escaping, doctype shorthands, void elements, and
// attribute value composition. Both backends go through these helpers
// so their output agrees byte for byte. The exported subset is the
// runtime support surface that generated code links against.

// htmlEscaper encodes the five characters that are unsafe in element
// content and double-quoted attribute values.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML encodes &, <, >, double quote, and single quote.
func EscapeHTML(s string) string {
	// Scan first so the common all-clean case allocates nothing.
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}

	return htmlEscaper.Replace(s)
}

func escapeHTML(s string) string { return EscapeHTML(s) }

// doctypeShorthands maps the conventional doctype keywords to their
// declarations. Unrecognized values render verbatim.
var doctypeShorthands = map[string]string{
	"html":         "<!DOCTYPE html>",
	"xml":          `<?xml version="1.0" encoding="utf-8" ?>`,
	"transitional": `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`,
	"strict":       `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">`,
	"frameset":     `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Frameset//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-frameset.dtd">`,
	"1.1":          `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">`,
	"basic":        `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML Basic 1.1//EN" "http://www.w3.org/TR/xhtml-basic/xhtml-basic11.dtd">`,
	"mobile":       `<!DOCTYPE html PUBLIC "-//WAPFORUM//DTD XHTML Mobile 1.2//EN" "http://www.openmobilealliance.org/tech/DTD/xhtml-mobile12.dtd">`,
}

// doctypeFor renders one doctype declaration. An empty value defaults
// to the html shorthand.
func doctypeFor(v string) string {
	if v == "" {
		v = "html"
	}

	if decl, ok := doctypeShorthands[v]; ok {
		return decl
	}

	return "<!DOCTYPE " + v + ">"
}

// voidElements never take children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// KeyText is one key with its rendered value text, used for composing
// object-literal attribute values.
type KeyText struct {
	Key  string
	Text string
}

// StyleDecls renders pairs as CSS declarations: key:value; per pair.
func StyleDecls(pairs ...KeyText) string {
	var sb strings.Builder

	for _, p := range pairs {
		sb.WriteString(p.Key)
		sb.WriteByte(':')
		sb.WriteString(p.Text)
		sb.WriteByte(';')
	}

	return sb.String()
}

// CondKeys returns the keys whose value text is truthy, space-joined.
// This is the conditional-class form: {active: isActive, hidden: false}.
func CondKeys(pairs ...KeyText) string {
	var keys []string

	for _, p := range pairs {
		switch p.Text {
		case "", "false":
		default:
			keys = append(keys, p.Key)
		}
	}

	return strings.Join(keys, " ")
}

// SpaceJoin joins the non-empty items with single spaces.
func SpaceJoin(items ...string) string {
	parts := items[:0:0]

	for _, item := range items {
		if item != "" {
			parts = append(parts, item)
		}
	}

	return strings.Join(parts, " ")
}

// WriteAttr writes one attribute with the standard value rules: null
// and false drop the attribute, true writes a bare boolean attribute,
// anything else writes name="text".
func WriteAttr(buf *bytes.Buffer, name string, v value.Value, escape bool) {
	switch {
	case v.IsNull():
		return

	case v.Kind() == value.KindBool:
		if v.Bool() {
			buf.WriteByte(' ')
			buf.WriteString(name)
		}

		return
	}

	text := v.Render()
	if escape {
		text = EscapeHTML(text)
	}

	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(text)
	buf.WriteByte('"')
}

// WriteSpread writes every field of an &attributes(...) record except
// the skipped names, in sorted order, applying [WriteAttr] rules.
func WriteSpread(buf *bytes.Buffer, v value.Value, skip ...string) {
	for _, key := range v.Keys() {
		skipped := false

		for _, s := range skip {
			if key == s {
				skipped = true

				break
			}
		}

		if !skipped {
			WriteAttr(buf, key, v.Field(key), true)
		}
	}
}

// WriteClass writes a class attribute unless the merged list is empty.
func WriteClass(buf *bytes.Buffer, class string) {
	if class == "" {
		return
	}

	buf.WriteString(` class="`)
	buf.WriteString(EscapeHTML(class))
	buf.WriteByte('"')
}

// WriteID writes an id attribute unless the id is empty.
func WriteID(buf *bytes.Buffer, id string) {
	if id == "" {
		return
	}

	buf.WriteString(` id="`)
	buf.WriteString(EscapeHTML(id))
	buf.WriteByte('"')
}

// MergeAttributes overlays spread fields onto a call-site attributes
// record: class lists merge, every other field overwrites.
func MergeAttributes(base, spread value.Value) value.Value {
	fields := map[string]value.Value{}

	for k, v := range base.Fields() {
		fields[k] = v
	}

	for k, v := range spread.Fields() {
		if k == "class" {
			fields[k] = value.String(SpaceJoin(fields[k].Render(), v.Render()))

			continue
		}

		fields[k] = v
	}

	return value.Object(fields)
}

// attrValueText composes the final text of one attribute value. Object
// literals become key:value; pairs when the attribute is style and a
// truthy-key list otherwise; array literals are space-joined; anything
// else is evaluated as one expression. eval renders one expression
// string to output text.
func attrValueText(name, raw string, eval func(string) string) string {
	switch literalShape(raw) {
	case literalObject:
		pairs := evalPairs(parseObjectLiteral(raw), eval)
		if name == "style" {
			return StyleDecls(pairs...)
		}

		return CondKeys(pairs...)

	case literalArray:
		items := parseArrayLiteral(raw)

		texts := make([]string, len(items))
		for i, item := range items {
			texts[i] = eval(item)
		}

		return SpaceJoin(texts...)

	default:
		return eval(raw)
	}
}

func evalPairs(pairs []objectPair, eval func(string) string) []KeyText {
	out := make([]KeyText, len(pairs))

	for i, p := range pairs {
		out[i] = KeyText{Key: p.key, Text: eval(p.value)}
	}

	return out
}

// mergeClass combines shorthand classes with a class attribute value
// into one space-joined attribute, dropping empties.
func mergeClass(shorthand []string, extra string) string {
	return SpaceJoin(append(append([]string{}, shorthand...), extra)...)
}
