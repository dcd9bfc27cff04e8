package parser_test

import (
	"errors"
	"testing"

	"github.com/ardnew/plume/lang/ast"
	"github.com/ardnew/plume/lang/parser"
)

func parse(t *testing.T, src string) *ast.Document {
	t.Helper()

	doc, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}

	return doc
}

func onlyNode[T ast.Node](t *testing.T, doc *ast.Document) T {
	t.Helper()

	if len(doc.Nodes) != 1 {
		t.Fatalf("got %d top-level nodes, want 1", len(doc.Nodes))
	}

	node, ok := doc.Nodes[0].(T)
	if !ok {
		t.Fatalf("node type = %T, want %T", doc.Nodes[0], node)
	}

	return node
}

func TestParse_Element(t *testing.T) {
	t.Run("shorthand defaults to div", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, ".container#main"))

		if el.Tag != "div" {
			t.Errorf("Tag = %q, want %q", el.Tag, "div")
		}

		if len(el.Classes) != 1 || el.Classes[0] != "container" {
			t.Errorf("Classes = %v, want [container]", el.Classes)
		}

		if el.ID != "main" {
			t.Errorf("ID = %q, want %q", el.ID, "main")
		}
	})

	t.Run("attributes and inline text", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, `a(href="/home" download) Home`))

		if len(el.Attributes) != 2 {
			t.Fatalf("got %d attributes, want 2", len(el.Attributes))
		}

		if el.Attributes[0].Name != "href" ||
			el.Attributes[0].Value != `"/home"` {
			t.Errorf("attr[0] = %+v, want href=%q", el.Attributes[0], `"/home"`)
		}

		if el.Attributes[1].Name != "download" ||
			el.Attributes[1].Value != "" {
			t.Errorf("attr[1] = %+v, want boolean download", el.Attributes[1])
		}

		if len(el.InlineText) != 1 ||
			el.InlineText[0].Kind != ast.SegmentLiteral ||
			el.InlineText[0].Text != "Home" {
			t.Errorf("InlineText = %+v, want literal Home", el.InlineText)
		}
	})

	t.Run("unescaped attribute", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, "div(html!= markup)"))

		if el.Attributes[0].Escaped {
			t.Error("attribute Escaped = true, want false")
		}
	})

	t.Run("buffered code", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, "p= user.name"))

		if el.BufferedCode != "user.name" {
			t.Errorf("BufferedCode = %q, want %q", el.BufferedCode, "user.name")
		}

		if !el.Escaped {
			t.Error("Escaped = false, want true")
		}
	})

	t.Run("self closing", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, "input(type=\"text\")/"))

		if !el.SelfClosing {
			t.Error("SelfClosing = false, want true")
		}
	})

	t.Run("block expansion nests child", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, "li: a Home"))

		if el.Tag != "li" {
			t.Errorf("Tag = %q, want li", el.Tag)
		}

		if len(el.Children) != 1 {
			t.Fatalf("got %d children, want 1", len(el.Children))
		}

		child, ok := el.Children[0].(*ast.Element)
		if !ok || child.Tag != "a" {
			t.Errorf("child = %+v, want element a", el.Children[0])
		}
	})

	t.Run("nested children", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, "ul\n  li one\n  li two"))

		if len(el.Children) != 2 {
			t.Fatalf("got %d children, want 2", len(el.Children))
		}
	})

	t.Run("spread attributes", func(t *testing.T) {
		el := onlyNode[*ast.Element](t, parse(t, "div&attributes(extra)"))

		if el.SpreadAttributes != "extra" {
			t.Errorf("SpreadAttributes = %q, want extra", el.SpreadAttributes)
		}
	})
}

func TestParse_InterpolationSegments(t *testing.T) {
	el := onlyNode[*ast.Element](t, parse(t, "p Hello, #{ name }!"))

	want := []ast.Segment{
		{Kind: ast.SegmentLiteral, Text: "Hello, "},
		{Kind: ast.SegmentEscaped, Text: "name"},
		{Kind: ast.SegmentLiteral, Text: "!"},
	}

	if len(el.InlineText) != len(want) {
		t.Fatalf("got %d segments, want %d", len(el.InlineText), len(want))
	}

	for i, w := range want {
		if el.InlineText[i].Kind != w.Kind || el.InlineText[i].Text != w.Text {
			t.Errorf("segment[%d] = %+v, want %+v", i, el.InlineText[i], w)
		}
	}
}

func TestParse_InlineTagSegment(t *testing.T) {
	el := onlyNode[*ast.Element](t, parse(t, "p see #[a(href=\"/x\") docs] here"))

	if len(el.InlineText) != 3 {
		t.Fatalf("got %d segments, want 3", len(el.InlineText))
	}

	seg := el.InlineText[1]
	if seg.Kind != ast.SegmentTag || seg.Tag == nil {
		t.Fatalf("segment[1] = %+v, want inline tag", seg)
	}

	if seg.Tag.Tag != "a" {
		t.Errorf("inline tag = %q, want a", seg.Tag.Tag)
	}
}

func TestParse_Conditional(t *testing.T) {
	src := "if loggedIn\n  p yes\nelse if pending\n  p wait\nelse\n  p no"

	cond := onlyNode[*ast.Conditional](t, parse(t, src))

	if len(cond.Branches) != 3 {
		t.Fatalf("got %d branches, want 3", len(cond.Branches))
	}

	if cond.Branches[0].Condition != "loggedIn" {
		t.Errorf("branch[0].Condition = %q, want loggedIn",
			cond.Branches[0].Condition)
	}

	if cond.Branches[1].Condition != "pending" {
		t.Errorf("branch[1].Condition = %q, want pending",
			cond.Branches[1].Condition)
	}

	if cond.Branches[2].Condition != "" {
		t.Errorf("branch[2].Condition = %q, want empty else",
			cond.Branches[2].Condition)
	}
}

func TestParse_Unless(t *testing.T) {
	cond := onlyNode[*ast.Conditional](t, parse(t, "unless hidden\n  p shown"))

	if !cond.Branches[0].IsUnless {
		t.Error("IsUnless = false, want true")
	}
}

func TestParse_Each(t *testing.T) {
	src := "each item, i in items\n  li= item\nelse\n  p empty"

	each := onlyNode[*ast.Each](t, parse(t, src))

	if each.ValueName != "item" || each.IndexName != "i" {
		t.Errorf("bindings = %q, %q, want item, i",
			each.ValueName, each.IndexName)
	}

	if each.Collection != "items" {
		t.Errorf("Collection = %q, want items", each.Collection)
	}

	if len(each.Children) != 1 || len(each.ElseChildren) != 1 {
		t.Errorf("children = %d, else = %d, want 1 and 1",
			len(each.Children), len(each.ElseChildren))
	}
}

func TestParse_While(t *testing.T) {
	while := onlyNode[*ast.While](t, parse(t, "while hasNext\n  p more"))

	if while.Condition != "hasNext" {
		t.Errorf("Condition = %q, want hasNext", while.Condition)
	}

	if len(while.Children) != 1 {
		t.Errorf("got %d children, want 1", len(while.Children))
	}
}

func TestParse_Case(t *testing.T) {
	src := "case status\n  when \"active\"\n    p running\n  when \"idle\"\n  when \"off\"\n    p stopped\n  default\n    p unknown"

	c := onlyNode[*ast.Case](t, parse(t, src))

	if c.Expr != "status" {
		t.Errorf("Expr = %q, want status", c.Expr)
	}

	if len(c.Whens) != 3 {
		t.Fatalf("got %d when arms, want 3", len(c.Whens))
	}

	// The middle arm is empty and falls through to the next arm.
	if len(c.Whens[1].Children) != 0 || c.Whens[1].HasBreak {
		t.Errorf("arm[1] = %+v, want empty fallthrough", c.Whens[1])
	}

	if len(c.DefaultChildren) != 1 {
		t.Errorf("got %d default children, want 1", len(c.DefaultChildren))
	}
}

func TestParse_CaseBreakArm(t *testing.T) {
	src := "case x\n  when \"skip\"\n    break\n  default\n    p rest"

	c := onlyNode[*ast.Case](t, parse(t, src))

	if !c.Whens[0].HasBreak {
		t.Error("HasBreak = false, want true")
	}

	if len(c.Whens[0].Children) != 0 {
		t.Errorf("got %d children, want 0", len(c.Whens[0].Children))
	}
}

func TestParse_MixinDef(t *testing.T) {
	src := "mixin card(title, subtitle='none', ...rest)\n  h2= title"

	def := onlyNode[*ast.MixinDef](t, parse(t, src))

	if def.Name != "card" {
		t.Errorf("Name = %q, want card", def.Name)
	}

	if len(def.Params) != 2 || def.Params[0] != "title" ||
		def.Params[1] != "subtitle" {
		t.Errorf("Params = %v, want [title subtitle]", def.Params)
	}

	if def.Defaults[0] != "" || def.Defaults[1] != "'none'" {
		t.Errorf("Defaults = %v, want [ 'none']", def.Defaults)
	}

	if !def.HasRest || def.RestName != "rest" {
		t.Errorf("rest = %v %q, want true rest", def.HasRest, def.RestName)
	}
}

func TestParse_MixinCall(t *testing.T) {
	t.Run("positional args", func(t *testing.T) {
		call := onlyNode[*ast.MixinCall](t, parse(t, "+card('Hi', 42)"))

		if call.Name != "card" {
			t.Errorf("Name = %q, want card", call.Name)
		}

		if len(call.Args) != 2 || call.Args[0] != "'Hi'" ||
			call.Args[1] != "42" {
			t.Errorf("Args = %v, want ['Hi' 42]", call.Args)
		}

		if call.Attributes != nil {
			t.Errorf("Attributes = %v, want nil", call.Attributes)
		}
	})

	t.Run("single group of attributes", func(t *testing.T) {
		call := onlyNode[*ast.MixinCall](t, parse(t, "+card(class='wide')"))

		if len(call.Args) != 0 {
			t.Errorf("Args = %v, want none", call.Args)
		}

		if len(call.Attributes) != 1 ||
			call.Attributes[0].Name != "class" ||
			call.Attributes[0].Value != "'wide'" {
			t.Errorf("Attributes = %v, want class='wide'", call.Attributes)
		}
	})

	t.Run("args then attributes", func(t *testing.T) {
		call := onlyNode[*ast.MixinCall](t,
			parse(t, "+card('Hi')(class='wide')"))

		if len(call.Args) != 1 || call.Args[0] != "'Hi'" {
			t.Errorf("Args = %v, want ['Hi']", call.Args)
		}

		if len(call.Attributes) != 1 || call.Attributes[0].Name != "class" {
			t.Errorf("Attributes = %v, want class", call.Attributes)
		}
	})

	t.Run("quoted comparison is positional", func(t *testing.T) {
		// The '=' inside a quoted string must not make the group
		// attribute-shaped.
		call := onlyNode[*ast.MixinCall](t, parse(t, "+op(lhs == \"a=b\")"))

		if len(call.Args) != 1 {
			t.Errorf("Args = %v, want one positional", call.Args)
		}
	})

	t.Run("nested block content", func(t *testing.T) {
		call := onlyNode[*ast.MixinCall](t, parse(t, "+card\n  p body"))

		if len(call.BlockChildren) != 1 {
			t.Errorf("got %d block children, want 1", len(call.BlockChildren))
		}
	})
}

func TestParse_ExtendsAndBlocks(t *testing.T) {
	src := "extends layouts/base\nblock content\n  p hi\nblock append scripts\n  script."

	doc := parse(t, src)

	if doc.ExtendsPath != "layouts/base" {
		t.Errorf("ExtendsPath = %q, want layouts/base", doc.ExtendsPath)
	}

	if len(doc.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(doc.Nodes))
	}

	first, ok := doc.Nodes[0].(*ast.Block)
	if !ok || first.Name != "content" || first.Mode != ast.BlockReplace {
		t.Errorf("node[0] = %+v, want block content replace", doc.Nodes[0])
	}

	second, ok := doc.Nodes[1].(*ast.Block)
	if !ok || second.Name != "scripts" || second.Mode != ast.BlockAppend {
		t.Errorf("node[1] = %+v, want block scripts append", doc.Nodes[1])
	}
}

func TestParse_Include(t *testing.T) {
	inc := onlyNode[*ast.Include](t, parse(t, "include:verbatim raw.html"))

	if inc.Filter != "verbatim" {
		t.Errorf("Filter = %q, want verbatim", inc.Filter)
	}

	if inc.Path != "raw.html" {
		t.Errorf("Path = %q, want raw.html", inc.Path)
	}
}

func TestParse_Comments(t *testing.T) {
	t.Run("rendered with body", func(t *testing.T) {
		c := onlyNode[*ast.Comment](t, parse(t, "// note\n  line two"))

		if !c.Rendered {
			t.Error("Rendered = false, want true")
		}

		if len(c.Children) != 1 {
			t.Errorf("got %d children, want 1", len(c.Children))
		}
	})

	t.Run("silent", func(t *testing.T) {
		c := onlyNode[*ast.Comment](t, parse(t, "//- hidden"))

		if c.Rendered {
			t.Error("Rendered = true, want false")
		}
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{
			name:  "extends after content",
			input: "p hi\nextends base",
			code:  parser.CodeStructure,
		},
		{
			name:  "dangling else",
			input: "else\n  p no",
			code:  parser.CodeStructure,
		},
		{
			name:  "duplicate id shorthand",
			input: "div#a#b",
			code:  parser.CodeDuplicate,
		},
		{
			name:  "duplicate attribute",
			input: `div(title="a" title="b")`,
			code:  parser.CodeDuplicate,
		},
		{
			name:  "block placeholder outside mixin",
			input: "block",
			code:  parser.CodeScope,
		},
		{
			name:  "rest parameter not last",
			input: "mixin bad(...rest, tail)",
			code:  parser.CodeStructure,
		},
		{
			name:  "case arm must be when or default",
			input: "case x\n  p stray",
			code:  parser.CodeUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}

			parseErr := &parser.Error{}
			if !errors.As(err, &parseErr) {
				t.Fatalf("error type = %T, want *parser.Error", err)
			}

			if parseErr.Code != tt.code {
				t.Errorf("error code = %q, want %q", parseErr.Code, tt.code)
			}
		})
	}
}

func TestParse_ClassAttributesAccumulate(t *testing.T) {
	el := onlyNode[*ast.Element](t, parse(t, `div.first(class="second")`))

	if len(el.Classes) != 1 || el.Classes[0] != "first" {
		t.Errorf("Classes = %v, want [first]", el.Classes)
	}

	if len(el.Attributes) != 1 || el.Attributes[0].Name != "class" {
		t.Errorf("Attributes = %v, want one class attribute", el.Attributes)
	}
}
