package lang

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   expr
	}{
		{"empty", "   ", expr{kind: exprEmpty}},
		{"double quoted", `"hi"`, expr{kind: exprString, str: "hi"}},
		{"single quoted", "'hi'", expr{kind: exprString, str: "hi"}},
		{"escapes in double quotes", `"a\"b"`, expr{kind: exprString, str: `a"b`}},
		{"integer", "42", expr{kind: exprInt, num: 42}},
		{"negative integer", "-3", expr{kind: exprInt, num: -3}},
		{"true", "true", expr{kind: exprBool, flag: true}},
		{"false", "false", expr{kind: exprBool}},
		{"null", "null", expr{kind: exprNull}},
		{"nil alias", "nil", expr{kind: exprNull}},
		{"bare name", "user", expr{kind: exprPath, str: "user"}},
		{"dotted path", "user.name", expr{kind: exprPath, str: "user.name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.source); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("classify(%q) = %+v, want %+v", tt.source, got, tt.want)
			}
		})
	}
}

func TestClassify_Compare(t *testing.T) {
	e := classify(`status == "on"`)

	if e.kind != exprCompare || e.negate {
		t.Fatalf("classify = %+v, want equality compare", e)
	}

	if e.str != "on" {
		t.Errorf("literal = %q, want %q", e.str, "on")
	}

	if e.left.kind != exprPath || e.left.str != "status" {
		t.Errorf("operand = %+v, want path status", e.left)
	}

	ne := classify(`status != "on"`)
	if ne.kind != exprCompare || !ne.negate {
		t.Errorf("classify = %+v, want negated compare", ne)
	}
}

func TestClassify_CompareInsideQuotesIgnored(t *testing.T) {
	// The operator appears only inside a string literal.
	e := classify(`"a == b"`)

	if e.kind != exprString || e.str != "a == b" {
		t.Errorf("classify = %+v, want string literal", e)
	}
}

func TestClassify_Concat(t *testing.T) {
	e := classify(`"/user/" + id`)

	if e.kind != exprConcat {
		t.Fatalf("classify = %+v, want concat", e)
	}

	if e.left.kind != exprString || e.left.str != "/user/" {
		t.Errorf("left = %+v, want string /user/", e.left)
	}

	if e.right.kind != exprPath || e.right.str != "id" {
		t.Errorf("right = %+v, want path id", e.right)
	}
}

func TestClassify_ConcatPlusInsideQuotes(t *testing.T) {
	e := classify(`"a + b"`)

	if e.kind != exprString || e.str != "a + b" {
		t.Errorf("classify = %+v, want string literal", e)
	}
}

func TestLiteralShape(t *testing.T) {
	tests := []struct {
		source string
		want   literalKind
	}{
		{`{color: "red"}`, literalObject},
		{`  {a: 1}  `, literalObject},
		{`["a", "b"]`, literalArray},
		{`"plain"`, literalNone},
		{`user.name`, literalNone},
	}

	for _, tt := range tests {
		if got := literalShape(tt.source); got != tt.want {
			t.Errorf("literalShape(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestParseObjectLiteral(t *testing.T) {
	pairs := parseObjectLiteral(`{color: "red", "font-size": size, margin: "0, 1"}`)

	want := []objectPair{
		{key: "color", value: `"red"`},
		{key: "font-size", value: "size"},
		{key: "margin", value: `"0, 1"`},
	}

	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs = %+v, want %+v", pairs, want)
	}
}

func TestParseArrayLiteral(t *testing.T) {
	items := parseArrayLiteral(`["a", name, "c,d", ]`)

	want := []string{`"a"`, "name", `"c,d"`}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
}

func TestSplitOutsideQuotes(t *testing.T) {
	got := splitOutsideQuotes(`a, "x, y", {k: 1, j: 2}, b`, ',')

	want := []string{"a", ` "x, y"`, ` {k: 1, j: 2}`, " b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parts = %q, want %q", got, want)
	}
}

func TestStaticFolding(t *testing.T) {
	tests := []struct {
		source string
		fold   string
	}{
		{`"a" + "b"`, "ab"},
		{`"n=" + 5`, "n=5"},
		{"true", "true"},
		{"null", ""},
	}

	for _, tt := range tests {
		e := classify(tt.source)
		if !isStaticExpr(e) {
			t.Errorf("classify(%q) should be static", tt.source)

			continue
		}

		if got := staticString(e); got != tt.fold {
			t.Errorf("staticString(%q) = %q, want %q", tt.source, got, tt.fold)
		}
	}

	if isStaticExpr(classify(`"a" + name`)) {
		t.Error("concat with a path operand should not be static")
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		source string
		want   string
		ok     bool
	}{
		{`"hi"`, "hi", true},
		{"'hi'", "hi", true},
		{"`hi`", "hi", true},
		{`"mismatched'`, "", false},
		{"bare", "", false},
		{`"`, "", false},
	}

	for _, tt := range tests {
		got, ok := unquote(tt.source)
		if got != tt.want || ok != tt.ok {
			t.Errorf("unquote(%q) = %q, %t; want %q, %t",
				tt.source, got, ok, tt.want, tt.ok)
		}
	}
}
