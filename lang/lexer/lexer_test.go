package lexer_test

import (
	"errors"
	"testing"

	"github.com/ardnew/plume/lang/lexer"
	"github.com/ardnew/plume/lang/token"
)

// kindText pairs a token kind with its text for compact expectations.
type kindText struct {
	kind token.Kind
	text string
}

func scan(t *testing.T, src string) []token.Token {
	t.Helper()

	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("Scan(%q) failed: %v", src, err)
	}

	return tokens
}

func assertTokens(t *testing.T, got []token.Token, want []kindText) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}

	for i, w := range want {
		if got[i].Kind != w.kind {
			t.Errorf("token[%d].Kind = %v, want %v", i, got[i].Kind, w.kind)
		}

		if got[i].Text != w.text {
			t.Errorf("token[%d].Text = %q, want %q", i, got[i].Text, w.text)
		}
	}
}

func TestScan_Element(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []kindText
	}{
		{
			name:  "tag only",
			input: "div",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "div"},
				{token.EOF, ""},
			},
		},
		{
			name:  "tag with class and id shorthand",
			input: "div.container#main",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "div"},
				{token.Class, "container"},
				{token.ID, "main"},
				{token.EOF, ""},
			},
		},
		{
			name:  "bare class implies div",
			input: ".wide",
			want: []kindText{
				{token.Newline, ""},
				{token.Class, "wide"},
				{token.EOF, ""},
			},
		},
		{
			name:  "inline text",
			input: "p Hello",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "p"},
				{token.Text, "Hello"},
				{token.EOF, ""},
			},
		},
		{
			name:  "buffered code",
			input: "p= user.name",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "p"},
				{token.Assign, "="},
				{token.Word, "user.name"},
				{token.EOF, ""},
			},
		},
		{
			name:  "unescaped buffered code",
			input: "p!= body",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "p"},
				{token.AssignRaw, "!="},
				{token.Word, "body"},
				{token.EOF, ""},
			},
		},
		{
			name:  "self closing marker",
			input: "br/",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "br"},
				{token.Word, "/"},
				{token.EOF, ""},
			},
		},
		{
			name:  "block expansion",
			input: "li: a Home",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "li"},
				{token.Colon, ":"},
				{token.Tag, "a"},
				{token.Text, "Home"},
				{token.EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, scan(t, tt.input), tt.want)
		})
	}
}

func TestScan_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []kindText
	}{
		{
			name:  "quoted values",
			input: `a(href="/home" target="_blank") Home`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "a"},
				{token.LParen, "("},
				{token.AttrName, "href"},
				{token.Assign, "="},
				{token.AttrValue, `"/home"`},
				{token.AttrName, "target"},
				{token.Assign, "="},
				{token.AttrValue, `"_blank"`},
				{token.RParen, ")"},
				{token.Text, "Home"},
				{token.EOF, ""},
			},
		},
		{
			name:  "boolean attribute",
			input: `input(type="checkbox" checked)`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "input"},
				{token.LParen, "("},
				{token.AttrName, "type"},
				{token.Assign, "="},
				{token.AttrValue, `"checkbox"`},
				{token.AttrName, "checked"},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
		{
			name:  "unescaped attribute value",
			input: `div(data-raw!= markup)`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "div"},
				{token.LParen, "("},
				{token.AttrName, "data-raw"},
				{token.AssignRaw, "!="},
				{token.AttrValue, "markup"},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
		{
			name:  "object literal value keeps embedded commas",
			input: `div(style={color: "red", margin: "0"})`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "div"},
				{token.LParen, "("},
				{token.AttrName, "style"},
				{token.Assign, "="},
				{token.AttrValue, `{color: "red", margin: "0"}`},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
		{
			name:  "concatenation with spaced operator",
			input: `a(href="/user/" + id) profile`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "a"},
				{token.LParen, "("},
				{token.AttrName, "href"},
				{token.Assign, "="},
				{token.AttrValue, `"/user/" + id`},
				{token.RParen, ")"},
				{token.Text, "profile"},
				{token.EOF, ""},
			},
		},
		{
			name:  "concatenation followed by another attribute",
			input: `a(href="/user/" + id title="go")`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "a"},
				{token.LParen, "("},
				{token.AttrName, "href"},
				{token.Assign, "="},
				{token.AttrValue, `"/user/" + id`},
				{token.AttrName, "title"},
				{token.Assign, "="},
				{token.AttrValue, `"go"`},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
		{
			name:  "attribute spread",
			input: `div&attributes(extra)`,
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "div"},
				{token.AttrSpread, "extra"},
				{token.EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, scan(t, tt.input), tt.want)
		})
	}
}

func TestScan_Indentation(t *testing.T) {
	src := "ul\n  li one\n  li two\n"

	want := []kindText{
		{token.Newline, ""},
		{token.Tag, "ul"},
		{token.Indent, ""},
		{token.Tag, "li"},
		{token.Text, "one"},
		{token.Newline, ""},
		{token.Tag, "li"},
		{token.Text, "two"},
		{token.Dedent, ""},
		{token.EOF, ""},
	}

	assertTokens(t, scan(t, src), want)
}

func TestScan_IndentDedentBalance(t *testing.T) {
	src := "html\n  body\n    div\n      p deep\nfooter\n"

	indents, dedents := 0, 0

	for _, tok := range scan(t, src) {
		switch tok.Kind {
		case token.Indent:
			indents++
		case token.Dedent:
			dedents++
		}
	}

	if indents != dedents {
		t.Errorf("got %d indents and %d dedents, want equal", indents, dedents)
	}

	if indents != 3 {
		t.Errorf("got %d indents, want 3", indents)
	}
}

func TestScan_DanglingIndentClosedAtEOF(t *testing.T) {
	src := "div\n  p\n    span"

	tokens := scan(t, src)

	// The last two tokens before EOF must close both open levels.
	n := len(tokens)
	if n < 3 {
		t.Fatalf("got %d tokens, want at least 3", n)
	}

	if tokens[n-1].Kind != token.EOF {
		t.Errorf("last token = %v, want EOF", tokens[n-1].Kind)
	}

	for _, i := range []int{n - 2, n - 3} {
		if tokens[i].Kind != token.Dedent {
			t.Errorf("token[%d] = %v, want Dedent", i, tokens[i].Kind)
		}
	}
}

func TestScan_Interpolation(t *testing.T) {
	src := "p Hello, #{name}! You have !{count} items."

	want := []kindText{
		{token.Newline, ""},
		{token.Tag, "p"},
		{token.Text, "Hello, "},
		{token.InterpEscaped, "name"},
		{token.Text, "! You have "},
		{token.InterpUnescaped, "count"},
		{token.Text, " items."},
		{token.EOF, ""},
	}

	assertTokens(t, scan(t, src), want)
}

func TestScan_EscapedInterpolationMarker(t *testing.T) {
	src := `p \#{literal}`

	want := []kindText{
		{token.Newline, ""},
		{token.Tag, "p"},
		{token.Text, "#{"},
		{token.Text, "literal}"},
		{token.EOF, ""},
	}

	assertTokens(t, scan(t, src), want)
}

func TestScan_Keywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []kindText
	}{
		{
			name:  "each with index",
			input: "each item, i in items",
			want: []kindText{
				{token.Newline, ""},
				{token.Each, "each"},
				{token.Word, "item"},
				{token.Comma, ","},
				{token.Word, "i"},
				{token.Word, "in"},
				{token.Word, "items"},
				{token.EOF, ""},
			},
		},
		{
			name:  "for is an alias of each",
			input: "for x in xs",
			want: []kindText{
				{token.Newline, ""},
				{token.Each, "for"},
				{token.Word, "x"},
				{token.Word, "in"},
				{token.Word, "xs"},
				{token.EOF, ""},
			},
		},
		{
			name:  "else if chain",
			input: "else if loggedIn",
			want: []kindText{
				{token.Newline, ""},
				{token.Else, "else"},
				{token.If, "if"},
				{token.Word, "loggedIn"},
				{token.EOF, ""},
			},
		},
		{
			name:  "keyword prefix is a tag name",
			input: "eachother",
			want: []kindText{
				{token.Newline, ""},
				{token.Tag, "eachother"},
				{token.EOF, ""},
			},
		},
		{
			name:  "include with filter",
			input: "include:verbatim snippets/raw.html",
			want: []kindText{
				{token.Newline, ""},
				{token.Include, "include"},
				{token.Colon, ":"},
				{token.Word, "verbatim"},
				{token.Word, "snippets/raw.html"},
				{token.EOF, ""},
			},
		},
		{
			name:  "block append",
			input: "block append scripts",
			want: []kindText{
				{token.Newline, ""},
				{token.Block, "block"},
				{token.Append, "append"},
				{token.Word, "scripts"},
				{token.EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, scan(t, tt.input), tt.want)
		})
	}
}

func TestScan_MixinDefinitionAndCall(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []kindText
	}{
		{
			name:  "definition with defaults",
			input: "mixin card(title, subtitle='none')",
			want: []kindText{
				{token.Newline, ""},
				{token.Mixin, "mixin"},
				{token.Word, "card"},
				{token.LParen, "("},
				{token.Arg, "title"},
				{token.Arg, "subtitle='none'"},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
		{
			name:  "call with args and attributes",
			input: "+card('Hi')(class='wide')",
			want: []kindText{
				{token.Newline, ""},
				{token.MixinCall, "card"},
				{token.LParen, "("},
				{token.Arg, "'Hi'"},
				{token.RParen, ")"},
				{token.LParen, "("},
				{token.Arg, "class='wide'"},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
		{
			name:  "rest parameter",
			input: "mixin list(head, ...tail)",
			want: []kindText{
				{token.Newline, ""},
				{token.Mixin, "mixin"},
				{token.Word, "list"},
				{token.LParen, "("},
				{token.Arg, "head"},
				{token.Arg, "...tail"},
				{token.RParen, ")"},
				{token.EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, scan(t, tt.input), tt.want)
		})
	}
}

func TestScan_RawBlock(t *testing.T) {
	src := "script.\n  var x = 1;\n  if (x) { go(); }\np after"

	want := []kindText{
		{token.Newline, ""},
		{token.Tag, "script"},
		{token.Dot, "."},
		{token.RawText, "var x = 1;"},
		{token.RawText, "if (x) { go(); }"},
		{token.Newline, ""},
		{token.Tag, "p"},
		{token.Text, "after"},
		{token.EOF, ""},
	}

	assertTokens(t, scan(t, src), want)
}

func TestScan_RawBlockRelativeIndent(t *testing.T) {
	src := "pre.\n  line one\n    nested deeper\np"

	want := []kindText{
		{token.Newline, ""},
		{token.Tag, "pre"},
		{token.Dot, "."},
		{token.RawText, "line one"},
		{token.RawText, "  nested deeper"},
		{token.Newline, ""},
		{token.Tag, "p"},
		{token.EOF, ""},
	}

	assertTokens(t, scan(t, src), want)
}

func TestScan_Comments(t *testing.T) {
	src := "// visible\n//- hidden\n| plain text"

	want := []kindText{
		{token.Newline, ""},
		{token.Comment, " visible"},
		{token.Newline, ""},
		{token.SilentComment, " hidden"},
		{token.Newline, ""},
		{token.Pipe, "|"},
		{token.Text, "plain text"},
		{token.EOF, ""},
	}

	assertTokens(t, scan(t, src), want)
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{
			name:  "inconsistent dedent",
			input: "div\n    p\n  span",
			code:  lexer.CodeIndent,
		},
		{
			name:  "if without condition",
			input: "if",
			code:  lexer.CodeMissingClause,
		},
		{
			name:  "each without collection",
			input: "each item in",
			code:  lexer.CodeMissingClause,
		},
		{
			name:  "unterminated string",
			input: `p= "abc`,
			code:  lexer.CodeString,
		},
		{
			name:  "unterminated attribute list",
			input: `a(href="/x"`,
			code:  lexer.CodeBracket,
		},
		{
			name:  "unterminated interpolation",
			input: "p #{name",
			code:  lexer.CodeBracket,
		},
		{
			name:  "invalid class name",
			input: "div.123",
			code:  lexer.CodeInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lexer.New(tt.input).Scan()
			if err == nil {
				t.Fatalf("Scan(%q) succeeded, want error", tt.input)
			}

			lexErr := &lexer.Error{}
			if !errors.As(err, &lexErr) {
				t.Fatalf("error type = %T, want *lexer.Error", err)
			}

			if lexErr.Code != tt.code {
				t.Errorf("error code = %q, want %q", lexErr.Code, tt.code)
			}

			if lexErr.Line == 0 || lexErr.Column == 0 {
				t.Errorf("error position = %d:%d, want 1-based",
					lexErr.Line, lexErr.Column)
			}
		})
	}
}

func TestScan_BlankLinesIgnored(t *testing.T) {
	src := "div\n\n  p one\n\n  p two\n"

	var kinds []token.Kind
	for _, tok := range scan(t, src) {
		kinds = append(kinds, tok.Kind)
	}

	want := []token.Kind{
		token.Newline, token.Tag,
		token.Indent, token.Tag, token.Text,
		token.Newline, token.Tag, token.Text,
		token.Dedent, token.EOF,
	}

	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}

	for i, w := range want {
		if kinds[i] != w {
			t.Errorf("token[%d] = %v, want %v", i, kinds[i], w)
		}
	}
}
