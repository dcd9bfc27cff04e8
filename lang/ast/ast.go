// Package ast defines the typed node model shared by the parser, the
// inheritance resolver, and both rendering backends.
//
// Each construct of the template language is one concrete node type
// behind the [Node] interface. Child slices are exclusively owned by
// their parent node; the resolver may borrow node slices from ancestor
// documents, and those slices must outlive the render or codegen pass
// that consumes them.
package ast

// Position locates a node in its source template.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every AST node variant.
type Node interface {
	Pos() Position
	node()
}

// Src is embedded by all node types to carry their source location.
type Src struct {
	Position Position
}

func (s Src) Pos() Position { return s.Position }

// MakeSrc builds the source-location embedding for a node.
func MakeSrc(line, column int) Src {
	return Src{Position: Position{Line: line, Column: column}}
}

// Document is the root of one parsed template.
type Document struct {
	Src

	Nodes []Node

	// ExtendsPath is the parent template path when the document opens
	// with an extends statement, empty otherwise.
	ExtendsPath string
}

// Doctype renders a document type declaration.
type Doctype struct {
	Src

	Value string
}

// Attribute is one attribute of an element or mixin call.
// Value is the raw expression text as written in the source: a quoted
// literal, object/array literal, concatenation, or bare reference.
// An empty Value denotes a boolean attribute.
type Attribute struct {
	Name    string
	Value   string
	Escaped bool
}

// Element renders one HTML element.
type Element struct {
	Src

	Tag        string
	Classes    []string
	ID         string
	Attributes []Attribute

	// SpreadAttributes is the &attributes(...) expression, if any.
	SpreadAttributes string

	Children []Node

	SelfClosing bool

	// InlineText is the text run on the element's own line.
	InlineText []Segment

	// BufferedCode is the expression after '=' or '!='; Escaped
	// distinguishes the two forms.
	BufferedCode string
	Escaped      bool
}

// SegmentKind classifies one part of a text run.
type SegmentKind int

const (
	// SegmentLiteral is verbatim text.
	SegmentLiteral SegmentKind = iota

	// SegmentEscaped is #{expr} interpolation, HTML-encoded on output.
	SegmentEscaped

	// SegmentUnescaped is !{expr} interpolation, passed through.
	SegmentUnescaped

	// SegmentTag is #[tag ...] inline-tag interpolation.
	SegmentTag
)

// String returns a printable name for the segment kind.
func (k SegmentKind) String() string {
	switch k {
	case SegmentLiteral:
		return "literal"
	case SegmentEscaped:
		return "escaped"
	case SegmentUnescaped:
		return "unescaped"
	case SegmentTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Segment is one part of a text run. Exactly one of Text or Tag is
// meaningful based on Kind.
type Segment struct {
	Kind SegmentKind
	Text string   // literal text or interpolation expression
	Tag  *Element // inline tag for SegmentTag
}

// Text is a run of literal text and interpolations.
type Text struct {
	Src

	Segments []Segment
}

// Branch is one arm of a conditional. A branch with an empty Condition
// is the trailing else.
type Branch struct {
	Condition string
	IsUnless  bool
	Children  []Node
}

// Conditional is an if/unless chain with an optional else.
type Conditional struct {
	Src

	Branches []Branch
}

// Each iterates a collection, rendering ElseChildren when the
// collection is empty or not iterable.
type Each struct {
	Src

	ValueName    string
	IndexName    string
	Collection   string
	Children     []Node
	ElseChildren []Node
}

// While re-evaluates its condition before each iteration.
type While struct {
	Src

	Condition string
	Children  []Node
}

// When is one arm of a case. An arm with an empty body and no break
// falls through to the next arm's body.
type When struct {
	Value    string
	Children []Node
	HasBreak bool
}

// Case dispatches on an expression with first-match-wins arms.
type Case struct {
	Src

	Expr            string
	Whens           []When
	DefaultChildren []Node
}

// MixinDef declares a named, parameterized template fragment.
// Defaults is parallel to Params; an empty string means no default.
// A trailing rest parameter collects surplus call arguments.
type MixinDef struct {
	Src

	Name     string
	Params   []string
	Defaults []string
	HasRest  bool
	RestName string
	Children []Node
}

// MixinCall expands a mixin by substitution at the call site.
type MixinCall struct {
	Src

	Name       string
	Args       []string
	Attributes []Attribute
	Spread     string
	Classes    []string
	ID         string

	// BlockChildren is the nested block content substituted for a block
	// placeholder inside the mixin body.
	BlockChildren []Node
}

// BlockMode selects how a child override combines with parent content.
type BlockMode int

const (
	// BlockReplace discards the original content.
	BlockReplace BlockMode = iota

	// BlockAppend renders original then override.
	BlockAppend

	// BlockPrepend renders override then original.
	BlockPrepend
)

// String returns a printable name for the block mode.
func (m BlockMode) String() string {
	switch m {
	case BlockReplace:
		return "replace"
	case BlockAppend:
		return "append"
	case BlockPrepend:
		return "prepend"
	default:
		return "unknown"
	}
}

// Block is a named, overridable content region. A Block with an empty
// Name is the block placeholder inside a mixin body.
type Block struct {
	Src

	Name     string
	Mode     BlockMode
	Children []Node
}

// Include splices another template, optionally through a named filter.
type Include struct {
	Src

	Path   string
	Filter string
}

// RawText is one verbatim line captured inside a dot block.
type RawText struct {
	Src

	Content string
}

// Comment is a template comment. Rendered comments emit an HTML
// comment; silent comments produce no output.
type Comment struct {
	Src

	Content  string
	Rendered bool
	Children []Node
}

func (*Document) node()    {}
func (*Doctype) node()     {}
func (*Element) node()     {}
func (*Text) node()        {}
func (*Conditional) node() {}
func (*Each) node()        {}
func (*While) node()       {}
func (*Case) node()        {}
func (*MixinDef) node()    {}
func (*MixinCall) node()   {}
func (*Block) node()       {}
func (*Include) node()     {}
func (*RawText) node()     {}
func (*Comment) node()     {}
