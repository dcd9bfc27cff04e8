package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/plume/lang/ast"
	"github.com/ardnew/plume/lang/parser"
)

// Loader abstracts template file access for extends, include, and the
// mixins-directory fallback. Path resolution policy, base-directory
// handling, and escape prevention all live behind this interface.
type Loader interface {
	// Resolve maps a requested path, relative to the template that
	// requested it, to a canonical path usable with Read.
	Resolve(requested, from string) (string, error)

	// Read returns the source bytes of a previously resolved path.
	Read(resolved string) ([]byte, error)
}

// Resolver flattens extends chains, splices includes, and collects
// mixin definitions ahead of rendering.
type Resolver struct {
	loader   Loader
	mixinDir string
}

// NewResolver returns a resolver backed by the given loader. A nil
// loader resolves standalone documents only; any extends, include, or
// mixin fallback then fails with [ErrLoad].
func NewResolver(loader Loader, mixinDir string) *Resolver {
	if mixinDir == "" {
		mixinDir = "mixins"
	}

	return &Resolver{loader: loader, mixinDir: mixinDir}
}

// blockOverride is one collected block definition. Overrides accumulate
// child-first along the extends chain.
type blockOverride struct {
	mode     ast.BlockMode
	children []ast.Node
}

// Resolved is the render-ready form of a template: the terminal
// document's node list with named blocks expanded and includes
// spliced, plus the mixin table gathered from the whole chain.
type Resolved struct {
	Nodes  []ast.Node
	Mixins map[string]*ast.MixinDef

	resolver *Resolver
	origin   string
}

// Mixin looks up a definition collected during resolution, falling back
// to a one-file-per-mixin directory lookup through the loader. The
// fallback definition is memoized in the table.
func (r *Resolved) Mixin(name string) (*ast.MixinDef, error) {
	if def, ok := r.Mixins[name]; ok {
		return def, nil
	}

	if r.resolver != nil {
		if def := r.resolver.loadMixinFallback(name, r.origin); def != nil {
			r.Mixins[name] = def

			return def, nil
		}
	}

	err := NewError(fmt.Sprintf("mixin %q is not defined", name)).
		Wrap(ErrMixinUndefined).
		With(slog.String("mixin", name))

	if hints := suggestNames(name, r.mixinNames()); len(hints) > 0 {
		err = err.With(slog.String("didYouMean", strings.Join(hints, ", ")))
	}

	return nil, err
}

func (r *Resolved) mixinNames() []string {
	names := make([]string, 0, len(r.Mixins))
	for name := range r.Mixins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResolveSource parses and resolves template source. The origin path
// anchors relative extends and include paths; it may be empty for
// standalone documents.
func (r *Resolver) ResolveSource(source, origin string) (*Resolved, error) {
	doc, err := parser.Parse(source)
	if err != nil {
		return nil, NewParseError(err, source)
	}

	return r.ResolveDocument(doc, origin)
}

// ResolveDocument resolves a parsed document: the extends chain is
// followed to its terminal document, block overrides are applied, and
// includes are spliced in place.
func (r *Resolver) ResolveDocument(doc *ast.Document, origin string) (*Resolved, error) {
	state := &resolveState{
		resolver:  r,
		overrides: map[string][]blockOverride{},
		mixins:    map[string]*ast.MixinDef{},
		visited:   map[string]bool{},
	}

	nodes, err := state.flatten(doc, origin)
	if err != nil {
		return nil, err
	}

	nodes, err = state.expand(nodes, origin)
	if err != nil {
		return nil, err
	}

	state.collectMixins(nodes)

	return &Resolved{
		Nodes:    nodes,
		Mixins:   state.mixins,
		resolver: r,
		origin:   origin,
	}, nil
}

// resolveState carries the tables built while walking one extends
// chain. They are write-once during resolution and read-only after.
type resolveState struct {
	resolver  *Resolver
	overrides map[string][]blockOverride
	mixins    map[string]*ast.MixinDef
	visited   map[string]bool
}

// flatten follows the extends chain from doc to its terminal document,
// collecting each intermediate document's block overrides and mixins
// along the way.
func (s *resolveState) flatten(doc *ast.Document, origin string) ([]ast.Node, error) {
	if doc.ExtendsPath == "" {
		return doc.Nodes, nil
	}

	// An extending document contributes only overrides and mixin
	// definitions; its other top-level nodes are not rendered.
	s.collectOverrides(doc.Nodes)
	s.collectMixins(doc.Nodes)

	parent, resolved, err := s.load(doc.ExtendsPath, origin)
	if err != nil {
		return nil, err
	}

	if s.visited[resolved] {
		return nil, NewError(fmt.Sprintf("extends cycle through %q", resolved)).
			Wrap(ErrLoad).
			With(slog.String("path", resolved))
	}

	s.visited[resolved] = true

	return s.flatten(parent, resolved)
}

// load resolves, reads, and parses one template through the loader.
func (s *resolveState) load(requested, from string) (*ast.Document, string, error) {
	if s.resolver.loader == nil {
		return nil, "", NewError(fmt.Sprintf("cannot load %q without a loader", requested)).
			Wrap(ErrLoad).
			With(slog.String("path", requested))
	}

	resolved, err := s.resolver.loader.Resolve(requested, from)
	if err != nil {
		return nil, "", NewError(fmt.Sprintf("resolve %q", requested)).Wrap(err)
	}

	src, err := s.resolver.loader.Read(resolved)
	if err != nil {
		return nil, "", NewError(fmt.Sprintf("read %q", resolved)).Wrap(err)
	}

	doc, err := parser.Parse(string(src))
	if err != nil {
		perr := NewParseError(err, string(src))

		var pe *ParseError
		if errors.As(perr, &pe) {
			pe.Path = resolved
		}

		return nil, "", perr
	}

	return doc, resolved, nil
}

// collectOverrides records every named block of one document level.
// Duplicate names within a level are last-write-wins; the policy lives
// here so changing it touches nothing else.
func (s *resolveState) collectOverrides(nodes []ast.Node) {
	walkNodes(nodes, func(n ast.Node) {
		block, ok := n.(*ast.Block)
		if !ok || block.Name == "" {
			return
		}

		list := s.overrides[block.Name]
		s.overrides[block.Name] = append(list, blockOverride{
			mode:     block.Mode,
			children: block.Children,
		})
	})
}

// collectMixins records every mixin definition reachable from nodes,
// including definitions nested under control flow or elements.
// Last-write-wins on duplicate names.
func (s *resolveState) collectMixins(nodes []ast.Node) {
	walkNodes(nodes, func(n ast.Node) {
		if def, ok := n.(*ast.MixinDef); ok {
			s.mixins[def.Name] = def
		}
	})
}

// expand rewrites one node list: named blocks are replaced by their
// composed content and includes are spliced. Children are rewritten
// recursively so overrides apply at any depth of the terminal document.
func (s *resolveState) expand(nodes []ast.Node, origin string) ([]ast.Node, error) {
	out := make([]ast.Node, 0, len(nodes))

	for _, n := range nodes {
		switch n := n.(type) {
		case *ast.Block:
			if n.Name == "" {
				// Mixin-body placeholder, left for the backends.
				out = append(out, n)

				continue
			}

			content, err := s.expand(s.composeBlock(n), origin)
			if err != nil {
				return nil, err
			}

			out = append(out, content...)

		case *ast.Include:
			spliced, err := s.include(n, origin)
			if err != nil {
				return nil, err
			}

			out = append(out, spliced...)

		default:
			rewritten, err := s.expandChildren(n, origin)
			if err != nil {
				return nil, err
			}

			out = append(out, rewritten)
		}
	}

	return out, nil
}

// composeBlock applies the collected overrides for one named block to
// its original content. Overrides were collected child-first, so they
// apply in reverse: ancestors first, the nearest child last.
func (s *resolveState) composeBlock(block *ast.Block) []ast.Node {
	content := block.Children

	list := s.overrides[block.Name]
	for i := len(list) - 1; i >= 0; i-- {
		switch ov := list[i]; ov.mode {
		case ast.BlockReplace:
			content = ov.children

		case ast.BlockAppend:
			content = append(append([]ast.Node{}, content...), ov.children...)

		case ast.BlockPrepend:
			content = append(append([]ast.Node{}, ov.children...), content...)
		}
	}

	return content
}

// include loads one included file. Template files are parsed and their
// node list spliced in place, after collecting any mixins and applying
// expansion recursively; files included through a filter are not
// supported and fail with [ErrFilterUnknown].
func (s *resolveState) include(inc *ast.Include, origin string) ([]ast.Node, error) {
	if inc.Filter != "" {
		return nil, NewError(fmt.Sprintf("include filter %q", inc.Filter)).
			Wrap(ErrFilterUnknown).
			With(slog.String("filter", inc.Filter), slog.String("path", inc.Path))
	}

	if !isTemplatePath(inc.Path) {
		return s.includeRaw(inc, origin)
	}

	doc, resolved, err := s.load(inc.Path, origin)
	if err != nil {
		return nil, err
	}

	if doc.ExtendsPath != "" {
		return nil, NewError(fmt.Sprintf("included template %q must not extend", resolved)).
			Wrap(ErrLoad).
			With(slog.String("path", resolved))
	}

	s.collectMixins(doc.Nodes)

	return s.expand(doc.Nodes, resolved)
}

// includeRaw splices a non-template file verbatim as literal text.
func (s *resolveState) includeRaw(inc *ast.Include, origin string) ([]ast.Node, error) {
	if s.resolver.loader == nil {
		return nil, NewError(fmt.Sprintf("cannot load %q without a loader", inc.Path)).
			Wrap(ErrLoad).
			With(slog.String("path", inc.Path))
	}

	resolved, err := s.resolver.loader.Resolve(inc.Path, origin)
	if err != nil {
		return nil, NewError(fmt.Sprintf("resolve %q", inc.Path)).Wrap(err)
	}

	src, err := s.resolver.loader.Read(resolved)
	if err != nil {
		return nil, NewError(fmt.Sprintf("read %q", resolved)).Wrap(err)
	}

	text := &ast.Text{
		Src: ast.MakeSrc(inc.Pos().Line, inc.Pos().Column),
		Segments: []ast.Segment{
			{Kind: ast.SegmentLiteral, Text: string(src)},
		},
	}

	return []ast.Node{text}, nil
}

// expandChildren rewrites the child lists of one node in place.
func (s *resolveState) expandChildren(n ast.Node, origin string) (ast.Node, error) {
	rewrite := func(children []ast.Node) ([]ast.Node, error) {
		return s.expand(children, origin)
	}

	var err error

	switch n := n.(type) {
	case *ast.Element:
		n.Children, err = rewrite(n.Children)

	case *ast.Conditional:
		for i := range n.Branches {
			n.Branches[i].Children, err = rewrite(n.Branches[i].Children)
			if err != nil {
				return nil, err
			}
		}

	case *ast.Each:
		n.Children, err = rewrite(n.Children)
		if err != nil {
			return nil, err
		}

		n.ElseChildren, err = rewrite(n.ElseChildren)

	case *ast.While:
		n.Children, err = rewrite(n.Children)

	case *ast.Case:
		for i := range n.Whens {
			n.Whens[i].Children, err = rewrite(n.Whens[i].Children)
			if err != nil {
				return nil, err
			}
		}

		n.DefaultChildren, err = rewrite(n.DefaultChildren)

	case *ast.MixinDef:
		n.Children, err = rewrite(n.Children)

	case *ast.MixinCall:
		n.BlockChildren, err = rewrite(n.BlockChildren)

	case *ast.Comment:
		n.Children, err = rewrite(n.Children)
	}

	if err != nil {
		return nil, err
	}

	return n, nil
}

// loadMixinFallback attempts the conventional one-file-per-mixin
// directory lookup for an undefined mixin. Any failure along the way
// means the fallback simply does not apply.
func (r *Resolver) loadMixinFallback(name, origin string) *ast.MixinDef {
	if r.loader == nil {
		return nil
	}

	resolved, err := r.loader.Resolve(path.Join(r.mixinDir, name), origin)
	if err != nil {
		return nil
	}

	src, err := r.loader.Read(resolved)
	if err != nil {
		return nil
	}

	doc, err := parser.Parse(string(src))
	if err != nil {
		return nil
	}

	var found *ast.MixinDef

	walkNodes(doc.Nodes, func(n ast.Node) {
		if def, ok := n.(*ast.MixinDef); ok && def.Name == name {
			found = def
		}
	})

	return found
}

// isTemplatePath reports whether an include path names a template
// rather than a verbatim asset.
func isTemplatePath(p string) bool {
	ext := path.Ext(p)

	return ext == "" || ext == ".plume"
}

// walkNodes visits every node in the tree rooted at each entry of
// nodes, parents before children.
func walkNodes(nodes []ast.Node, visit func(ast.Node)) {
	for _, n := range nodes {
		if n == nil {
			continue
		}

		visit(n)

		switch n := n.(type) {
		case *ast.Document:
			walkNodes(n.Nodes, visit)

		case *ast.Element:
			walkNodes(n.Children, visit)

			for _, seg := range n.InlineText {
				if seg.Tag != nil {
					walkNodes([]ast.Node{seg.Tag}, visit)
				}
			}

		case *ast.Text:
			for _, seg := range n.Segments {
				if seg.Tag != nil {
					walkNodes([]ast.Node{seg.Tag}, visit)
				}
			}

		case *ast.Conditional:
			for _, br := range n.Branches {
				walkNodes(br.Children, visit)
			}

		case *ast.Each:
			walkNodes(n.Children, visit)
			walkNodes(n.ElseChildren, visit)

		case *ast.While:
			walkNodes(n.Children, visit)

		case *ast.Case:
			for _, arm := range n.Whens {
				walkNodes(arm.Children, visit)
			}

			walkNodes(n.DefaultChildren, visit)

		case *ast.MixinDef:
			walkNodes(n.Children, visit)

		case *ast.MixinCall:
			walkNodes(n.BlockChildren, visit)

		case *ast.Block:
			walkNodes(n.Children, visit)

		case *ast.Comment:
			walkNodes(n.Children, visit)
		}
	}
}

// suggestNames fuzzy-matches an unknown name against the known set for
// a "did you mean" hint. At most three suggestions are returned.
func suggestNames(name string, have []string) []string {
	matches := fuzzy.Find(name, have)

	var hints []string

	for _, m := range matches {
		hints = append(hints, m.Str)
		if len(hints) == 3 {
			break
		}
	}

	return hints
}
