// Package lang implements an indentation-significant HTML templating
// language: element shorthand with classes and ids, interpolated text,
// control flow, mixins, and template inheritance.
//
// Source text flows through a line-oriented lexer, a recursive-descent
// parser, and an inheritance resolver, producing a resolved node list
// that either of two backends consumes: a tree-walking interpreter for
// request-time rendering, or an ahead-of-time generator emitting Go
// source with one renderer function per template.
package lang

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Template is a compiled template: parsed and resolved once, rendered
// many times. A Template is safe for concurrent renders; each render
// runs on a fresh runtime.
type Template struct {
	source   string
	origin   string
	resolved *Resolved
	cfg      config
}

// Compile parses and resolves template source. Identical source and
// options return a cached Template, unless a loader is configured or
// caching is disabled.
func Compile(source string, opts ...Option) (*Template, error) {
	return compileCached(source, apply(defaultConfig(), opts...))
}

// CompileFile loads, parses, and resolves a template by path.
func CompileFile(loader Loader, path string, opts ...Option) (*Template, error) {
	cfg := apply(defaultConfig(), opts...)
	cfg.loader = loader

	origin, err := loader.Resolve(path, "")
	if err != nil {
		return nil, NewError(fmt.Sprintf("resolve %q", path)).Wrap(err)
	}

	src, err := loader.Read(origin)
	if err != nil {
		return nil, NewError(fmt.Sprintf("read %q", origin)).Wrap(err)
	}

	resolved, err := NewResolver(loader, cfg.mixinDir).ResolveSource(string(src), origin)
	if err != nil {
		return nil, err
	}

	return &Template{
		source:   string(src),
		origin:   origin,
		resolved: resolved,
		cfg:      cfg,
	}, nil
}

func compile(source string, cfg config) (*Template, error) {
	resolved, err := NewResolver(cfg.loader, cfg.mixinDir).ResolveSource(source, "")
	if err != nil {
		return nil, err
	}

	return &Template{source: source, resolved: resolved, cfg: cfg}, nil
}

// Source returns the template's original source text.
func (t *Template) Source() string { return t.source }

// Resolved returns the render-ready node list and mixin table.
func (t *Template) Resolved() *Resolved { return t.resolved }

// Render interprets the template against data, appending to buf.
func (t *Template) Render(buf *bytes.Buffer, data any) error {
	rt := &Runtime{resolved: t.resolved, cfg: t.cfg}

	return rt.Render(buf, data)
}

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// RenderString interprets the template against data and returns the
// output.
func (t *Template) RenderString(data any) (string, error) {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	defer bufPool.Put(buf)

	if err := t.Render(buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Generate writes the ahead-of-time Go renderer for this template. The
// template's compile options carry over; opts may override the output
// package and function naming.
func (t *Template) Generate(w io.Writer, opts ...Option) error {
	return generate(w, t.resolved, apply(t.cfg, opts...))
}

// RenderString compiles source and renders it against data in one call.
func RenderString(source string, data any, opts ...Option) (string, error) {
	t, err := Compile(source, opts...)
	if err != nil {
		return "", err
	}

	return t.RenderString(data)
}
